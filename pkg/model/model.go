package model

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ID identifies a node or an edge. OSM exports use numeric ids while hand
// written datasets tend to use strings, so both decode into the same form.
type ID string

// UnmarshalJSON accepts either a JSON string or a JSON number
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id must be a string or a number: %w", err)
	}
	*id = ID(n.String())
	return nil
}

// Dataset is the static input document the graph index is built from
type Dataset struct {
	Nodes          map[ID]NodeFeature `json:"nodes"`
	Edges          map[ID]EdgeFeature `json:"edges"`
	StreetIndex    map[string][]ID    `json:"streetIndex"`
	RevStreetIndex map[ID]string      `json:"revStreetIndex,omitempty"`
}

// NodeFeature is a GeoJSON feature describing a junction
type NodeFeature struct {
	Type       string          `json:"type,omitempty"`
	Geometry   json.RawMessage `json:"geometry,omitempty"`
	Properties NodeProperties  `json:"properties"`
}

// NodeProperties holds the junction attributes used by the core
type NodeProperties struct {
	StreetCount int `json:"streetCount"`
}

// EdgeFeature is a GeoJSON feature describing one street segment
type EdgeFeature struct {
	Type       string          `json:"type,omitempty"`
	Geometry   json.RawMessage `json:"geometry,omitempty"`
	Properties EdgeProperties  `json:"properties"`
}

// EdgeProperties holds the segment attributes used by the core
type EdgeProperties struct {
	ID    ID   `json:"id,omitempty"`
	Nodes []ID `json:"nodes"`
}

// Node is a junction in the street graph. Immutable after load.
type Node struct {
	ID          ID              `json:"id"`
	StreetCount int             `json:"streetCount"` // Number of distinct streets meeting here
	Geometry    json.RawMessage `json:"geometry,omitempty"`
}

// Edge is a single street segment between two junctions.
// Picked is derived from the selection and rewritten on every change.
type Edge struct {
	ID       ID              `json:"id"`
	Nodes    [2]ID           `json:"nodes"`
	Street   string          `json:"street"` // Empty when no street claims the edge
	Picked   bool            `json:"picked"`
	Geometry json.RawMessage `json:"geometry,omitempty"`
}

// Touches reports whether the edge has n as one of its endpoints
func (e *Edge) Touches(n ID) bool {
	return e.Nodes[0] == n || e.Nodes[1] == n
}
