package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/gorilla/mux"
	"github.com/ritzau/cross-streets/pkg/graph"
	"github.com/ritzau/cross-streets/pkg/logging"
	"github.com/ritzau/cross-streets/pkg/model"
	"github.com/ritzau/cross-streets/pkg/route"
	"github.com/ritzau/cross-streets/pkg/selection"
)

// EdgeProperties are the GeoJSON properties of an edge feature
type EdgeProperties struct {
	ID     model.ID    `json:"id"`
	Street string      `json:"street,omitempty"`
	Nodes  [2]model.ID `json:"nodes"`
	Picked bool        `json:"picked"`
}

// NodeProperties are the GeoJSON properties of a node feature. A node is
// picked when a picked edge touches it.
type NodeProperties struct {
	ID          model.ID `json:"id"`
	StreetCount int      `json:"streetCount"`
	Picked      bool     `json:"picked"`
}

// EdgeFeature is a GeoJSON feature for an edge
type EdgeFeature struct {
	Type       string          `json:"type"`
	Geometry   json.RawMessage `json:"geometry"`
	Properties EdgeProperties  `json:"properties"`
}

// NodeFeature is a GeoJSON feature for a node
type NodeFeature struct {
	Type       string          `json:"type"`
	Geometry   json.RawMessage `json:"geometry"`
	Properties NodeProperties  `json:"properties"`
}

// EdgeCollection is a GeoJSON FeatureCollection of edges
type EdgeCollection struct {
	Type     string        `json:"type"`
	Features []EdgeFeature `json:"features"`
}

// NodeCollection is a GeoJSON FeatureCollection of nodes
type NodeCollection struct {
	Type     string        `json:"type"`
	Features []NodeFeature `json:"features"`
}

// GraphData holds the street graph for rendering
type GraphData struct {
	Edges        EdgeCollection `json:"edges"`
	Nodes        NodeCollection `json:"nodes"`
	Route        string         `json:"route"`
	CrossStreets int            `json:"crossStreets"`
	Revision     uint64         `json:"revision"`
}

// StreetInfo is one entry of the street list
type StreetInfo struct {
	Name   string `json:"name"`
	Edges  int    `json:"edges"`
	Picked bool   `json:"picked"`
}

// NodeInfo describes a junction
type NodeInfo struct {
	ID          model.ID   `json:"id"`
	StreetCount int        `json:"streetCount"`
	Streets     []string   `json:"streets"`
	Edges       []model.ID `json:"edges"`
	Picked      bool       `json:"picked"`
}

// ClickResult is the response to an edge pick
type ClickResult struct {
	Street  string      `json:"street,omitempty"`
	Changed bool        `json:"changed"`
	State   route.State `json:"state"`
}

func writeJSON(w http.ResponseWriter, r *http.Request, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.DebugContext(r.Context(), "failed to write response", "error", err)
	}
}

// pathVar returns a decoded route variable; the router matches on the
// encoded path
func pathVar(w http.ResponseWriter, r *http.Request, key string) (string, bool) {
	v, err := url.PathUnescape(mux.Vars(r)[key])
	if err != nil {
		http.Error(w, fmt.Sprintf("Invalid %s: %v", key, err), http.StatusBadRequest)
		return "", false
	}
	return v, true
}

func (s *Server) handleGraph(w http.ResponseWriter, r *http.Request) {
	var data *GraphData
	s.planner.View(func(idx *graph.Index, st route.State) {
		data = buildGraphData(idx, st)
	})
	writeJSON(w, r, data)
}

func buildGraphData(idx *graph.Index, st route.State) *GraphData {
	touched := graph.TouchedNodes(idx)

	data := &GraphData{
		Edges:        EdgeCollection{Type: "FeatureCollection", Features: []EdgeFeature{}},
		Nodes:        NodeCollection{Type: "FeatureCollection", Features: []NodeFeature{}},
		Route:        st.Route,
		CrossStreets: st.CrossStreets,
		Revision:     st.Revision,
	}

	for _, e := range idx.Edges() {
		data.Edges.Features = append(data.Edges.Features, EdgeFeature{
			Type:     "Feature",
			Geometry: e.Geometry,
			Properties: EdgeProperties{
				ID:     e.ID,
				Street: e.Street,
				Nodes:  e.Nodes,
				Picked: e.Picked,
			},
		})
	}

	for _, n := range idx.Nodes() {
		data.Nodes.Features = append(data.Nodes.Features, NodeFeature{
			Type:     "Feature",
			Geometry: n.Geometry,
			Properties: NodeProperties{
				ID:          n.ID,
				StreetCount: n.StreetCount,
				Picked:      touched[n.ID],
			},
		})
	}

	return data
}

func (s *Server) handleRoute(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, s.planner.State())
}

func (s *Server) handleSetRoute(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if !q.Has(selection.Param) {
		http.Error(w, fmt.Sprintf("Query parameter %q required", selection.Param), http.StatusBadRequest)
		return
	}

	writeJSON(w, r, s.planner.SetRoute(q.Get(selection.Param)))
}

func (s *Server) handleStreets(w http.ResponseWriter, r *http.Request) {
	streets := []StreetInfo{}
	s.planner.View(func(idx *graph.Index, st route.State) {
		picked := make(map[string]bool, len(st.Streets))
		for _, name := range st.Streets {
			picked[name] = true
		}
		for _, name := range idx.Streets() {
			streets = append(streets, StreetInfo{
				Name:   name,
				Edges:  len(idx.StreetEdges(name)),
				Picked: picked[name],
			})
		}
	})
	writeJSON(w, r, streets)
}

// handleToggleStreet accepts names that match no street; they are kept in
// the route and change nothing else
func (s *Server) handleToggleStreet(w http.ResponseWriter, r *http.Request) {
	name, ok := pathVar(w, r, "name")
	if !ok {
		return
	}
	writeJSON(w, r, s.planner.Toggle(name))
}

func (s *Server) handleEdgeClick(w http.ResponseWriter, r *http.Request) {
	raw, ok := pathVar(w, r, "id")
	if !ok {
		return
	}

	st, street, err := s.planner.ToggleEdge(model.ID(raw))
	if errors.Is(err, route.ErrUnknownEdge) {
		http.Error(w, fmt.Sprintf("Edge not found: %s", raw), http.StatusNotFound)
		return
	}
	writeJSON(w, r, ClickResult{Street: street, Changed: street != "", State: st})
}

func (s *Server) handleNode(w http.ResponseWriter, r *http.Request) {
	raw, ok := pathVar(w, r, "id")
	if !ok {
		return
	}
	id := model.ID(raw)

	var (
		info  *NodeInfo
		found bool
	)
	s.planner.View(func(idx *graph.Index, _ route.State) {
		n, ok := idx.Node(id)
		if !ok {
			return
		}
		found = true
		streets, _ := idx.Junction(id)
		info = &NodeInfo{
			ID:          n.ID,
			StreetCount: n.StreetCount,
			Streets:     streets,
			Edges:       idx.IncidentEdges(id),
			Picked:      graph.TouchedNodes(idx)[id],
		}
	})
	if !found {
		http.Error(w, fmt.Sprintf("Node not found: %s", id), http.StatusNotFound)
		return
	}

	writeJSON(w, r, info)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	st := s.planner.State()
	writeJSON(w, r, map[string]any{
		"status":   "ok",
		"data":     s.opts.DataPath,
		"revision": st.Revision,
	})
}
