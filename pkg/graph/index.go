package graph

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/ritzau/cross-streets/pkg/model"
)

// Index holds the lookup structures derived once from a dataset.
// The mappings are read-only after Build; only the Picked flag on each edge
// changes, and only through Apply.
type Index struct {
	streets  map[string][]model.ID    // street name -> edge ids
	streetOf map[model.ID]string      // edge id -> street name
	nodes    map[model.ID]*model.Node // node id -> node
	edges    map[model.ID]*model.Edge // edge id -> edge
	names    []string                 // sorted street names
	nodeIDs  []model.ID               // sorted node ids
	edgeIDs  []model.ID               // sorted edge ids
	junction *junctionGraph
}

// Load reads a JSON dataset from path and builds an index from it
func Load(path string) (*Index, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening dataset: %w", err)
	}
	defer f.Close()

	var ds model.Dataset
	if err := json.NewDecoder(f).Decode(&ds); err != nil {
		return nil, fmt.Errorf("decoding dataset %s: %w", path, err)
	}

	return Build(&ds)
}

// Build constructs the index from raw input. Any dangling or conflicting
// reference fails with a *MalformedInputError.
func Build(ds *model.Dataset) (*Index, error) {
	if ds == nil {
		return nil, fmt.Errorf("building index: nil dataset")
	}

	idx := &Index{
		streets:  make(map[string][]model.ID, len(ds.StreetIndex)),
		streetOf: make(map[model.ID]string, len(ds.Edges)),
		nodes:    make(map[model.ID]*model.Node, len(ds.Nodes)),
		edges:    make(map[model.ID]*model.Edge, len(ds.Edges)),
	}

	for id, f := range ds.Nodes {
		idx.nodes[id] = &model.Node{
			ID:          id,
			StreetCount: f.Properties.StreetCount,
			Geometry:    f.Geometry,
		}
		idx.nodeIDs = append(idx.nodeIDs, id)
	}
	sortIDs(idx.nodeIDs)

	for id := range ds.Edges {
		idx.edgeIDs = append(idx.edgeIDs, id)
	}
	sortIDs(idx.edgeIDs)

	for _, id := range idx.edgeIDs {
		f := ds.Edges[id]
		if f.Properties.ID != "" && f.Properties.ID != id {
			return nil, malformedEdge(id, "carries mismatched id", f.Properties.ID)
		}
		if len(f.Properties.Nodes) != 2 {
			return nil, malformedEdge(id, fmt.Sprintf("has %d endpoints, want 2", len(f.Properties.Nodes)), "")
		}
		for _, n := range f.Properties.Nodes {
			if _, ok := idx.nodes[n]; !ok {
				return nil, malformedEdge(id, "references unknown node", n)
			}
		}
		idx.edges[id] = &model.Edge{
			ID:       id,
			Nodes:    [2]model.ID{f.Properties.Nodes[0], f.Properties.Nodes[1]},
			Geometry: f.Geometry,
		}
	}

	for name := range ds.StreetIndex {
		idx.names = append(idx.names, name)
	}
	sort.Strings(idx.names)

	for _, name := range idx.names {
		// "" marks an edge without a street and is what a stray comma decodes to
		if name == "" {
			return nil, malformedStreet(name, "has an empty name", "")
		}
		seen := make(map[model.ID]bool)
		for _, id := range ds.StreetIndex[name] {
			edge, ok := idx.edges[id]
			if !ok {
				return nil, malformedStreet(name, "references unknown edge", id)
			}
			if seen[id] {
				continue
			}
			seen[id] = true

			if owner, claimed := idx.streetOf[id]; claimed {
				return nil, malformedStreet(name, "claims edge already owned by "+owner, id)
			}
			idx.streetOf[id] = name
			idx.streets[name] = append(idx.streets[name], id)
			edge.Street = name
		}
		if _, ok := idx.streets[name]; !ok {
			idx.streets[name] = nil
		}
	}

	// The reverse index is optional; when present it must agree with streetIndex
	revIDs := make([]model.ID, 0, len(ds.RevStreetIndex))
	for id := range ds.RevStreetIndex {
		revIDs = append(revIDs, id)
	}
	sortIDs(revIDs)
	for _, id := range revIDs {
		name := ds.RevStreetIndex[id]
		if _, ok := idx.edges[id]; !ok {
			return nil, malformedEdge(id, "in reverse street index does not exist", "")
		}
		if owner := idx.streetOf[id]; owner != name {
			return nil, malformedEdge(id, fmt.Sprintf("maps to street %q in reverse index but %q in street index", name, owner), "")
		}
	}

	idx.junction = newJunctionGraph(idx.nodeIDs, idx.edgeIDs, idx.edges)

	return idx, nil
}

// Streets returns all street names in sorted order
func (idx *Index) Streets() []string {
	out := make([]string, len(idx.names))
	copy(out, idx.names)
	return out
}

// HasStreet reports whether name is a known street
func (idx *Index) HasStreet(name string) bool {
	_, ok := idx.streets[name]
	return ok
}

// StreetEdges returns the edge ids belonging to a street
func (idx *Index) StreetEdges(name string) []model.ID {
	ids := idx.streets[name]
	out := make([]model.ID, len(ids))
	copy(out, ids)
	return out
}

// StreetOf returns the street owning an edge
func (idx *Index) StreetOf(edge model.ID) (string, bool) {
	name, ok := idx.streetOf[edge]
	return name, ok
}

// Node returns a node by id
func (idx *Index) Node(id model.ID) (*model.Node, bool) {
	n, ok := idx.nodes[id]
	return n, ok
}

// Edge returns an edge by id
func (idx *Index) Edge(id model.ID) (*model.Edge, bool) {
	e, ok := idx.edges[id]
	return e, ok
}

// Nodes returns all nodes sorted by id
func (idx *Index) Nodes() []*model.Node {
	out := make([]*model.Node, 0, len(idx.nodeIDs))
	for _, id := range idx.nodeIDs {
		out = append(out, idx.nodes[id])
	}
	return out
}

// Edges returns all edges sorted by id
func (idx *Index) Edges() []*model.Edge {
	out := make([]*model.Edge, 0, len(idx.edgeIDs))
	for _, id := range idx.edgeIDs {
		out = append(out, idx.edges[id])
	}
	return out
}

// PickedEdges returns the number of edges currently flagged as picked
func (idx *Index) PickedEdges() int {
	n := 0
	for _, e := range idx.edges {
		if e.Picked {
			n++
		}
	}
	return n
}

// Junction returns the sorted, distinct names of the streets whose edges
// meet at a node. Edges without a street are not counted.
func (idx *Index) Junction(node model.ID) ([]string, bool) {
	if _, ok := idx.nodes[node]; !ok {
		return nil, false
	}

	names := make(map[string]bool)
	for _, id := range idx.junction.incident(node) {
		if street := idx.edges[id].Street; street != "" {
			names[street] = true
		}
	}

	out := make([]string, 0, len(names))
	for name := range names {
		out = append(out, name)
	}
	sort.Strings(out)
	return out, true
}

// IncidentEdges returns the sorted ids of the edges touching a node
func (idx *Index) IncidentEdges(node model.ID) []model.ID {
	ids := idx.junction.incident(node)
	sortIDs(ids)
	return ids
}

func sortIDs(ids []model.ID) {
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
}
