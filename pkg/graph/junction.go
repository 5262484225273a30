package graph

import (
	"github.com/ritzau/cross-streets/pkg/model"
	"gonum.org/v1/gonum/graph/multi"
)

// junctionGraph is the street network as an undirected multigraph: one
// gonum node per junction and one line per edge, so parallel segments and
// loops survive.
type junctionGraph struct {
	graph *multi.UndirectedGraph
	ids   map[model.ID]int64 // junction id -> graph node id
	lines map[int64]model.ID // graph line id -> edge id
}

func newJunctionGraph(nodeIDs, edgeIDs []model.ID, edges map[model.ID]*model.Edge) *junctionGraph {
	jg := &junctionGraph{
		graph: multi.NewUndirectedGraph(),
		ids:   make(map[model.ID]int64, len(nodeIDs)),
		lines: make(map[int64]model.ID, len(edgeIDs)),
	}

	for i, id := range nodeIDs {
		jg.ids[id] = int64(i)
		jg.graph.AddNode(multi.Node(i))
	}

	for i, id := range edgeIDs {
		e := edges[id]
		lid := int64(i)
		jg.graph.SetLine(multi.Line{
			F:   jg.graph.Node(jg.ids[e.Nodes[0]]),
			T:   jg.graph.Node(jg.ids[e.Nodes[1]]),
			UID: lid,
		})
		jg.lines[lid] = id
	}

	return jg
}

// incident returns the ids of all edges with node as an endpoint
func (jg *junctionGraph) incident(node model.ID) []model.ID {
	nid, ok := jg.ids[node]
	if !ok {
		return nil
	}

	var out []model.ID
	neighbors := jg.graph.From(nid)
	for neighbors.Next() {
		lines := jg.graph.Lines(nid, neighbors.Node().ID())
		for lines.Next() {
			out = append(out, jg.lines[lines.Line().ID()])
		}
	}
	return out
}
