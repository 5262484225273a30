package graph

import "github.com/ritzau/cross-streets/pkg/model"

// TouchedNodes returns the set of nodes that are an endpoint of at least one
// picked edge
func TouchedNodes(idx *Index) map[model.ID]bool {
	touched := make(map[model.ID]bool)
	for _, id := range idx.edgeIDs {
		e := idx.edges[id]
		if !e.Picked {
			continue
		}
		touched[e.Nodes[0]] = true
		touched[e.Nodes[1]] = true
	}
	return touched
}

// CountCrossStreets sums StreetCount-2 over every touched node. A junction
// where only the route itself passes through contributes nothing. The sum is
// not clamped: dead ends (StreetCount 1) pull it down.
func CountCrossStreets(idx *Index) int {
	count := 0
	for id := range TouchedNodes(idx) {
		count += idx.nodes[id].StreetCount - 2
	}
	return count
}
