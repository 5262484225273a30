package graph

// Selection is the membership test Apply needs from a set of picked streets
type Selection interface {
	Has(name string) bool
}

// Apply writes the selection onto every edge: each edge of street s ends up
// with Picked == sel.Has(s). Every street in the index is visited so streets
// dropped from the selection get unpicked. Selected names that are not
// streets are ignored. Returns the number of edges whose flag changed.
func Apply(idx *Index, sel Selection) int {
	changed := 0
	for _, name := range idx.names {
		state := sel.Has(name)
		for _, id := range idx.streets[name] {
			e := idx.edges[id]
			if e.Picked != state {
				e.Picked = state
				changed++
			}
		}
	}
	return changed
}
