// Package route owns the mutable half of the application: the selection of
// picked streets and the derived edge flags and cross-street count.
package route

import (
	"errors"
	"fmt"
	"sync"

	"github.com/ritzau/cross-streets/pkg/graph"
	"github.com/ritzau/cross-streets/pkg/logging"
	"github.com/ritzau/cross-streets/pkg/metrics"
	"github.com/ritzau/cross-streets/pkg/model"
	"github.com/ritzau/cross-streets/pkg/selection"
)

// Reasons passed to observers
const (
	ReasonToggled     = "toggled"
	ReasonEdgeClicked = "edge_clicked"
	ReasonRouteSet    = "route_set"
	ReasonReloaded    = "reloaded"
)

// State is a snapshot of the route after a propagation
type State struct {
	Route        string   `json:"route"`        // Encoded selection, the shareable "r" value
	Streets      []string `json:"streets"`      // Picked names that are streets
	Unknown      []string `json:"unknown"`      // Picked names matching no street
	CrossStreets int      `json:"crossStreets"` // May be negative
	PickedEdges  int      `json:"pickedEdges"`
	Revision     uint64   `json:"revision"` // Bumped after every propagation
}

// Observer is told about every new state. Observers run while the planner is
// locked and must not call back into it.
type Observer func(reason string, s State)

// Planner serializes selection changes. Each change runs to completion
// before the next is accepted: update selection, propagate picked flags,
// recount, bump the revision, notify observers.
type Planner struct {
	mu        sync.Mutex
	index     *graph.Index
	selection selection.Set
	count     int
	revision  uint64
	observers []Observer
}

// NewPlanner applies initial to idx and returns a planner owning both
func NewPlanner(idx *graph.Index, initial selection.Set) *Planner {
	p := &Planner{index: idx, selection: initial}
	p.propagate()
	return p
}

// OnChange registers an observer for subsequent state changes
func (p *Planner) OnChange(fn Observer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.observers = append(p.observers, fn)
}

// ErrUnknownEdge is returned by ToggleEdge for ids missing from the index
var ErrUnknownEdge = errors.New("unknown edge")

// Toggle flips a street in the selection. Names that match no street are
// still recorded so crafted links round-trip, but no edge changes.
func (p *Planner) Toggle(name string) State {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.toggle(name)
	return p.commit(ReasonToggled)
}

// ToggleEdge handles a pick on an edge by toggling the street that owns it
// and returns that street. An edge without a street changes nothing and
// yields "". Lookup and toggle run under one lock so the street always
// belongs to the index the returned state was computed on.
func (p *Planner) ToggleEdge(id model.ID) (State, string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.index.Edge(id); !ok {
		return p.snapshot(), "", fmt.Errorf("%w: %s", ErrUnknownEdge, id)
	}

	name, ok := p.index.StreetOf(id)
	if !ok {
		logging.Debug("ignoring pick on edge without street", "edge", id)
		return p.snapshot(), "", nil
	}

	p.toggle(name)
	return p.commit(ReasonEdgeClicked), name, nil
}

// toggle flips name and records the outcome; p.mu must be held
func (p *Planner) toggle(name string) {
	outcome := metrics.OutcomeKnown
	if len(p.index.StreetEdges(name)) == 0 {
		outcome = metrics.OutcomeUnknown
	}
	metrics.Toggles.WithLabelValues(outcome).Inc()

	logging.Debug("toggling street",
		"street", name,
		"picked", !p.selection.Has(name),
		"outcome", outcome,
	)
	p.selection = p.selection.Toggle(name)
}

// SetRoute replaces the selection with a decoded shareable parameter
func (p *Planner) SetRoute(param string) State {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.selection = selection.Decode(param)
	return p.commit(ReasonRouteSet)
}

// Reload swaps in a rebuilt index and re-applies the current selection to it
func (p *Planner) Reload(idx *graph.Index) State {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.index = idx
	return p.commit(ReasonReloaded)
}

// State returns the current snapshot
func (p *Planner) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snapshot()
}

// Selection returns the current selection
func (p *Planner) Selection() selection.Set {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.selection
}

// View runs fn with the index and the matching state while holding the lock,
// so the edge flags fn sees belong to that state. fn must not retain idx.
func (p *Planner) View(fn func(idx *graph.Index, s State)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fn(p.index, p.snapshot())
}

func (p *Planner) commit(reason string) State {
	changed := p.propagate()
	s := p.snapshot()

	logging.Info("route updated",
		"reason", reason,
		"route", s.Route,
		"crossStreets", s.CrossStreets,
		"changedEdges", changed,
		"revision", s.Revision,
	)
	for _, fn := range p.observers {
		fn(reason, s)
	}
	return s
}

// propagate re-applies the selection and recounts; p.mu must be held
func (p *Planner) propagate() int {
	changed := graph.Apply(p.index, p.selection)
	p.count = graph.CountCrossStreets(p.index)
	p.revision++

	known, _ := p.selection.Filter(p.index.HasStreet)
	metrics.CrossStreets.Set(float64(p.count))
	metrics.PickedStreets.Set(float64(len(known)))
	metrics.Revision.Set(float64(p.revision))

	return changed
}

func (p *Planner) snapshot() State {
	known, unknown := p.selection.Filter(p.index.HasStreet)
	return State{
		Route:        p.selection.Encode(),
		Streets:      known,
		Unknown:      unknown,
		CrossStreets: p.count,
		PickedEdges:  p.index.PickedEdges(),
		Revision:     p.revision,
	}
}
