package route

import (
	"bytes"
	"log/slog"
	"os"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/ritzau/cross-streets/pkg/graph"
	"github.com/ritzau/cross-streets/pkg/graph/graphtest"
	"github.com/ritzau/cross-streets/pkg/logging"
	"github.com/ritzau/cross-streets/pkg/metrics"
	"github.com/ritzau/cross-streets/pkg/selection"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPlanner(t *testing.T, initial ...string) *Planner {
	t.Helper()
	return NewPlanner(graphtest.Index(t), selection.New(initial...))
}

// assertConsistent checks that every edge flag and the count match the state
func assertConsistent(t *testing.T, p *Planner) {
	t.Helper()
	p.View(func(idx *graph.Index, s State) {
		sel := selection.Decode(s.Route)
		for _, name := range idx.Streets() {
			for _, id := range idx.StreetEdges(name) {
				e, _ := idx.Edge(id)
				assert.Equal(t, sel.Has(name), e.Picked, "edge %s of %s", id, name)
			}
		}
		assert.Equal(t, graph.CountCrossStreets(idx), s.CrossStreets)
	})
}

func TestNewPlannerAppliesInitialSelection(t *testing.T) {
	p := newPlanner(t, graphtest.Main)

	s := p.State()
	assert.Equal(t, graphtest.Main, s.Route)
	assert.Equal(t, 2, s.CrossStreets)
	assert.Equal(t, 2, s.PickedEdges)
	assert.Equal(t, uint64(1), s.Revision)
	assertConsistent(t, p)
}

func TestEmptyPlanner(t *testing.T) {
	p := newPlanner(t)
	s := p.State()
	assert.Equal(t, "", s.Route)
	assert.Equal(t, 0, s.CrossStreets)
	assert.Empty(t, s.Streets)
}

func TestToggleSingleStreet(t *testing.T) {
	p := newPlanner(t)

	s := p.Toggle(graphtest.Oak)
	assert.Equal(t, []string{graphtest.Oak}, s.Streets)
	// n3 (3 streets) + n6 (2 streets)
	assert.Equal(t, 1, s.CrossStreets)
	assertConsistent(t, p)
}

func TestToggleSequence(t *testing.T) {
	p := newPlanner(t)

	steps := []struct {
		street string
		route  string
		count  int
	}{
		{graphtest.Main, "Main St", 2},
		{graphtest.Elm, "Elm St,Main St", 0},
		{graphtest.Oak, "Elm St,Main St,Oak Ave", 0},
		{graphtest.Elm, "Main St,Oak Ave", 2},
		{graphtest.DeadEnd, "Dead End Rd,Main St,Oak Ave", 1},
	}

	for _, step := range steps {
		s := p.Toggle(step.street)
		assert.Equal(t, step.route, s.Route, "after toggling %s", step.street)
		assert.Equal(t, step.count, s.CrossStreets, "after toggling %s", step.street)
		assertConsistent(t, p)
	}
}

func TestToggleUnknownStreetIsNoOp(t *testing.T) {
	p := newPlanner(t, graphtest.Main)
	before := p.State()

	s := p.Toggle("Nowhere Ln")
	assert.Equal(t, before.CrossStreets, s.CrossStreets)
	assert.Equal(t, before.PickedEdges, s.PickedEdges)
	assert.Equal(t, before.Streets, s.Streets)
	assert.Equal(t, []string{"Nowhere Ln"}, s.Unknown)
	assert.Equal(t, "Main St,Nowhere Ln", s.Route, "unknown names stay in the shareable route")
	assertConsistent(t, p)
}

func TestFullDeselection(t *testing.T) {
	p := newPlanner(t, graphtest.Main, graphtest.Elm, graphtest.Oak)
	for _, name := range p.Selection().Names() {
		p.Toggle(name)
	}

	s := p.State()
	assert.Equal(t, 0, s.CrossStreets)
	assert.Equal(t, "", s.Route)
	assert.Equal(t, 0, s.PickedEdges)
	assert.Equal(t, 0, p.Selection().Len())
}

func TestToggleEdge(t *testing.T) {
	p := newPlanner(t)

	s, street, err := p.ToggleEdge("e2")
	require.NoError(t, err)
	assert.Equal(t, graphtest.Main, street)
	assert.Equal(t, []string{graphtest.Main}, s.Streets)

	s, street, err = p.ToggleEdge("e1")
	require.NoError(t, err)
	assert.Equal(t, graphtest.Main, street)
	assert.Empty(t, s.Streets, "clicking another edge of the same street unpicks it")
	assertConsistent(t, p)
}

func TestToggleEdgeWithoutStreet(t *testing.T) {
	p := newPlanner(t, graphtest.Oak)
	before := p.State()

	s, street, err := p.ToggleEdge("e7")
	require.NoError(t, err)
	assert.Empty(t, street)
	assert.Equal(t, before, s)
}

func TestToggleEdgeUnknown(t *testing.T) {
	p := newPlanner(t, graphtest.Oak)
	before := p.State()

	s, street, err := p.ToggleEdge("e404")
	assert.ErrorIs(t, err, ErrUnknownEdge)
	assert.Empty(t, street)
	assert.Equal(t, before, s)
}

// The street reported for a click must come from the index the state was
// computed on, even when a reload swaps the index in between clicks.
func TestToggleEdgeAfterReloadUsesNewIndex(t *testing.T) {
	p := newPlanner(t)

	ds := graphtest.Dataset(t)
	ds.StreetIndex[graphtest.Oak] = append(ds.StreetIndex[graphtest.Oak], "e7")
	delete(ds.RevStreetIndex, "e7")
	idx, err := graph.Build(ds)
	require.NoError(t, err)
	p.Reload(idx)

	s, street, err := p.ToggleEdge("e7")
	require.NoError(t, err)
	assert.Equal(t, graphtest.Oak, street)
	assert.Equal(t, 2, s.PickedEdges)
	assertConsistent(t, p)
}

func TestToggleOutcomes(t *testing.T) {
	p := newPlanner(t)
	known := testutil.ToFloat64(metrics.Toggles.WithLabelValues(metrics.OutcomeKnown))
	unknown := testutil.ToFloat64(metrics.Toggles.WithLabelValues(metrics.OutcomeUnknown))

	p.Toggle(graphtest.Main)
	_, _, err := p.ToggleEdge("e5")
	require.NoError(t, err)
	p.Toggle("Nowhere Ln")
	_, _, err = p.ToggleEdge("e7")
	require.NoError(t, err)

	assert.Equal(t, known+2, testutil.ToFloat64(metrics.Toggles.WithLabelValues(metrics.OutcomeKnown)))
	assert.Equal(t, unknown+1, testutil.ToFloat64(metrics.Toggles.WithLabelValues(metrics.OutcomeUnknown)))
}

func TestToggleEdgeLogsAtDebug(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, logging.Configure(&buf, slog.LevelDebug, "compact"))
	t.Cleanup(func() { _ = logging.Configure(os.Stdout, slog.LevelInfo, "compact") })

	p := newPlanner(t)
	_, _, err := p.ToggleEdge("e3")
	require.NoError(t, err)

	assert.Contains(t, buf.String(), "toggling street")
	assert.Contains(t, buf.String(), graphtest.Elm)
}

func TestSetRoute(t *testing.T) {
	p := newPlanner(t, graphtest.Oak)

	s := p.SetRoute("Main St,Elm St")
	assert.Equal(t, "Elm St,Main St", s.Route)
	assert.Equal(t, 0, s.CrossStreets)
	assertConsistent(t, p)

	s = p.SetRoute("Main St,")
	assert.Equal(t, []string{""}, s.Unknown, "trailing comma decodes to an empty name")
	assert.Equal(t, 2, s.CrossStreets)

	s = p.SetRoute("")
	assert.Equal(t, 0, s.CrossStreets)
	assert.Equal(t, 0, s.PickedEdges)
}

func TestRevisionIncreases(t *testing.T) {
	p := newPlanner(t)
	last := p.State().Revision

	ops := []func() State{
		func() State { return p.Toggle(graphtest.Main) },
		func() State { return p.Toggle("Nowhere Ln") },
		func() State { return p.SetRoute("Oak Ave") },
		func() State { return p.Reload(graphtest.Index(t)) },
	}
	for _, op := range ops {
		s := op()
		assert.Greater(t, s.Revision, last)
		last = s.Revision
	}
}

func TestReloadReappliesSelection(t *testing.T) {
	p := newPlanner(t, graphtest.Main)

	fresh := graphtest.Index(t)
	s := p.Reload(fresh)
	assert.Equal(t, 2, s.CrossStreets)

	e1, _ := fresh.Edge("e1")
	assert.True(t, e1.Picked, "selection applied to the new index")
}

func TestObserversSeeEveryChange(t *testing.T) {
	p := newPlanner(t)

	var reasons []string
	var counts []int
	p.OnChange(func(reason string, s State) {
		reasons = append(reasons, reason)
		counts = append(counts, s.CrossStreets)
	})

	p.Toggle(graphtest.Main)
	p.ToggleEdge("e5")
	p.ToggleEdge("e7")
	p.ToggleEdge("e404")
	p.SetRoute("")

	assert.Equal(t, []string{ReasonToggled, ReasonEdgeClicked, ReasonRouteSet}, reasons)
	assert.Equal(t, []int{2, 2, 0}, counts)
}

func TestConcurrentTogglesStayConsistent(t *testing.T) {
	p := newPlanner(t)
	streets := []string{graphtest.Main, graphtest.Elm, graphtest.Oak, graphtest.DeadEnd}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 25; j++ {
				p.Toggle(streets[(i+j)%len(streets)])
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, uint64(1+8*25), p.State().Revision)
	assertConsistent(t, p)
}
