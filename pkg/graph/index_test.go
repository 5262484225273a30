package graph_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/ritzau/cross-streets/pkg/graph"
	"github.com/ritzau/cross-streets/pkg/graph/graphtest"
	"github.com/ritzau/cross-streets/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildIndexesFixture(t *testing.T) {
	idx := graphtest.Index(t)

	assert.Equal(t, []string{graphtest.DeadEnd, graphtest.Elm, graphtest.Main, graphtest.Oak}, idx.Streets())
	assert.Equal(t, []model.ID{"e1", "e2"}, idx.StreetEdges(graphtest.Main))
	assert.Len(t, idx.Nodes(), 7)
	assert.Len(t, idx.Edges(), 7)

	street, ok := idx.StreetOf("e4")
	require.True(t, ok)
	assert.Equal(t, graphtest.Elm, street)

	_, ok = idx.StreetOf("e7")
	assert.False(t, ok, "unnamed edge should have no street")

	n2, ok := idx.Node("n2")
	require.True(t, ok)
	assert.Equal(t, 4, n2.StreetCount)

	e5, ok := idx.Edge("e5")
	require.True(t, ok)
	assert.Equal(t, [2]model.ID{"n3", "n6"}, e5.Nodes)
	assert.Equal(t, graphtest.Oak, e5.Street)
	assert.False(t, e5.Picked)
}

func TestBuildDerivesMissingReverseIndex(t *testing.T) {
	ds := graphtest.Dataset(t)
	ds.RevStreetIndex = nil

	idx, err := graph.Build(ds)
	require.NoError(t, err)

	street, ok := idx.StreetOf("e6")
	require.True(t, ok)
	assert.Equal(t, graphtest.DeadEnd, street)
}

func TestBuildRejectsMalformedInput(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(ds *model.Dataset)
		kind   string
		ref    string
	}{
		{
			name: "edge references unknown node",
			mutate: func(ds *model.Dataset) {
				e := ds.Edges["e1"]
				e.Properties.Nodes = []model.ID{"n1", "n99"}
				ds.Edges["e1"] = e
			},
			kind: "edge",
			ref:  "e1",
		},
		{
			name: "edge with one endpoint",
			mutate: func(ds *model.Dataset) {
				e := ds.Edges["e2"]
				e.Properties.Nodes = []model.ID{"n2"}
				ds.Edges["e2"] = e
			},
			kind: "edge",
			ref:  "e2",
		},
		{
			name: "edge id mismatch",
			mutate: func(ds *model.Dataset) {
				e := ds.Edges["e3"]
				e.Properties.ID = "e33"
				ds.Edges["e3"] = e
			},
			kind: "edge",
			ref:  "e3",
		},
		{
			name: "street references unknown edge",
			mutate: func(ds *model.Dataset) {
				ds.StreetIndex[graphtest.Oak] = append(ds.StreetIndex[graphtest.Oak], "e404")
			},
			kind: "street",
			ref:  graphtest.Oak,
		},
		{
			name: "edge claimed by two streets",
			mutate: func(ds *model.Dataset) {
				ds.StreetIndex[graphtest.Oak] = append(ds.StreetIndex[graphtest.Oak], "e1")
			},
			kind: "street",
			ref:  graphtest.Oak, // streets are claimed in sorted order, Main St wins
		},
		{
			name: "street with empty name",
			mutate: func(ds *model.Dataset) {
				ds.StreetIndex[""] = []model.ID{"e7"}
			},
			kind: "street",
			ref:  "",
		},
		{
			name: "reverse index disagrees",
			mutate: func(ds *model.Dataset) {
				ds.RevStreetIndex["e5"] = graphtest.Main
			},
			kind: "edge",
			ref:  "e5",
		},
		{
			name: "reverse index names unknown edge",
			mutate: func(ds *model.Dataset) {
				ds.RevStreetIndex["e404"] = graphtest.Main
			},
			kind: "edge",
			ref:  "e404",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ds := graphtest.Dataset(t)
			tt.mutate(ds)

			idx, err := graph.Build(ds)
			require.Error(t, err)
			assert.Nil(t, idx)

			var malformed *graph.MalformedInputError
			require.True(t, errors.As(err, &malformed), "expected MalformedInputError, got %T: %v", err, err)
			assert.Equal(t, tt.kind, malformed.Kind)
			assert.Equal(t, tt.ref, malformed.Ref)
		})
	}
}

func TestBuildNilDataset(t *testing.T) {
	_, err := graph.Build(nil)
	assert.Error(t, err)
}

func TestLoad(t *testing.T) {
	idx, err := graph.Load(graphtest.Path)
	require.NoError(t, err)
	assert.Len(t, idx.Streets(), 4)
}

func TestLoadMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"nodes": {}, "edges": {"e1": {"properties": {"nodes": ["a", "b"]}}}}`), 0o644))

	_, err := graph.Load(path)
	var malformed *graph.MalformedInputError
	assert.True(t, errors.As(err, &malformed))
}

func TestLoadMissingFile(t *testing.T) {
	_, err := graph.Load(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}

func TestJunction(t *testing.T) {
	idx := graphtest.Index(t)

	streets, ok := idx.Junction("n2")
	require.True(t, ok)
	assert.Equal(t, []string{graphtest.Elm, graphtest.Main}, streets)

	// e7 is parallel to e5 and has no street
	streets, ok = idx.Junction("n3")
	require.True(t, ok)
	assert.Equal(t, []string{graphtest.Main, graphtest.Oak}, streets)
	assert.Equal(t, []model.ID{"e2", "e5", "e7"}, idx.IncidentEdges("n3"))

	_, ok = idx.Junction("n404")
	assert.False(t, ok)
}
