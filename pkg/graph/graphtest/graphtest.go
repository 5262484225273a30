// Package graphtest provides a small street network for tests.
//
// Layout (streetCount in parentheses):
//
//	            n4(1)
//	              | Elm St
//	n1(1) --- n2(4) --- n3(3) --- n6(2) --- n7(1)
//	  Main St     | Main St  Oak Ave   Dead End Rd
//	            n5(1)        \__e7__/ (unnamed)
//
// Expected cross-street counts: Main St 2, Main St+Elm St 0, Oak Ave 1,
// Dead End Rd -1, Main St+Oak Ave 2.
package graphtest

import (
	_ "embed"
	"encoding/json"
	"testing"

	"github.com/ritzau/cross-streets/pkg/graph"
	"github.com/ritzau/cross-streets/pkg/model"
)

const (
	Main    = "Main St"
	Elm     = "Elm St"
	Oak     = "Oak Ave"
	DeadEnd = "Dead End Rd"
)

// Path is the fixture location relative to the graph package directory
const Path = "graphtest/streets.json"

//go:embed streets.json
var streetsJSON []byte

// JSON returns the raw fixture document
func JSON() []byte {
	out := make([]byte, len(streetsJSON))
	copy(out, streetsJSON)
	return out
}

// Dataset decodes a fresh copy of the fixture
func Dataset(t testing.TB) *model.Dataset {
	t.Helper()
	var ds model.Dataset
	if err := json.Unmarshal(streetsJSON, &ds); err != nil {
		t.Fatalf("decoding fixture: %v", err)
	}
	return &ds
}

// Index builds a fresh index from the fixture
func Index(t testing.TB) *graph.Index {
	t.Helper()
	idx, err := graph.Build(Dataset(t))
	if err != nil {
		t.Fatalf("building fixture index: %v", err)
	}
	return idx
}
