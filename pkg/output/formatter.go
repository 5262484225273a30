package output

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/ritzau/cross-streets/pkg/graph"
	"github.com/ritzau/cross-streets/pkg/model"
	"github.com/ritzau/cross-streets/pkg/route"
)

// StreetLine is one picked street in a report
type StreetLine struct {
	Name  string
	Edges int
}

// JunctionLine is one node touched by the route
type JunctionLine struct {
	Node         model.ID
	StreetCount  int
	Contribution int
	Streets      []string
}

// Report summarizes a route against a dataset
type Report struct {
	Data         string
	Route        string
	Streets      []StreetLine
	Unknown      []string
	Junctions    []JunctionLine
	PickedEdges  int
	CrossStreets int
}

// BuildReport collects the report for state s. idx must carry the picked
// flags that produced s.
func BuildReport(data string, idx *graph.Index, s route.State) Report {
	r := Report{
		Data:         data,
		Route:        s.Route,
		Unknown:      s.Unknown,
		PickedEdges:  s.PickedEdges,
		CrossStreets: s.CrossStreets,
	}

	for _, name := range s.Streets {
		r.Streets = append(r.Streets, StreetLine{Name: name, Edges: len(idx.StreetEdges(name))})
	}

	touched := graph.TouchedNodes(idx)
	ids := make([]model.ID, 0, len(touched))
	for id := range touched {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		n, _ := idx.Node(id)
		streets, _ := idx.Junction(id)
		r.Junctions = append(r.Junctions, JunctionLine{
			Node:         id,
			StreetCount:  n.StreetCount,
			Contribution: n.StreetCount - 2,
			Streets:      streets,
		})
	}

	return r
}

// PrintCountReport prints a nicely formatted cross-street report with colors
func PrintCountReport(w io.Writer, r Report) {
	// Color definitions
	bold := color.New(color.Bold)
	red := color.New(color.FgRed)
	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)
	cyan := color.New(color.FgCyan)

	// Header
	bold.Fprintln(w, "Cross Streets - Route Report")
	bold.Fprintln(w, "============================")
	fmt.Fprintf(w, "Dataset: %s\n", r.Data)
	fmt.Fprintf(w, "Route: %q\n", r.Route)
	fmt.Fprintln(w)

	if len(r.Streets) == 0 {
		yellow.Fprintln(w, "No streets picked")
	} else {
		bold.Fprintln(w, "PICKED STREETS:")
		for _, s := range r.Streets {
			green.Fprintf(w, "  %s", s.Name)
			fmt.Fprintf(w, " (%d edges)\n", s.Edges)
		}
	}

	if len(r.Unknown) > 0 {
		fmt.Fprintln(w)
		red.Fprintln(w, "UNKNOWN STREETS:")
		for _, name := range r.Unknown {
			yellow.Fprintf(w, "  %q\n", name)
		}
	}

	if len(r.Junctions) > 0 {
		fmt.Fprintln(w)
		bold.Fprintln(w, "JUNCTIONS:")
		for _, j := range r.Junctions {
			cyan.Fprintf(w, "  %s", j.Node)
			fmt.Fprintf(w, " streets=%d contributes %+d", j.StreetCount, j.Contribution)
			if len(j.Streets) > 0 {
				fmt.Fprintf(w, " [%s]", strings.Join(j.Streets, ", "))
			}
			fmt.Fprintln(w)
		}
	}
	fmt.Fprintln(w)

	summaryColor := green
	if r.CrossStreets < 0 {
		summaryColor = red
	}
	summaryColor.Fprintf(w, "Summary: %d cross streets (%d picked edges, %d junctions)\n",
		r.CrossStreets, r.PickedEdges, len(r.Junctions))
}
