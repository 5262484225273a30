package main

import (
	"fmt"

	"github.com/ritzau/cross-streets/pkg/config"
	"github.com/ritzau/cross-streets/pkg/graph"
	"github.com/ritzau/cross-streets/pkg/output"
	"github.com/ritzau/cross-streets/pkg/route"
	"github.com/ritzau/cross-streets/pkg/selection"
	"github.com/spf13/cobra"
)

func newCountCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "count [street...]",
		Short: "Print the cross-street report for a route",
		Long: `Print the cross-street report for a route. Streets given as arguments
are toggled on top of --route.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			idx, err := graph.Load(cfg.Data)
			if err != nil {
				return fmt.Errorf("loading dataset: %w", err)
			}

			sel := selection.Decode(cfg.Route)
			for _, name := range args {
				sel = sel.Toggle(name)
			}

			planner := route.NewPlanner(idx, sel)
			planner.View(func(idx *graph.Index, s route.State) {
				output.PrintCountReport(cmd.OutOrStdout(), output.BuildReport(cfg.Data, idx, s))
				fmt.Fprintf(cmd.OutOrStdout(), "Link: %s\n", shareURL(cfg, s))
			})
			return nil
		},
	}
}
