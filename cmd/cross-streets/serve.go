package main

import (
	"context"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ritzau/cross-streets/pkg/config"
	"github.com/ritzau/cross-streets/pkg/graph"
	"github.com/ritzau/cross-streets/pkg/logging"
	"github.com/ritzau/cross-streets/pkg/pubsub"
	"github.com/ritzau/cross-streets/pkg/route"
	"github.com/ritzau/cross-streets/pkg/selection"
	"github.com/ritzau/cross-streets/pkg/watcher"
	"github.com/ritzau/cross-streets/pkg/web"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

func addServeFlags(fs *pflag.FlagSet) {
	fs.String("host", "localhost", "Address to listen on")
	fs.Int("port", 8080, "Port for the web server")
	fs.Bool("watch", false, "Reload the dataset when the file changes")
	fs.Bool("open", false, "Open the page in a browser")
	fs.StringSlice("cors-origins", nil, "Origins allowed to call the API cross-origin")
}

func newServeCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the map page and the route API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), cfg)
		},
	}
	addServeFlags(cmd.Flags())
	return cmd
}

func runServe(ctx context.Context, cfg *config.Config) error {
	start := time.Now()
	idx, err := graph.Load(cfg.Data)
	if err != nil {
		logging.Fatal("failed to load dataset", "path", cfg.Data, "error", err)
	}
	logging.Info("dataset loaded",
		"path", cfg.Data,
		"streets", len(idx.Streets()),
		"edges", len(idx.Edges()),
		"nodes", len(idx.Nodes()),
		"durationMs", time.Since(start).Milliseconds(),
	)

	initial := selection.Decode(cfg.Route)
	if _, unknown := initial.Filter(idx.HasStreet); len(unknown) > 0 {
		logging.Warn("initial route names unknown streets", "streets", unknown)
	}

	planner := route.NewPlanner(idx, initial)
	server := web.NewServer(planner, web.Options{
		DataPath:    cfg.Data,
		CORSOrigins: cfg.CORSOrigins,
	})

	if err := server.Publisher().Publish(pubsub.TopicDataset, "loaded", pubsub.DatasetStatus{
		Path:    cfg.Data,
		Streets: len(idx.Streets()),
		Edges:   len(idx.Edges()),
		Nodes:   len(idx.Nodes()),
	}); err != nil {
		logging.Warn("failed to publish dataset status", "error", err)
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Watch {
		if err := watcher.Watch(ctx, cfg.Data, planner, server.Publisher()); err != nil {
			logging.Warn("dataset watching disabled", "error", err)
		}
	}

	if cfg.OpenBrowser {
		page := shareURL(cfg, planner.State())
		go func() {
			// Wait a moment for the listener
			time.Sleep(500 * time.Millisecond)
			openBrowser(page)
		}()
	}

	return server.Start(ctx, cfg.Addr())
}

// shareURL is the page link for a route
func shareURL(cfg *config.Config, s route.State) string {
	u := url.URL{Scheme: "http", Host: cfg.Addr(), Path: "/"}
	if s.Route != "" {
		u.RawQuery = url.Values{selection.Param: {s.Route}}.Encode()
	}
	return u.String()
}
