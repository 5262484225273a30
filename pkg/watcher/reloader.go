package watcher

import (
	"context"
	"time"

	"github.com/ritzau/cross-streets/pkg/graph"
	"github.com/ritzau/cross-streets/pkg/logging"
	"github.com/ritzau/cross-streets/pkg/metrics"
	"github.com/ritzau/cross-streets/pkg/pubsub"
	"github.com/ritzau/cross-streets/pkg/route"
)

// Dataset event types
const (
	EventReloaded     = "reloaded"
	EventReloadFailed = "reload_failed"
)

// Reloader rebuilds the index from the dataset file and hands it to the
// planner. A failed reload leaves the planner on its previous index.
type Reloader struct {
	path      string
	planner   *route.Planner
	publisher pubsub.Publisher
}

// NewReloader creates a reloader. publisher may be nil.
func NewReloader(path string, planner *route.Planner, publisher pubsub.Publisher) *Reloader {
	return &Reloader{path: path, planner: planner, publisher: publisher}
}

// Reload loads the dataset once
func (r *Reloader) Reload() error {
	start := time.Now()

	idx, err := graph.Load(r.path)
	if err != nil {
		metrics.Reloads.WithLabelValues(metrics.ResultError).Inc()
		logging.Error("reload failed, keeping previous dataset", "path", r.path, "error", err)
		r.publish(EventReloadFailed, pubsub.DatasetStatus{Path: r.path, Error: err.Error()})
		return err
	}

	s := r.planner.Reload(idx)
	metrics.Reloads.WithLabelValues(metrics.ResultOK).Inc()
	logging.Info("dataset reloaded",
		"path", r.path,
		"streets", len(idx.Streets()),
		"crossStreets", s.CrossStreets,
		"durationMs", time.Since(start).Milliseconds(),
	)
	r.publish(EventReloaded, pubsub.DatasetStatus{
		Path:    r.path,
		Streets: len(idx.Streets()),
		Edges:   len(idx.Edges()),
		Nodes:   len(idx.Nodes()),
	})
	return nil
}

// Run reloads once per event until ctx is done or events closes
func (r *Reloader) Run(ctx context.Context, events <-chan ChangeEvent) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			logging.Debug("reloading after change", "paths", event.Paths)
			_ = r.Reload()
		}
	}
}

func (r *Reloader) publish(eventType string, status pubsub.DatasetStatus) {
	if r.publisher == nil {
		return
	}
	if err := r.publisher.Publish(pubsub.TopicDataset, eventType, status); err != nil {
		logging.Warn("failed to publish dataset status", "error", err)
	}
}

// Watch wires a FileWatcher, a Debouncer and a Reloader together for the
// dataset at path. It returns once watching has started.
func Watch(ctx context.Context, path string, planner *route.Planner, publisher pubsub.Publisher) error {
	fw, err := NewFileWatcher(path)
	if err != nil {
		return err
	}
	if err := fw.Start(ctx); err != nil {
		return err
	}

	debouncer := NewDebouncer(fw.Events(), 200*time.Millisecond, 2*time.Second)
	debouncer.Start(ctx)

	go NewReloader(path, planner, publisher).Run(ctx, debouncer.Output())
	return nil
}
