package watcher

import (
	"context"
	"time"

	"github.com/ritzau/cross-streets/pkg/logging"
)

// Debouncer batches rapid file system events so a burst of writes triggers a
// single reload
type Debouncer struct {
	input       <-chan ChangeEvent
	output      chan ChangeEvent
	quietPeriod time.Duration
	maxWait     time.Duration
}

// NewDebouncer creates a new event debouncer. A batch is emitted after
// quietPeriod without events, or maxWait after its first event.
func NewDebouncer(input <-chan ChangeEvent, quietPeriod, maxWait time.Duration) *Debouncer {
	return &Debouncer{
		input:       input,
		output:      make(chan ChangeEvent, 10),
		quietPeriod: quietPeriod,
		maxWait:     maxWait,
	}
}

// Start begins processing events with debouncing
func (d *Debouncer) Start(ctx context.Context) {
	go d.run(ctx)
}

// run processes events and applies debouncing logic
func (d *Debouncer) run(ctx context.Context) {
	defer close(d.output)

	var (
		pending    *ChangeEvent
		seen       map[string]bool
		eventCount int
		quiet      <-chan time.Time
		deadline   <-chan time.Time
	)

	flush := func() {
		if pending == nil {
			return
		}

		logging.Debug("flushing accumulated events", "count", eventCount, "paths", len(pending.Paths))

		select {
		case d.output <- *pending:
		case <-ctx.Done():
		}

		pending, seen, eventCount = nil, nil, 0
		quiet, deadline = nil, nil
	}

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-d.input:
			if !ok {
				flush()
				return
			}

			if pending == nil {
				pending = &ChangeEvent{}
				seen = make(map[string]bool)
				deadline = time.After(d.maxWait)
			}
			for _, p := range event.Paths {
				if !seen[p] {
					seen[p] = true
					pending.Paths = append(pending.Paths, p)
				}
			}
			pending.Timestamp = event.Timestamp
			eventCount++

			quiet = time.After(d.quietPeriod)

		case <-quiet:
			flush()

		case <-deadline:
			flush()
		}
	}
}

// Output returns the channel of debounced events
func (d *Debouncer) Output() <-chan ChangeEvent {
	return d.output
}
