// Package metrics exposes Prometheus collectors for the route planner and the
// HTTP surface. Collectors register on the default registry via promauto.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Toggle outcomes
const (
	OutcomeKnown   = "known"
	OutcomeUnknown = "unknown"
)

// Reload results
const (
	ResultOK    = "ok"
	ResultError = "error"
)

var (
	// Toggles counts street toggles, labeled by whether the name picks any edge
	Toggles = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cross_streets_toggles_total",
			Help: "Total number of street toggles",
		},
		[]string{"outcome"},
	)

	// CrossStreets is the cross-street count of the current route
	CrossStreets = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "cross_streets_count",
		Help: "Cross-street count of the current route",
	})

	// PickedStreets is the number of selected names that match a street
	PickedStreets = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "cross_streets_picked_streets",
		Help: "Number of picked streets in the current route",
	})

	// Revision is the route revision, bumped after every propagation
	Revision = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "cross_streets_revision",
		Help: "Current route revision",
	})

	// Reloads counts dataset reloads by result
	Reloads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cross_streets_dataset_reloads_total",
			Help: "Total number of dataset reload attempts",
		},
		[]string{"result"},
	)

	// HTTPRequests counts requests by method, route template and status
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cross_streets_http_requests_total",
			Help: "Total number of HTTP requests processed",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPDuration measures handler latency
	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cross_streets_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
		[]string{"method", "path"},
	)
)
