package pubsub

import (
	"context"
	"encoding/json"
)

// Topics published by the server
const (
	// TopicRoute carries a route state after every selection change
	TopicRoute = "route"
	// TopicDataset carries dataset load and reload notices
	TopicDataset = "dataset"
)

// Event is one message on a topic
type Event struct {
	Topic   string          `json:"topic"`   // e.g. "route"
	Type    string          `json:"type"`    // e.g. "toggled", "route_set", "reloaded"
	Data    json.RawMessage `json:"data"`    // Event payload
	Version int             `json:"version"` // Per-topic sequence number
}

// Subscription is a client's view of one topic
type Subscription interface {
	// Topic returns the subscription topic
	Topic() string

	// Events returns a channel for receiving events
	Events() <-chan Event

	// Close closes the subscription
	Close() error
}

// Publisher fans events out to topic subscribers
type Publisher interface {
	// Subscribe creates a new subscription to a topic.
	// Context cancellation closes the subscription.
	Subscribe(ctx context.Context, topic string) (Subscription, error)

	// Publish sends an event to all subscribers of a topic
	Publish(topic string, eventType string, data any) error

	// Close shuts down the publisher and all subscriptions
	Close() error
}

// DatasetStatus describes the outcome of loading the street dataset
type DatasetStatus struct {
	Path    string `json:"path"`
	Streets int    `json:"streets"`
	Edges   int    `json:"edges"`
	Nodes   int    `json:"nodes"`
	Error   string `json:"error,omitempty"`
}
