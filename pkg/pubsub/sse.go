package pubsub

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/ritzau/cross-streets/pkg/logging"
)

// TopicConfig configures buffering behavior for a topic
type TopicConfig struct {
	BufferSize int  // Number of events to keep for late subscribers (0 = none)
	ReplayAll  bool // Replay the whole buffer instead of only the latest event
}

// subscriberQueue is the per-subscriber channel capacity
const subscriberQueue = 64

// SSEPublisher implements Publisher for Server-Sent Events clients
type SSEPublisher struct {
	mu      sync.RWMutex
	subs    map[string]map[*sseSubscription]struct{}
	version map[string]int
	buffer  map[string][]Event
	config  map[string]TopicConfig
	closed  bool
}

// NewSSEPublisher creates a new SSE-based publisher
func NewSSEPublisher() *SSEPublisher {
	return &SSEPublisher{
		subs:    make(map[string]map[*sseSubscription]struct{}),
		version: make(map[string]int),
		buffer:  make(map[string][]Event),
		config:  make(map[string]TopicConfig),
	}
}

// ConfigureTopic sets buffering configuration for a topic
func (p *SSEPublisher) ConfigureTopic(topic string, config TopicConfig) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.config[topic] = config
}

// Subscribe registers a subscriber and replays buffered events to it
func (p *SSEPublisher) Subscribe(ctx context.Context, topic string) (Subscription, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil, fmt.Errorf("publisher is closed")
	}

	sub := &sseSubscription{
		topic:     topic,
		events:    make(chan Event, subscriberQueue),
		publisher: p,
	}
	if p.subs[topic] == nil {
		p.subs[topic] = make(map[*sseSubscription]struct{})
	}
	p.subs[topic][sub] = struct{}{}

	// Replay under the lock so no live event can overtake a buffered one
	replay := p.buffer[topic]
	if !p.config[topic].ReplayAll && len(replay) > 1 {
		replay = replay[len(replay)-1:]
	}
	if len(replay) > subscriberQueue {
		replay = replay[len(replay)-subscriberQueue:]
	}
	for _, event := range replay {
		sub.events <- event
	}
	if len(replay) > 0 {
		logging.Debug("replayed events to new subscriber", "topic", topic, "count", len(replay))
	}

	go func() {
		<-ctx.Done()
		sub.Close()
	}()

	return sub, nil
}

// Publish sends an event to all subscribers of a topic without blocking.
// Subscribers whose queue is full miss the event.
func (p *SSEPublisher) Publish(topic string, eventType string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshaling %s event: %w", topic, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return fmt.Errorf("publisher is closed")
	}

	p.version[topic]++
	event := Event{
		Topic:   topic,
		Type:    eventType,
		Data:    payload,
		Version: p.version[topic],
	}

	if size := p.config[topic].BufferSize; size > 0 {
		buf := append(p.buffer[topic], event)
		if len(buf) > size {
			buf = buf[len(buf)-size:]
		}
		p.buffer[topic] = buf
	}

	for sub := range p.subs[topic] {
		select {
		case sub.events <- event:
		default:
			logging.Warn("subscriber queue full, dropping event", "topic", topic, "version", event.Version)
		}
	}

	return nil
}

// Close shuts down the publisher and ends every subscription stream
func (p *SSEPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true

	for _, subs := range p.subs {
		for sub := range subs {
			sub.finish()
		}
	}
	p.subs = make(map[string]map[*sseSubscription]struct{})

	return nil
}

// unsubscribe removes a subscription; p.mu must not be held
func (p *SSEPublisher) unsubscribe(sub *sseSubscription) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if subs := p.subs[sub.topic]; subs != nil {
		if _, ok := subs[sub]; ok {
			delete(subs, sub)
			sub.finish()
		}
		if len(subs) == 0 {
			delete(p.subs, sub.topic)
		}
	}
}

type sseSubscription struct {
	topic      string
	events     chan Event
	publisher  *SSEPublisher
	closeOnce  sync.Once
	finishOnce sync.Once
}

func (s *sseSubscription) Topic() string {
	return s.topic
}

func (s *sseSubscription) Events() <-chan Event {
	return s.events
}

// Close unsubscribes and closes the event channel
func (s *sseSubscription) Close() error {
	s.closeOnce.Do(func() {
		s.publisher.unsubscribe(s)
	})
	return nil
}

// finish closes the event channel exactly once; callers hold publisher.mu
func (s *sseSubscription) finish() {
	s.finishOnce.Do(func() {
		close(s.events)
	})
}

// WriteSSE writes an event in SSE wire format: "data: {json}\n\n"
func WriteSSE(w io.Writer, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshaling event: %w", err)
	}
	_, err = fmt.Fprintf(w, "data: %s\n\n", data)
	return err
}

// Handler streams a topic to an HTTP client until the request ends
func Handler(p Publisher, topic string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		flusher, _ := w.(http.Flusher)

		sub, err := p.Subscribe(r.Context(), topic)
		if err != nil {
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		defer sub.Close()

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")

		// Initial comment establishes the stream (Safari)
		fmt.Fprint(w, ": connected\n\n")
		if flusher != nil {
			flusher.Flush()
		}

		for event := range sub.Events() {
			if err := WriteSSE(w, event); err != nil {
				logging.DebugContext(r.Context(), "sse client gone", "topic", topic, "error", err)
				return
			}
			if flusher != nil {
				flusher.Flush()
			}
		}
	}
}
