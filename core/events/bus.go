// Package events provides a small publish/subscribe bus. The registry
// publishes assembly events and the request pipeline publishes invocation
// events; the metrics adapter subscribes to both.
package events

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Event names.
const (
	// InvokerAssembled is published when an assembler claims an invoker.
	InvokerAssembled = "invoker.assembled"
	// InvokerUnassembled is published for an invoker no assembler claimed.
	InvokerUnassembled = "invoker.unassembled"
	// TreeSealed is published once registration is over.
	TreeSealed = "tree.sealed"
	// RequestCompleted is published after every dispatched request.
	RequestCompleted = "request.completed"
)

// Event represents a published event.
type Event struct {
	// Name is the event name, e.g. "invoker.assembled".
	Name string

	// Service is the service the event concerns, if any.
	Service string

	// Invoker is the invoker name the event concerns, if any.
	Invoker string

	// Data contains the event payload.
	Data map[string]any

	// Duration is set for timed events.
	Duration time.Duration
}

// Handler is a function that processes an event.
type Handler func(ctx context.Context, event Event) error

// Bus is a simple publish/subscribe event bus.
type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
	logger   zerolog.Logger
}

// NewBus creates a new event bus.
func NewBus(logger zerolog.Logger) *Bus {
	return &Bus{
		handlers: make(map[string][]Handler),
		logger:   logger,
	}
}

// Subscribe registers a handler for an event.
// Supports wildcard subscriptions:
//   - "invoker.assembled" - exact match
//   - "invoker.*" - all invoker events
//   - "*" - all events
func (b *Bus) Subscribe(event string, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[event] = append(b.handlers[event], handler)
}

// Publish calls every matching handler synchronously, exact subscriptions
// first. Handler errors are logged and do not stop delivery.
func (b *Bus) Publish(ctx context.Context, event Event) {
	if b == nil {
		return
	}

	matched := b.match(event.Name)

	b.logger.Debug().
		Str("event", event.Name).
		Str("service", event.Service).
		Str("invoker", event.Invoker).
		Int("handlers", len(matched)).
		Msg("event published")

	for _, handler := range matched {
		if err := handler(ctx, event); err != nil {
			b.logger.Error().
				Err(err).
				Str("event", event.Name).
				Msg("event handler error")
		}
	}
}

// HasSubscribers checks if any handlers are registered for an event.
func (b *Bus) HasSubscribers(event string) bool {
	if b == nil {
		return false
	}
	return len(b.match(event)) > 0
}

func (b *Bus) match(name string) []Handler {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var matched []Handler
	matched = append(matched, b.handlers[name]...)
	if prefix, _, ok := strings.Cut(name, "."); ok {
		matched = append(matched, b.handlers[prefix+".*"]...)
	}
	return append(matched, b.handlers["*"]...)
}
