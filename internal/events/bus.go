// Package events provides a synchronous in-process event bus used to fan out
// benchmark run lifecycle notifications to the web layer and log sinks.
package events

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// EventType identifies a class of events
type EventType string

// Event types emitted during a benchmark run
const (
	RunStarted       EventType = "run_started"
	PhaseStarted     EventType = "phase_started"
	PhaseCompleted   EventType = "phase_completed"
	RunCompleted     EventType = "run_completed"
	RunFailed        EventType = "run_failed"
	ReportWritten    EventType = "report_written"
	DatasetGenerated EventType = "dataset_generated"
	ErrorOccurred    EventType = "error_occurred"
)

// Event is a single bus notification. Data is typed per event type; see
// event_data.go for the payload structs and the JSON round-trip rules.
type Event struct {
	Type      EventType `json:"type"`
	Module    string    `json:"module"`
	Timestamp time.Time `json:"timestamp"`
	Data      EventData `json:"data,omitempty"`
}

// Handler receives events. Handlers run synchronously on the emitter's
// goroutine and must not block.
type Handler func(*Event)

// Bus is a minimal publish/subscribe hub. Subscriptions are expected to be
// set up during startup; Emit may be called from any goroutine.
type Bus struct {
	mu          sync.RWMutex
	handlers    map[EventType][]Handler
	allHandlers []Handler
	log         zerolog.Logger
}

// NewBus creates a new event bus
func NewBus(log zerolog.Logger) *Bus {
	return &Bus{
		handlers: make(map[EventType][]Handler),
		log:      log.With().Str("component", "events").Logger(),
	}
}

// Subscribe registers a handler for a specific event type
func (b *Bus) Subscribe(eventType EventType, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[eventType] = append(b.handlers[eventType], handler)
}

// SubscribeAll registers a handler that receives every event
func (b *Bus) SubscribeAll(handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.allHandlers = append(b.allHandlers, handler)
}

// Emit publishes an event built from typed payload data. The event type is
// derived from the payload itself so emitters cannot mislabel events.
func (b *Bus) Emit(module string, data EventData) {
	event := &Event{
		Type:      data.EventType(),
		Module:    module,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}

	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.handlers[event.Type])+len(b.allHandlers))
	handlers = append(handlers, b.handlers[event.Type]...)
	handlers = append(handlers, b.allHandlers...)
	b.mu.RUnlock()

	b.log.Debug().
		Str("type", string(event.Type)).
		Str("module", module).
		Int("handlers", len(handlers)).
		Msg("Emitting event")

	for _, handler := range handlers {
		b.dispatch(event, handler)
	}
}

// dispatch runs a single handler, recovering panics so one bad subscriber
// cannot take down the emitter.
func (b *Bus) dispatch(event *Event, handler Handler) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Error().
				Str("type", string(event.Type)).
				Interface("panic", r).
				Msg("Event handler panicked")
		}
	}()
	handler(event)
}
