package events

import (
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// EventType identifies published event categories.
type EventType string

const (
	// EventCommandExecuted is emitted after a command is executed, undone or redone.
	EventCommandExecuted EventType = "command_executed"
	// EventActivated is emitted when a document becomes the active one.
	EventActivated EventType = "activated"
	// EventDeactivated is emitted when a document stops being the active one.
	EventDeactivated EventType = "deactivated"
	// EventClosed is emitted after a document leaves the workspace.
	EventClosed EventType = "closed"
)

// Event is one notification record.
type Event struct {
	Type      EventType
	Timestamp time.Time
	Path      string
	// Verb is the command-line verb, e.g. "insert" or "undo".
	Verb string
	// Label is the full command line that reproduces the change. For undo
	// and redo it is the label of the command reverted or reapplied.
	Label string
}

// Listener consumes published events. A returned error is reported and
// otherwise ignored.
type Listener interface {
	Handle(Event) error
}

// ListenerFunc adapts a function to Listener.
type ListenerFunc func(Event) error

// Handle calls f.
func (f ListenerFunc) Handle(e Event) error {
	return f(e)
}

// Bus delivers events synchronously in subscription order.
type Bus struct {
	mu        sync.RWMutex
	listeners []Listener
	logger    *slog.Logger
}

// NewBus creates an event bus. A nil logger falls back to slog.Default.
func NewBus(logger *slog.Logger) *Bus {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bus{logger: logger}
}

// Subscribe registers a listener.
func (b *Bus) Subscribe(listener Listener) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.listeners = append(b.listeners, listener)
}

// Publish sends an event to every listener. Failing listeners never stop
// delivery to the rest.
func (b *Bus) Publish(event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	b.mu.RLock()
	listeners := make([]Listener, len(b.listeners))
	copy(listeners, b.listeners)
	b.mu.RUnlock()

	for _, l := range listeners {
		if err := deliver(l, event); err != nil {
			b.logger.Warn("observer failed",
				"event", string(event.Type),
				"path", event.Path,
				"verb", event.Verb,
				"err", err)
		}
	}
}

func deliver(l Listener, event Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return l.Handle(event)
}
