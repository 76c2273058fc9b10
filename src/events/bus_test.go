package events_test

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docedit/src/events"
)

type mockObserver struct {
	received []events.Event
}

func (m *mockObserver) Handle(e events.Event) error {
	m.received = append(m.received, e)
	return nil
}

func TestBusSubscribePublish(t *testing.T) {
	bus := events.NewBus(nil)
	obs := &mockObserver{}
	bus.Subscribe(obs)

	bus.Publish(events.Event{
		Type:  events.EventCommandExecuted,
		Path:  "a.txt",
		Verb:  "append",
		Label: `append "x"`,
	})

	require.Len(t, obs.received, 1)
	assert.Equal(t, "append", obs.received[0].Verb)
	assert.False(t, obs.received[0].Timestamp.IsZero())
}

func TestBusDeliversInRegistrationOrder(t *testing.T) {
	bus := events.NewBus(nil)
	var order []string
	bus.Subscribe(events.ListenerFunc(func(events.Event) error {
		order = append(order, "first")
		return nil
	}))
	bus.Subscribe(events.ListenerFunc(func(events.Event) error {
		order = append(order, "second")
		return nil
	}))

	bus.Publish(events.Event{Type: events.EventActivated})
	assert.Equal(t, []string{"first", "second"}, order)
}

func TestBusIsolatesFailingObservers(t *testing.T) {
	var buf bytes.Buffer
	bus := events.NewBus(slog.New(slog.NewTextHandler(&buf, nil)))
	bus.Subscribe(events.ListenerFunc(func(events.Event) error {
		return errors.New("disk full")
	}))
	bus.Subscribe(events.ListenerFunc(func(events.Event) error {
		panic("boom")
	}))
	obs := &mockObserver{}
	bus.Subscribe(obs)

	bus.Publish(events.Event{Type: events.EventCommandExecuted, Path: "a.txt", Verb: "undo"})

	assert.Len(t, obs.received, 1)
	out := buf.String()
	assert.Contains(t, out, "level=WARN")
	assert.Contains(t, out, "disk full")
	assert.Contains(t, out, "panic: boom")
}
