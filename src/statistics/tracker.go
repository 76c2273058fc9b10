package statistics

import (
	"fmt"
	"sync"
	"time"

	"docedit/src/events"
)

// Clock abstracts time retrieval for testing.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// Tracker accumulates per-document editing time from activation events.
// Switching away and back accumulates; closing a document resets it.
type Tracker struct {
	mu        sync.Mutex
	durations map[string]time.Duration
	active    string
	started   time.Time
	clock     Clock
}

// NewTracker constructs a tracker. A nil clock uses the wall clock.
func NewTracker(clock Clock) *Tracker {
	if clock == nil {
		clock = realClock{}
	}
	return &Tracker{
		durations: map[string]time.Duration{},
		clock:     clock,
	}
}

// Handle consumes workspace activation events.
func (t *Tracker) Handle(evt events.Event) error {
	if evt.Path == "" {
		return nil
	}
	at := evt.Timestamp
	if at.IsZero() {
		at = t.clock.Now()
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	switch evt.Type {
	case events.EventActivated:
		t.stop(at)
		if _, ok := t.durations[evt.Path]; !ok {
			t.durations[evt.Path] = 0
		}
		t.active = evt.Path
		t.started = at
	case events.EventDeactivated:
		if t.active == evt.Path {
			t.stop(at)
		}
	case events.EventClosed:
		if t.active == evt.Path {
			t.stop(at)
		}
		delete(t.durations, evt.Path)
	}
	return nil
}

// StopAll flushes the active timer without clearing durations.
func (t *Tracker) StopAll() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stop(t.clock.Now())
}

func (t *Tracker) stop(at time.Time) {
	if t.active == "" {
		return
	}
	if elapsed := at.Sub(t.started); elapsed > 0 {
		t.durations[t.active] += elapsed
	}
	t.active = ""
}

// Duration reports the accumulated duration for the file.
func (t *Tracker) Duration(path string) time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	total := t.durations[path]
	if path != "" && path == t.active {
		total += t.clock.Now().Sub(t.started)
	}
	return total
}

// FormatDuration renders a duration the way editor-list shows it.
func FormatDuration(d time.Duration) string {
	if d < time.Second {
		return "0秒"
	}
	seconds := int(d / time.Second)
	if seconds < 60 {
		return fmt.Sprintf("%d秒", seconds)
	}
	minutes := seconds / 60
	if minutes < 60 {
		return fmt.Sprintf("%d分钟", minutes)
	}
	hours := minutes / 60
	if hours < 24 {
		remMinutes := minutes % 60
		if remMinutes == 0 {
			return fmt.Sprintf("%d小时", hours)
		}
		return fmt.Sprintf("%d小时%d分钟", hours, remMinutes)
	}
	days := hours / 24
	remHours := hours % 24
	if remHours == 0 {
		return fmt.Sprintf("%d天", days)
	}
	return fmt.Sprintf("%d天%d小时", days, remHours)
}
