package server

import (
	"encoding/json"
	"sync"
	"time"

	"tileworld/protocol"
)

// LoggedEvent is a GameEvent with the time it was published.
type LoggedEvent struct {
	At    time.Time
	Event protocol.GameEvent
}

// MarshalJSON renders {"at": ..., "<Kind>": {...}}.
func (e LoggedEvent) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any{
		"at":           e.At,
		e.Event.Kind(): e.Event,
	})
}

// EventLog keeps the most recent events for admin queries. It has its own
// lock so readers never contend with the world.
type EventLog struct {
	mu     sync.Mutex
	events []LoggedEvent
	max    int
	now    func() time.Time
}

func NewEventLog(max int) *EventLog {
	if max < 1 {
		max = 1
	}
	return &EventLog{max: max, now: time.Now}
}

// Append records ev, evicting the oldest entry past capacity.
func (l *EventLog) Append(ev protocol.GameEvent) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, LoggedEvent{At: l.now(), Event: ev})
	if over := len(l.events) - l.max; over > 0 {
		l.events = append(l.events[:0:0], l.events[over:]...)
	}
}

// Recent returns up to limit events, oldest first.
func (l *EventLog) Recent(limit int) []LoggedEvent {
	l.mu.Lock()
	defer l.mu.Unlock()
	if limit <= 0 {
		return []LoggedEvent{}
	}
	start := 0
	if len(l.events) > limit {
		start = len(l.events) - limit
	}
	out := make([]LoggedEvent, len(l.events)-start)
	copy(out, l.events[start:])
	return out
}

func (l *EventLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.events)
}
