package workflow

import (
	"sync"
	"time"

	"github.com/kozaktomas/photo-booth/internal/apperr"
	"github.com/kozaktomas/photo-booth/internal/constants"
)

// EventType names a session event.
type EventType string

// Session events.
const (
	EventState  EventType = "state"
	EventNotice EventType = "notice"
)

// Notice is a transient, auto-dismissing message shown to the user.
type Notice struct {
	Kind       apperr.Kind `json:"kind"`
	Message    string      `json:"message"`
	Command    CommandType `json:"command"`
	DurationMS int64       `json:"duration_ms"`
	Expires    time.Time   `json:"expires"`
}

// Event is broadcast to listeners after every accepted or rejected command.
type Event struct {
	Type   EventType `json:"type"`
	State  *View     `json:"state,omitempty"`
	Notice *Notice   `json:"notice,omitempty"`
}

func newNotice(cmd CommandType, err error, now time.Time) *Notice {
	return &Notice{
		Kind:       apperr.KindOf(err),
		Message:    apperr.Message(err),
		Command:    cmd,
		DurationMS: constants.NoticeDuration.Milliseconds(),
		Expires:    now.Add(constants.NoticeDuration),
	}
}

// Broadcaster fans session events out to listeners. Slow listeners miss
// events instead of blocking the controller.
type Broadcaster struct {
	listeners []chan Event
	closed    bool
	mu        sync.RWMutex
}

// AddListener adds an event listener.
func (b *Broadcaster) AddListener() chan Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	ch := make(chan Event, constants.EventChannelBuffer)
	if b.closed {
		close(ch)
		return ch
	}
	b.listeners = append(b.listeners, ch)
	return ch
}

// RemoveListener removes an event listener.
func (b *Broadcaster) RemoveListener(ch chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, listener := range b.listeners {
		if listener == ch {
			b.listeners = append(b.listeners[:i], b.listeners[i+1:]...)
			close(ch)
			return
		}
	}
}

// SendEvent sends an event to all listeners.
func (b *Broadcaster) SendEvent(event Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, listener := range b.listeners {
		select {
		case listener <- event:
		default:
			// Listener buffer full, skip.
		}
	}
}

// Close closes all listener channels.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, listener := range b.listeners {
		close(listener)
	}
	b.listeners = nil
	b.closed = true
}
