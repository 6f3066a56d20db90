package session

import "time"

// EventType names a session lifecycle event.
type EventType string

const (
	EventOpened        EventType = "opened"
	EventDeclined      EventType = "declined"
	EventOpenFailed    EventType = "open_failed"
	EventClosed        EventType = "closed"
	EventReleaseFailed EventType = "release_failed"
	EventSaved         EventType = "saved"
	EventWriteDenied   EventType = "write_denied"
)

// Event is delivered to observers as a session changes state.
type Event struct {
	Type      EventType
	SessionID string
	Path      string
	Mode      Mode
	Detail    string
	At        time.Time
}

// Observer receives session events. Calls are synchronous and must not block.
type Observer interface {
	SessionEvent(Event)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(Event)

// SessionEvent implements Observer.
func (f ObserverFunc) SessionEvent(e Event) {
	f(e)
}
