package event

import "time"

const (
	SessionTopic            = "captain.session"
	EventSessionInvalidated = "session.invalidated"
)

// SessionInvalidatedEvent reports that the backend rejected the stored
// credentials and the device was sent back to login.
type SessionInvalidatedEvent struct {
	EventType  string    `json:"event_type"`
	EventID    string    `json:"event_id"`
	OccurredAt time.Time `json:"occurred_at"`
	CaptainID  string    `json:"captain_id,omitempty"`
	OutletID   string    `json:"outlet_id,omitempty"`
	Path       string    `json:"path"`
}
