package models

import "time"

// Status event types.
const (
	EventOnline     = "ONLINE"
	EventOffline    = "OFFLINE"
	EventConfigured = "CONFIGURED"
	EventRemoved    = "REMOVED"
)

// StatusEvent is one entry of a printer's status history.
type StatusEvent struct {
	EventID     string    `json:"event_id"`
	EntryID     string    `json:"entry_id"`
	OccurredAt  time.Time `json:"occurred_at"`
	Type        string    `json:"type"`        // ONLINE | OFFLINE | CONFIGURED | REMOVED
	Description string    `json:"description"` // human-readable
	Metadata    any       `json:"metadata,omitempty"`
}
