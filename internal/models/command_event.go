package models

import "time"

// Command event types.
const (
	EventDispatched     = "DISPATCHED"
	EventDispatchFailed = "DISPATCH_FAILED"
	EventDenied         = "DENIED"
	EventEditReverted   = "EDIT_REVERTED"
)

// CommandEvent is one entry of the local command audit log.
type CommandEvent struct {
	EventID     string    `json:"event_id"`
	OccurredAt  time.Time `json:"occurred_at"`
	Type        string    `json:"type"` // DISPATCHED | DISPATCH_FAILED | DENIED | EDIT_REVERTED
	Command     string    `json:"command"`
	Description string    `json:"description"` // human-readable
	Metadata    any       `json:"metadata,omitempty"`
}
