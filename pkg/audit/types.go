package audit

import (
	"time"

	"github.com/google/uuid"
)

// EventType represents the category of audit event
type EventType string

const (
	EventTypeLogin         EventType = "auth.login"
	EventTypeLoginFailed   EventType = "auth.login_failed"
	EventTypeLogout        EventType = "auth.logout"
	EventTypeTokenRejected EventType = "auth.token_rejected"
)

// Token rejection reasons. "unknown" and "expired" are reported to clients
// identically; only this log distinguishes them.
const (
	ReasonMissing = "missing"
	ReasonUnknown = "unknown"
	ReasonExpired = "expired"
)

// Event is a single audit log entry
type Event struct {
	ID         string    `json:"id"`
	Type       EventType `json:"type"`
	Timestamp  time.Time `json:"timestamp"`
	TenantID   string    `json:"tenant_id,omitempty"`
	Reason     string    `json:"reason,omitempty"`
	Message    string    `json:"message,omitempty"`
	RequestID  string    `json:"request_id,omitempty"`
	RemoteAddr string    `json:"remote_addr,omitempty"`
	Path       string    `json:"path,omitempty"`
}

// NewEvent creates an event of the given type with ID and timestamp filled
func NewEvent(eventType EventType) *Event {
	return &Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
	}
}
