package telemetry

import (
	"encoding/json"
	"time"
)

// Login job event types.
const (
	EventLoginStarted   = "login_started"
	EventLoginWaiting   = "login_waiting_for_user"
	EventLoginCompleted = "login_completed"
	EventLoginFailed    = "login_failed"
)

// Event is a login job lifecycle event.
type Event struct {
	EventType string    `json:"event_type"`
	Source    string    `json:"source,omitempty"`
	AccountID int64     `json:"account_id"`
	JobID     string    `json:"job_id,omitempty"`
	Status    string    `json:"status,omitempty"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// JSON returns the event as a JSON log line.
func (e *Event) JSON() []byte {
	b, _ := json.Marshal(e)
	return b
}
