package notify

import "time"

type Type string

const (
	TypeSuccess Type = "success"
	TypeError   Type = "error"
	TypeInfo    Type = "info"
)

// Notification is one human-readable change event. CreatedAt is the time of
// detection, not of the underlying appointment event.
type Notification struct {
	ID        string    `json:"id"`
	Type      Type      `json:"type"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
}

const (
	titleCreated     = "New appointment"
	titleCancelled   = "Appointment cancelled"
	titleRemoved     = "Appointment removed"
	titleTimeChanged = "Time changed"
)
