package appointment

import (
	"strings"
	"time"
	"unicode"
)

type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

func (s Status) Valid() bool {
	switch s {
	case StatusScheduled, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// MaxNotesLen bounds the free-text notes field.
const MaxNotesLen = 2000

// Appointment is the durable scheduling entity. Intervals are half-open
// [Start, End); End must be strictly after Start.
type Appointment struct {
	ID          string    `json:"id"`
	PatientID   string    `json:"patientId"`
	TherapistID string    `json:"therapistId"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	Status      Status    `json:"status"`
	Notes       string    `json:"notes,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
	PendingSync bool      `json:"pendingSync"`
	SyncError   *string   `json:"syncError"`
}

// CreateInput is the caller-supplied shape for a new booking. Status defaults
// to scheduled when empty.
type CreateInput struct {
	PatientID   string
	TherapistID string
	Start       time.Time
	End         time.Time
	Status      Status
	Notes       string
}

// Patch carries partial updates; nil fields are left untouched.
type Patch struct {
	PatientID   *string
	TherapistID *string
	Start       *time.Time
	End         *time.Time
	Status      *Status
	Notes       *string
}

// NormalizePatientID strips everything but digits. Patient id numbers arrive
// from imports with separators and whitespace; downstream code only ever sees
// the digits-only form.
func NormalizePatientID(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// NormalizeTherapistID trims surrounding whitespace.
func NormalizeTherapistID(raw string) string {
	return strings.TrimSpace(raw)
}

// validate checks the full stored-entity schema and returns the first
// violation.
func (a Appointment) validate() *ValidationError {
	if a.ID == "" {
		return &ValidationError{Field: "id", Message: "is required"}
	}
	if a.PatientID == "" {
		return &ValidationError{Field: "patientId", Message: "is required"}
	}
	if a.PatientID != NormalizePatientID(a.PatientID) {
		return &ValidationError{Field: "patientId", Message: "must be digits only"}
	}
	if NormalizeTherapistID(a.TherapistID) == "" {
		return &ValidationError{Field: "therapistId", Message: "is required"}
	}
	if a.Start.IsZero() {
		return &ValidationError{Field: "start", Message: "is required"}
	}
	if a.End.IsZero() {
		return &ValidationError{Field: "end", Message: "is required"}
	}
	if !a.End.After(a.Start) {
		return &ValidationError{Field: "end", Message: "must be after start"}
	}
	if !a.Status.Valid() {
		return &ValidationError{Field: "status", Message: "must be scheduled, completed or cancelled"}
	}
	if len(a.Notes) > MaxNotesLen {
		return &ValidationError{Field: "notes", Message: "too long"}
	}
	return nil
}
