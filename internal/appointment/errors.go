package appointment

import "fmt"

// ConflictMessage is shown to the user verbatim when a booking would
// double-book a therapist.
const ConflictMessage = "This time is not available for the selected therapist (double booking)."

// ValidationError reports the first schema violation of an input or stored
// record. It always identifies the offending field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ConflictError reports a double-booking for a therapist. It is a distinct
// kind so callers can render "time unavailable" instead of a generic failure.
type ConflictError struct {
	TherapistID string
}

func (e *ConflictError) Error() string {
	return ConflictMessage
}

// PersistenceError wraps a storage read or write failure.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("appointment storage %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
