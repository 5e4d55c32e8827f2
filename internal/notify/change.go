package notify

import (
	"fmt"
	"time"
)

// ChangeKind tags what happened to an appointment between two snapshots.
type ChangeKind int

const (
	KindCreated ChangeKind = iota + 1
	KindCancelled
	KindRemoved
	KindTimeChanged
)

func (k ChangeKind) String() string {
	switch k {
	case KindCreated:
		return "created"
	case KindCancelled:
		return "cancelled"
	case KindRemoved:
		return "removed"
	case KindTimeChanged:
		return "timechanged"
	}
	return "unknown"
}

// Change is one detected transition, carrying its structured dedup key. The
// string form only exists at the persistence boundary.
type Change struct {
	Kind          ChangeKind
	AppointmentID string
	// At anchors the change's identity: the appointment's start time (the
	// previous one for removals, which have no current record).
	At time.Time
}

// NotificationID is the deterministic id persisted with the notification,
// e.g. "created:<appointment id>:<start ms>". Dismissals are keyed by it, so
// a mute survives the identical transition being replayed.
func (c Change) NotificationID() string {
	return fmt.Sprintf("%s:%s:%d", c.Kind, c.AppointmentID, c.At.UnixMilli())
}

// CooldownKey identifies the change for repeat suppression. Unlike
// NotificationID it carries no time component: moving the same appointment
// twice inside the window must collapse onto one key.
func (c Change) CooldownKey() string {
	return fmt.Sprintf("%s:%s", c.Kind, c.AppointmentID)
}
