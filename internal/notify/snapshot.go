package notify

import (
	"time"

	"github.com/clinicdesk/scheduling-engine/internal/appointment"
)

// SnapshotEntry is the minimal comparable projection of one appointment,
// persisted as a viewer's last-seen baseline.
type SnapshotEntry struct {
	ID          string             `json:"id"`
	TherapistID string             `json:"therapistId"`
	PatientID   string             `json:"patientId"`
	Start       time.Time          `json:"start"`
	End         time.Time          `json:"end"`
	Status      appointment.Status `json:"status"`
}

// BuildSnapshot projects the appointment set onto a viewer scope: unfiltered
// for the admin, filtered to the therapist otherwise. Entries that would be
// uncomparable (no id or no interval) are skipped.
func BuildSnapshot(appts []appointment.Appointment, scope Scope) map[string]SnapshotEntry {
	snap := make(map[string]SnapshotEntry, len(appts))
	for _, a := range appts {
		if a.ID == "" || a.Start.IsZero() || a.End.IsZero() {
			continue
		}
		if !scope.IsAdmin() && appointment.NormalizeTherapistID(a.TherapistID) != scope.TherapistID() {
			continue
		}
		snap[a.ID] = SnapshotEntry{
			ID:          a.ID,
			TherapistID: appointment.NormalizeTherapistID(a.TherapistID),
			PatientID:   a.PatientID,
			Start:       a.Start,
			End:         a.End,
			Status:      a.Status,
		}
	}
	return snap
}
