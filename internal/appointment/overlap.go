package appointment

import "time"

// Overlaps reports whether the half-open intervals [s1,e1) and [s2,e2)
// intersect. Touching endpoints do not overlap; degenerate intervals
// (end <= start) never overlap anything.
func Overlaps(s1, e1, s2, e2 time.Time) bool {
	if !e1.After(s1) || !e2.After(s2) {
		return false
	}
	return s2.Before(e1) && e2.After(s1)
}

// findConflict scans the stored set for an appointment of the same therapist
// whose interval overlaps the candidate. ignoreID excludes the record being
// updated so an appointment never conflicts with itself. Appointments of
// other therapists never conflict, whatever the patient overlap.
func findConflict(existing []Appointment, therapistID string, start, end time.Time, ignoreID string) *Appointment {
	therapistID = NormalizeTherapistID(therapistID)
	if therapistID == "" {
		return nil
	}

	for i := range existing {
		a := &existing[i]
		if a.ID == ignoreID {
			continue
		}
		if NormalizeTherapistID(a.TherapistID) != therapistID {
			continue
		}
		if Overlaps(a.Start, a.End, start, end) {
			return a
		}
	}
	return nil
}
