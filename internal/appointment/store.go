package appointment

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"github.com/google/uuid"
)

// Store is the single source of truth for appointments. It owns validation,
// the no-double-booking invariant and sync bookkeeping; nothing else writes
// the durable collection.
//
// Reads are tolerant: records that no longer parse or validate are dropped
// and counted, never returned and never fatal. Writes are strict.
type Store struct {
	coll  Collection
	now   func() time.Time
	newID func() string
}

func NewStore(coll Collection) *Store {
	return &Store{
		coll:  coll,
		now:   time.Now,
		newID: uuid.NewString,
	}
}

// ListAll returns every valid appointment sorted ascending by start, plus the
// number of persisted records that were dropped as unparsable or invalid.
func (s *Store) ListAll(ctx context.Context) ([]Appointment, int, error) {
	return s.loadValid(ctx)
}

// ReplaceAll validates every item against the full stored-entity schema and
// swaps the collection atomically. The first violation aborts the whole call.
func (s *Store) ReplaceAll(ctx context.Context, list []Appointment) ([]Appointment, error) {
	for i := range list {
		if verr := list[i].validate(); verr != nil {
			return nil, verr
		}
	}

	sorted := make([]Appointment, len(list))
	copy(sorted, list)
	sortByStart(sorted)

	recs := make([]RawRecord, 0, len(sorted))
	for i := range sorted {
		rec, err := encodeRecord(sorted[i])
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}

	if err := s.coll.ReplaceAll(ctx, recs); err != nil {
		return nil, err
	}

	return sorted, nil
}

// Create books a new appointment. The input is normalized and validated, the
// id and bookkeeping fields are assigned, and the booking is rejected with a
// ConflictError when it would double-book the therapist.
func (s *Store) Create(ctx context.Context, in CreateInput) (*Appointment, error) {
	now := s.now()

	appt := Appointment{
		ID:          s.newID(),
		PatientID:   NormalizePatientID(in.PatientID),
		TherapistID: NormalizeTherapistID(in.TherapistID),
		Start:       in.Start,
		End:         in.End,
		Status:      in.Status,
		Notes:       in.Notes,
		CreatedAt:   now,
		UpdatedAt:   now,
		PendingSync: true,
		SyncError:   nil,
	}
	if appt.Status == "" {
		appt.Status = StatusScheduled
	}

	if verr := appt.validate(); verr != nil {
		return nil, verr
	}

	existing, _, err := s.loadValid(ctx)
	if err != nil {
		return nil, err
	}

	if hit := findConflict(existing, appt.TherapistID, appt.Start, appt.End, ""); hit != nil {
		return nil, &ConflictError{TherapistID: appt.TherapistID}
	}

	rec, err := encodeRecord(appt)
	if err != nil {
		return nil, err
	}
	if err := s.coll.Insert(ctx, rec); err != nil {
		return nil, err
	}

	return &appt, nil
}

// Update merges the patch over the stored record and re-validates the result,
// excluding the record itself from the conflict check. A missing id returns
// (nil, nil): concurrent deletion is an expected case, not an error.
func (s *Store) Update(ctx context.Context, id string, patch Patch) (*Appointment, error) {
	existing, _, err := s.loadValid(ctx)
	if err != nil {
		return nil, err
	}

	cur := findByID(existing, id)
	if cur == nil {
		return nil, nil
	}

	next := *cur
	if patch.PatientID != nil {
		next.PatientID = NormalizePatientID(*patch.PatientID)
	}
	if patch.TherapistID != nil {
		next.TherapistID = NormalizeTherapistID(*patch.TherapistID)
	}
	if patch.Start != nil {
		next.Start = *patch.Start
	}
	if patch.End != nil {
		next.End = *patch.End
	}
	if patch.Status != nil {
		next.Status = *patch.Status
	}
	if patch.Notes != nil {
		next.Notes = *patch.Notes
	}
	next.UpdatedAt = s.now()
	next.PendingSync = true
	next.SyncError = nil

	if verr := next.validate(); verr != nil {
		return nil, verr
	}

	if hit := findConflict(existing, next.TherapistID, next.Start, next.End, id); hit != nil {
		return nil, &ConflictError{TherapistID: next.TherapistID}
	}

	if err := s.persist(ctx, next); err != nil {
		return nil, err
	}

	return &next, nil
}

// Delete removes by id. It is idempotent and never reports not-found.
func (s *Store) Delete(ctx context.Context, id string) error {
	return s.coll.Delete(ctx, id)
}

// ListPendingSync returns the appointments whose local state has not been
// confirmed against the remote store.
func (s *Store) ListPendingSync(ctx context.Context) ([]Appointment, error) {
	all, _, err := s.loadValid(ctx)
	if err != nil {
		return nil, err
	}

	var pending []Appointment
	for _, a := range all {
		if a.PendingSync {
			pending = append(pending, a)
		}
	}
	return pending, nil
}

// MarkSynced records a successful remote push. A missing id returns
// (nil, nil), same contract as Update: the sync job races hard deletes.
func (s *Store) MarkSynced(ctx context.Context, id string) (*Appointment, error) {
	return s.mutateSync(ctx, id, func(a *Appointment) {
		a.PendingSync = false
		a.SyncError = nil
	})
}

// MarkSyncError records the last push failure on the entity. The record stays
// pending so the next sync run retries it.
func (s *Store) MarkSyncError(ctx context.Context, id, message string) (*Appointment, error) {
	return s.mutateSync(ctx, id, func(a *Appointment) {
		a.PendingSync = true
		a.SyncError = &message
	})
}

func (s *Store) mutateSync(ctx context.Context, id string, apply func(*Appointment)) (*Appointment, error) {
	existing, _, err := s.loadValid(ctx)
	if err != nil {
		return nil, err
	}

	cur := findByID(existing, id)
	if cur == nil {
		return nil, nil
	}

	next := *cur
	apply(&next)
	next.UpdatedAt = s.now()

	if err := s.persist(ctx, next); err != nil {
		return nil, err
	}

	return &next, nil
}

func (s *Store) loadValid(ctx context.Context) ([]Appointment, int, error) {
	recs, err := s.coll.LoadAll(ctx)
	if err != nil {
		return nil, 0, err
	}

	appts := make([]Appointment, 0, len(recs))
	dropped := 0
	for _, rec := range recs {
		var a Appointment
		if err := json.Unmarshal(rec.Data, &a); err != nil {
			dropped++
			continue
		}
		if verr := a.validate(); verr != nil {
			dropped++
			continue
		}
		appts = append(appts, a)
	}

	sortByStart(appts)
	return appts, dropped, nil
}

func (s *Store) persist(ctx context.Context, a Appointment) error {
	rec, err := encodeRecord(a)
	if err != nil {
		return err
	}
	return s.coll.Update(ctx, rec)
}

func encodeRecord(a Appointment) (RawRecord, error) {
	data, err := json.Marshal(a)
	if err != nil {
		return RawRecord{}, &PersistenceError{Op: "write", Err: err}
	}
	return RawRecord{ID: a.ID, Data: data, Start: a.Start}, nil
}

func findByID(appts []Appointment, id string) *Appointment {
	for i := range appts {
		if appts[i].ID == id {
			return &appts[i]
		}
	}
	return nil
}

func sortByStart(appts []Appointment) {
	sort.Slice(appts, func(i, j int) bool {
		if appts[i].Start.Equal(appts[j].Start) {
			return appts[i].ID < appts[j].ID
		}
		return appts[i].Start.Before(appts[j].Start)
	})
}
