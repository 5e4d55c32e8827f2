package appointment

import (
	"context"
	"sync"
)

// Service keeps a refreshable in-memory view of the appointment set for
// consumers. Every mutation delegates to the Store and then re-reads the full
// set, so the view never drifts from store truth by optimistic merging.
// Store errors propagate unchanged; the Service adds no error kinds of its
// own.
type Service struct {
	store *Store

	mu      sync.RWMutex
	items   []Appointment
	dropped int
	loading bool
}

func NewService(store *Store) *Service {
	return &Service{store: store, loading: true}
}

// Start performs the one-time initial load. Loading reports true until it
// completes, successfully or not.
func (s *Service) Start(ctx context.Context) error {
	err := s.Refresh(ctx)

	s.mu.Lock()
	s.loading = false
	s.mu.Unlock()

	return err
}

// Refresh reloads the view from the Store.
func (s *Service) Refresh(ctx context.Context) error {
	items, dropped, err := s.store.ListAll(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.items = items
	s.dropped = dropped
	s.mu.Unlock()

	return nil
}

// Add books an appointment and refreshes the view. When the booking succeeded
// but the refresh failed, the appointment is returned together with the
// refresh error.
func (s *Service) Add(ctx context.Context, in CreateInput) (*Appointment, error) {
	appt, err := s.store.Create(ctx, in)
	if err != nil {
		return nil, err
	}
	return appt, s.Refresh(ctx)
}

// Update patches an appointment and refreshes the view. A missing id yields
// (nil, nil), mirroring the Store contract.
func (s *Service) Update(ctx context.Context, id string, patch Patch) (*Appointment, error) {
	appt, err := s.store.Update(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	if appt == nil {
		return nil, nil
	}
	return appt, s.Refresh(ctx)
}

// Remove deletes by id and refreshes the view.
func (s *Service) Remove(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	return s.Refresh(ctx)
}

// Appointments returns a copy of the current view, sorted by start.
func (s *Service) Appointments() []Appointment {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Appointment, len(s.items))
	copy(out, s.items)
	return out
}

// Loading reports whether the initial load is still in flight.
func (s *Service) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// DroppedRecords reports how many persisted records the last refresh dropped
// as malformed.
func (s *Service) DroppedRecords() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dropped
}
