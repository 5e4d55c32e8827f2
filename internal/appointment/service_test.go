package appointment

import (
	"context"
	"errors"
	"testing"
)

func TestService_InitialLoadClearsLoadingFlag(t *testing.T) {
	s, _ := newTestStore()
	svc := NewService(s)

	if !svc.Loading() {
		t.Fatal("expected loading=true before Start")
	}
	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if svc.Loading() {
		t.Error("expected loading=false after Start")
	}
}

func TestService_MutationsRefreshTheView(t *testing.T) {
	s, _ := newTestStore()
	svc := NewService(s)
	ctx := context.Background()

	if err := svc.Start(ctx); err != nil {
		t.Fatalf("start failed: %v", err)
	}

	appt, err := svc.Add(ctx, scheduledInput("T1", at(10, 0), at(10, 30)))
	if err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if got := svc.Appointments(); len(got) != 1 || got[0].ID != appt.ID {
		t.Fatalf("expected view to contain the new booking, got %d items", len(got))
	}

	notes := "bring previous scans"
	if _, err := svc.Update(ctx, appt.ID, Patch{Notes: &notes}); err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if got := svc.Appointments(); got[0].Notes != notes {
		t.Error("expected view to reflect the update")
	}

	if err := svc.Remove(ctx, appt.ID); err != nil {
		t.Fatalf("remove failed: %v", err)
	}
	if got := svc.Appointments(); len(got) != 0 {
		t.Errorf("expected empty view after remove, got %d", len(got))
	}
}

func TestService_PropagatesStoreErrorsUnchanged(t *testing.T) {
	s, _ := newTestStore()
	svc := NewService(s)
	ctx := context.Background()

	if err := svc.Start(ctx); err != nil {
		t.Fatalf("start failed: %v", err)
	}

	if _, err := svc.Add(ctx, scheduledInput("T1", at(10, 0), at(10, 30))); err != nil {
		t.Fatalf("add failed: %v", err)
	}

	_, err := svc.Add(ctx, scheduledInput("T1", at(10, 0), at(10, 30)))
	var cerr *ConflictError
	if !errors.As(err, &cerr) {
		t.Fatalf("expected the store's ConflictError verbatim, got %v", err)
	}

	// A failed mutation must not disturb the view.
	if got := svc.Appointments(); len(got) != 1 {
		t.Errorf("expected 1 item in view, got %d", len(got))
	}
}

func TestService_AppointmentsReturnsACopy(t *testing.T) {
	s, _ := newTestStore()
	svc := NewService(s)
	ctx := context.Background()

	if err := svc.Start(ctx); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if _, err := svc.Add(ctx, scheduledInput("T1", at(10, 0), at(10, 30))); err != nil {
		t.Fatalf("add failed: %v", err)
	}

	view := svc.Appointments()
	view[0].Notes = "mutated by caller"

	if svc.Appointments()[0].Notes == "mutated by caller" {
		t.Error("callers must not be able to mutate the service view")
	}
}
