package clinichours

import (
	"errors"
	"testing"
	"time"
)

func at(h, m int) time.Time {
	return time.Date(2025, 6, 1, h, m, 0, 0, time.UTC)
}

func TestCheck_WithinHours(t *testing.T) {
	g := Default()

	if err := g.Check(at(10, 0), at(10, 30)); err != nil {
		t.Errorf("mid-day booking must pass: %v", err)
	}
	if err := g.Check(at(7, 0), at(7, 30)); err != nil {
		t.Errorf("booking at opening must pass: %v", err)
	}
}

func TestCheck_EndingExactlyAtCloseIsAllowed(t *testing.T) {
	g := Default()

	if err := g.Check(at(21, 30), at(22, 0)); err != nil {
		t.Errorf("appointment ending exactly at closing time must pass: %v", err)
	}
}

func TestCheck_SpillingPastCloseIsRejected(t *testing.T) {
	g := Default()

	err := g.Check(at(21, 45), at(22, 15))
	if !errors.Is(err, ErrOutsideHours) {
		t.Fatalf("expected ErrOutsideHours, got %v", err)
	}
}

func TestCheck_BeforeOpeningIsRejected(t *testing.T) {
	g := Default()

	if err := g.Check(at(6, 30), at(7, 30)); !errors.Is(err, ErrOutsideHours) {
		t.Fatalf("expected ErrOutsideHours, got %v", err)
	}
	if err := g.Check(at(6, 0), at(6, 45)); !errors.Is(err, ErrOutsideHours) {
		t.Fatalf("expected ErrOutsideHours, got %v", err)
	}
}

func TestCheck_DegenerateIntervalIsRejected(t *testing.T) {
	g := Default()

	if err := g.Check(at(10, 0), at(10, 0)); !errors.Is(err, ErrOutsideHours) {
		t.Fatalf("expected ErrOutsideHours for empty interval, got %v", err)
	}
}

func TestCheck_CustomHours(t *testing.T) {
	g := Gate{OpenMinute: 9 * 60, CloseMinute: 17 * 60}

	if err := g.Check(at(8, 30), at(9, 30)); !errors.Is(err, ErrOutsideHours) {
		t.Errorf("expected rejection before a 09:00 opening")
	}
	if err := g.Check(at(16, 0), at(17, 0)); err != nil {
		t.Errorf("booking ending at a 17:00 close must pass: %v", err)
	}
}
