package patient

import (
	"context"
	"testing"
)

func TestStatic_LabelFallsBackToRawID(t *testing.T) {
	dir := Static{"123456789": "Dana Levi"}

	if got := dir.Label(context.Background(), "123456789"); got != "Dana Levi" {
		t.Errorf("expected known label, got %q", got)
	}
	if got := dir.Label(context.Background(), "000000000"); got != "000000000" {
		t.Errorf("expected raw id fallback, got %q", got)
	}
}

func TestStatic_EmptyDirectoryIsUsable(t *testing.T) {
	var dir Static

	if got := dir.Label(context.Background(), "123"); got != "123" {
		t.Errorf("expected raw id from empty directory, got %q", got)
	}
}
