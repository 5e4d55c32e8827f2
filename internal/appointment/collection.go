package appointment

import (
	"context"
	"time"
)

// RawRecord is one persisted appointment payload. Data is kept opaque at this
// layer: the Store parses and validates it, and drops records it cannot
// parse instead of failing the whole read.
type RawRecord struct {
	ID    string
	Data  []byte
	Start time.Time
}

// Collection persists the raw appointment set. The Store is the only caller;
// all scheduling rules live above this interface so it can be backed by
// Postgres in production and by memory in tests.
type Collection interface {
	LoadAll(ctx context.Context) ([]RawRecord, error)
	Insert(ctx context.Context, rec RawRecord) error
	Update(ctx context.Context, rec RawRecord) error
	// Delete is idempotent: deleting an unknown id is a no-op success.
	Delete(ctx context.Context, id string) error
	// ReplaceAll swaps the whole collection atomically.
	ReplaceAll(ctx context.Context, recs []RawRecord) error
}
