package appointment

import (
	"context"
	"sync"
)

// MemCollection is an in-memory Collection used by tests and the load
// simulator.
type MemCollection struct {
	mu   sync.RWMutex
	recs map[string]RawRecord

	// ReadErr and WriteErr, when set, make the corresponding operations fail.
	ReadErr  error
	WriteErr error
}

func NewMemCollection() *MemCollection {
	return &MemCollection{recs: make(map[string]RawRecord)}
}

func (c *MemCollection) LoadAll(ctx context.Context) ([]RawRecord, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.ReadErr != nil {
		return nil, &PersistenceError{Op: "read", Err: c.ReadErr}
	}

	result := make([]RawRecord, 0, len(c.recs))
	for _, rec := range c.recs {
		result = append(result, rec)
	}
	return result, nil
}

func (c *MemCollection) Insert(ctx context.Context, rec RawRecord) error {
	return c.put(rec)
}

func (c *MemCollection) Update(ctx context.Context, rec RawRecord) error {
	return c.put(rec)
}

func (c *MemCollection) Delete(ctx context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.WriteErr != nil {
		return &PersistenceError{Op: "write", Err: c.WriteErr}
	}

	delete(c.recs, id)
	return nil
}

func (c *MemCollection) ReplaceAll(ctx context.Context, recs []RawRecord) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.WriteErr != nil {
		return &PersistenceError{Op: "write", Err: c.WriteErr}
	}

	next := make(map[string]RawRecord, len(recs))
	for _, rec := range recs {
		next[rec.ID] = rec
	}
	c.recs = next
	return nil
}

// Put stores a raw payload directly, bypassing the Store. Tests use it to
// plant malformed records.
func (c *MemCollection) Put(rec RawRecord) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.recs[rec.ID] = rec
}

// Len reports the number of stored records.
func (c *MemCollection) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.recs)
}

func (c *MemCollection) put(rec RawRecord) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.WriteErr != nil {
		return &PersistenceError{Op: "write", Err: c.WriteErr}
	}

	c.recs[rec.ID] = rec
	return nil
}

var _ Collection = (*MemCollection)(nil)
