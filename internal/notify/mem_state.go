package notify

import (
	"context"
	"sync"
)

// MemState is an in-memory StateStore for tests.
type MemState struct {
	mu   sync.RWMutex
	vals map[string][]byte

	// Err, when set, fails every operation.
	Err error
}

func NewMemState() *MemState {
	return &MemState{vals: make(map[string][]byte)}
}

func (s *MemState) Get(ctx context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.Err != nil {
		return nil, s.Err
	}

	val, ok := s.vals[key]
	if !ok {
		return nil, nil
	}
	out := make([]byte, len(val))
	copy(out, val)
	return out, nil
}

func (s *MemState) Set(ctx context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Err != nil {
		return s.Err
	}

	stored := make([]byte, len(value))
	copy(stored, value)
	s.vals[key] = stored
	return nil
}

var _ StateStore = (*MemState)(nil)
