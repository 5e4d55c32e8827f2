package notify

import "context"

// StateStore is the shared durable key-value layer holding per-viewer
// notification state (snapshot, dismissed, sent, items). Implementations
// announce writes so other open views can converge without polling.
type StateStore interface {
	// Get returns (nil, nil) for an absent key.
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}

func snapshotKey(s Scope) string  { return s.Key() + ":snapshot" }
func dismissedKey(s Scope) string { return s.Key() + ":dismissed" }
func sentKey(s Scope) string      { return s.Key() + ":sent" }
func itemsKey(s Scope) string     { return s.Key() + ":items" }
