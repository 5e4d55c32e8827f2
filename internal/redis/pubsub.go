package redisclient

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// changeChannel carries the keys of storage writes so other open views can
// refresh. It is a UI convergence aid only; nothing relies on it for
// correctness.
const changeChannel = "clinic:changes"

// PublishChange announces that the named storage key was written. Failures
// are returned but safe to ignore.
func PublishChange(rdb *redis.Client, key string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	return rdb.Publish(ctx, changeChannel, key).Err()
}

// WatchChanges subscribes to storage-change announcements and streams the
// written keys until ctx is cancelled.
func WatchChanges(ctx context.Context, rdb *redis.Client) <-chan string {
	out := make(chan string)
	sub := rdb.Subscribe(ctx, changeChannel)

	go func() {
		defer close(out)
		defer sub.Close()

		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				select {
				case out <- msg.Payload:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out
}
