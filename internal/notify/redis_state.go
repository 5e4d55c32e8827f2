package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	redisclient "github.com/clinicdesk/scheduling-engine/internal/redis"
)

const redisKeyPrefix = "notify:"

// RedisState keeps viewer state in Redis and publishes every written key on
// the shared change channel.
type RedisState struct {
	rdb *redis.Client
}

func NewRedisState(rdb *redis.Client) *RedisState {
	return &RedisState{rdb: rdb}
}

func (s *RedisState) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := s.rdb.Get(ctx, redisKeyPrefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("notify state get %s: %w", key, err)
	}
	return val, nil
}

func (s *RedisState) Set(ctx context.Context, key string, value []byte) error {
	if err := s.rdb.Set(ctx, redisKeyPrefix+key, value, 0).Err(); err != nil {
		return fmt.Errorf("notify state set %s: %w", key, err)
	}

	// Best effort: the change feed only drives view refreshes.
	_ = redisclient.PublishChange(s.rdb, redisKeyPrefix+key)
	return nil
}

var _ StateStore = (*RedisState)(nil)
