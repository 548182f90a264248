package flowstate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "authbridge:flowstate:"

// RedisStore keeps flow state in Redis with TTL-based expiry. GETDEL makes
// Consume atomic across concurrent callback landings.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore wraps an established Redis client.
func NewRedisStore(client *redis.Client) *RedisStore {
	if client == nil {
		panic("flowstate: redis client cannot be nil")
	}
	return &RedisStore{client: client}
}

func (s *RedisStore) Save(ctx context.Context, state, verifier string, ttl time.Duration) error {
	if state == "" || verifier == "" {
		return ErrInvalidState
	}
	if err := s.client.Set(ctx, keyPrefix+state, verifier, ttl).Err(); err != nil {
		return fmt.Errorf("failed to save flow state: %w", err)
	}
	return nil
}

func (s *RedisStore) Consume(ctx context.Context, state string) (string, error) {
	if state == "" {
		return "", ErrInvalidState
	}
	verifier, err := s.client.GetDel(ctx, keyPrefix+state).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrStateNotFound
		}
		return "", fmt.Errorf("failed to consume flow state: %w", err)
	}
	return verifier, nil
}

var _ Store = (*RedisStore)(nil)
