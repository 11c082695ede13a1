// Package redis implements rate limit storage using Redis
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/wrale/isoreplay/internal/isoreplay/ratelimit"
)

// Store implements ratelimit.Store using Redis
type Store struct {
	client *redis.Client
	prefix string
}

// NewStore creates a new Redis-backed rate limit store
func NewStore(client *redis.Client, prefix string) *Store {
	if prefix == "" {
		prefix = "isoreplay"
	}
	return &Store{client: client, prefix: prefix}
}

// keyStr converts a LimitKey to a Redis key
func (s *Store) keyStr(key ratelimit.LimitKey) string {
	return fmt.Sprintf("%s:rate:%s:%s", s.prefix, key.Type, key.RemoteIP)
}

// Increment implements ratelimit.Store. The window starts with the first
// increment of a key and ends when the key expires.
func (s *Store) Increment(ctx context.Context, key ratelimit.LimitKey, limit ratelimit.Limit) (int, time.Time, error) {
	redisKey := s.keyStr(key)

	pipe := s.client.TxPipeline()
	incr := pipe.Incr(ctx, redisKey)
	pipe.ExpireNX(ctx, redisKey, limit.Period)
	ttl := pipe.PTTL(ctx, redisKey)

	if _, err := pipe.Exec(ctx); err != nil {
		return 0, time.Time{}, fmt.Errorf("%w: %v", ratelimit.ErrStoreError, err)
	}

	remaining := ttl.Val()
	if remaining < 0 {
		remaining = limit.Period
	}

	return int(incr.Val()), time.Now().Add(remaining), nil
}

// Reset implements ratelimit.Store
func (s *Store) Reset(ctx context.Context, key ratelimit.LimitKey) error {
	if err := s.client.Del(ctx, s.keyStr(key)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ratelimit.ErrStoreError, err)
	}
	return nil
}
