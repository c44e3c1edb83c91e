package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore is a Store shared by every instance connected to the same Redis.
type RedisStore struct {
	rdb    *redis.Client
	prefix string
}

// RedisOption configures a RedisStore.
type RedisOption func(*RedisStore)

// WithPrefix sets the key namespace. The default is "ratelimit".
func WithPrefix(prefix string) RedisOption {
	return func(s *RedisStore) { s.prefix = strings.Trim(prefix, ":") }
}

// NewRedisStore creates a RedisStore on an existing client.
func NewRedisStore(rdb *redis.Client, opts ...RedisOption) *RedisStore {
	s := &RedisStore{
		rdb:    rdb,
		prefix: "ratelimit",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RedisStore) key(k string) string {
	return s.prefix + ":" + k
}

// Hit implements Store. SET NX opens the window with its expiry and INCR
// counts the attempt; both run in one MULTI so no caller sees a counter
// without a TTL.
func (s *RedisStore) Hit(ctx context.Context, key string, decay time.Duration) (int, error) {
	k := s.key(key)

	var incr *redis.IntCmd
	_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.SetNX(ctx, k, 0, decay)
		incr = pipe.Incr(ctx, k)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("redis hit: %w", err)
	}
	return int(incr.Val()), nil
}

// TooManyAttempts implements Store.
func (s *RedisStore) TooManyAttempts(ctx context.Context, key string, maxAttempts int) (bool, error) {
	n, err := s.Attempts(ctx, key)
	if err != nil {
		return false, err
	}
	return n >= maxAttempts, nil
}

// Attempts implements Store.
func (s *RedisStore) Attempts(ctx context.Context, key string) (int, error) {
	n, err := s.rdb.Get(ctx, s.key(key)).Int()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("redis attempts: %w", err)
	}
	return n, nil
}

// AvailableIn implements Store.
func (s *RedisStore) AvailableIn(ctx context.Context, key string) (time.Duration, error) {
	ttl, err := s.rdb.PTTL(ctx, s.key(key)).Result()
	if err != nil {
		return 0, fmt.Errorf("redis ttl: %w", err)
	}
	// Negative values mean the key is gone or has no expiry.
	if ttl < 0 {
		return 0, nil
	}
	return ttl, nil
}

// Clear implements Store.
func (s *RedisStore) Clear(ctx context.Context, key string) error {
	if err := s.rdb.Del(ctx, s.key(key)).Err(); err != nil {
		return fmt.Errorf("redis clear: %w", err)
	}
	return nil
}

// Ping implements Pinger.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}
