package ratelimit

import (
	"context"
	"errors"
	"time"
)

type windowCounter interface {
	IncrWindow(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
	RateLimitKey(parts ...string) string
}

// RedisStore shares counters between API instances through Redis.
type RedisStore struct {
	client windowCounter
	now    func() time.Time
}

// NewRedisStore wraps a redis client exposing IncrWindow.
func NewRedisStore(client windowCounter) (*RedisStore, error) {
	if client == nil {
		return nil, errors.New("redis client required for rate limiting")
	}
	return &RedisStore{client: client, now: time.Now}, nil
}

func (s *RedisStore) Increment(ctx context.Context, key string, window time.Duration) (Counter, error) {
	count, ttl, err := s.client.IncrWindow(ctx, s.client.RateLimitKey(key), window)
	if err != nil {
		return Counter{}, err
	}
	return Counter{Count: count, ResetAt: s.now().Add(ttl)}, nil
}
