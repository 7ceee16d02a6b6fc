package clientstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "enrollment:client:"

// RedisStore keeps each scope in one Redis hash that expires after ttl of
// inactivity.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore connects to url and verifies the connection.
func NewRedisStore(ctx context.Context, url string, ttl time.Duration) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close() //nolint:errcheck
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return &RedisStore{client: client, ttl: ttl}, nil
}

func scopeKey(scope string) string {
	return keyPrefix + scope
}

func (s *RedisStore) Set(ctx context.Context, scope, key, value string) error {
	k := scopeKey(scope)
	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, k, key, value)
	if s.ttl > 0 {
		pipe.Expire(ctx, k, s.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("client storage set %s: %w", key, err)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, scope, key string) (string, error) {
	v, err := s.client.HGet(ctx, scopeKey(scope), key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("client storage get %s: %w", key, err)
	}
	return v, nil
}

func (s *RedisStore) Clear(ctx context.Context, scope string) error {
	return s.client.Del(ctx, scopeKey(scope)).Err()
}

// Health pings the server.
func (s *RedisStore) Health(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

// Open returns a RedisStore when url is set and a MemoryStore otherwise. The
// returned close function is never nil.
func Open(ctx context.Context, url string, ttl time.Duration) (Store, func() error, error) {
	if url == "" {
		return NewMemoryStore(), func() error { return nil }, nil
	}
	rs, err := NewRedisStore(ctx, url, ttl)
	if err != nil {
		return nil, nil, err
	}
	return rs, rs.Close, nil
}
