package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// activeField marks a session hash as existing even when it holds no entries.
const activeField = "__active"

// RedisStore keeps each session in a Redis hash under "<prefix>:session:<id>".
type RedisStore struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewRedisStore creates a Redis-backed store. A ttl of zero disables expiry.
func NewRedisStore(client redis.UniversalClient, prefix string, ttl time.Duration) *RedisStore {
	if prefix == "" {
		prefix = "sessionguard"
	}
	return &RedisStore{client: client, prefix: prefix, ttl: ttl}
}

func (s *RedisStore) key(id string) string {
	return fmt.Sprintf("%s:session:%s", s.prefix, id)
}

// Get implements Store.
func (s *RedisStore) Get(ctx context.Context, id, key string) (string, bool, error) {
	v, err := s.client.HGet(ctx, s.key(id), key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read session entry: %w", err)
	}
	return v, true, nil
}

// Set implements Store.
func (s *RedisStore) Set(ctx context.Context, id, key, value string) error {
	k := s.key(id)
	n, err := s.client.Exists(ctx, k).Result()
	if err != nil {
		return fmt.Errorf("failed to check session: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}

	_, err = s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.HSet(ctx, k, key, value)
		if s.ttl > 0 {
			p.Expire(ctx, k, s.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to write session entry: %w", err)
	}
	return nil
}

// Destroy implements Store.
func (s *RedisStore) Destroy(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, s.key(id)).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// IsActive implements Store.
func (s *RedisStore) IsActive(ctx context.Context, id string) (bool, error) {
	n, err := s.client.Exists(ctx, s.key(id)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check session: %w", err)
	}
	return n > 0, nil
}

// Activate implements Store.
func (s *RedisStore) Activate(ctx context.Context, id string) error {
	k := s.key(id)
	_, err := s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.HSet(ctx, k, activeField, "1")
		if s.ttl > 0 {
			p.Expire(ctx, k, s.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to activate session: %w", err)
	}
	return nil
}
