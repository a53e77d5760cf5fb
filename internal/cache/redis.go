package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	connectAttempts   = 10
	connectBackoffCap = 3 * time.Second
)

// RedisStore implements Store on a single process-wide Redis connection.
type RedisStore struct {
	client *redis.Client
}

var _ Store = (*RedisStore)(nil)

func NewRedisStore(addr string, password string, db int) *RedisStore {
	client := redis.NewClient(&redis.Options{
		Addr:        addr,
		Password:    password,
		DB:          db,
		DialTimeout: 3 * time.Second,
	})

	return &RedisStore{client: client}
}

// Connect pings the backend with bounded exponential backoff (capped at 3s
// per wait, up to 10 attempts). Failure is not fatal to the process: every
// Store operation degrades per-call, so the caller may continue without a
// reachable backend and lose only cached features.
func (s *RedisStore) Connect(ctx context.Context) error {
	backoff := 100 * time.Millisecond

	var lastErr error
	for attempt := 1; attempt <= connectAttempts; attempt++ {
		if err := s.client.Ping(ctx).Err(); err == nil {
			slog.Info("redis connected", "attempt", attempt)
			return nil
		} else {
			lastErr = err
			slog.Warn("redis ping failed", "attempt", attempt, "error", err)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}

		backoff *= 2
		if backoff > connectBackoffCap {
			backoff = connectBackoffCap
		}
	}

	return fmt.Errorf("redis unreachable after %d attempts: %w", connectAttempts, lastErr)
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) Set(ctx context.Context, key string, value any, ttl time.Duration) bool {
	data, err := json.Marshal(value)
	if err != nil {
		slog.Warn("cache set: marshal failed", "key", key, "error", err)
		return false
	}

	if err := s.client.Set(ctx, key, data, ttl).Err(); err != nil {
		slog.Warn("cache set failed", "key", key, "error", err)
		return false
	}

	return true
}

func (s *RedisStore) Get(ctx context.Context, key string, dest any) bool {
	data, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false
	}
	if err != nil {
		slog.Warn("cache get failed", "key", key, "error", err)
		return false
	}

	if err := json.Unmarshal(data, dest); err != nil {
		slog.Warn("cache get: unmarshal failed", "key", key, "error", err)
		return false
	}

	return true
}

func (s *RedisStore) Delete(ctx context.Context, key string) bool {
	if err := s.client.Del(ctx, key).Err(); err != nil {
		slog.Warn("cache delete failed", "key", key, "error", err)
		return false
	}

	return true
}

func (s *RedisStore) Exists(ctx context.Context, key string) bool {
	n, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		slog.Warn("cache exists failed", "key", key, "error", err)
		return false
	}

	return n > 0
}

func (s *RedisStore) Increment(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	count, err := s.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("increment %s: %w", key, err)
	}

	// The key was created by this increment; give it its window.
	if count == 1 && ttl > 0 {
		if err := s.client.Expire(ctx, key, ttl).Err(); err != nil {
			return 0, fmt.Errorf("set ttl on %s: %w", key, err)
		}
	}

	return count, nil
}
