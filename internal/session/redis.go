package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCache stores session identity entries in Redis with a fixed TTL.
type RedisCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisCache creates a Redis-backed session cache. ttl bounds how long
// an identity entry outlives its last login.
func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisCache{
		client: client,
		prefix: "idsess:",
		ttl:    ttl,
	}
}

func (r *RedisCache) key(sessionID string) string {
	return r.prefix + sessionID
}

func (r *RedisCache) Put(ctx context.Context, sessionID string, entry map[string]any) error {
	if sessionID == "" {
		return fmt.Errorf("session: missing session id")
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("session: failed to marshal: %w", err)
	}
	return r.client.Set(ctx, r.key(sessionID), data, r.ttl).Err()
}

func (r *RedisCache) Get(ctx context.Context, sessionID string) (map[string]any, error) {
	val, err := r.client.Get(ctx, r.key(sessionID)).Result()
	if err == redis.Nil {
		return nil, nil // not found
	}
	if err != nil {
		return nil, err
	}

	var entry map[string]any
	if err := json.Unmarshal([]byte(val), &entry); err != nil {
		return nil, fmt.Errorf("session: failed to unmarshal: %w", err)
	}
	return entry, nil
}

func (r *RedisCache) Delete(ctx context.Context, sessionID string) error {
	return r.client.Del(ctx, r.key(sessionID)).Err()
}
