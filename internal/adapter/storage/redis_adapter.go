package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	reportKeyPrefix     = "report:"
	reportGenerationKey = "report:generation"
)

// RedisAdapter caches serialized report results. The store remains the only
// authority; a cache miss, error or stale entry only costs a recomputation.
type RedisAdapter struct {
	client *redis.Client
}

func NewRedisAdapter(client *redis.Client) *RedisAdapter {
	return &RedisAdapter{client: client}
}

func (r *RedisAdapter) GetJSON(ctx context.Context, key string, dest any) (bool, error) {
	raw, err := r.client.Get(ctx, reportKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("cache get: %w", err)
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, fmt.Errorf("cache decode: %w", err)
	}
	return true, nil
}

func (r *RedisAdapter) SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache encode: %w", err)
	}
	if err := r.client.Set(ctx, reportKeyPrefix+key, raw, ttl).Err(); err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	return nil
}

// BumpGeneration advances the counter mixed into every report key, orphaning
// all cached entries at once. Orphans age out via their TTL.
func (r *RedisAdapter) BumpGeneration(ctx context.Context) error {
	if err := r.client.Incr(ctx, reportGenerationKey).Err(); err != nil {
		return fmt.Errorf("bump generation: %w", err)
	}
	return nil
}

func (r *RedisAdapter) Generation(ctx context.Context) (int64, error) {
	gen, err := r.client.Get(ctx, reportGenerationKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("get generation: %w", err)
	}
	return gen, nil
}
