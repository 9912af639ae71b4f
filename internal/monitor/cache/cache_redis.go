package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"fairgate/internal/monitor"
	id "fairgate/pkg/domain"
)

const resultKeyPrefix = "monitor:result:"

// RedisCache is the production implementation for multi-instance
// deployments where the dashboard may read from any node. Results are
// stored as JSON under a per-process key with the caller's TTL.
type RedisCache struct {
	client *redis.Client
}

// NewRedis constructs a Redis-backed result cache.
func NewRedis(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

func (c *RedisCache) Put(ctx context.Context, result *monitor.Result, ttl time.Duration) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	key := resultKeyPrefix + result.ProcessID.String()
	if err := c.client.Set(ctx, key, payload, ttl).Err(); err != nil {
		return fmt.Errorf("cache result: %w", err)
	}
	return nil
}

// Get returns the cached result, or nil on a miss so the caller recomputes.
func (c *RedisCache) Get(ctx context.Context, processID id.ProcessID) (*monitor.Result, error) {
	key := resultKeyPrefix + processID.String()
	payload, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read cached result: %w", err)
	}

	var result monitor.Result
	if err := json.Unmarshal(payload, &result); err != nil {
		return nil, fmt.Errorf("unmarshal cached result: %w", err)
	}
	return &result, nil
}
