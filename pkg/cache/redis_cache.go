package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/greglas75/coding-ui-sub005/pkg/config"
	"github.com/greglas75/coding-ui-sub005/pkg/evidence"
	"github.com/greglas75/coding-ui-sub005/pkg/observability"
)

const defaultKeyPrefix = "verdict:"

// RedisCache stores verdicts in Redis as JSON with a TTL, so multiple
// engine instances share one verdict cache.
type RedisCache struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
}

// NewRedisCache connects to Redis and verifies the connection.
func NewRedisCache(cfg config.RedisConfig, ttl time.Duration) (*RedisCache, error) {
	if cfg.Address == "" {
		return nil, fmt.Errorf("redis address is required")
	}
	keyPrefix := cfg.KeyPrefix
	if keyPrefix == "" {
		keyPrefix = defaultKeyPrefix
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.Database,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	observability.Infof("Verdict cache connected to redis at %s with prefix %s, TTL %v",
		cfg.Address, keyPrefix, ttl)

	return &RedisCache{
		client:    client,
		keyPrefix: keyPrefix,
		ttl:       ttl,
	}, nil
}

// Get fetches and decodes the cached verdict for key.
func (c *RedisCache) Get(ctx context.Context, key string) (*evidence.ValidationVerdict, bool, error) {
	data, err := c.client.Get(ctx, c.keyPrefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("redis get: %w", err)
	}

	var verdict evidence.ValidationVerdict
	if err := json.Unmarshal(data, &verdict); err != nil {
		// A corrupt entry behaves like a miss; it will be overwritten.
		observability.Warnf("Discarding corrupt cached verdict for key %s: %v", key, err)
		return nil, false, nil
	}
	return &verdict, true, nil
}

// Set stores the verdict as JSON under the prefixed key.
func (c *RedisCache) Set(ctx context.Context, key string, verdict *evidence.ValidationVerdict) error {
	data, err := json.Marshal(verdict)
	if err != nil {
		return fmt.Errorf("marshal verdict: %w", err)
	}
	if err := c.client.Set(ctx, c.keyPrefix+key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Close releases the underlying client.
func (c *RedisCache) Close() error {
	return c.client.Close()
}
