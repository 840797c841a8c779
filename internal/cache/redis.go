// Package cache provides the shared Redis cache used for aggregated usage
// metrics. Failures are reported to the caller, which treats them as
// cache misses; the engine never depends on the cache being up.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v9"
)

// Config holds Redis connection settings.
type Config struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix"`
}

// RedisCache is a JSON-serializing cache over one Redis database.
type RedisCache struct {
	client *redis.Client
	prefix string
}

// NewRedisCache creates a cache client with sensible pool settings.
func NewRedisCache(config Config) *RedisCache {
	client := redis.NewClient(&redis.Options{
		Addr:     config.Addr,
		Password: config.Password,
		DB:       config.DB,

		PoolSize:     50,
		MinIdleConns: 5,

		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,

		MaxRetries:      3,
		MinRetryBackoff: 8 * time.Millisecond,
		MaxRetryBackoff: 512 * time.Millisecond,
	})

	return &RedisCache{client: client, prefix: config.Prefix}
}

// Get loads a cached value into target. The boolean reports whether the
// key was present.
func (rc *RedisCache) Get(ctx context.Context, key string, target interface{}) (bool, error) {
	data, err := rc.client.Get(ctx, rc.prefix+":"+key).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("redis get failed: %v", err)
	}
	if err := json.Unmarshal(data, target); err != nil {
		return false, fmt.Errorf("failed to unmarshal cached data: %v", err)
	}
	return true, nil
}

// Set stores a value with a TTL.
func (rc *RedisCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value for cache: %v", err)
	}
	if err := rc.client.Set(ctx, rc.prefix+":"+key, data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %v", err)
	}
	return nil
}

// Ping verifies connectivity to Redis.
func (rc *RedisCache) Ping(ctx context.Context) error {
	return rc.client.Ping(ctx).Err()
}

// Close releases the client.
func (rc *RedisCache) Close() error {
	return rc.client.Close()
}
