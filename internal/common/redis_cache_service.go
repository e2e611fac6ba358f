package common

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/fieldops/fieldmirror/internal/config"
	"github.com/fieldops/fieldmirror/internal/logging"
	"github.com/redis/go-redis/v9"
)

// RedisCacheService implements CacheInterface using Redis, for deployments
// where several service instances share one mirror database.
type RedisCacheService struct {
	client *redis.Client
	ctx    context.Context
}

// Ensure RedisCacheService implements CacheInterface
var _ CacheInterface = (*RedisCacheService)(nil)

// NewRedisCacheService creates a new Redis-based cache service
func NewRedisCacheService(cfg config.CacheConfig) (*RedisCacheService, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%s", cfg.RedisHost, cfg.RedisPort),
		Password:     cfg.RedisPassword,
		DB:           0,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisCacheService{client: client, ctx: ctx}, nil
}

// Set stores a value in Redis with the given key and duration
func (r *RedisCacheService) Set(key string, value interface{}, duration time.Duration) {
	data, err := json.Marshal(value)
	if err != nil {
		logging.Warn("Redis cache: failed to marshal value", "key", key, "error", err.Error())
		return
	}
	if err := r.client.Set(r.ctx, key, data, duration).Err(); err != nil {
		logging.Warn("Redis cache: set failed", "key", key, "error", err.Error())
	}
}

// Get retrieves a value from Redis by key. Values come back as decoded JSON.
func (r *RedisCacheService) Get(key string) (interface{}, bool) {
	data, err := r.client.Get(r.ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	var value interface{}
	if err := json.Unmarshal(data, &value); err != nil {
		return nil, false
	}
	return value, true
}

// Delete removes a value from Redis by key
func (r *RedisCacheService) Delete(key string) {
	if err := r.client.Del(r.ctx, key).Err(); err != nil {
		logging.Warn("Redis cache: delete failed", "key", key, "error", err.Error())
	}
}

// GetOrSet retrieves a value from Redis, or loads and stores it if missing
func (r *RedisCacheService) GetOrSet(
	key string,
	duration time.Duration,
	loader func() (any, error)) (interface{}, error) {
	if val, found := r.Get(key); found {
		return val, nil
	}

	val, err := loader()
	if err != nil {
		return nil, err
	}

	r.Set(key, val, duration)
	return val, nil
}

// Close closes the Redis connection
func (r *RedisCacheService) Close() error {
	return r.client.Close()
}

// NewCacheFromConfig picks the cache backend from config, falling back to
// the in-memory cache when Redis is unreachable.
func NewCacheFromConfig(cfg config.CacheConfig) CacheInterface {
	if cfg.Backend == "redis" {
		if svc, err := NewRedisCacheService(cfg); err == nil {
			logging.Info("Using Redis cache backend")
			return svc
		} else {
			logging.Warn("Redis unavailable, falling back to in-memory cache", "error", err.Error())
		}
	}
	return NewCacheService(5*time.Minute, 10*time.Minute)
}
