package collector

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache errors.
var (
	ErrCacheMiss         = errors.New("cache key not found")
	ErrEmptyRedisAddress = errors.New("redis address is required")
)

const redisConnectTimeout = 5 * time.Second

// ResponseCache stores raw API response bodies keyed by request URL.
type ResponseCache interface {
	// Get returns ErrCacheMiss when the key is absent or expired.
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Close() error
}

// CacheKey derives a stable key for a request URL.
func CacheKey(prefix, url string) string {
	sum := sha256.Sum256([]byte(url))
	return prefix + hex.EncodeToString(sum[:])
}

// NoOpCache never stores anything. It is used when caching is disabled.
type NoOpCache struct{}

func (NoOpCache) Get(context.Context, string) ([]byte, error) {
	return nil, ErrCacheMiss
}

func (NoOpCache) Set(context.Context, string, []byte, time.Duration) error {
	return nil
}

func (NoOpCache) Close() error {
	return nil
}

// RedisOptions configures a RedisCache.
type RedisOptions struct {
	Address  string
	Password string
	DB       int
}

// RedisCache keeps responses in Redis so repeated runs do not spend API quota.
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache connects to Redis and verifies the connection with PING.
func NewRedisCache(ctx context.Context, opts RedisOptions) (*RedisCache, error) {
	if opts.Address == "" {
		return nil, ErrEmptyRedisAddress
	}

	client := redis.NewClient(&redis.Options{
		Addr:     opts.Address,
		Password: opts.Password,
		DB:       opts.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, redisConnectTimeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &RedisCache{client: client}, nil
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}

	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}

	return value, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := c.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}

	return nil
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}
