package collector

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func TestCacheKey(t *testing.T) {
	a := CacheKey("p:", "https://example.com/?q=1")
	b := CacheKey("p:", "https://example.com/?q=2")

	if a == b {
		t.Error("different URLs produced the same key")
	}

	if !strings.HasPrefix(a, "p:") || len(a) != len("p:")+64 {
		t.Errorf("unexpected key %q", a)
	}

	if a != CacheKey("p:", "https://example.com/?q=1") {
		t.Error("key is not stable")
	}
}

func TestNoOpCache(t *testing.T) {
	var c NoOpCache

	if err := c.Set(context.Background(), "k", []byte("v"), 0); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	if _, err := c.Get(context.Background(), "k"); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("Get error = %v, want ErrCacheMiss", err)
	}
}

func TestRedisCache(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()

	c, err := NewRedisCache(ctx, RedisOptions{Address: mr.Addr()})
	if err != nil {
		t.Fatalf("NewRedisCache failed: %v", err)
	}
	defer c.Close()

	if _, err := c.Get(ctx, "missing"); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("Get(missing) error = %v, want ErrCacheMiss", err)
	}

	if err := c.Set(ctx, "k", []byte("value"), time.Minute); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	got, err := c.Get(ctx, "k")
	if err != nil || string(got) != "value" {
		t.Fatalf("Get = %q, %v", got, err)
	}

	mr.FastForward(2 * time.Minute)

	if _, err := c.Get(ctx, "k"); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("Get after expiry error = %v, want ErrCacheMiss", err)
	}
}

func TestNewRedisCache_Errors(t *testing.T) {
	if _, err := NewRedisCache(context.Background(), RedisOptions{}); !errors.Is(err, ErrEmptyRedisAddress) {
		t.Errorf("error = %v, want ErrEmptyRedisAddress", err)
	}

	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	if _, err := NewRedisCache(context.Background(), RedisOptions{Address: addr}); err == nil {
		t.Error("expected ping error for closed server")
	}
}
