package collector

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"spectra/internal/config"
)

func fastRetry() *config.RetryPolicy {
	return &config.RetryPolicy{
		MaxAttempts:       3,
		InitialDelayMs:    1,
		MaxDelayMs:        5,
		BackoffMultiplier: 1.0,
		TimeoutSec:        5,
	}
}

func TestFetcher_Fetch_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ua := r.Header.Get("User-Agent"); ua == "" {
			t.Error("request missing User-Agent")
		}

		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	f := NewFetcher(FetcherOptions{Retry: fastRetry()})

	res, err := f.Fetch(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}

	if string(res.Body) != `{"ok":true}` {
		t.Errorf("Body = %s", res.Body)
	}

	if res.Attempts != 1 || res.Cached {
		t.Errorf("Attempts = %d, Cached = %v", res.Attempts, res.Cached)
	}
}

func TestFetcher_Fetch_RetriesTransientStatus(t *testing.T) {
	var calls atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}

		_, _ = w.Write([]byte("done"))
	}))
	defer server.Close()

	f := NewFetcher(FetcherOptions{Retry: fastRetry()})

	res, err := f.Fetch(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}

	if res.Attempts != 3 {
		t.Errorf("Attempts = %d, want 3", res.Attempts)
	}
}

func TestFetcher_Fetch_NonRetryableStatus(t *testing.T) {
	var calls atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	f := NewFetcher(FetcherOptions{Retry: fastRetry()})

	res, err := f.Fetch(context.Background(), server.URL)
	if !errors.Is(err, ErrUnexpectedStatusCode) {
		t.Fatalf("error = %v, want ErrUnexpectedStatusCode", err)
	}

	if res.StatusCode != http.StatusUnauthorized {
		t.Errorf("StatusCode = %d, want 401", res.StatusCode)
	}

	if got := calls.Load(); got != 1 {
		t.Errorf("calls = %d, want 1", got)
	}
}

func TestFetcher_Fetch_ContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f := NewFetcher(FetcherOptions{Retry: fastRetry()})

	if _, err := f.Fetch(ctx, server.URL); err == nil {
		t.Fatal("expected error for cancelled context")
	}
}

func TestFetcher_Fetch_UsesCache(t *testing.T) {
	mr := miniredis.RunT(t)

	cache, err := NewRedisCache(context.Background(), RedisOptions{Address: mr.Addr()})
	if err != nil {
		t.Fatalf("NewRedisCache failed: %v", err)
	}
	defer cache.Close()

	var calls atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte("payload"))
	}))
	defer server.Close()

	f := NewFetcher(FetcherOptions{Retry: fastRetry(), Cache: cache, CacheTTL: time.Hour})

	for i := 0; i < 2; i++ {
		res, err := f.Fetch(context.Background(), server.URL)
		if err != nil {
			t.Fatalf("Fetch %d failed: %v", i, err)
		}

		if string(res.Body) != "payload" {
			t.Errorf("Body = %s", res.Body)
		}

		if res.Cached != (i == 1) {
			t.Errorf("fetch %d Cached = %v", i, res.Cached)
		}
	}

	if got := calls.Load(); got != 1 {
		t.Errorf("server calls = %d, want 1", got)
	}

	if !mr.Exists(CacheKey("spectra:http:", server.URL)) {
		t.Error("response not stored under the expected key")
	}
}

func TestFetcher_FetchJSON_Invalid(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("not json"))
	}))
	defer server.Close()

	f := NewFetcher(FetcherOptions{Retry: fastRetry()})

	var v map[string]any
	if err := f.FetchJSON(context.Background(), server.URL, &v); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestIsRetryableStatus(t *testing.T) {
	tests := []struct {
		code int
		want bool
	}{
		{http.StatusTooManyRequests, true},
		{http.StatusServiceUnavailable, true},
		{http.StatusGatewayTimeout, true},
		{http.StatusNotFound, false},
		{http.StatusUnauthorized, false},
	}

	for _, tt := range tests {
		if got := isRetryableStatus(tt.code); got != tt.want {
			t.Errorf("isRetryableStatus(%d) = %v, want %v", tt.code, got, tt.want)
		}
	}
}

func TestFetcher_FetchJSON_APIFailureNotCached(t *testing.T) {
	mr := miniredis.RunT(t)

	cache, err := NewRedisCache(context.Background(), RedisOptions{Address: mr.Addr()})
	if err != nil {
		t.Fatalf("NewRedisCache failed: %v", err)
	}
	defer cache.Close()

	var healthy atomic.Bool

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if healthy.Load() {
			_, _ = w.Write([]byte(`{"status":"OK","response":{"docs":[]}}`))
			return
		}

		_, _ = w.Write([]byte(`{"status":"ERROR","errors":["rate limited"]}`))
	}))
	defer server.Close()

	f := NewFetcher(FetcherOptions{Retry: fastRetry(), Cache: cache, CacheTTL: time.Hour})

	var failed nytSearchResponse
	if err := f.FetchJSON(context.Background(), server.URL, &failed); !errors.Is(err, ErrAPIFailure) {
		t.Fatalf("error = %v, want ErrAPIFailure", err)
	}

	if keys := mr.Keys(); len(keys) != 0 {
		t.Fatalf("failed payload was cached under %v", keys)
	}

	healthy.Store(true)

	var ok nytSearchResponse
	if err := f.FetchJSON(context.Background(), server.URL, &ok); err != nil {
		t.Fatalf("FetchJSON after recovery failed: %v", err)
	}

	if ok.Status != "OK" {
		t.Errorf("Status = %q, want OK", ok.Status)
	}

	if !mr.Exists(CacheKey("spectra:http:", server.URL)) {
		t.Error("valid payload was not cached")
	}
}
