package collector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"spectra/internal/config"
	"spectra/internal/logger"
	"spectra/pkg/utils"
)

// ErrUnexpectedStatusCode indicates an HTTP response with unexpected status.
var ErrUnexpectedStatusCode = errors.New("unexpected status code")

// redactedParams are query parameters masked in log output.
var redactedParams = []string{"api_key", "api-key"}

// FetcherOptions configures a Fetcher. Zero values fall back to defaults.
type FetcherOptions struct {
	Retry        *config.RetryPolicy
	Limiter      *rate.Limiter
	Cache        ResponseCache
	CacheTTL     time.Duration
	CachePrefix  string
	Logger       *logger.Logger
	Client       *http.Client
	BufferSizeKb int
}

// Fetcher performs rate-limited GET requests with retry and an optional response cache.
type Fetcher struct {
	client       *http.Client
	retryPolicy  *config.RetryPolicy
	limiter      *rate.Limiter
	cache        ResponseCache
	log          *logger.Logger
	http         *utils.HTTPHelper
	cachePrefix  string
	cacheTTL     time.Duration
	bufferSizeKb int
}

// Result describes one completed fetch.
type Result struct {
	Body       []byte
	StatusCode int
	Attempts   int
	Duration   time.Duration
	Cached     bool
}

// NewFetcher creates a fetcher with the given options.
func NewFetcher(opts FetcherOptions) *Fetcher {
	retry := opts.Retry
	if retry == nil {
		retry = &config.DefaultConfig().Retry
	}

	client := opts.Client
	if client == nil {
		client = &http.Client{Timeout: retry.GetTimeout()}
	}

	limiter := opts.Limiter
	if limiter == nil {
		limiter = rate.NewLimiter(rate.Inf, 1)
	}

	cache := opts.Cache
	if cache == nil {
		cache = NoOpCache{}
	}

	log := opts.Logger
	if log == nil {
		log = logger.Discard()
	}

	bufferSizeKb := opts.BufferSizeKb
	if bufferSizeKb <= 0 {
		bufferSizeKb = 8192
	}

	prefix := opts.CachePrefix
	if prefix == "" {
		prefix = "spectra:http:"
	}

	return &Fetcher{
		client:       client,
		retryPolicy:  retry,
		limiter:      limiter,
		cache:        cache,
		log:          log,
		http:         utils.NewHTTPHelper(),
		cachePrefix:  prefix,
		cacheTTL:     opts.CacheTTL,
		bufferSizeKb: bufferSizeKb,
	}
}

// apiChecker is implemented by decoded payloads that can carry an API-level failure
// inside an HTTP 200 response.
type apiChecker interface {
	check() error
}

// Fetch returns the body of a successful GET. Transport errors and retryable status
// codes are retried with exponential backoff; other statuses fail immediately.
func (f *Fetcher) Fetch(ctx context.Context, url string) (*Result, error) {
	res, err := f.fetch(ctx, url)
	if err != nil {
		return res, err
	}

	f.store(ctx, url, res)

	return res, nil
}

// FetchJSON fetches url and decodes the body into v. If v reports an API failure
// through apiChecker, that error is returned and the body is not cached.
func (f *Fetcher) FetchJSON(ctx context.Context, url string, v any) error {
	res, err := f.fetch(ctx, url)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(res.Body, v); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	if c, ok := v.(apiChecker); ok {
		if err := c.check(); err != nil {
			return err
		}
	}

	f.store(ctx, url, res)

	return nil
}

func (f *Fetcher) store(ctx context.Context, url string, res *Result) {
	if res.Cached {
		return
	}

	if err := f.cache.Set(ctx, CacheKey(f.cachePrefix, url), res.Body, f.cacheTTL); err != nil {
		f.log.Warn("cache store failed", "error", err)
	}
}

// fetch serves url from the cache or the network without storing the response.
func (f *Fetcher) fetch(ctx context.Context, url string) (*Result, error) {
	key := CacheKey(f.cachePrefix, url)

	if body, err := f.cache.Get(ctx, key); err == nil {
		f.log.Debug("cache hit", "url", f.http.RedactQuery(url, redactedParams...))
		return &Result{Body: body, StatusCode: http.StatusOK, Cached: true}, nil
	} else if !errors.Is(err, ErrCacheMiss) {
		f.log.Warn("cache lookup failed", "error", err)
	}

	var lastErr error

	var lastStatusCode int

	totalDuration := time.Duration(0)

	for attempt := 1; attempt <= f.retryPolicy.MaxAttempts; attempt++ {
		if err := sleepCtx(ctx, f.retryPolicy.GetRetryDelay(attempt)); err != nil {
			return nil, err
		}

		if err := f.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}

		startTime := time.Now()
		body, status, err := f.do(ctx, url)
		totalDuration += time.Since(startTime)
		lastStatusCode = status

		if err == nil {
			return &Result{Body: body, StatusCode: status, Attempts: attempt, Duration: totalDuration}, nil
		}

		lastErr = fmt.Errorf("request failed (attempt %d/%d): %w", attempt, f.retryPolicy.MaxAttempts, err)

		f.log.Debug("fetch attempt failed",
			"url", f.http.RedactQuery(url, redactedParams...),
			"attempt", attempt,
			"status", status,
			"error", err,
		)

		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		// A response with a non-retryable status will not improve on retry.
		if status != 0 && !isRetryableStatus(status) {
			break
		}
	}

	return &Result{StatusCode: lastStatusCode, Duration: totalDuration}, lastErr
}

func (f *Fetcher) do(ctx context.Context, url string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header = f.http.BuildHeaders(nil)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, resp.StatusCode, fmt.Errorf("%w: %d", ErrUnexpectedStatusCode, resp.StatusCode)
	}

	// bufferSizeKb is in KB, convert to bytes
	limit := int64(f.bufferSizeKb) * 1024

	body, err := io.ReadAll(io.LimitReader(resp.Body, limit))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("failed to read response body: %w", err)
	}

	return body, resp.StatusCode, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// isRetryableStatus determines if we should retry based on HTTP status code.
func isRetryableStatus(statusCode int) bool {
	switch statusCode {
	case http.StatusServiceUnavailable,
		http.StatusGatewayTimeout,
		http.StatusBadGateway,
		http.StatusTooManyRequests,
		http.StatusRequestTimeout,
		http.StatusInternalServerError:
		return true
	}

	return false
}
