// Package config provides configuration management for the sentiment pipeline.
package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DateLayout is the layout used for configured date ranges.
const DateLayout = "2006-01-02"

// Configuration validation errors.
var (
	ErrNoKeywords               = errors.New("collection.keywords must not be empty")
	ErrInvalidStartDate         = errors.New("collection.start_date must be YYYY-MM-DD")
	ErrInvalidEndDate           = errors.New("collection.end_date must be YYYY-MM-DD")
	ErrEndBeforeStart           = errors.New("collection.end_date cannot be before collection.start_date")
	ErrInvalidMaxResults        = errors.New("collection.max_results must be at least 1")
	ErrNoEnabledSources         = errors.New("at least one source must be enabled")
	ErrRedditMissingFile        = errors.New("sources.reddit.file is required when reddit is enabled")
	ErrInvalidMaxAttempts       = errors.New("retry.max_attempts must be at least 1")
	ErrInvalidInitialDelay      = errors.New("retry.initial_delay_ms must be non-negative")
	ErrInvalidBackoffMultiplier = errors.New("retry.backoff_multiplier must be >= 1.0")
	ErrInvalidTimeout           = errors.New("retry.timeout_sec must be at least 1")
	ErrInvalidRateLimit         = errors.New("rate_limit.requests_per_second must be positive")
	ErrMissingRedisAddress      = errors.New("cache.redis_address is required when cache is enabled")
	ErrInvalidMergeMode         = errors.New("analysis.merge_mode must be 'union' or 'common'")
	ErrInvalidInterval          = errors.New("analysis.time_interval must be one of: D, W, M, Y")
	ErrInvalidOutputFormat      = errors.New("output.formats entries must be one of: markdown, csv, xlsx, json")
	ErrInvalidLogLevel          = errors.New("logging.level must be one of: debug, info, warn, error")
)

// Merge modes.
const (
	MergeUnion  = "union"
	MergeCommon = "common"
)

// Config represents the complete pipeline configuration.
type Config struct {
	Collection CollectionConfig `yaml:"collection"`
	Sources    SourcesConfig    `yaml:"sources"`
	Retry      RetryPolicy      `yaml:"retry"`
	RateLimit  RateLimitConfig  `yaml:"rate_limit"`
	Cache      CacheConfig      `yaml:"cache"`
	Analysis   AnalysisConfig   `yaml:"analysis"`
	Output     OutputConfig     `yaml:"output"`
	Logging    LoggingConfig    `yaml:"logging"`
	Dashboard  DashboardConfig  `yaml:"dashboard"`
}

// CollectionConfig controls what is collected.
type CollectionConfig struct {
	Keywords   []string `yaml:"keywords"`
	StartDate  string   `yaml:"start_date"`
	EndDate    string   `yaml:"end_date"`
	MaxResults int      `yaml:"max_results"`
}

// SourcesConfig holds per-source settings.
type SourcesConfig struct {
	Flickr FlickrConfig `yaml:"flickr"`
	NYT    NYTConfig    `yaml:"nyt"`
	Reddit RedditConfig `yaml:"reddit"`
}

// FlickrConfig configures the Flickr comment collector. Credentials come from the environment.
type FlickrConfig struct {
	BaseURL   string `yaml:"base_url"`
	APIKey    string `yaml:"-"`
	APISecret string `yaml:"-"`
	Enabled   bool   `yaml:"enabled"`
}

// NYTConfig configures the New York Times article collector.
type NYTConfig struct {
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"-"`
	Enabled bool   `yaml:"enabled"`
}

// RedditConfig configures the pre-downloaded Reddit dataset.
type RedditConfig struct {
	File    string `yaml:"file"`
	Sheet   string `yaml:"sheet"`
	Enabled bool   `yaml:"enabled"`
}

// RetryPolicy defines retry behavior for HTTP collectors.
type RetryPolicy struct {
	MaxAttempts       int     `yaml:"max_attempts"`
	InitialDelayMs    int     `yaml:"initial_delay_ms"`
	MaxDelayMs        int     `yaml:"max_delay_ms"`
	BackoffMultiplier float64 `yaml:"backoff_multiplier"`
	TimeoutSec        int     `yaml:"timeout_sec"`
}

// RateLimitConfig throttles requests to external APIs.
type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Burst             int     `yaml:"burst"`
}

// CacheConfig configures the optional Redis response cache.
type CacheConfig struct {
	RedisAddress  string `yaml:"redis_address"`
	RedisPassword string `yaml:"-"`
	KeyPrefix     string `yaml:"key_prefix"`
	RedisDB       int    `yaml:"redis_db"`
	TTLSec        int    `yaml:"ttl_sec"`
	Enabled       bool   `yaml:"enabled"`
}

// AnalysisConfig controls preprocessing, scoring and merging.
type AnalysisConfig struct {
	CustomLexicon  map[string]float64 `yaml:"custom_lexicon"`
	MergeMode      string             `yaml:"merge_mode"`
	TimeInterval   string             `yaml:"time_interval"`
	SampleSize     int                `yaml:"sample_size"`
	PreprocessText bool               `yaml:"preprocess_text"`
}

// OutputConfig defines where reports are written.
type OutputConfig struct {
	Dir     string   `yaml:"dir"`
	Formats []string `yaml:"formats"`
}

// LoggingConfig defines logging behavior.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// DashboardConfig configures the HTTP dashboard.
type DashboardConfig struct {
	Addr string `yaml:"addr"`
}

// LoadConfig loads configuration from a YAML file over the defaults, then applies
// environment variables (after loading .env if present).
func LoadConfig(filepath string) (*Config, error) {
	cfg := DefaultConfig()

	if filepath != "" {
		data, err := os.ReadFile(filepath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse YAML: %w", err)
		}
	}

	if err := LoadEnv(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// LoadEnv loads .env (when present) and copies credentials from the environment.
func LoadEnv(cfg *Config) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to load .env: %w", err)
	}

	cfg.ApplyEnv(os.Getenv)

	return nil
}

// ApplyEnv copies credentials and overrides from the given lookup function.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if v := getenv("FLICKR_API_KEY"); v != "" {
		c.Sources.Flickr.APIKey = v
	}

	if v := getenv("FLICKR_API_SECRET"); v != "" {
		c.Sources.Flickr.APISecret = v
	}

	if v := getenv("NYT_API_KEY"); v != "" {
		c.Sources.NYT.APIKey = v
	}

	if v := getenv("SPECTRA_REDIS_ADDRESS"); v != "" {
		c.Cache.RedisAddress = v
	}

	if v := getenv("SPECTRA_REDIS_PASSWORD"); v != "" {
		c.Cache.RedisPassword = v
	}

	if v := getenv("SPECTRA_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
}

// SaveConfig saves configuration to YAML file.
func (c *Config) SaveConfig(filepath string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filepath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if len(c.Collection.Keywords) == 0 {
		return ErrNoKeywords
	}

	start, err := time.Parse(DateLayout, c.Collection.StartDate)
	if err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidStartDate, c.Collection.StartDate)
	}

	end, err := time.Parse(DateLayout, c.Collection.EndDate)
	if err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidEndDate, c.Collection.EndDate)
	}

	if end.Before(start) {
		return ErrEndBeforeStart
	}

	if c.Collection.MaxResults < 1 {
		return ErrInvalidMaxResults
	}

	if !c.Sources.Flickr.Enabled && !c.Sources.NYT.Enabled && !c.Sources.Reddit.Enabled {
		return ErrNoEnabledSources
	}

	if c.Sources.Reddit.Enabled && c.Sources.Reddit.File == "" {
		return ErrRedditMissingFile
	}

	if c.Retry.MaxAttempts < 1 {
		return ErrInvalidMaxAttempts
	}

	if c.Retry.InitialDelayMs < 0 {
		return ErrInvalidInitialDelay
	}

	if c.Retry.BackoffMultiplier < 1.0 {
		return ErrInvalidBackoffMultiplier
	}

	if c.Retry.TimeoutSec < 1 {
		return ErrInvalidTimeout
	}

	if c.RateLimit.RequestsPerSecond <= 0 {
		return ErrInvalidRateLimit
	}

	if c.Cache.Enabled && c.Cache.RedisAddress == "" {
		return ErrMissingRedisAddress
	}

	if c.Analysis.MergeMode != MergeUnion && c.Analysis.MergeMode != MergeCommon {
		return ErrInvalidMergeMode
	}

	if !slices.Contains([]string{"D", "W", "M", "Y"}, c.Analysis.TimeInterval) {
		return ErrInvalidInterval
	}

	for _, f := range c.Output.Formats {
		if !slices.Contains([]string{"markdown", "csv", "xlsx", "json"}, f) {
			return fmt.Errorf("%w: %q", ErrInvalidOutputFormat, f)
		}
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return ErrInvalidLogLevel
	}

	return nil
}

// DateRange returns the parsed collection window. The end date is inclusive to the end of day.
func (c *Config) DateRange() (time.Time, time.Time, error) {
	start, err := time.Parse(DateLayout, c.Collection.StartDate)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: %w", ErrInvalidStartDate, err)
	}

	end, err := time.Parse(DateLayout, c.Collection.EndDate)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: %w", ErrInvalidEndDate, err)
	}

	return start, end.Add(24*time.Hour - time.Nanosecond), nil
}

// PreserveColumns reports whether merging keeps the union of columns.
func (c *Config) PreserveColumns() bool {
	return c.Analysis.MergeMode != MergeCommon
}

// GetRetryDelay calculates exponential backoff delay for attempt number.
func (rp *RetryPolicy) GetRetryDelay(attempt int) time.Duration {
	if attempt <= 1 {
		return 0
	}

	delayMs := float64(rp.InitialDelayMs)
	for i := 1; i < attempt; i++ {
		delayMs *= rp.BackoffMultiplier
	}

	if int(delayMs) > rp.MaxDelayMs {
		delayMs = float64(rp.MaxDelayMs)
	}

	return time.Duration(int(delayMs)) * time.Millisecond
}

// GetTimeout returns the timeout duration.
func (rp *RetryPolicy) GetTimeout() time.Duration {
	return time.Duration(rp.TimeoutSec) * time.Second
}

// GetTTL returns the cache entry lifetime.
func (cc *CacheConfig) GetTTL() time.Duration {
	return time.Duration(cc.TTLSec) * time.Second
}

// String returns a string representation of the config.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{Keywords: %d, Range: %s..%s, MaxResults: %d, Merge: %s}",
		len(c.Collection.Keywords),
		c.Collection.StartDate,
		c.Collection.EndDate,
		c.Collection.MaxResults,
		c.Analysis.MergeMode,
	)
}
