package main

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"

	"spectra/internal/analysis"
	"spectra/internal/collector"
	"spectra/internal/config"
	"spectra/internal/logger"
	"spectra/internal/pipeline"
)

// app holds the loaded configuration and everything built from it.
type app struct {
	cfg   *config.Config
	log   *logger.Logger
	cache collector.ResponseCache
}

// loadApp reads configuration, applies mutate (flag overrides) and validates the result.
func loadApp(flags *globalFlags, mutate func(*config.Config)) (*app, error) {
	cfg, err := config.LoadConfig(flags.configPath)
	if err != nil {
		return nil, err
	}

	if flags.logLevel != "" {
		cfg.Logging.Level = flags.logLevel
	}

	if mutate != nil {
		mutate(cfg)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	log := logger.NewLoggerWithOptions(logger.Options{Level: cfg.Logging.Level, Format: cfg.Logging.Format})

	return &app{cfg: cfg, log: log, cache: collector.NoOpCache{}}, nil
}

// analyzer builds the sentiment analyzer with the configured custom lexicon.
func (a *app) analyzer() (*analysis.Analyzer, error) {
	an, err := analysis.NewAnalyzer(a.cfg.Analysis.CustomLexicon)
	if err != nil {
		return nil, fmt.Errorf("failed to load lexicon: %w", err)
	}

	return an, nil
}

// runner wires the cache, fetcher and enabled collectors into a pipeline runner.
// Call close when done to release the cache connection.
func (a *app) runner(ctx context.Context) (*pipeline.Runner, error) {
	if a.cfg.Cache.Enabled {
		cache, err := collector.NewRedisCache(ctx, collector.RedisOptions{
			Address:  a.cfg.Cache.RedisAddress,
			Password: a.cfg.Cache.RedisPassword,
			DB:       a.cfg.Cache.RedisDB,
		})
		if err != nil {
			a.log.Warn("response cache unavailable, continuing without it", "error", err)
		} else {
			a.cache = cache
			a.log.Debug("response cache connected", "addr", a.cfg.Cache.RedisAddress)
		}
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if rps := a.cfg.RateLimit.RequestsPerSecond; rps > 0 {
		limiter = rate.NewLimiter(rate.Limit(rps), max(a.cfg.RateLimit.Burst, 1))
	}

	fetcher := collector.NewFetcher(collector.FetcherOptions{
		Retry:       &a.cfg.Retry,
		Limiter:     limiter,
		Cache:       a.cache,
		CacheTTL:    a.cfg.Cache.GetTTL(),
		CachePrefix: a.cfg.Cache.KeyPrefix,
		Logger:      a.log,
	})

	var collectors []pipeline.Collector

	if a.cfg.Sources.Flickr.Enabled {
		collectors = append(collectors, collector.NewFlickrCollector(fetcher, a.cfg.Sources.Flickr, a.log))
	}

	if a.cfg.Sources.NYT.Enabled {
		collectors = append(collectors, collector.NewNYTCollector(fetcher, a.cfg.Sources.NYT, a.log))
	}

	if a.cfg.Sources.Reddit.Enabled {
		collectors = append(collectors, collector.NewRedditCollector(a.cfg.Sources.Reddit, a.log))
	}

	an, err := a.analyzer()
	if err != nil {
		return nil, err
	}

	return pipeline.NewRunner(collectors, an, pipeline.Options{
		PreserveColumns: a.cfg.PreserveColumns(),
		Preprocess:      a.cfg.Analysis.PreprocessText,
	}, a.log), nil
}

func (a *app) close() {
	if err := a.cache.Close(); err != nil {
		a.log.Warn("failed to close response cache", "error", err)
	}
}
