package config

import "maps"

// DefaultKeywords are the search terms used when none are configured.
var DefaultKeywords = []string{
	"gaza",
	"palestine",
	"israel",
	"hamas",
	"palestinian refugees",
	"israel palestine conflict",
}

// DefaultCustomLexicon tunes scoring for conflict coverage. Entries override the base lexicon.
var DefaultCustomLexicon = map[string]float64{
	"casualty":     -0.6,
	"casualties":   -0.6,
	"death":        -0.8,
	"deaths":       -0.8,
	"killed":       -0.8,
	"killing":      -0.8,
	"injured":      -0.6,
	"wound":        -0.6,
	"wounded":      -0.6,
	"displaced":    -0.5,
	"displacement": -0.5,
	"refugee":      -0.4,
	"refugees":     -0.4,
	"destruction":  -0.7,
	"destroyed":    -0.7,
	"damage":       -0.5,
	"damaged":      -0.5,
	"crisis":       -0.6,
	"conflict":     -0.4,
	"violence":     -0.7,
	"violent":      -0.7,
	"attack":       -0.6,
	"attacks":      -0.6,
	"siege":        -0.6,
	"blockade":     -0.5,
	"suffering":    -0.7,
	"hostage":      -0.8,
	"hostages":     -0.8,

	"peace":          0.8,
	"peaceful":       0.7,
	"ceasefire":      0.6,
	"truce":          0.6,
	"negotiation":    0.5,
	"negotiations":   0.5,
	"diplomatic":     0.5,
	"diplomacy":      0.5,
	"agreement":      0.6,
	"resolution":     0.6,
	"dialogue":       0.6,
	"humanitarian":   0.5,
	"aid":            0.6,
	"assistance":     0.5,
	"support":        0.4,
	"relief":         0.5,
	"reconciliation": 0.7,
	"stability":      0.6,
	"stable":         0.5,
	"protect":        0.5,
	"protection":     0.5,
	"safety":         0.6,
	"safe":           0.6,
	"rebuild":        0.5,
	"rebuilding":     0.5,
}

// DefaultConfig returns a configuration that validates with only the NYT and Flickr
// collectors enabled. Credentials are filled from the environment.
func DefaultConfig() *Config {
	return &Config{
		Collection: CollectionConfig{
			Keywords:   append([]string(nil), DefaultKeywords...),
			StartDate:  "2023-01-01",
			EndDate:    "2024-11-01",
			MaxResults: 100,
		},
		Sources: SourcesConfig{
			Flickr: FlickrConfig{
				BaseURL: "https://api.flickr.com/services/rest/",
				Enabled: true,
			},
			NYT: NYTConfig{
				BaseURL: "https://api.nytimes.com/svc/search/v2/articlesearch.json",
				Enabled: true,
			},
			Reddit: RedditConfig{
				File: "data/reddit_comments.csv",
			},
		},
		Retry: RetryPolicy{
			MaxAttempts:       3,
			InitialDelayMs:    500,
			MaxDelayMs:        10000,
			BackoffMultiplier: 2.0,
			TimeoutSec:        30,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 1,
			Burst:             1,
		},
		Cache: CacheConfig{
			RedisAddress: "localhost:6379",
			KeyPrefix:    "spectra:http:",
			TTLSec:       86400,
		},
		Analysis: AnalysisConfig{
			CustomLexicon:  maps.Clone(DefaultCustomLexicon),
			MergeMode:      MergeUnion,
			TimeInterval:   "W",
			SampleSize:     5,
			PreprocessText: true,
		},
		Output: OutputConfig{
			Dir:     "output",
			Formats: []string{"markdown", "csv"},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Dashboard: DashboardConfig{
			Addr: ":8080",
		},
	}
}
