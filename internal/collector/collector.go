// Package collector gathers raw source tables from Flickr comments, New York Times
// articles and a pre-downloaded Reddit dataset.
package collector

import (
	"errors"
	"time"

	"spectra/internal/config"
)

// Source names attached to standardized rows.
const (
	SourceFlickr = "Flickr"
	SourceNYT    = "NYT"
	SourceReddit = "Reddit"
)

// Collector errors.
var (
	ErrMissingAPIKey = errors.New("API key is not configured")
	ErrAPIFailure    = errors.New("API returned a failure status")
)

// Query describes what to collect.
type Query struct {
	Start      time.Time
	End        time.Time
	Keywords   []string
	MaxResults int
}

// QueryFromConfig builds a query from the collection settings.
func QueryFromConfig(cfg *config.Config) (Query, error) {
	start, end, err := cfg.DateRange()
	if err != nil {
		return Query{}, err
	}

	return Query{
		Keywords:   append([]string(nil), cfg.Collection.Keywords...),
		Start:      start,
		End:        end,
		MaxResults: cfg.Collection.MaxResults,
	}, nil
}
