package collector

import (
	"context"
	"fmt"

	"spectra/internal/analysis"
	"spectra/internal/config"
	"spectra/internal/logger"
	"spectra/internal/models"
	"spectra/internal/normalizer"
	"spectra/internal/tableio"
)

// redditKeep lists the columns carried forward from the dataset, when present.
var redditKeep = []string{"self_text", "text", "created_time", "author"}

// RedditCollector filters a pre-downloaded Reddit export (CSV or XLSX).
type RedditCollector struct {
	log   *logger.Logger
	file  string
	sheet string
}

// NewRedditCollector creates a Reddit collector over the configured file.
func NewRedditCollector(cfg config.RedditConfig, log *logger.Logger) *RedditCollector {
	if log == nil {
		log = logger.Discard()
	}

	return &RedditCollector{
		log:   log.With("source", SourceReddit),
		file:  cfg.File,
		sheet: cfg.Sheet,
	}
}

func (c *RedditCollector) Name() string {
	return SourceReddit
}

// Hints returns the column hints for Reddit tables; self_text and created_time are found by name.
func (c *RedditCollector) Hints() normalizer.ColumnHints {
	return normalizer.ColumnHints{}
}

// Collect loads the dataset, keeps rows whose created_time falls inside the query window
// and whose post text mentions any keyword, and returns the text, time and author columns.
// Rows with an unparsable created_time are dropped when filtering by date.
func (c *RedditCollector) Collect(ctx context.Context, q Query) (*models.Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	raw, err := tableio.ReadFile(c.file, c.sheet)
	if err != nil {
		return nil, fmt.Errorf("reddit: %w", err)
	}

	filtered := FilterRows(raw, q)

	var keep []string
	for _, col := range redditKeep {
		if filtered.Has(col) {
			keep = append(keep, col)
		}
	}

	c.log.Info("reddit collection complete", "loaded", raw.Len(), "kept", filtered.Len())

	return filtered.Select(keep...), nil
}

// FilterRows applies the date window (on created_time) and keyword match (on self_text,
// falling back to text) to a Reddit table. Missing columns skip that filter.
func FilterRows(table *models.Table, q Query) *models.Table {
	out := table

	if out.Has("created_time") && (!q.Start.IsZero() || !q.End.IsZero()) {
		times := out.Column("created_time")

		out = out.Filter(func(i int) bool {
			ts, err := normalizer.ParseDate(times[i])
			if err != nil {
				return false
			}

			if !q.Start.IsZero() && ts.Before(q.Start) {
				return false
			}

			return q.End.IsZero() || !ts.After(q.End)
		})
	}

	textColumn := "self_text"
	if !out.Has(textColumn) {
		textColumn = "text"
	}

	if len(q.Keywords) > 0 && out.Has(textColumn) {
		matcher := analysis.NewKeywordMatcher(q.Keywords)
		texts := out.Column(textColumn)

		out = out.Filter(func(i int) bool {
			return matcher.Contains(models.AsString(texts[i]))
		})
	}

	return out
}
