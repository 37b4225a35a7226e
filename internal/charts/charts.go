// Package charts computes chart-ready aggregates from annotated tables.
package charts

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"spectra/internal/analysis"
	"spectra/internal/models"
	"spectra/internal/normalizer"
)

// ErrInvalidInterval is returned for an unknown time grouping.
var ErrInvalidInterval = errors.New("interval must be one of D, W, M, Y")

// Interval groups dates into periods.
type Interval string

// Supported intervals.
const (
	Day   Interval = "D"
	Week  Interval = "W"
	Month Interval = "M"
	Year  Interval = "Y"
)

// ParseInterval accepts D, W, M or Y in any case.
func ParseInterval(s string) (Interval, error) {
	switch i := Interval(strings.ToUpper(strings.TrimSpace(s))); i {
	case Day, Week, Month, Year:
		return i, nil
	}

	return "", fmt.Errorf("%w: %q", ErrInvalidInterval, s)
}

// Start returns the first instant of the period containing t. Weeks start on Monday.
func (i Interval) Start(t time.Time) time.Time {
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())

	switch i {
	case Week:
		return day.AddDate(0, 0, -((int(day.Weekday()) + 6) % 7))
	case Month:
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	case Year:
		return time.Date(t.Year(), time.January, 1, 0, 0, 0, 0, t.Location())
	default:
		return day
	}
}

// Label formats a period start for display.
func (i Interval) Label(start time.Time) string {
	if i == Year {
		return start.Format("2006")
	}

	return start.Format("2006-01-02")
}

// Count is the number and share of rows carrying one label.
type Count struct {
	Sentiment models.Sentiment `json:"sentiment"`
	Count     int              `json:"count"`
	Percent   float64          `json:"percent"`
}

// Distribution counts rows per sentiment label, in display order.
func Distribution(t *models.Table) ([]Count, error) {
	labels, err := sentimentColumn(t)
	if err != nil {
		return nil, err
	}

	all := make([]int, len(labels))
	for i := range all {
		all[i] = i
	}

	return countLabels(labels, all), nil
}

// TimePoint is the per-label count of one period.
type TimePoint struct {
	Period time.Time                `json:"period"`
	Counts map[models.Sentiment]int `json:"counts"`
	Label  string                   `json:"label"`
	Total  int                      `json:"total"`
}

// OverTime counts sentiment labels per period, oldest first. Rows without a usable date are skipped.
func OverTime(t *models.Table, interval Interval) ([]TimePoint, error) {
	labels, err := sentimentColumn(t)
	if err != nil {
		return nil, err
	}

	periods, err := periodColumn(t, interval)
	if err != nil {
		return nil, err
	}

	index := make(map[time.Time]int)

	var points []TimePoint

	for i, p := range periods {
		if p.IsZero() {
			continue
		}

		j, ok := index[p]
		if !ok {
			j = len(points)
			index[p] = j
			points = append(points, TimePoint{Period: p, Label: interval.Label(p), Counts: make(map[models.Sentiment]int)})
		}

		points[j].Counts[models.Sentiment(models.AsString(labels[i]))]++
		points[j].Total++
	}

	slices.SortFunc(points, func(a, b TimePoint) int { return a.Period.Compare(b.Period) })

	return points, nil
}

// IntensityPoint summarizes compound scores within one period.
type IntensityPoint struct {
	Period time.Time `json:"period"`
	Label  string    `json:"label"`
	Mean   float64   `json:"mean"`
	Min    float64   `json:"min"`
	Max    float64   `json:"max"`
	Count  int       `json:"count"`
}

// Intensity averages sentiment_score per period, oldest first.
func Intensity(t *models.Table, interval Interval) ([]IntensityPoint, error) {
	if t == nil || !t.Has(models.ColumnSentimentScore) {
		return nil, fmt.Errorf("%w: %s", models.ErrMissingColumn, models.ColumnSentimentScore)
	}

	periods, err := periodColumn(t, interval)
	if err != nil {
		return nil, err
	}

	scores := t.Column(models.ColumnSentimentScore)
	index := make(map[time.Time]int)
	sums := make(map[time.Time]float64)

	var points []IntensityPoint

	for i, p := range periods {
		score, ok := models.AsFloat(scores[i])
		if p.IsZero() || !ok {
			continue
		}

		j, seen := index[p]
		if !seen {
			j = len(points)
			index[p] = j
			points = append(points, IntensityPoint{Period: p, Label: interval.Label(p), Min: score, Max: score})
		}

		pt := &points[j]
		pt.Count++
		pt.Min = min(pt.Min, score)
		pt.Max = max(pt.Max, score)
		sums[p] += score
	}

	for i := range points {
		points[i].Mean = sums[points[i].Period] / float64(points[i].Count)
	}

	slices.SortFunc(points, func(a, b IntensityPoint) int { return a.Period.Compare(b.Period) })

	return points, nil
}

// Breakdown is the label distribution of one group of rows.
type Breakdown struct {
	Name   string  `json:"name"`
	Counts []Count `json:"counts"`
	Total  int     `json:"total"`
}

// SourceComparison splits the distribution by the source column, in first-seen order.
func SourceComparison(t *models.Table) ([]Breakdown, error) {
	labels, err := sentimentColumn(t)
	if err != nil {
		return nil, err
	}

	if !t.Has(models.ColumnSource) {
		return nil, fmt.Errorf("%w: %s", models.ErrMissingColumn, models.ColumnSource)
	}

	var order []string

	rows := make(map[string][]int)

	for i, v := range t.Column(models.ColumnSource) {
		s := models.AsString(v)
		if _, ok := rows[s]; !ok {
			order = append(order, s)
		}

		rows[s] = append(rows[s], i)
	}

	out := make([]Breakdown, 0, len(order))
	for _, s := range order {
		out = append(out, Breakdown{Name: s, Total: len(rows[s]), Counts: countLabels(labels, rows[s])})
	}

	return out, nil
}

// KeywordComparison gives the label distribution of rows whose textColumn mentions each
// keyword, case-insensitively. Keywords without matches report zero counts.
func KeywordComparison(t *models.Table, keywords []string, textColumn string) ([]Breakdown, error) {
	labels, err := sentimentColumn(t)
	if err != nil {
		return nil, err
	}

	if !t.Has(textColumn) {
		return nil, fmt.Errorf("%w: %s", models.ErrMissingColumn, textColumn)
	}

	matcher := analysis.NewKeywordMatcher(keywords)
	rows := make(map[string][]int)

	for i, v := range t.Column(textColumn) {
		for _, k := range matcher.Match(models.AsString(v)) {
			rows[k] = append(rows[k], i)
		}
	}

	out := make([]Breakdown, 0, len(matcher.Keywords()))
	for _, k := range matcher.Keywords() {
		out = append(out, Breakdown{Name: k, Total: len(rows[k]), Counts: countLabels(labels, rows[k])})
	}

	return out, nil
}

// WordCloud holds the most frequent words among rows with one label.
type WordCloud struct {
	Sentiment models.Sentiment        `json:"sentiment"`
	Words     []analysis.KeywordCount `json:"words"`
}

// WordFrequencies returns up to maxWords frequent non-stopwords of at least three letters
// per label. Labels without text get an empty cloud.
func WordFrequencies(t *models.Table, textColumn string, maxWords int) ([]WordCloud, error) {
	labels, err := sentimentColumn(t)
	if err != nil {
		return nil, err
	}

	if !t.Has(textColumn) {
		return nil, fmt.Errorf("%w: %s", models.ErrMissingColumn, textColumn)
	}

	texts := make(map[models.Sentiment][]string)

	for i, v := range t.Column(textColumn) {
		if v == nil {
			continue
		}

		s := models.Sentiment(models.AsString(labels[i]))
		texts[s] = append(texts[s], models.AsString(v))
	}

	out := make([]WordCloud, 0, len(models.Sentiments()))

	for _, s := range models.Sentiments() {
		words := analysis.WordFrequencies(texts[s], 3, true)
		if maxWords > 0 && len(words) > maxWords {
			words = words[:maxWords]
		}

		out = append(out, WordCloud{Sentiment: s, Words: words})
	}

	return out, nil
}

func sentimentColumn(t *models.Table) ([]any, error) {
	if t == nil || !t.Has(models.ColumnSentiment) {
		return nil, fmt.Errorf("%w: %s", models.ErrMissingColumn, models.ColumnSentiment)
	}

	return t.Column(models.ColumnSentiment), nil
}

// periodColumn maps each row's date to its period start. Unusable dates map to the zero time.
func periodColumn(t *models.Table, interval Interval) ([]time.Time, error) {
	if _, err := ParseInterval(string(interval)); err != nil {
		return nil, err
	}

	if !t.Has(models.ColumnDate) {
		return nil, fmt.Errorf("%w: %s", models.ErrMissingColumn, models.ColumnDate)
	}

	dates := t.Column(models.ColumnDate)
	out := make([]time.Time, len(dates))

	for i, v := range dates {
		ts, ok := v.(time.Time)
		if !ok {
			parsed, err := normalizer.ParseDate(v)
			if err != nil {
				continue
			}

			ts = parsed
		}

		out[i] = interval.Start(ts)
	}

	return out, nil
}

// countLabels tallies the labels of the given rows in display order.
func countLabels(labels []any, rows []int) []Count {
	tally := make(map[models.Sentiment]int)
	total := len(rows)

	for _, i := range rows {
		tally[models.Sentiment(models.AsString(labels[i]))]++
	}

	out := make([]Count, 0, len(models.Sentiments()))

	for _, s := range models.Sentiments() {
		c := Count{Sentiment: s, Count: tally[s]}
		if total > 0 {
			c.Percent = float64(c.Count) / float64(total) * 100
		}

		out = append(out, c)
	}

	return out
}

// Set bundles every chart for one table.
type Set struct {
	Interval     Interval         `json:"interval"`
	Distribution []Count          `json:"distribution"`
	OverTime     []TimePoint      `json:"over_time"`
	Intensity    []IntensityPoint `json:"intensity"`
	Sources      []Breakdown      `json:"sources"`
	Keywords     []Breakdown      `json:"keywords,omitempty"`
	WordClouds   []WordCloud      `json:"word_clouds"`
}

// Options selects the grouping and text inputs for Build.
type Options struct {
	Interval Interval
	Keywords []string
	// TextColumn feeds the word clouds. Defaults to processed_text when present, otherwise text.
	// Keywords are always matched against text.
	TextColumn string
	MaxWords   int
}

// Build computes every chart. Keyword comparison runs only for two or more keywords.
func Build(t *models.Table, opts Options) (*Set, error) {
	textColumn := opts.TextColumn
	if textColumn == "" {
		textColumn = models.ColumnText
		if t != nil && t.Has(models.ColumnProcessedText) {
			textColumn = models.ColumnProcessedText
		}
	}

	set := &Set{Interval: opts.Interval}

	var err error

	if set.Distribution, err = Distribution(t); err != nil {
		return nil, fmt.Errorf("distribution: %w", err)
	}

	if set.OverTime, err = OverTime(t, opts.Interval); err != nil {
		return nil, fmt.Errorf("over time: %w", err)
	}

	if set.Intensity, err = Intensity(t, opts.Interval); err != nil {
		return nil, fmt.Errorf("intensity: %w", err)
	}

	if set.Sources, err = SourceComparison(t); err != nil {
		return nil, fmt.Errorf("source comparison: %w", err)
	}

	if len(opts.Keywords) > 1 {
		if set.Keywords, err = KeywordComparison(t, opts.Keywords, models.ColumnText); err != nil {
			return nil, fmt.Errorf("keyword comparison: %w", err)
		}
	}

	if set.WordClouds, err = WordFrequencies(t, textColumn, opts.MaxWords); err != nil {
		return nil, fmt.Errorf("word frequencies: %w", err)
	}

	return set, nil
}
