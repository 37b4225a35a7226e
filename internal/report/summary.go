// Package report summarizes annotated tables and renders them for terminals, markdown and files.
package report

import (
	"cmp"
	"errors"
	"fmt"
	"math/rand/v2"
	"regexp"
	"slices"
	"strings"
	"time"

	"spectra/internal/models"
)

// ErrUnknownSampleKind is returned for an unsupported sample selection.
var ErrUnknownSampleKind = errors.New("unknown sample kind")

// SourceCount is the number of records one source contributed.
type SourceCount struct {
	Source string `json:"source"`
	Count  int    `json:"count"`
}

// Summary holds the headline numbers of a run.
type Summary struct {
	First           time.Time     `json:"first,omitzero"`
	Last            time.Time     `json:"last,omitzero"`
	Sources         []SourceCount `json:"sources"`
	Total           int           `json:"total"`
	PositivePercent float64       `json:"positive_percent"`
	NeutralPercent  float64       `json:"neutral_percent"`
	NegativePercent float64       `json:"negative_percent"`
	MeanScore       float64       `json:"mean_score"`
}

// Summarize computes the summary of an annotated table. A table without annotations
// still reports totals, sources and the date range.
func Summarize(t *models.Table) Summary {
	var s Summary

	if t == nil {
		return s
	}

	records := models.Records(t)
	s.Total = len(records)

	counts := make(map[models.Sentiment]int)
	index := make(map[string]int)
	sum := 0.0

	for _, r := range records {
		counts[r.Sentiment]++
		sum += r.SentimentScore

		if i, ok := index[r.Source]; ok {
			s.Sources[i].Count++
		} else {
			index[r.Source] = len(s.Sources)
			s.Sources = append(s.Sources, SourceCount{Source: r.Source, Count: 1})
		}

		if r.Date.IsZero() {
			continue
		}

		if s.First.IsZero() || r.Date.Before(s.First) {
			s.First = r.Date
		}

		if r.Date.After(s.Last) {
			s.Last = r.Date
		}
	}

	if s.Total > 0 {
		total := float64(s.Total)
		s.PositivePercent = float64(counts[models.Positive]) / total * 100
		s.NeutralPercent = float64(counts[models.Neutral]) / total * 100
		s.NegativePercent = float64(counts[models.Negative]) / total * 100
		s.MeanScore = sum / total
	}

	return s
}

// SampleKind selects which records Samples returns.
type SampleKind string

// Sample kinds.
const (
	SampleRandom       SampleKind = "random"
	SampleMostPositive SampleKind = "positive"
	SampleMostNegative SampleKind = "negative"
)

// ParseSampleKind accepts random, positive or negative.
func ParseSampleKind(s string) (SampleKind, error) {
	switch k := SampleKind(strings.ToLower(strings.TrimSpace(s))); k {
	case SampleRandom, SampleMostPositive, SampleMostNegative:
		return k, nil
	}

	return "", fmt.Errorf("%w: %q", ErrUnknownSampleKind, s)
}

// Sample is one record with its emotion words emphasized.
type Sample struct {
	models.Record
	Highlighted string `json:"highlighted"`
}

// Samples picks up to n records. Random sampling is reproducible for a given seed;
// the score orderings are stable.
func Samples(t *models.Table, kind SampleKind, n int, seed uint64) ([]Sample, error) {
	if t == nil || n <= 0 {
		return nil, nil
	}

	records := models.Records(t)

	switch kind {
	case SampleRandom:
		r := rand.New(rand.NewPCG(seed, seed))
		r.Shuffle(len(records), func(i, j int) { records[i], records[j] = records[j], records[i] })
	case SampleMostPositive:
		slices.SortStableFunc(records, func(a, b models.Record) int { return cmp.Compare(b.SentimentScore, a.SentimentScore) })
	case SampleMostNegative:
		slices.SortStableFunc(records, func(a, b models.Record) int { return cmp.Compare(a.SentimentScore, b.SentimentScore) })
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownSampleKind, kind)
	}

	records = records[:min(n, len(records))]

	out := make([]Sample, len(records))
	for i, r := range records {
		out[i] = Sample{Record: r, Highlighted: Highlight(r.Text, r.EmotionWords)}
	}

	return out, nil
}

// Highlight wraps whole-word, case-insensitive occurrences of words in markdown bold.
// Longer words win when they overlap.
func Highlight(text string, words []string) string {
	var alts []string

	for _, w := range words {
		w = strings.TrimSpace(w)
		if w != "" && !slices.Contains(alts, w) {
			alts = append(alts, w)
		}
	}

	if text == "" || len(alts) == 0 {
		return text
	}

	slices.SortStableFunc(alts, func(a, b string) int { return cmp.Compare(len(b), len(a)) })

	for i, w := range alts {
		alts[i] = regexp.QuoteMeta(w)
	}

	re := regexp.MustCompile(`(?i)\b(?:` + strings.Join(alts, "|") + `)\b`)

	return re.ReplaceAllString(text, "**$0**")
}
