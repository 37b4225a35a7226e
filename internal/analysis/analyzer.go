// Package analysis scores sentiment, cleans text and extracts keywords.
package analysis

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"unicode"

	"github.com/jonreiter/govader"

	"spectra/internal/models"
)

// Label thresholds on the compound score.
const (
	PositiveThreshold = 0.05
	NegativeThreshold = -0.05
)

// ErrNilTable is returned when a table operation receives nil.
var ErrNilTable = errors.New("table is nil")

// Scores holds the polarity breakdown for one text.
type Scores struct {
	Compound float64
	Pos      float64
	Neu      float64
	Neg      float64
}

// Result is the scored outcome for one text.
type Result struct {
	Label models.Sentiment
	Scores
}

// Analyzer scores text with VADER over its own lexicon. It is safe for concurrent use;
// the lexicon is never mutated after construction.
type Analyzer struct {
	lexicon Lexicon
	sia     *govader.SentimentIntensityAnalyzer
}

// NewAnalyzer creates an analyzer over the VADER lexicon with the custom entries applied.
func NewAnalyzer(custom map[string]float64) (*Analyzer, error) {
	if err := validateEntries(custom); err != nil {
		return nil, err
	}

	return NewAnalyzerWithLexicon(BaseLexicon().With(custom)), nil
}

// NewAnalyzerWithLexicon creates an analyzer using exactly the given lexicon.
func NewAnalyzerWithLexicon(lex Lexicon) *Analyzer {
	own := lex.With(nil)
	base := vader()

	return &Analyzer{
		lexicon: own,
		sia: &govader.SentimentIntensityAnalyzer{
			Lexicon:   own,
			EmojiDict: base.EmojiDict,
			Constants: base.Constants,
		},
	}
}

// Label maps a compound score to its sentiment label.
func Label(compound float64) models.Sentiment {
	switch {
	case compound >= PositiveThreshold:
		return models.Positive
	case compound <= NegativeThreshold:
		return models.Negative
	default:
		return models.Neutral
	}
}

// AnalyzeText scores a single text. Text without any scorable token is Neutral with neu=1.
func (a *Analyzer) AnalyzeText(text string) Result {
	if strings.TrimSpace(text) == "" {
		return Result{Label: models.Neutral, Scores: Scores{Neu: 1}}
	}

	s := a.sia.PolarityScores(text)
	if s.Positive+s.Neutral+s.Negative == 0 {
		return Result{Label: models.Neutral, Scores: Scores{Neu: 1}}
	}

	scores := Scores{
		Compound: round(s.Compound, 4),
		Pos:      round(s.Positive, 3),
		Neu:      round(s.Neutral, 3),
		Neg:      round(s.Negative, 3),
	}

	return Result{Label: Label(scores.Compound), Scores: scores}
}

// EmotionWords returns the lowercase tokens of text that appear in the lexicon, in text
// order with duplicates kept.
func (a *Analyzer) EmotionWords(text string) []string {
	var out []string

	for _, w := range tokenize(text) {
		lower := strings.ToLower(w)
		if _, ok := a.lexicon[lower]; ok {
			out = append(out, lower)
		}
	}

	return out
}

// AnnotateTable returns a copy of table with sentiment, sentiment_score, pos_score,
// neu_score, neg_score and emotion_words computed from textColumn. An empty table or
// one without textColumn is returned as is.
func (a *Analyzer) AnnotateTable(table *models.Table, textColumn string) (*models.Table, error) {
	if table == nil {
		return nil, ErrNilTable
	}

	if table.Empty() || !table.Has(textColumn) {
		return table, nil
	}

	n := table.Len()
	labels := make([]any, n)
	compound := make([]any, n)
	pos := make([]any, n)
	neu := make([]any, n)
	neg := make([]any, n)
	emotion := make([]any, n)

	for i, v := range table.Column(textColumn) {
		text := models.AsString(v)
		res := a.AnalyzeText(text)

		labels[i] = string(res.Label)
		compound[i] = res.Compound
		pos[i] = res.Pos
		neu[i] = res.Neu
		neg[i] = res.Neg
		emotion[i] = a.EmotionWords(text)
	}

	out := table

	for _, col := range []struct {
		name   string
		values []any
	}{
		{models.ColumnSentiment, labels},
		{models.ColumnSentimentScore, compound},
		{models.ColumnPosScore, pos},
		{models.ColumnNeuScore, neu},
		{models.ColumnNegScore, neg},
		{models.ColumnEmotionWords, emotion},
	} {
		var err error
		if out, err = out.WithColumn(col.name, col.values); err != nil {
			return nil, fmt.Errorf("failed to add %s: %w", col.name, err)
		}
	}

	return out, nil
}

// tokenize splits on whitespace and trims surrounding punctuation, keeping inner apostrophes.
func tokenize(text string) []string {
	var words []string

	for _, f := range strings.Fields(text) {
		w := strings.TrimFunc(f, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})
		if w != "" {
			words = append(words, w)
		}
	}

	return words
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
