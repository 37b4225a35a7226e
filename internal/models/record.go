package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Canonical column names every standardized table carries.
const (
	ColumnText   = "text"
	ColumnDate   = "date"
	ColumnSource = "source"
)

// Annotation and pass-through column names.
const (
	ColumnAuthor         = "author"
	ColumnSentiment      = "sentiment"
	ColumnSentimentScore = "sentiment_score"
	ColumnPosScore       = "pos_score"
	ColumnNeuScore       = "neu_score"
	ColumnNegScore       = "neg_score"
	ColumnEmotionWords   = "emotion_words"
	ColumnProcessedText  = "processed_text"
)

// CanonicalColumns returns the three required output columns in order.
func CanonicalColumns() []string {
	return []string{ColumnText, ColumnDate, ColumnSource}
}

// Sentiment is the label assigned by the analyzer.
type Sentiment string

// Sentiment labels.
const (
	Positive Sentiment = "Positive"
	Neutral  Sentiment = "Neutral"
	Negative Sentiment = "Negative"
)

// Sentiments lists the labels in display order.
func Sentiments() []Sentiment {
	return []Sentiment{Positive, Neutral, Negative}
}

// Record is a typed view of one standardized (and possibly annotated) row.
type Record struct {
	Date           time.Time `json:"date"`
	Text           string    `json:"text"`
	Source         string    `json:"source"`
	Author         string    `json:"author,omitempty"`
	Sentiment      Sentiment `json:"sentiment,omitempty"`
	EmotionWords   []string  `json:"emotion_words,omitempty"`
	SentimentScore float64   `json:"sentiment_score"`
	Annotated      bool      `json:"annotated"`
}

// Records converts every row of t into a Record.
func Records(t *Table) []Record {
	records := make([]Record, 0, t.Len())

	annotated := t.Has(ColumnSentiment)

	for i := 0; i < t.Len(); i++ {
		rec := Record{
			Text:      AsString(t.Value(i, ColumnText)),
			Source:    AsString(t.Value(i, ColumnSource)),
			Author:    AsString(t.Value(i, ColumnAuthor)),
			Annotated: annotated,
		}

		if ts, ok := t.Value(i, ColumnDate).(time.Time); ok {
			rec.Date = ts
		}

		if annotated {
			rec.Sentiment = Sentiment(AsString(t.Value(i, ColumnSentiment)))
			rec.SentimentScore, _ = AsFloat(t.Value(i, ColumnSentimentScore))
			rec.EmotionWords = AsStrings(t.Value(i, ColumnEmotionWords))
		}

		records = append(records, rec)
	}

	return records
}

// AsString renders a cell as text. Nil becomes the empty string.
func AsString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case time.Time:
		return x.Format(time.RFC3339)
	case []string:
		return strings.Join(x, ",")
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return fmt.Sprint(x)
	}
}

// AsFloat converts numeric and numeric-string cells.
func AsFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		return f, err == nil
	}

	return 0, false
}

// AsStrings converts a word-list cell. Comma-joined strings are split.
func AsStrings(v any) []string {
	switch x := v.(type) {
	case []string:
		return append([]string(nil), x...)
	case string:
		if x == "" {
			return nil
		}

		return strings.Split(x, ",")
	}

	return nil
}
