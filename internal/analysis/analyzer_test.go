package analysis

import (
	"errors"
	"math"
	"slices"
	"testing"

	"spectra/internal/models"
)

func newTestAnalyzer(t *testing.T, custom map[string]float64) *Analyzer {
	t.Helper()

	a, err := NewAnalyzer(custom)
	if err != nil {
		t.Fatalf("NewAnalyzer failed: %v", err)
	}

	return a
}

func TestBaseLexicon(t *testing.T) {
	lex := BaseLexicon()

	if len(lex) < 7000 {
		t.Errorf("len(BaseLexicon) = %d, want the full VADER lexicon", len(lex))
	}

	if lex["love"] <= 0 {
		t.Errorf("love = %v, want positive", lex["love"])
	}

	if lex["terrible"] >= 0 {
		t.Errorf("terrible = %v, want negative", lex["terrible"])
	}
}

func TestLabel(t *testing.T) {
	tests := []struct {
		compound float64
		want     models.Sentiment
	}{
		{0.05, models.Positive},
		{0.9, models.Positive},
		{0.0499, models.Neutral},
		{0, models.Neutral},
		{-0.0499, models.Neutral},
		{-0.05, models.Negative},
		{-1, models.Negative},
	}

	for _, tt := range tests {
		if got := Label(tt.compound); got != tt.want {
			t.Errorf("Label(%v) = %v, want %v", tt.compound, got, tt.want)
		}
	}
}

func TestAnalyzer_AnalyzeText(t *testing.T) {
	a := newTestAnalyzer(t, nil)

	tests := []struct {
		name string
		text string
		want models.Sentiment
	}{
		{"Positive", "I love this photo", models.Positive},
		{"Negative", "This is terrible", models.Negative},
		{"Neutral", "The photo was taken on Tuesday", models.Neutral},
		{"Negation flips", "This is not good", models.Negative},
		{"Contraction negation", "It isn't bad", models.Positive},
		{"Contrast favors the second clause", "The food was good but the service was horrible", models.Negative},
		{"Common positive words", "What a masterpiece, I am thrilled", models.Positive},
		{"Emoticon", "We finally have peace :)", models.Positive},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := a.AnalyzeText(tt.text)
			if res.Label != tt.want {
				t.Errorf("AnalyzeText(%q) label = %v (compound %v), want %v", tt.text, res.Label, res.Compound, tt.want)
			}

			if res.Compound < -1 || res.Compound > 1 {
				t.Errorf("compound %v out of range", res.Compound)
			}

			if sum := res.Pos + res.Neu + res.Neg; math.Abs(sum-1) > 0.01 {
				t.Errorf("pos+neu+neg = %v, want ~1", sum)
			}
		})
	}
}

func TestAnalyzer_AnalyzeText_Empty(t *testing.T) {
	a := newTestAnalyzer(t, nil)

	for _, text := range []string{"", "   ", "!!!"} {
		res := a.AnalyzeText(text)
		if res.Label != models.Neutral || res.Compound != 0 || res.Neu != 1 {
			t.Errorf("AnalyzeText(%q) = %+v, want neutral with neu=1", text, res)
		}
	}
}

func TestAnalyzer_AnalyzeText_Intensifiers(t *testing.T) {
	a := newTestAnalyzer(t, nil)

	base := a.AnalyzeText("good day").Compound

	tests := []struct {
		name string
		text string
	}{
		{"Booster", "very good day"},
		{"Exclamation", "good day!!!"},
		{"Capitalization", "GOOD day"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := a.AnalyzeText(tt.text).Compound; got <= base {
				t.Errorf("compound(%q) = %v, want > %v", tt.text, got, base)
			}
		})
	}
}

func TestAnalyzer_AnalyzeText_Strength(t *testing.T) {
	a := newTestAnalyzer(t, nil)

	res := a.AnalyzeText("Thousands killed, the city is devastated")
	if res.Compound > -0.8 {
		t.Errorf("compound = %v, want <= -0.8", res.Compound)
	}

	if res.Neg <= res.Pos {
		t.Errorf("neg %v should exceed pos %v", res.Neg, res.Pos)
	}
}

func TestAnalyzer_CustomLexicon(t *testing.T) {
	plain := NewAnalyzerWithLexicon(BaseLexicon())
	if got := plain.AnalyzeText("ceasefire").Label; got != models.Neutral {
		t.Errorf("without custom lexicon label = %v, want Neutral", got)
	}

	custom := map[string]float64{"ceasefire": 0.6}
	a := newTestAnalyzer(t, custom)

	if got := a.AnalyzeText("ceasefire").Label; got != models.Positive {
		t.Errorf("with custom lexicon label = %v, want Positive", got)
	}

	// Later changes to the caller's map do not leak into the analyzer.
	custom["ceasefire"] = -3

	if got := a.AnalyzeText("ceasefire").Label; got != models.Positive {
		t.Errorf("after mutating input map label = %v, want Positive", got)
	}

	// Overrides stay on the analyzer's own copy.
	if _, err := NewAnalyzer(map[string]float64{"war": 3}); err != nil {
		t.Fatalf("NewAnalyzer failed: %v", err)
	}

	if got := BaseLexicon()["war"]; got >= 0 {
		t.Errorf("base lexicon war = %v, want the negative VADER score", got)
	}

	if got := plain.AnalyzeText("war").Label; got != models.Negative {
		t.Errorf("plain analyzer war label = %v, want Negative", got)
	}
}

func TestNewAnalyzer_InvalidEntries(t *testing.T) {
	for name, custom := range map[string]map[string]float64{
		"Empty token": {" ": 1},
		"NaN score":   {"calm": math.NaN()},
		"Inf score":   {"calm": math.Inf(1)},
	} {
		t.Run(name, func(t *testing.T) {
			if _, err := NewAnalyzer(custom); !errors.Is(err, ErrInvalidLexiconEntry) {
				t.Errorf("error = %v, want ErrInvalidLexiconEntry", err)
			}
		})
	}
}

func TestAnalyzer_EmotionWords(t *testing.T) {
	a := newTestAnalyzer(t, map[string]float64{"peace": 0.8})

	got := a.EmotionWords("Peace, peace and WAR! on the table")
	want := []string{"peace", "peace", "war"}

	if !slices.Equal(got, want) {
		t.Errorf("EmotionWords = %v, want %v", got, want)
	}

	if got := a.EmotionWords(""); len(got) != 0 {
		t.Errorf("EmotionWords(\"\") = %v, want empty", got)
	}
}

func TestAnalyzer_AnnotateTable(t *testing.T) {
	a := newTestAnalyzer(t, nil)

	in, err := models.NewTableFromColumns([]string{"text", "source"}, map[string][]any{
		"text":   {"I love peace", "war is terrible", nil},
		"source": {"Flickr", "NYT", "Reddit"},
	})
	if err != nil {
		t.Fatalf("NewTableFromColumns failed: %v", err)
	}

	out, err := a.AnnotateTable(in, "text")
	if err != nil {
		t.Fatalf("AnnotateTable failed: %v", err)
	}

	for _, c := range []string{"sentiment", "sentiment_score", "pos_score", "neu_score", "neg_score", "emotion_words"} {
		if !out.Has(c) {
			t.Errorf("missing column %s", c)
		}
	}

	if got := out.Value(0, "sentiment"); got != "Positive" {
		t.Errorf("row 0 sentiment = %v, want Positive", got)
	}

	if got := out.Value(1, "sentiment"); got != "Negative" {
		t.Errorf("row 1 sentiment = %v, want Negative", got)
	}

	if got := out.Value(2, "sentiment"); got != "Neutral" {
		t.Errorf("row 2 sentiment = %v, want Neutral", got)
	}

	words, ok := out.Value(1, "emotion_words").([]string)
	if !ok || !slices.Equal(words, []string{"war", "terrible"}) {
		t.Errorf("row 1 emotion_words = %#v, want [war terrible]", out.Value(1, "emotion_words"))
	}

	if got := models.Records(out)[1].EmotionWords; !slices.Equal(got, []string{"war", "terrible"}) {
		t.Errorf("record emotion words = %v", got)
	}

	if in.Has("sentiment") {
		t.Error("AnnotateTable mutated its input")
	}
}

func TestAnalyzer_AnnotateTable_Nil(t *testing.T) {
	a := newTestAnalyzer(t, nil)

	if _, err := a.AnnotateTable(nil, "text"); !errors.Is(err, ErrNilTable) {
		t.Errorf("nil table error = %v, want ErrNilTable", err)
	}
}

func TestAnalyzer_AnnotateTable_Unchanged(t *testing.T) {
	a := newTestAnalyzer(t, nil)

	withoutText := models.NewTableFromRows([]string{"body"}, []map[string]any{{"body": "great news"}})

	out, err := a.AnnotateTable(withoutText, "text")
	if err != nil {
		t.Fatalf("AnnotateTable without text column failed: %v", err)
	}

	if out != withoutText || out.Has("sentiment") {
		t.Errorf("table without text column was changed: %v", out.Columns())
	}

	empty := models.NewTable("text")

	out, err = a.AnnotateTable(empty, "text")
	if err != nil {
		t.Fatalf("AnnotateTable on empty table failed: %v", err)
	}

	if out != empty {
		t.Error("empty table was changed")
	}
}
