package models

import (
	"errors"
	"slices"
	"testing"
	"time"
)

func TestNewTableFromColumns_Ragged(t *testing.T) {
	_, err := NewTableFromColumns([]string{"a", "b"}, map[string][]any{
		"a": {1, 2},
		"b": {1},
	})
	if !errors.Is(err, ErrRaggedColumns) {
		t.Errorf("error = %v, want %v", err, ErrRaggedColumns)
	}
}

func TestNewTableFromColumns_Errors(t *testing.T) {
	if _, err := NewTableFromColumns([]string{"a", "a"}, map[string][]any{"a": {1}}); !errors.Is(err, ErrDuplicateColumn) {
		t.Errorf("duplicate error = %v, want %v", err, ErrDuplicateColumn)
	}

	if _, err := NewTableFromColumns([]string{"a"}, map[string][]any{}); !errors.Is(err, ErrMissingColumn) {
		t.Errorf("missing error = %v, want %v", err, ErrMissingColumn)
	}
}

func TestTable_CopiesInput(t *testing.T) {
	values := []any{"x"}

	table, err := NewTableFromColumns([]string{"a"}, map[string][]any{"a": values})
	if err != nil {
		t.Fatalf("NewTableFromColumns failed: %v", err)
	}

	values[0] = "changed"
	col := table.Column("a")
	col[0] = "changed again"

	if got := table.Value(0, "a"); got != "x" {
		t.Errorf("Value = %v, want x", got)
	}
}

func TestTable_NewTableFromRows(t *testing.T) {
	table := NewTableFromRows([]string{"a", "b"}, []map[string]any{
		{"a": 1, "b": "one"},
		{"a": 2},
	})

	if table.Len() != 2 {
		t.Fatalf("Len = %d, want 2", table.Len())
	}

	if got := table.Value(1, "b"); got != nil {
		t.Errorf("missing cell = %v, want nil", got)
	}
}

func TestTable_WithColumn(t *testing.T) {
	base := NewTable()

	withText, err := base.WithColumn("text", []any{"a", "b"})
	if err != nil {
		t.Fatalf("WithColumn failed: %v", err)
	}

	if withText.Len() != 2 {
		t.Errorf("Len = %d, want 2", withText.Len())
	}

	if len(base.Columns()) != 0 {
		t.Error("WithColumn mutated the receiver")
	}

	if _, err := withText.WithColumn("x", []any{1}); !errors.Is(err, ErrRaggedColumns) {
		t.Errorf("error = %v, want %v", err, ErrRaggedColumns)
	}

	replaced, err := withText.WithColumn("text", []any{"c", "d"})
	if err != nil {
		t.Fatalf("WithColumn failed: %v", err)
	}

	if got := replaced.Columns(); !slices.Equal(got, []string{"text"}) {
		t.Errorf("Columns = %v, want [text]", got)
	}

	if got := withText.Value(0, "text"); got != "a" {
		t.Errorf("original value = %v, want a", got)
	}
}

func TestTable_SelectFilterDropDuplicates(t *testing.T) {
	table := NewTableFromRows([]string{"headline", "n"}, []map[string]any{
		{"headline": "a", "n": 1},
		{"headline": "b", "n": 2},
		{"headline": "a", "n": 3},
	})

	deduped := table.DropDuplicates("headline")
	if deduped.Len() != 2 {
		t.Fatalf("DropDuplicates Len = %d, want 2", deduped.Len())
	}

	if got := deduped.Value(1, "n"); got != 2 {
		t.Errorf("DropDuplicates kept %v, want first occurrence order", got)
	}

	if got := table.DropDuplicates("missing"); got != table {
		t.Error("DropDuplicates on absent column should return the table unchanged")
	}

	selected := table.Select("n", "extra")
	if got := selected.Columns(); !slices.Equal(got, []string{"n", "extra"}) {
		t.Errorf("Select Columns = %v", got)
	}

	if got := selected.Value(2, "extra"); got != nil {
		t.Errorf("Select extra = %v, want nil", got)
	}

	filtered := table.Filter(func(row int) bool { return table.Value(row, "n") != 2 })
	if filtered.Len() != 2 {
		t.Errorf("Filter Len = %d, want 2", filtered.Len())
	}

	if got := table.Head(10).Len(); got != 3 {
		t.Errorf("Head(10) Len = %d, want 3", got)
	}
}

func TestRecords(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	table := NewTableFromRows(
		[]string{ColumnText, ColumnDate, ColumnSource, ColumnSentiment, ColumnSentimentScore, ColumnEmotionWords},
		[]map[string]any{
			{ColumnText: "peace now", ColumnDate: now, ColumnSource: "NYT", ColumnSentiment: "Positive",
				ColumnSentimentScore: 0.6, ColumnEmotionWords: []string{"peace"}},
		},
	)

	records := Records(table)
	if len(records) != 1 {
		t.Fatalf("len(records) = %d, want 1", len(records))
	}

	rec := records[0]
	if rec.Sentiment != Positive || rec.SentimentScore != 0.6 || !rec.Annotated {
		t.Errorf("unexpected record: %+v", rec)
	}

	if !rec.Date.Equal(now) || rec.Source != "NYT" {
		t.Errorf("unexpected canonical fields: %+v", rec)
	}

	if !slices.Equal(rec.EmotionWords, []string{"peace"}) {
		t.Errorf("EmotionWords = %v", rec.EmotionWords)
	}
}

func TestAsStrings(t *testing.T) {
	if got := AsStrings("a,b"); !slices.Equal(got, []string{"a", "b"}) {
		t.Errorf("AsStrings = %v", got)
	}

	if got := AsStrings(""); got != nil {
		t.Errorf("AsStrings(empty) = %v, want nil", got)
	}
}
