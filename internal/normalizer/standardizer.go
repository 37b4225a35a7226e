package normalizer

import (
	"strings"
	"time"

	"spectra/internal/models"
)

// Column name candidates, checked in priority order.
var (
	textColumnNames = []string{"comment_text", "self_text", "lead_paragraph", "text"}
	textSubstrings  = []string{"text", "comment"}
	dateColumnNames = []string{"date", "created_time", "pub_date"}
	dateSubstrings  = []string{"date", "time"}

	// passThroughColumns survive standardization unchanged when present.
	passThroughColumns = []string{
		models.ColumnAuthor,
		models.ColumnSentiment,
		models.ColumnSentimentScore,
		models.ColumnEmotionWords,
	}
)

// ColumnHints names the source columns explicitly. Empty fields are inferred.
type ColumnHints struct {
	Text string
	Date string
}

// Standardizer maps heterogeneous source tables onto the canonical text/date/source shape.
type Standardizer struct {
	now func() time.Time
}

// NewStandardizer creates a new standardizer using the wall clock.
func NewStandardizer() *Standardizer {
	return &Standardizer{now: time.Now}
}

// NewStandardizerWithClock creates a standardizer with an injected clock.
func NewStandardizerWithClock(now func() time.Time) *Standardizer {
	return &Standardizer{now: now}
}

// Standardize returns a new table with exactly text, date and source, followed by any
// pass-through columns the input carries. Rows are neither dropped nor reordered.
func (s *Standardizer) Standardize(table *models.Table, source string, hints ColumnHints) (*models.Table, error) {
	if table == nil {
		return nil, ErrNilTable
	}

	if table.Empty() {
		return models.NewTable(models.CanonicalColumns()...), nil
	}

	rows := table.Len()
	columns := table.Columns()
	data := make(map[string][]any, len(columns))

	data[models.ColumnText] = s.textValues(table, resolveColumn(columns, hints.Text, models.ColumnText, textColumnNames, textSubstrings))
	data[models.ColumnDate] = s.dateValues(table, resolveColumn(columns, hints.Date, models.ColumnDate, dateColumnNames, dateSubstrings))

	sources := make([]any, rows)
	for i := range sources {
		sources[i] = source
	}

	data[models.ColumnSource] = sources

	order := models.CanonicalColumns()

	for _, c := range passThroughColumns {
		if table.Has(c) {
			order = append(order, c)
			data[c] = table.Column(c)
		}
	}

	return models.NewTableFromColumns(order, data)
}

func (s *Standardizer) textValues(table *models.Table, column string) []any {
	values := make([]any, table.Len())

	if column == "" {
		for i := range values {
			values[i] = ""
		}

		return values
	}

	for i, v := range table.Column(column) {
		values[i] = models.AsString(v)
	}

	return values
}

func (s *Standardizer) dateValues(table *models.Table, column string) []any {
	if column != "" {
		if parsed, err := parseDateColumn(table.Column(column)); err == nil {
			return parsed
		}
	}

	now := s.now()

	values := make([]any, table.Len())
	for i := range values {
		values[i] = now
	}

	return values
}

// resolveColumn picks the source column for a canonical field: the explicit hint, then
// the literal candidates, then the first column containing one of the substrings.
// An explicit hint that names an absent column falls back to the canonical column itself.
func resolveColumn(columns []string, hint, canonical string, names, substrings []string) string {
	present := make(map[string]bool, len(columns))
	for _, c := range columns {
		present[c] = true
	}

	if hint != "" {
		if present[hint] {
			return hint
		}

		if present[canonical] {
			return canonical
		}

		return ""
	}

	for _, name := range names {
		if present[name] {
			return name
		}
	}

	for _, c := range columns {
		lower := strings.ToLower(c)
		for _, sub := range substrings {
			if strings.Contains(lower, sub) {
				return c
			}
		}
	}

	return ""
}
