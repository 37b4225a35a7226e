package normalizer

import (
	"slices"

	"spectra/internal/models"
)

// Merger concatenates standardized tables.
type Merger struct{}

// NewMerger creates a new merger instance.
func NewMerger() *Merger {
	return &Merger{}
}

// Merge concatenates tables row-wise in input order.
//
// With preserveColumns the result carries the union of all columns (first-seen order)
// and cells a table lacks are nil. Without it the result carries only the columns common
// to every table plus text, date and source. No deduplication happens here.
func (m *Merger) Merge(tables []*models.Table, preserveColumns bool) *models.Table {
	switch len(tables) {
	case 0:
		return models.NewTable()
	case 1:
		return tables[0]
	}

	var columns []string
	if preserveColumns {
		columns = unionColumns(tables)
	} else {
		columns = commonColumns(tables)
	}

	return concat(tables, columns)
}

func unionColumns(tables []*models.Table) []string {
	var columns []string

	for _, t := range tables {
		for _, c := range t.Columns() {
			if !slices.Contains(columns, c) {
				columns = append(columns, c)
			}
		}
	}

	return columns
}

func commonColumns(tables []*models.Table) []string {
	var columns []string

	for _, c := range tables[0].Columns() {
		common := true

		for _, t := range tables[1:] {
			if !t.Has(c) {
				common = false
				break
			}
		}

		if common {
			columns = append(columns, c)
		}
	}

	for _, c := range models.CanonicalColumns() {
		if !slices.Contains(columns, c) {
			columns = append(columns, c)
		}
	}

	return columns
}

func concat(tables []*models.Table, columns []string) *models.Table {
	total := 0
	for _, t := range tables {
		total += t.Len()
	}

	data := make(map[string][]any, len(columns))

	for _, c := range columns {
		values := make([]any, 0, total)
		for _, t := range tables {
			values = append(values, t.Select(c).Column(c)...)
		}

		data[c] = values
	}

	merged, err := models.NewTableFromColumns(columns, data)
	if err != nil {
		// Every column holds exactly total values, so construction cannot fail.
		panic(err)
	}

	return merged
}
