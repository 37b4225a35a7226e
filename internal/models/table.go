// Package models defines the tabular data structures shared by collectors, the normalizer and the analysis stages.
package models

import (
	"errors"
	"fmt"
)

// Table errors.
var (
	ErrRaggedColumns   = errors.New("columns have different lengths")
	ErrDuplicateColumn = errors.New("duplicate column name")
	ErrMissingColumn   = errors.New("column data missing")
)

// Table is an immutable, rectangular column store.
// Column slices are never written after construction, so tables may share them.
type Table struct {
	data    map[string][]any
	columns []string
	rows    int
}

// NewTable returns an empty (zero row) table with the given columns.
func NewTable(columns ...string) *Table {
	t := &Table{data: make(map[string][]any, len(columns))}

	for _, c := range columns {
		if _, ok := t.data[c]; ok {
			continue
		}

		t.columns = append(t.columns, c)
		t.data[c] = []any{}
	}

	return t
}

// NewTableFromColumns builds a table from column data. Every column named in order
// must be present in data and all columns must have the same length. Values are copied.
func NewTableFromColumns(order []string, data map[string][]any) (*Table, error) {
	t := &Table{data: make(map[string][]any, len(order))}

	for i, c := range order {
		if _, dup := t.data[c]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateColumn, c)
		}

		values, ok := data[c]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrMissingColumn, c)
		}

		if i == 0 {
			t.rows = len(values)
		} else if len(values) != t.rows {
			return nil, fmt.Errorf("%w: %q has %d values, want %d", ErrRaggedColumns, c, len(values), t.rows)
		}

		t.columns = append(t.columns, c)
		t.data[c] = append([]any(nil), values...)
	}

	return t, nil
}

// NewTableFromRows builds a table from row maps. Cells absent from a row are nil.
func NewTableFromRows(order []string, rows []map[string]any) *Table {
	t := NewTable(order...)
	t.rows = len(rows)

	for _, c := range t.columns {
		values := make([]any, len(rows))
		for i, row := range rows {
			values[i] = row[c]
		}

		t.data[c] = values
	}

	return t
}

// Len returns the number of rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}

	return t.rows
}

// Empty reports whether the table has no rows.
func (t *Table) Empty() bool {
	return t.Len() == 0
}

// Columns returns a copy of the column names in order.
func (t *Table) Columns() []string {
	if t == nil {
		return nil
	}

	return append([]string(nil), t.columns...)
}

// Has reports whether the column exists.
func (t *Table) Has(column string) bool {
	if t == nil {
		return false
	}

	_, ok := t.data[column]

	return ok
}

// Column returns a copy of the column values, or nil when the column is absent.
func (t *Table) Column(column string) []any {
	if !t.Has(column) {
		return nil
	}

	return append([]any(nil), t.data[column]...)
}

// Value returns a single cell. Absent columns and out of range rows yield nil.
func (t *Table) Value(row int, column string) any {
	if !t.Has(column) || row < 0 || row >= t.rows {
		return nil
	}

	return t.data[column][row]
}

// Row returns the cells of one row keyed by column name.
func (t *Table) Row(i int) map[string]any {
	columns := t.Columns()

	row := make(map[string]any, len(columns))
	for _, c := range columns {
		row[c] = t.Value(i, c)
	}

	return row
}

// Select projects the table onto the given columns. Columns the table lacks are nil-filled.
func (t *Table) Select(columns ...string) *Table {
	out := NewTable()
	out.rows = t.Len()

	for _, c := range columns {
		if _, dup := out.data[c]; dup {
			continue
		}

		out.columns = append(out.columns, c)
		if t.Has(c) {
			out.data[c] = t.data[c]
		} else {
			out.data[c] = make([]any, out.rows)
		}
	}

	return out
}

// WithColumn returns a new table with the column set to values, replacing an existing
// column in place or appending a new one. A table without columns adopts len(values) rows.
func (t *Table) WithColumn(column string, values []any) (*Table, error) {
	rows := t.Len()
	if len(t.Columns()) == 0 {
		rows = len(values)
	}

	if len(values) != rows {
		return nil, fmt.Errorf("%w: %q has %d values, want %d", ErrRaggedColumns, column, len(values), rows)
	}

	out := t.Select(t.Columns()...)
	out.rows = rows

	if !out.Has(column) {
		out.columns = append(out.columns, column)
	}

	out.data[column] = append([]any(nil), values...)

	return out, nil
}

// Filter returns the rows for which keep returns true, in order.
func (t *Table) Filter(keep func(row int) bool) *Table {
	var idx []int

	for i := 0; i < t.Len(); i++ {
		if keep(i) {
			idx = append(idx, i)
		}
	}

	return t.take(idx)
}

// DropDuplicates keeps the first row for each distinct value of column.
// The table is returned unchanged when the column is absent.
func (t *Table) DropDuplicates(column string) *Table {
	if !t.Has(column) {
		return t
	}

	seen := make(map[string]bool, t.rows)

	return t.Filter(func(row int) bool {
		key := fmt.Sprint(t.data[column][row])
		if seen[key] {
			return false
		}

		seen[key] = true

		return true
	})
}

// Head returns the first n rows.
func (t *Table) Head(n int) *Table {
	n = max(0, min(n, t.Len()))

	idx := make([]int, 0, n)
	for i := 0; i < n; i++ {
		idx = append(idx, i)
	}

	return t.take(idx)
}

func (t *Table) take(idx []int) *Table {
	out := NewTable(t.Columns()...)
	out.rows = len(idx)

	for _, c := range out.columns {
		values := make([]any, len(idx))
		for i, r := range idx {
			values[i] = t.data[c][r]
		}

		out.data[c] = values
	}

	return out
}

// String returns a short description of the table shape.
func (t *Table) String() string {
	return fmt.Sprintf("Table{Rows: %d, Columns: %v}", t.Len(), t.Columns())
}
