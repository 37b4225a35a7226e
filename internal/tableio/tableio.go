// Package tableio reads and writes tables as CSV, XLSX and JSON.
package tableio

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"spectra/internal/models"
)

// Errors returned by readers and writers.
var (
	ErrUnsupportedFormat = errors.New("unsupported table format")
	ErrNoHeader          = errors.New("table has no header row")
	ErrSheetNotFound     = errors.New("sheet not found")
)

// DefaultSheet is the sheet name used when writing workbooks.
const DefaultSheet = "data"

// ReadFile loads a table from path, choosing the reader by extension. sheet applies to
// workbooks only; empty selects the first sheet.
func ReadFile(path, sheet string) (*models.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv":
		return ReadCSV(f)
	case ".xlsx":
		return ReadXLSX(f, sheet)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}

// WriteFile saves table to path, choosing the writer by extension.
func WriteFile(path string, table *models.Table) error {
	var write func(io.Writer, *models.Table) error

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv":
		write = WriteCSV
	case ".xlsx":
		write = WriteXLSX
	case ".json":
		write = WriteJSON
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}

	if err := write(f, table); err != nil {
		f.Close()
		return err
	}

	return f.Close()
}

// ReadCSV parses a CSV stream whose first record is the header. Empty cells become nil.
func ReadCSV(r io.Reader) (*models.Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse CSV: %w", err)
	}

	return fromRecords(records)
}

// WriteCSV writes the header followed by every row.
func WriteCSV(w io.Writer, table *models.Table) error {
	writer := csv.NewWriter(w)

	if err := writer.WriteAll(toRecords(table)); err != nil {
		return fmt.Errorf("failed to write CSV: %w", err)
	}

	return nil
}

// ReadXLSX parses a workbook sheet whose first row is the header. Empty cells become nil.
func ReadXLSX(r io.Reader, sheet string) (*models.Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if sheet == "" {
		if len(sheets) == 0 {
			return nil, ErrSheetNotFound
		}

		sheet = sheets[0]
	}

	found := false
	for _, s := range sheets {
		if s == sheet {
			found = true
			break
		}
	}

	if !found {
		return nil, fmt.Errorf("%w: %q", ErrSheetNotFound, sheet)
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}

	return fromRecords(rows)
}

// WriteXLSX writes the table into a single-sheet workbook.
func WriteXLSX(w io.Writer, table *models.Table) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", DefaultSheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	for r, record := range toRecords(table) {
		for c, value := range record {
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return err
			}

			if err := f.SetCellValue(DefaultSheet, cell, value); err != nil {
				return fmt.Errorf("failed to set cell %s: %w", cell, err)
			}
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}

	return nil
}

// WriteJSON writes the rows as a JSON array of objects.
func WriteJSON(w io.Writer, table *models.Table) error {
	rows := make([]map[string]any, table.Len())
	for i := range rows {
		rows[i] = table.Row(i)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	if err := enc.Encode(rows); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}

	return nil
}

func fromRecords(records [][]string) (*models.Table, error) {
	if len(records) == 0 {
		return nil, ErrNoHeader
	}

	header := make([]string, len(records[0]))
	for i, h := range records[0] {
		header[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}

	data := make(map[string][]any, len(header))
	for _, h := range header {
		data[h] = make([]any, 0, len(records)-1)
	}

	for _, record := range records[1:] {
		for i, h := range header {
			var v any
			if i < len(record) && record[i] != "" {
				v = record[i]
			}

			data[h] = append(data[h], v)
		}
	}

	table, err := models.NewTableFromColumns(header, data)
	if err != nil {
		return nil, fmt.Errorf("invalid header: %w", err)
	}

	return table, nil
}

func toRecords(table *models.Table) [][]string {
	columns := table.Columns()
	records := make([][]string, 0, table.Len()+1)
	records = append(records, columns)

	for i := 0; i < table.Len(); i++ {
		record := make([]string, len(columns))
		for j, c := range columns {
			record[j] = models.AsString(table.Value(i, c))
		}

		records = append(records, record)
	}

	return records
}
