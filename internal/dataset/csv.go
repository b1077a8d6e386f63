package dataset

import (
	"encoding/csv"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Table is an in-memory CSV dataset. Rows are kept as raw strings; typed
// access goes through the cell helpers so a malformed cell stays row-local.
type Table struct {
	Name    string // file title without extension
	Columns []string
	Rows    [][]string
}

// ReadCSV loads a CSV file into a Table. Files written by the acquisition
// layer carry a UTF-8 BOM (utf-8-sig), which is stripped here.
// A missing file returns the underlying fs error so callers can distinguish
// "file missing" from "present but empty".
func ReadCSV(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1 // tolerate ragged rows

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv %s: %w", path, err)
	}

	t := &Table{Name: strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))}
	if len(records) == 0 {
		return t, nil
	}

	t.Columns = records[0]
	if len(t.Columns) > 0 {
		t.Columns[0] = strings.TrimPrefix(t.Columns[0], "\uFEFF")
	}
	t.Rows = records[1:]
	return t, nil
}

// ListCSVFiles returns all .csv paths under dir, recursively, in walk order.
// A missing directory yields an empty list, not an error.
func ListCSVFiles(dir string) []string {
	var files []string
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(path), ".csv") {
			files = append(files, path)
		}
		return nil
	})
	return files
}

// ColumnIndex returns the index of the named column, or -1
func (t *Table) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Cell returns the raw cell value, "" when the row is ragged
func (t *Table) Cell(row, col int) string {
	if row < 0 || row >= len(t.Rows) || col < 0 || col >= len(t.Rows[row]) {
		return ""
	}
	return t.Rows[row][col]
}

// FloatCell parses the cell as a float64
func (t *Table) FloatCell(row, col int) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(t.Cell(row, col)), 64)
}

// Empty reports whether the table has no data rows
func (t *Table) Empty() bool {
	return len(t.Rows) == 0
}

// FormatRow renders one row as "column: value" lines, skipping empty cells
func (t *Table) FormatRow(row int) string {
	var b strings.Builder
	for col, name := range t.Columns {
		v := strings.TrimSpace(t.Cell(row, col))
		if v == "" {
			continue
		}
		b.WriteString(name)
		b.WriteString(": ")
		b.WriteString(v)
		b.WriteString("\n")
	}
	return b.String()
}

// Format renders the whole table: a header line of column names followed by
// tab-separated rows. Used when a report embeds a dataset wholesale.
func (t *Table) Format() string {
	var b strings.Builder
	b.WriteString(strings.Join(t.Columns, "\t"))
	b.WriteString("\n")
	for i := range t.Rows {
		b.WriteString(strings.Join(t.Rows[i], "\t"))
		b.WriteString("\n")
	}
	return b.String()
}
