// Package dataset loads the CSV exports the rankctl commands score.
package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"
)

// Row maps a normalised (trimmed, lower-case) column name to its value.
type Row struct {
	Line   int
	values map[string]string
}

// Get returns the first non-empty value among the given column names.
func (r Row) Get(names ...string) string {
	for _, n := range names {
		if v := strings.TrimSpace(r.values[n]); v != "" {
			return v
		}
	}
	return ""
}

// Has reports whether any of the columns exist in the header.
func (r Row) Has(names ...string) bool {
	for _, n := range names {
		if _, ok := r.values[n]; ok {
			return true
		}
	}
	return false
}

// Float parses a required numeric column. NaN and infinities are rejected.
func (r Row) Float(names ...string) (float64, error) {
	raw := r.Get(names...)
	if raw == "" {
		return 0, fmt.Errorf("csv: line %d: missing %s", r.Line, names[0])
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("csv: line %d: %s: %w", r.Line, names[0], err)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("csv: line %d: %s: non-finite value %q", r.Line, names[0], raw)
	}
	return v, nil
}

// Int parses a required count column. Values such as "12.0" are accepted.
func (r Row) Int(names ...string) (int64, error) {
	v, err := r.Float(names...)
	if err != nil {
		return 0, err
	}
	if v < 0 || v != float64(int64(v)) {
		return 0, fmt.Errorf("csv: line %d: %s must be a non-negative integer, got %v", r.Line, names[0], v)
	}
	return int64(v), nil
}

// OptionalFloat parses a column that may be blank.
func (r Row) OptionalFloat(names ...string) (*float64, error) {
	if r.Get(names...) == "" {
		return nil, nil
	}
	v, err := r.Float(names...)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

var timestampLayouts = []string{
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// Time parses a timestamp column in one of the common export layouts.
func (r Row) Time(names ...string) (time.Time, error) {
	raw := r.Get(names...)
	if raw == "" {
		return time.Time{}, fmt.Errorf("csv: line %d: missing %s", r.Line, names[0])
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("csv: line %d: %s: unrecognised timestamp %q", r.Line, names[0], raw)
}

// LoadCSV reads a CSV file; see ReadCSV. The loaders in this package parse
// its rows.
func LoadCSV(path string) ([]Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("csv: open %s: %w", path, err)
	}
	defer f.Close() //nolint:errcheck

	rows, err := ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rows, nil
}

// ReadCSV reads all rows. The first record is the header. An unnamed leading
// column (a pandas index) is kept under the name "index". Short records leave
// their trailing columns unset and surplus fields are ignored.
func ReadCSV(r io.Reader) ([]Row, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("csv: parse: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("csv: empty input (no header row)")
	}

	headers := make([]string, len(records[0]))
	for i, h := range records[0] {
		h = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if h == "" && i == 0 {
			h = "index"
		}
		headers[i] = h
	}

	rows := make([]Row, 0, len(records)-1)
	for i, record := range records[1:] {
		row := Row{Line: i + 2, values: make(map[string]string, len(headers))}
		for j, h := range headers {
			if j < len(record) {
				row.values[h] = record[j]
			} else {
				row.values[h] = ""
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}
