package helpers

import (
	"bytes"
	"encoding/csv"
	"os"
	"strconv"
	"strings"

	"github.com/aclements/go-gg/table"
	"github.com/pkg/errors"
)

// ============================================================================
// CSV HELPER — Parses CSV data into a go-gg table
// ============================================================================
// Consumer reads the CSV from wherever it lives (file, upload, fixture).
// Two-valued categorical columns are encoded to 0/1 first, so that the
// engine can bin them; the rest is coerced by go-gg (int, then float64,
// else string).
// ============================================================================

// Encodings maps column → raw value → numeric code.
type Encodings map[string]map[string]int

var yesNo = map[string]int{"no": 0, "yes": 1}

// StudentEncodings are the binary encodings of the student-performance
// dataset (UCI), matching the bin labels of the schema catalog.
var StudentEncodings = Encodings{
	"sex":        {"F": 0, "M": 1},
	"school":     {"GP": 0, "MS": 1},
	"address":    {"U": 0, "R": 1},
	"Pstatus":    {"T": 0, "A": 1},
	"famsize":    {"LE3": 0, "GT3": 1},
	"schoolsup":  yesNo,
	"famsup":     yesNo,
	"paid":       yesNo,
	"activities": yesNo,
	"nursery":    yesNo,
	"higher":     yesNo,
	"internet":   yesNo,
	"romantic":   yesNo,
}

// LoadCSVFile reads and parses a CSV file. See LoadCSV.
func LoadCSVFile(path string, enc Encodings) (*table.Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read %s", path)
	}
	t, err := LoadCSV(data, enc)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load %s", path)
	}
	return t, nil
}

// LoadCSV parses CSV bytes into a table. The separator is ',' unless the
// header only contains ';' (the UCI files use ';'). Encoded columns must
// only hold values from their encoding; columns absent from the data are
// ignored.
func LoadCSV(data []byte, enc Encodings) (*table.Table, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	if first, _, _ := bytes.Cut(data, []byte("\n")); !bytes.Contains(first, []byte(",")) && bytes.Contains(first, []byte(";")) {
		reader.Comma = ';'
	}
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse CSV")
	}
	if len(records) == 0 || len(records[0]) == 0 {
		return nil, errors.New("CSV has no columns")
	}

	headers := make([]string, len(records[0]))
	seen := make(map[string]bool, len(headers))
	for i, h := range records[0] {
		h = strings.TrimSpace(h)
		if h == "" {
			return nil, errors.Errorf("column %d has an empty header", i+1)
		}
		if seen[h] {
			return nil, errors.Errorf("duplicate column %q", h)
		}
		seen[h] = true
		headers[i] = h
	}

	rows := records[1:]
	if len(rows) == 0 {
		return nil, errors.New("CSV has no data rows")
	}

	for col, h := range headers {
		codes, ok := enc[h]
		if !ok {
			continue
		}
		for r, row := range rows {
			raw := strings.TrimSpace(row[col])
			code, ok := codes[raw]
			if !ok && !isCode(codes, raw) {
				return nil, errors.Errorf("row %d: column %q: unexpected value %q", r+2, h, raw)
			}
			if ok {
				row[col] = strconv.Itoa(code)
			}
		}
	}

	return table.TableFromStrings(headers, rows, true), nil
}

// isCode reports whether raw is already one of the encoded values.
func isCode(codes map[string]int, raw string) bool {
	n, err := strconv.Atoi(raw)
	if err != nil {
		return false
	}
	for _, c := range codes {
		if c == n {
			return true
		}
	}
	return false
}
