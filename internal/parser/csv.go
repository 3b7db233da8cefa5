package parser

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrNoHeader is returned when a tabular statement has no header row.
var ErrNoHeader = errors.New("csv has no header row")

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ReadCSV splits a delimited statement into its trimmed header names and one
// field map per data row. Columns beyond the header are ignored and short rows
// simply lack the trailing fields.
func ReadCSV(data []byte) ([]string, []map[string]string, error) {
	r := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, utf8BOM)))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil, ErrNoHeader
	}
	if err != nil {
		return nil, nil, fmt.Errorf("reading csv header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	var records []map[string]string
	for line := 2; ; line++ {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("reading csv row %d: %w", line, err)
		}
		if blankRow(row) {
			continue
		}

		rec := make(map[string]string, len(header))
		for i, name := range header {
			if i >= len(row) {
				break
			}
			if _, dup := rec[name]; dup || name == "" {
				continue
			}
			rec[name] = row[i]
		}
		records = append(records, rec)
	}
	return header, records, nil
}

func blankRow(row []string) bool {
	for _, f := range row {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
