package parser

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// RowFunc receives one raw row. rowNum is 1-indexed over the physical file.
// Returning an error aborts the stream and is passed through to the caller.
type RowFunc func(rowNum int, cells []string) error

// ParseWarning represents a non-fatal issue encountered while reading rows.
type ParseWarning struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

// StreamCSV decodes the byte payload and streams every row to fn, making no
// assumption about which row is the header: exports carry banner rows, so
// header detection belongs to the caller. Rows that fail to parse are
// skipped and reported as warnings; the returned slice holds them.
func StreamCSV(data []byte, fn RowFunc) ([]ParseWarning, error) {
	decoded, _, err := DetectAndDecode(data)
	if err != nil {
		return nil, fmt.Errorf("encoding detection failed: %w", err)
	}

	reader := csv.NewReader(bytes.NewReader(decoded))
	// Banner and data rows have unrelated widths; never enforce a count.
	reader.FieldsPerRecord = -1
	// Support lazy quotes for less strict parsing of real-world CSV files.
	reader.LazyQuotes = true
	reader.ReuseRecord = true

	var warnings []ParseWarning
	rowNum := 0
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		rowNum++
		if err != nil {
			warnings = append(warnings, ParseWarning{
				Row:     rowNum,
				Message: fmt.Sprintf("parse error: %v", err),
			})
			continue
		}

		cells := make([]string, len(row))
		for i, c := range row {
			cells[i] = trimCell(c)
		}
		if err := fn(rowNum, cells); err != nil {
			return warnings, err
		}
	}

	if rowNum == 0 {
		return warnings, fmt.Errorf("empty file: no rows found")
	}
	return warnings, nil
}

// StreamFile dispatches on file extension: .xlsx/.xlsm go through the
// spreadsheet reader, everything else is treated as CSV.
func StreamFile(path string, fn RowFunc) ([]ParseWarning, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return StreamXLSX(path, fn)
	default:
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		return StreamCSV(data, fn)
	}
}

// trimCell trims surrounding whitespace plus any stray BOM rune left in the
// first field of a decoded file.
func trimCell(s string) string {
	s = strings.TrimPrefix(s, "\uFEFF")
	return strings.TrimSpace(s)
}
