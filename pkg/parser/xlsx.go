package parser

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// StreamXLSX streams the rows of the first worksheet to fn. The row
// iterator keeps memory bounded on month-to-date workbooks; the whole sheet
// is never materialized here.
func StreamXLSX(path string, fn RowFunc) ([]ParseWarning, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%s: workbook has no sheets", path)
	}

	rows, err := f.Rows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	defer rows.Close()

	var warnings []ParseWarning
	rowNum := 0
	for rows.Next() {
		rowNum++
		cells, err := rows.Columns()
		if err != nil {
			warnings = append(warnings, ParseWarning{
				Row:     rowNum,
				Message: fmt.Sprintf("row read error: %v", err),
			})
			continue
		}
		for i, c := range cells {
			cells[i] = trimCell(c)
		}
		if err := fn(rowNum, cells); err != nil {
			return warnings, err
		}
	}
	if err := rows.Error(); err != nil {
		return warnings, fmt.Errorf("%s: %w", path, err)
	}

	if rowNum == 0 {
		return warnings, fmt.Errorf("empty file: no rows found")
	}
	return warnings, nil
}
