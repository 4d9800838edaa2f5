package excel

import (
	"fmt"
	"regexp"
	"strings"

	"sheetSum/internal/logger"

	"github.com/xuri/excelize/v2"
)

var externalWorkbookRef = regexp.MustCompile(`\[.*\.xl.*\]`)

// IsExternalReference reports whether formula text looks like it points into
// another workbook. This is a heuristic, not a formula parser: it needs a
// bracket pair plus either a workbook-style marker or a quoted sheet name.
func IsExternalReference(formula string) bool {
	if !externalWorkbookRef.MatchString(formula) && !strings.Contains(formula, "'") {
		return false
	}
	return strings.Contains(formula, "[") && strings.Contains(formula, "]")
}

// SanitizeExternalLinks clears every formula cell that references an external
// workbook and returns how many cells were cleared. Text cells that merely
// contain brackets are left alone. Styles are kept.
func SanitizeExternalLinks(f *excelize.File) (int, error) {
	cleared := 0
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
		if err != nil {
			return cleared, fmt.Errorf("failed to read sheet %s: %w", sheet, err)
		}

		for rowIdx, row := range rows {
			for colIdx, raw := range row {
				cell, err := excelize.CoordinatesToCellName(colIdx+1, rowIdx+1)
				if err != nil {
					return cleared, err
				}

				formula, err := f.GetCellFormula(sheet, cell)
				if err != nil {
					return cleared, fmt.Errorf("failed to read formula in %s!%s: %w", sheet, cell, err)
				}
				if formula == "" {
					if !strings.HasPrefix(raw, "=") {
						continue
					}
					formula = raw[1:]
				}
				if !IsExternalReference(formula) {
					continue
				}

				if err := f.SetCellFormula(sheet, cell, ""); err != nil {
					return cleared, fmt.Errorf("failed to clear formula in %s!%s: %w", sheet, cell, err)
				}
				if err := f.SetCellValue(sheet, cell, nil); err != nil {
					return cleared, fmt.Errorf("failed to clear value in %s!%s: %w", sheet, cell, err)
				}
				logger.Debug("Cleared external reference", "sheet", sheet, "cell", cell, "formula", formula)
				cleared++
			}
		}
	}
	return cleared, nil
}
