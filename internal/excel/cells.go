package excel

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// Cell is one non-empty cell of a worksheet. Value holds nil, string,
// float64, bool or time.Time; Formula is the formula text without the
// leading '='.
type Cell struct {
	Col     int
	Row     int
	Value   any
	Formula string
}

// Empty reports whether the cell carries neither a value nor a formula.
func (c Cell) Empty() bool {
	if c.Formula != "" {
		return false
	}
	switch v := c.Value.(type) {
	case nil:
		return true
	case string:
		return v == ""
	}
	return false
}

// Name returns the A1-style reference of the cell.
func (c Cell) Name() string {
	name, _ := excelize.CoordinatesToCellName(c.Col, c.Row)
	return name
}

// ReadCells reads every non-empty cell of a sheet with a typed value.
// Numbers formatted as dates come back as time.Time.
func ReadCells(f *excelize.File, sheet string) ([]Cell, error) {
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to get rows: %w", err)
	}

	reader := cellReader{
		file:       f,
		sheet:      sheet,
		date1904:   uses1904Dates(f),
		dateStyles: make(map[int]bool),
	}

	var cells []Cell
	for rowIdx, row := range rows {
		for colIdx, raw := range row {
			cell, err := reader.read(colIdx+1, rowIdx+1, raw)
			if err != nil {
				return nil, err
			}
			if !cell.Empty() {
				cells = append(cells, cell)
			}
		}
	}
	return cells, nil
}

type cellReader struct {
	file       *excelize.File
	sheet      string
	date1904   bool
	dateStyles map[int]bool
}

func (r *cellReader) read(col, row int, raw string) (Cell, error) {
	cell := Cell{Col: col, Row: row}
	name := cell.Name()

	formula, err := r.file.GetCellFormula(r.sheet, name)
	if err != nil {
		return cell, fmt.Errorf("failed to read formula in %s: %w", name, err)
	}
	cell.Formula = formula

	if raw == "" {
		return cell, nil
	}

	cellType, err := r.file.GetCellType(r.sheet, name)
	if err != nil {
		return cell, fmt.Errorf("failed to read type of %s: %w", name, err)
	}

	switch cellType {
	case excelize.CellTypeBool:
		cell.Value = raw == "1" || strings.EqualFold(raw, "TRUE")
	case excelize.CellTypeDate:
		cell.Value = parseISODate(raw)
	case excelize.CellTypeNumber, excelize.CellTypeUnset:
		num, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			cell.Value = raw
			break
		}
		cell.Value = num
		isDate, err := r.isDateCell(name)
		if err != nil {
			return cell, err
		}
		if isDate {
			if t, err := excelize.ExcelDateToTime(num, r.date1904); err == nil {
				cell.Value = t
			}
		}
	default:
		cell.Value = raw
	}
	return cell, nil
}

func (r *cellReader) isDateCell(name string) (bool, error) {
	styleID, err := r.file.GetCellStyle(r.sheet, name)
	if err != nil {
		return false, fmt.Errorf("failed to read style of %s: %w", name, err)
	}
	if styleID == 0 {
		return false, nil
	}
	if isDate, ok := r.dateStyles[styleID]; ok {
		return isDate, nil
	}

	style, err := r.file.GetStyle(styleID)
	if err != nil {
		return false, fmt.Errorf("failed to read style %d: %w", styleID, err)
	}
	isDate := isDateNumFmt(style.NumFmt)
	if style.CustomNumFmt != nil {
		isDate = isDateFormatCode(*style.CustomNumFmt)
	}
	r.dateStyles[styleID] = isDate
	return isDate, nil
}

func isDateNumFmt(id int) bool {
	switch {
	case id >= 14 && id <= 22:
		return true
	case id >= 27 && id <= 36:
		return true
	case id >= 45 && id <= 47:
		return true
	case id >= 50 && id <= 58:
		return true
	}
	return false
}

var (
	quotedSection  = regexp.MustCompile(`"[^"]*"|\\.|\[[^\]]*\]`)
	dateFormatRune = regexp.MustCompile(`[yYmMdDhHsS]`)
)

// isDateFormatCode looks for date or time tokens outside quoted literals,
// escapes and bracketed sections such as colors or locales.
func isDateFormatCode(code string) bool {
	if strings.EqualFold(code, "General") {
		return false
	}
	return dateFormatRune.MatchString(quotedSection.ReplaceAllString(code, ""))
}

func parseISODate(raw string) any {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02T15:04", "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t
		}
	}
	return raw
}

func uses1904Dates(f *excelize.File) bool {
	props, err := f.GetWorkbookProps()
	if err != nil || props.Date1904 == nil {
		return false
	}
	return *props.Date1904
}

// writeCell stores a cell's formula or value without touching its style.
func writeCell(f *excelize.File, sheet string, c Cell) error {
	if c.Formula != "" {
		return f.SetCellFormula(sheet, c.Name(), c.Formula)
	}
	if t, ok := c.Value.(time.Time); ok {
		return writeTime(f, sheet, c.Name(), t)
	}
	return f.SetCellValue(sheet, c.Name(), c.Value)
}

// writeTime stores a date serial. A cell styled without a date format gets
// the same style plus numFmt 22, otherwise the date would show as a number.
func writeTime(f *excelize.File, sheet, cell string, t time.Time) error {
	if err := f.SetCellValue(sheet, cell, t); err != nil {
		return err
	}

	styleID, err := f.GetCellStyle(sheet, cell)
	if err != nil {
		return err
	}
	style := &excelize.Style{}
	if styleID != 0 {
		if style, err = f.GetStyle(styleID); err != nil {
			return err
		}
		if style.CustomNumFmt != nil && isDateFormatCode(*style.CustomNumFmt) {
			return nil
		}
		if style.CustomNumFmt == nil && isDateNumFmt(style.NumFmt) {
			return nil
		}
	}

	style.NumFmt, style.CustomNumFmt = 22, nil
	dateStyle, err := f.NewStyle(style)
	if err != nil {
		return err
	}
	return f.SetCellStyle(sheet, cell, cell, dateStyle)
}
