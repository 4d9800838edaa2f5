package excel

import (
	"fmt"
	"sort"
	"strings"

	"sheetSum/internal/logger"

	"github.com/tiendc/go-deepcopy"
	"github.com/xuri/excelize/v2"
)

// Layout is a read-only snapshot of a template sheet's look: cell styles,
// column widths, row heights, merged ranges and default sizing. It is
// captured once and applied to any number of new sheets.
type Layout struct {
	source     *excelize.File
	sheet      string
	styles     []styledCell
	colWidths  []colWidthRun
	rowHeights map[int]float64
	merges     [][2]string
	props      excelize.SheetPropsOptions
}

type styledCell struct {
	col, row int
	styleID  int
}

// colWidthRun is a range of adjacent columns sharing one custom width.
type colWidthRun struct {
	min, max int
	width    float64
}

// excelize reports this width for columns without a <col> entry.
const defaultColWidth = 9.140625

// Templates whose dimension covers more cells than this are scanned by their
// values and merges only.
const maxStyleScanCells = 1 << 20

// CaptureLayout snapshots the formatting of sheet. The sheet is only read.
func CaptureLayout(f *excelize.File, sheet string) (*Layout, error) {
	idx, err := f.GetSheetIndex(sheet)
	if err != nil {
		return nil, err
	}
	if idx == -1 {
		return nil, fmt.Errorf("sheet %q not found", sheet)
	}

	layout := &Layout{
		source:     f,
		sheet:      sheet,
		rowHeights: make(map[int]float64),
	}

	merged, err := f.GetMergeCells(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read merged cells: %w", err)
	}
	for _, mc := range merged {
		layout.merges = append(layout.merges, [2]string{mc.GetStartAxis(), mc.GetEndAxis()})
	}

	maxCol, maxRow, err := usedRange(f, sheet, layout.merges)
	if err != nil {
		return nil, err
	}

	if err := layout.captureRowHeights(f); err != nil {
		return nil, err
	}

	for row := 1; row <= maxRow; row++ {
		for col := 1; col <= maxCol; col++ {
			cell, err := excelize.CoordinatesToCellName(col, row)
			if err != nil {
				return nil, err
			}
			styleID, err := f.GetCellStyle(sheet, cell)
			if err != nil {
				return nil, fmt.Errorf("failed to read style of %s: %w", cell, err)
			}
			if styleID != 0 {
				layout.styles = append(layout.styles, styledCell{col: col, row: row, styleID: styleID})
			}
		}
	}

	props, err := f.GetSheetProps(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet properties: %w", err)
	}

	if err := layout.captureColWidths(f, props.DefaultColWidth); err != nil {
		return nil, err
	}

	sizing := excelize.SheetPropsOptions{
		BaseColWidth:     props.BaseColWidth,
		DefaultColWidth:  props.DefaultColWidth,
		DefaultRowHeight: props.DefaultRowHeight,
		CustomHeight:     props.CustomHeight,
		ZeroHeight:       props.ZeroHeight,
	}
	// The returned pointers may alias the live worksheet.
	if err := deepcopy.Copy(&layout.props, sizing); err != nil {
		return nil, fmt.Errorf("failed to copy sheet properties: %w", err)
	}

	return layout, nil
}

// captureColWidths records every column whose width differs from the sheet
// default, over the whole column range rather than the used range.
func (l *Layout) captureColWidths(f *excelize.File, sheetDefault *float64) error {
	isDefault := func(width float64) bool {
		if width == defaultColWidth {
			return true
		}
		return sheetDefault != nil && width == *sheetDefault
	}

	for col := 1; col <= excelize.MaxColumns; col++ {
		name, err := excelize.ColumnNumberToName(col)
		if err != nil {
			return err
		}
		width, err := f.GetColWidth(l.sheet, name)
		if err != nil {
			return fmt.Errorf("failed to read width of column %s: %w", name, err)
		}
		if isDefault(width) {
			continue
		}
		if n := len(l.colWidths); n > 0 && l.colWidths[n-1].max == col-1 && l.colWidths[n-1].width == width {
			l.colWidths[n-1].max = col
			continue
		}
		l.colWidths = append(l.colWidths, colWidthRun{min: col, max: col, width: width})
	}
	return nil
}

func (l *Layout) captureRowHeights(f *excelize.File) error {
	rows, err := f.Rows(l.sheet)
	if err != nil {
		return fmt.Errorf("failed to iterate rows: %w", err)
	}
	defer rows.Close()

	row := 0
	for rows.Next() {
		row++
		// Columns loads the row element, which GetRowOpts reports on.
		if _, err := rows.Columns(); err != nil {
			return fmt.Errorf("failed to read row %d: %w", row, err)
		}
		if opts := rows.GetRowOpts(); opts.Height > 0 {
			l.rowHeights[row] = opts.Height
		}
	}
	return rows.Error()
}

// usedRange is the bounding box of the sheet's dimension, values and merges.
// excelize does not maintain <dimension> when it writes a sheet, so cells that
// carry only a style are found only when the template's dimension covers
// them; templates authored with excelize need SetSheetDimension. A dimension
// larger than maxStyleScanCells is ignored.
func usedRange(f *excelize.File, sheet string, merges [][2]string) (int, int, error) {
	maxCol, maxRow := 0, 0
	grow := func(ref string) {
		col, row, err := excelize.CellNameToCoordinates(ref)
		if err != nil {
			return
		}
		maxCol, maxRow = max(maxCol, col), max(maxRow, row)
	}

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return 0, 0, fmt.Errorf("failed to get rows: %w", err)
	}
	maxRow = max(maxRow, len(rows))
	for _, row := range rows {
		maxCol = max(maxCol, len(row))
	}

	for _, mc := range merges {
		grow(mc[1])
	}

	dimension, err := f.GetSheetDimension(sheet)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to read sheet dimension: %w", err)
	}
	if dimension == "" {
		return maxCol, maxRow, nil
	}
	parts := strings.Split(dimension, ":")
	dimCol, dimRow, err := excelize.CellNameToCoordinates(parts[len(parts)-1])
	if err != nil {
		return maxCol, maxRow, nil
	}
	if dimCol*dimRow > maxStyleScanCells {
		logger.Warn("Ignoring oversized sheet dimension", "sheet", sheet, "dimension", dimension)
		return maxCol, maxRow, nil
	}
	return max(maxCol, dimCol), max(maxRow, dimRow), nil
}

// SheetName returns the template sheet the layout was captured from.
func (l *Layout) SheetName() string {
	return l.sheet
}

// Apply creates sheet name in dst, formats it like the template and writes
// the data cells at their original coordinates. Data outside the template's
// footprint is written with default formatting. If anything fails the new
// sheet is removed again.
func (l *Layout) Apply(dst *excelize.File, name string, data []Cell) (err error) {
	idx, err := dst.GetSheetIndex(name)
	if err != nil {
		return err
	}
	if idx != -1 {
		return fmt.Errorf("sheet %q already exists", name)
	}
	if _, err := dst.NewSheet(name); err != nil {
		return fmt.Errorf("failed to create sheet %q: %w", name, err)
	}
	defer func() {
		if err != nil {
			_ = dst.DeleteSheet(name)
		}
	}()

	resolve := l.styleResolver(dst)
	for _, sc := range l.styles {
		cell, err := excelize.CoordinatesToCellName(sc.col, sc.row)
		if err != nil {
			return err
		}
		styleID, err := resolve(sc.styleID)
		if err != nil {
			return err
		}
		if err := dst.SetCellStyle(name, cell, cell, styleID); err != nil {
			return fmt.Errorf("failed to style %s: %w", cell, err)
		}
	}

	if err := dst.SetSheetProps(name, &l.props); err != nil {
		return fmt.Errorf("failed to set sheet properties: %w", err)
	}

	for _, run := range l.colWidths {
		first, err := excelize.ColumnNumberToName(run.min)
		if err != nil {
			return err
		}
		last, err := excelize.ColumnNumberToName(run.max)
		if err != nil {
			return err
		}
		if err := dst.SetColWidth(name, first, last, run.width); err != nil {
			return fmt.Errorf("failed to set width of columns %s:%s: %w", first, last, err)
		}
	}

	for _, row := range sortedKeys(l.rowHeights) {
		if err := dst.SetRowHeight(name, row, l.rowHeights[row]); err != nil {
			return fmt.Errorf("failed to set height of row %d: %w", row, err)
		}
	}

	for _, mc := range l.merges {
		if err := dst.MergeCell(name, mc[0], mc[1]); err != nil {
			return fmt.Errorf("failed to merge %s:%s: %w", mc[0], mc[1], err)
		}
	}

	for _, c := range data {
		if c.Empty() {
			continue
		}
		if err := writeCell(dst, name, c); err != nil {
			return fmt.Errorf("failed to write %s: %w", c.Name(), err)
		}
	}
	return nil
}

// styleResolver maps template style ids to ids valid in dst. Inside the
// template's own workbook styles are immutable stylesheet entries and are
// shared by id. For another workbook each style is deep-copied before it is
// registered, so nothing of the template's style objects leaks across.
func (l *Layout) styleResolver(dst *excelize.File) func(int) (int, error) {
	if dst == l.source {
		return func(id int) (int, error) { return id, nil }
	}

	resolved := make(map[int]int)
	return func(id int) (int, error) {
		if styleID, ok := resolved[id]; ok {
			return styleID, nil
		}
		style, err := l.source.GetStyle(id)
		if err != nil {
			return 0, fmt.Errorf("failed to read template style %d: %w", id, err)
		}
		var clone excelize.Style
		if err := deepcopy.Copy(&clone, *style); err != nil {
			return 0, fmt.Errorf("failed to copy template style %d: %w", id, err)
		}
		styleID, err := dst.NewStyle(&clone)
		if err != nil {
			return 0, fmt.Errorf("failed to register template style %d: %w", id, err)
		}
		resolved[id] = styleID
		return styleID, nil
	}
}

// Transplant formats a new sheet like templateSheet of dst and fills it with
// data.
func Transplant(dst *excelize.File, templateSheet string, data []Cell, name string) error {
	layout, err := CaptureLayout(dst, templateSheet)
	if err != nil {
		return err
	}
	return layout.Apply(dst, name, data)
}

func sortedKeys(m map[int]float64) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}
