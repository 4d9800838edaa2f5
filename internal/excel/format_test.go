package excel

import (
	"reflect"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"
)

// newTemplate builds a workbook with a styled "tab1": bold header row A1:C1,
// two-decimal body A2:C3, widths 10/15/20, a tall first row and a merged
// D1:E1 banner.
func newTemplate(t *testing.T) *excelize.File {
	t.Helper()

	f := excelize.NewFile()
	t.Cleanup(func() { f.Close() })

	if err := f.SetSheetName("Sheet1", "tab1"); err != nil {
		t.Fatalf("Failed to rename sheet: %v", err)
	}

	header, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 12},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#D3D3D3"}, Pattern: 1},
	})
	if err != nil {
		t.Fatalf("Failed to create header style: %v", err)
	}
	body, err := f.NewStyle(&excelize.Style{NumFmt: 2})
	if err != nil {
		t.Fatalf("Failed to create body style: %v", err)
	}

	mustDo(t, f.SetCellStyle("tab1", "A1", "C1", header))
	mustDo(t, f.SetCellStyle("tab1", "A2", "C3", body))
	mustDo(t, f.SetCellValue("tab1", "A1", "Title"))
	mustDo(t, f.SetCellValue("tab1", "C1", "Placeholder"))
	mustDo(t, f.SetColWidth("tab1", "A", "A", 10))
	mustDo(t, f.SetColWidth("tab1", "B", "B", 15))
	mustDo(t, f.SetColWidth("tab1", "C", "C", 20))
	mustDo(t, f.SetRowHeight("tab1", 1, 30))
	mustDo(t, f.MergeCell("tab1", "D1", "E1"))
	mustDo(t, f.SetSheetDimension("tab1", "A1:E3"))
	return f
}

func mustDo(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("Fixture setup failed: %v", err)
	}
}

func sampleData() []Cell {
	return []Cell{
		{Col: 1, Row: 1, Value: "Acme Report"},
		{Col: 2, Row: 2, Value: 42.5},
		{Col: 3, Row: 2, Formula: "SUM(B2:B3)"},
		{Col: 2, Row: 3, Value: 7.0},
		{Col: 3, Row: 3, Value: true},
		{Col: 6, Row: 10, Value: "outside"},
	}
}

// cellMap indexes cells by reference, values and formulas side by side.
func cellMap(t *testing.T, f *excelize.File, sheet string) map[string]Cell {
	t.Helper()
	cells, err := ReadCells(f, sheet)
	if err != nil {
		t.Fatalf("ReadCells(%s) failed: %v", sheet, err)
	}
	result := make(map[string]Cell, len(cells))
	for _, c := range cells {
		result[c.Name()] = c
	}
	return result
}

func sameValue(a, b any) bool {
	if ta, ok := a.(time.Time); ok {
		tb, ok := b.(time.Time)
		return ok && ta.Equal(tb)
	}
	return a == b
}

func styleGrid(t *testing.T, f *excelize.File, sheet string) map[string]int {
	t.Helper()
	grid := make(map[string]int)
	for row := 1; row <= 3; row++ {
		for col := 1; col <= 5; col++ {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			id, err := f.GetCellStyle(sheet, cell)
			if err != nil {
				t.Fatalf("GetCellStyle(%s, %s) failed: %v", sheet, cell, err)
			}
			grid[cell] = id
		}
	}
	return grid
}

func TestTransplantCopiesTemplateFormatting(t *testing.T) {
	f := newTemplate(t)

	if err := Transplant(f, "tab1", sampleData(), "20240101"); err != nil {
		t.Fatalf("Transplant failed: %v", err)
	}

	want := styleGrid(t, f, "tab1")
	got := styleGrid(t, f, "20240101")
	for cell, id := range want {
		if id == 0 {
			continue
		}
		if got[cell] != id {
			t.Errorf("Style of %s: expected %d, got %d", cell, id, got[cell])
			continue
		}
		tplStyle, _ := f.GetStyle(id)
		newStyle, _ := f.GetStyle(got[cell])
		if !reflect.DeepEqual(tplStyle, newStyle) {
			t.Errorf("Style of %s differs: %+v vs %+v", cell, tplStyle, newStyle)
		}
	}

	for col, width := range map[string]float64{"A": 10, "B": 15, "C": 20} {
		w, err := f.GetColWidth("20240101", col)
		if err != nil {
			t.Fatalf("GetColWidth failed: %v", err)
		}
		if w != width {
			t.Errorf("Width of column %s: expected %v, got %v", col, width, w)
		}
	}

	h, err := f.GetRowHeight("20240101", 1)
	if err != nil {
		t.Fatalf("GetRowHeight failed: %v", err)
	}
	if h != 30 {
		t.Errorf("Expected row 1 height 30, got %v", h)
	}

	merged, err := f.GetMergeCells("20240101")
	if err != nil {
		t.Fatalf("GetMergeCells failed: %v", err)
	}
	if len(merged) != 1 || merged[0].GetStartAxis() != "D1" || merged[0].GetEndAxis() != "E1" {
		t.Errorf("Expected merged range D1:E1, got %v", merged)
	}
}

func TestTransplantWritesDataValues(t *testing.T) {
	f := newTemplate(t)

	if err := Transplant(f, "tab1", sampleData(), "Data"); err != nil {
		t.Fatalf("Transplant failed: %v", err)
	}

	got := cellMap(t, f, "Data")
	for _, want := range sampleData() {
		cell, ok := got[want.Name()]
		if !ok {
			t.Errorf("Expected %s to be written", want.Name())
			continue
		}
		if want.Formula != "" {
			if cell.Formula != want.Formula {
				t.Errorf("Formula of %s: expected %q, got %q", want.Name(), want.Formula, cell.Formula)
			}
			continue
		}
		if !sameValue(cell.Value, want.Value) {
			t.Errorf("Value of %s: expected %v (%T), got %v (%T)", want.Name(), want.Value, want.Value, cell.Value, cell.Value)
		}
	}

	// Template values are not transplanted, only its formatting.
	if c, ok := got["C1"]; ok {
		t.Errorf("Expected C1 to stay empty, got %v", c.Value)
	}

	// Data beyond the template footprint keeps default formatting.
	id, err := f.GetCellStyle("Data", "F10")
	if err != nil {
		t.Fatalf("GetCellStyle failed: %v", err)
	}
	if id != 0 {
		t.Errorf("Expected F10 to have the default style, got %d", id)
	}
}

func TestTransplantLeavesTemplateUntouched(t *testing.T) {
	f := newTemplate(t)

	beforeCells := cellMap(t, f, "tab1")
	beforeStyles := styleGrid(t, f, "tab1")

	layout, err := CaptureLayout(f, "tab1")
	if err != nil {
		t.Fatalf("CaptureLayout failed: %v", err)
	}
	if err := layout.Apply(f, "first", sampleData()); err != nil {
		t.Fatalf("First apply failed: %v", err)
	}
	if err := layout.Apply(f, "second", []Cell{{Col: 1, Row: 1, Value: "other"}}); err != nil {
		t.Fatalf("Second apply failed: %v", err)
	}

	if after := cellMap(t, f, "tab1"); !reflect.DeepEqual(beforeCells, after) {
		t.Errorf("Template values changed: %v -> %v", beforeCells, after)
	}
	if after := styleGrid(t, f, "tab1"); !reflect.DeepEqual(beforeStyles, after) {
		t.Errorf("Template styles changed: %v -> %v", beforeStyles, after)
	}

	again, err := CaptureLayout(f, "tab1")
	if err != nil {
		t.Fatalf("Second CaptureLayout failed: %v", err)
	}
	if !reflect.DeepEqual(layout.styles, again.styles) || !reflect.DeepEqual(layout.colWidths, again.colWidths) ||
		!reflect.DeepEqual(layout.rowHeights, again.rowHeights) || !reflect.DeepEqual(layout.merges, again.merges) {
		t.Errorf("Template layout changed between captures")
	}

	if first, second := styleGrid(t, f, "first"), styleGrid(t, f, "second"); !reflect.DeepEqual(first, second) {
		t.Errorf("Two transplants produced different formatting: %v vs %v", first, second)
	}
}

func TestLayoutApplyToAnotherWorkbook(t *testing.T) {
	tpl := newTemplate(t)
	layout, err := CaptureLayout(tpl, "tab1")
	if err != nil {
		t.Fatalf("CaptureLayout failed: %v", err)
	}

	dst := excelize.NewFile()
	defer dst.Close()

	if err := layout.Apply(dst, "Copy", sampleData()); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	headerID, _ := dst.GetCellStyle("Copy", "A1")
	header, err := dst.GetStyle(headerID)
	if err != nil {
		t.Fatalf("GetStyle failed: %v", err)
	}
	if header.Font == nil || !header.Font.Bold || header.Font.Size != 12 {
		t.Errorf("Expected bold 12pt header font, got %+v", header.Font)
	}

	bodyID, _ := dst.GetCellStyle("Copy", "B3")
	body, err := dst.GetStyle(bodyID)
	if err != nil {
		t.Fatalf("GetStyle failed: %v", err)
	}
	if body.NumFmt != 2 {
		t.Errorf("Expected number format 2, got %d", body.NumFmt)
	}

	// Editing the copy must not reach back into the template.
	header.Font.Bold = false
	tplID, _ := tpl.GetCellStyle("tab1", "A1")
	tplHeader, _ := tpl.GetStyle(tplID)
	if !tplHeader.Font.Bold {
		t.Errorf("Template header style was modified")
	}

	if w, _ := dst.GetColWidth("Copy", "C"); w != 20 {
		t.Errorf("Expected column C width 20, got %v", w)
	}
}

func TestLayoutApplyRejectsExistingSheet(t *testing.T) {
	f := newTemplate(t)
	layout, err := CaptureLayout(f, "tab1")
	if err != nil {
		t.Fatalf("CaptureLayout failed: %v", err)
	}

	if err := layout.Apply(f, "tab1", sampleData()); err == nil {
		t.Fatalf("Expected error when the sheet already exists")
	}
	if idx, _ := f.GetSheetIndex("tab1"); idx == -1 {
		t.Errorf("Existing sheet must not be removed")
	}
}

func TestCaptureLayoutMissingSheet(t *testing.T) {
	f := newTemplate(t)
	if _, err := CaptureLayout(f, "nope"); err == nil {
		t.Errorf("Expected error for a missing template sheet")
	}
}

func TestCaptureLayoutKeepsWidthsOutsideUsedRange(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()

	mustDo(t, f.SetSheetName("Sheet1", "tab1"))
	mustDo(t, f.SetCellValue("tab1", "A1", "h"))
	mustDo(t, f.SetColWidth("tab1", "A", "A", 10))
	mustDo(t, f.SetColWidth("tab1", "D", "F", 12))
	mustDo(t, f.SetColWidth("tab1", "H", "H", 33))

	layout, err := CaptureLayout(f, "tab1")
	if err != nil {
		t.Fatalf("CaptureLayout failed: %v", err)
	}
	expected := []colWidthRun{
		{min: 1, max: 1, width: 10},
		{min: 4, max: 6, width: 12},
		{min: 8, max: 8, width: 33},
	}
	if !reflect.DeepEqual(layout.colWidths, expected) {
		t.Errorf("Captured widths = %+v, expected %+v", layout.colWidths, expected)
	}

	if err := layout.Apply(f, "20240101", []Cell{{Col: 1, Row: 1, Value: "data"}}); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	for col, width := range map[string]float64{"A": 10, "B": defaultColWidth, "E": 12, "G": defaultColWidth, "H": 33} {
		if w, _ := f.GetColWidth("20240101", col); w != width {
			t.Errorf("Width of column %s: expected %v, got %v", col, width, w)
		}
	}
}

func TestCaptureLayoutIgnoresOversizedDimension(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()

	mustDo(t, f.SetSheetName("Sheet1", "tab1"))
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	mustDo(t, err)
	mustDo(t, f.SetCellValue("tab1", "B2", "Header"))
	mustDo(t, f.SetCellStyle("tab1", "B2", "B2", bold))
	mustDo(t, f.SetSheetDimension("tab1", "A1:XFD1048576"))

	layout, err := CaptureLayout(f, "tab1")
	if err != nil {
		t.Fatalf("CaptureLayout failed: %v", err)
	}
	expected := []styledCell{{col: 2, row: 2, styleID: bold}}
	if !reflect.DeepEqual(layout.styles, expected) {
		t.Errorf("Captured styles = %+v, expected %+v", layout.styles, expected)
	}
}
