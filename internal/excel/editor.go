package excel

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

type Editor struct {
	file     *excelize.File
	filepath string
}

// OpenFile opens an existing Excel file
func OpenFile(filepath string) (*Editor, error) {
	file, err := excelize.OpenFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	return &Editor{
		file:     file,
		filepath: filepath,
	}, nil
}

// CopyFile duplicates src to dst byte for byte, creating dst's directory.
func CopyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dst, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("failed to copy %s: %w", src, err)
	}
	return out.Close()
}

// File exposes the underlying workbook
func (e *Editor) File() *excelize.File {
	return e.file
}

// GetSheetNames returns all sheet names in the workbook
func (e *Editor) GetSheetNames() []string {
	return e.file.GetSheetList()
}

// HasSheet reports whether the workbook contains the sheet. Excel compares
// sheet names case-insensitively.
func (e *Editor) HasSheet(sheetName string) bool {
	for _, name := range e.file.GetSheetList() {
		if strings.EqualFold(name, sheetName) {
			return true
		}
	}
	return false
}

// DeleteSheet removes a sheet
func (e *Editor) DeleteSheet(sheetName string) error {
	return e.file.DeleteSheet(sheetName)
}

// DataSheet returns the active sheet, falling back to the first one.
func (e *Editor) DataSheet() string {
	if name := e.file.GetSheetName(e.file.GetActiveSheetIndex()); name != "" {
		return name
	}
	return e.file.GetSheetName(0)
}

// ReadCells returns the non-empty cells of a sheet
func (e *Editor) ReadCells(sheet string) ([]Cell, error) {
	return ReadCells(e.file, sheet)
}

// Save saves the Excel file to the path it was opened from
func (e *Editor) Save() error {
	return e.file.SaveAs(e.filepath)
}

// Close closes the Excel file
func (e *Editor) Close() error {
	return e.file.Close()
}
