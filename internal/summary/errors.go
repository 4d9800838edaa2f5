package summary

import (
	"errors"
	"fmt"
	"path/filepath"
)

var (
	// ErrTemplateMissing means the template workbook does not exist. It stops the whole batch.
	ErrTemplateMissing = errors.New("template workbook not found")

	// ErrTemplateTabMissing means the template has no style tab. Only that client fails.
	ErrTemplateTabMissing = errors.New("template tab not found")

	// ErrFileRead means an input workbook could not be opened or read.
	ErrFileRead = errors.New("failed to read input file")

	// ErrPersist means the summary workbook could not be saved.
	ErrPersist = errors.New("failed to save summary workbook")
)

// FileFailure records an input file that was skipped.
type FileFailure struct {
	Path string
	Err  error
}

func (e *FileFailure) Error() string {
	return fmt.Sprintf("%s: %v", filepath.Base(e.Path), e.Err)
}

func (e *FileFailure) Unwrap() error {
	return e.Err
}
