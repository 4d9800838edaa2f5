package summary

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"sheetSum/internal/excel"
	"sheetSum/internal/logger"
)

// Options configures a Builder. Nothing is read from the environment.
type Options struct {
	TemplatePath string
	TemplateTab  string
	PruneSheets  []string
	OutputDir    string
	OutputSuffix string
}

// Builder turns each client's dated input files into one summary workbook
// cloned from the template.
type Builder struct {
	opts     Options
	observer Observer
}

func NewBuilder(opts Options) *Builder {
	if opts.OutputSuffix == "" {
		opts.OutputSuffix = "_summary"
	}
	if opts.OutputDir == "" {
		opts.OutputDir = "."
	}
	return &Builder{opts: opts}
}

// SetObserver registers a progress observer; nil disables notifications.
func (b *Builder) SetObserver(o Observer) {
	b.observer = o
}

// OutputPath is where the summary for client is written.
func (b *Builder) OutputPath(client string) string {
	ext := filepath.Ext(b.opts.TemplatePath)
	if ext == "" {
		ext = ".xlsx"
	}
	return filepath.Join(b.opts.OutputDir, client+b.opts.OutputSuffix+ext)
}

// Run builds every client in name order. Only a missing template aborts the
// batch; client and file failures are recorded in the report.
func (b *Builder) Run(groups map[string][]string) (*Report, error) {
	if _, err := os.Stat(b.opts.TemplatePath); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrTemplateMissing, b.opts.TemplatePath)
		}
		return nil, fmt.Errorf("failed to check template: %w", err)
	}

	clients := make([]string, 0, len(groups))
	for client := range groups {
		clients = append(clients, client)
	}
	sort.Strings(clients)

	logger.Info("Starting summary batch", "clients", len(clients), "template", b.opts.TemplatePath)

	report := &Report{}
	for _, client := range clients {
		report.Outcomes = append(report.Outcomes, b.BuildClient(client, groups[client]))
	}

	logger.Info("Summary batch completed",
		"success_count", len(report.Succeeded()),
		"error_count", len(report.Failed()))
	return report, nil
}

// BuildClient copies the template, sanitizes it, drops the prune sheets and
// adds one tab per readable input file before saving.
func (b *Builder) BuildClient(client string, files []string) (outcome Outcome) {
	outcome = Outcome{Client: client, OutputPath: b.OutputPath(client)}
	if b.observer != nil {
		b.observer.ClientStarted(client, len(files))
		defer func() { b.observer.ClientFinished(outcome) }()
	}

	logger.Info("Creating summary", "client", client, "files", len(files), "output", outcome.OutputPath)

	if err := excel.CopyFile(b.opts.TemplatePath, outcome.OutputPath); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			err = fmt.Errorf("%w: %s", ErrTemplateMissing, b.opts.TemplatePath)
		}
		outcome.Err = fmt.Errorf("failed to copy template: %w", err)
		logger.Error("Failed to copy template", "client", client, "error", err)
		return outcome
	}

	editor, err := excel.OpenFile(outcome.OutputPath)
	if err != nil {
		outcome.Err = fmt.Errorf("failed to open template copy: %w", err)
		logger.Error("Failed to open template copy", "client", client, "error", err)
		return outcome
	}

	err = b.populate(editor, files, &outcome)
	if err == nil {
		if saveErr := editor.Save(); saveErr != nil {
			err = fmt.Errorf("%w: %w", ErrPersist, saveErr)
		}
	}
	if closeErr := editor.Close(); closeErr != nil {
		logger.Warn("Failed to close summary workbook", "client", client, "error", closeErr)
	}

	if err != nil {
		outcome.Err = err
		logger.Error("Failed to create summary", "client", client, "error", err)
		if errors.Is(err, ErrTemplateTabMissing) {
			// Nothing was produced, so do not leave the bare template copy behind.
			if rmErr := os.Remove(outcome.OutputPath); rmErr == nil {
				outcome.OutputPath = ""
			}
		}
		return outcome
	}

	logger.Info("Created summary",
		"client", client,
		"output", outcome.OutputPath,
		"tabs", outcome.TabCount(),
		"skipped", len(outcome.Skipped))
	return outcome
}

func (b *Builder) populate(editor *excel.Editor, files []string, outcome *Outcome) error {
	cleared, err := excel.SanitizeExternalLinks(editor.File())
	if err != nil {
		return fmt.Errorf("failed to remove external links: %w", err)
	}
	logger.Info("Removed external links", "client", outcome.Client, "cleared_cells", cleared)

	for _, sheet := range b.opts.PruneSheets {
		if !editor.HasSheet(sheet) {
			continue
		}
		if err := editor.DeleteSheet(sheet); err != nil {
			return fmt.Errorf("failed to remove sheet %s: %w", sheet, err)
		}
		logger.Info("Removed sheet", "client", outcome.Client, "sheet", sheet)
	}

	if !editor.HasSheet(b.opts.TemplateTab) {
		return fmt.Errorf("%w: %q (available: %s)", ErrTemplateTabMissing,
			b.opts.TemplateTab, strings.Join(editor.GetSheetNames(), ", "))
	}

	layout, err := excel.CaptureLayout(editor.File(), b.opts.TemplateTab)
	if err != nil {
		return fmt.Errorf("failed to capture template tab: %w", err)
	}
	logger.Debug("Captured template layout", "client", outcome.Client, "sheet", layout.SheetName())

	ordered := append([]string(nil), files...)
	excel.SortByDateToken(ordered)

	for _, path := range ordered {
		tab, err := b.addTab(editor, layout, path)
		if err != nil {
			failure := &FileFailure{Path: path, Err: err}
			outcome.Skipped = append(outcome.Skipped, failure)
			logger.Error("Skipping input file", "client", outcome.Client, "file", filepath.Base(path), "error", err)
			continue
		}
		outcome.Tabs = append(outcome.Tabs, tab)
	}
	return nil
}

// addTab transplants the active sheet of one input file into a new tab and
// returns the tab's name.
func (b *Builder) addTab(editor *excel.Editor, layout *excel.Layout, path string) (string, error) {
	input, err := excel.OpenFile(path)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrFileRead, err)
	}
	cells, err := input.ReadCells(input.DataSheet())
	input.Close()
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrFileRead, err)
	}

	label := tabLabel(cells, path)
	name := excel.AllocateLabel(label, editor.GetSheetNames())

	if err := layout.Apply(editor.File(), name, cells); err != nil {
		return "", fmt.Errorf("failed to create tab %s: %w", name, err)
	}
	logger.Info("Created tab", "file", filepath.Base(path), "tab", name, "cells", len(cells))
	return name, nil
}

// tabLabel prefers the date found in the sheet, then the filename's date
// token, then the file's base name.
func tabLabel(cells []excel.Cell, path string) string {
	if date, ok := excel.ResolveDate(cells); ok {
		logger.Debug("Found date in sheet", "file", filepath.Base(path), "date", date)
		return date
	}
	if token := excel.DateToken(path); token != "" {
		logger.Debug("Using filename date", "file", filepath.Base(path), "date", token)
		return token
	}
	return excel.BaseName(path)
}
