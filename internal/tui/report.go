package tui

import (
	"fmt"
	"path/filepath"
	"strings"

	"sheetSum/internal/summary"
)

// RenderReport formats a finished batch for the console.
func RenderReport(report *summary.Report) string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Summary batch"))
	b.WriteString("\n\n")

	for _, outcome := range report.Outcomes {
		b.WriteString(renderOutcome(outcome))
	}

	b.WriteString("\n")
	b.WriteString(progressStyle.Render(fmt.Sprintf("✓ Success: %d clients", len(report.Succeeded()))))
	b.WriteString("\n")
	if failed := len(report.Failed()); failed > 0 {
		b.WriteString(failureStyle.Render(fmt.Sprintf("❌ Errors: %d clients", failed)))
		b.WriteString("\n")
	}
	return b.String()
}

func renderOutcome(outcome summary.Outcome) string {
	var b strings.Builder
	if outcome.Succeeded() {
		line := fmt.Sprintf("✓ %s: %d tabs → %s", outcome.Client, outcome.TabCount(), outcome.OutputPath)
		b.WriteString(successStyle.Render(line))
	} else {
		line := fmt.Sprintf("❌ %s: %v", outcome.Client, outcome.Err)
		b.WriteString(failureStyle.Render(line))
	}
	b.WriteString("\n")

	for _, failure := range outcome.Skipped {
		b.WriteString("    ")
		b.WriteString(skippedStyle.Render(filepath.Base(failure.Path)))
		b.WriteString(helpStyle.Render(fmt.Sprintf(" skipped: %v", failure.Err)))
		b.WriteString("\n")
	}
	return b.String()
}
