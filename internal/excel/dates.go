package excel

import (
	"strings"
	"time"
)

// CanonicalDateLayout is the compact form used for tab labels and sorting.
const CanonicalDateLayout = "20060102"

// Size of the top-left window searched for a report date.
const (
	dateProbeRows = 5
	dateProbeCols = 5
)

// Tried in order, so "03/04/2024" resolves month first.
var dateStringLayouts = []string{
	"2006-1-2",
	"1/2/2006",
	"2/1/2006",
	"20060102",
}

// ResolveDate looks for the report date in rows 1-5, columns 1-5. Native
// date values anywhere in the window win over date-like strings; within each
// pass the first match in row-major order is used.
func ResolveDate(cells []Cell) (string, bool) {
	var window [dateProbeRows][dateProbeCols]any
	for _, c := range cells {
		if c.Row >= 1 && c.Row <= dateProbeRows && c.Col >= 1 && c.Col <= dateProbeCols {
			window[c.Row-1][c.Col-1] = c.Value
		}
	}

	for _, row := range window {
		for _, value := range row {
			if t, ok := value.(time.Time); ok {
				return t.Format(CanonicalDateLayout), true
			}
		}
	}

	for _, row := range window {
		for _, value := range row {
			if s, ok := value.(string); ok {
				if date, ok := ParseDateString(s); ok {
					return date, true
				}
			}
		}
	}
	return "", false
}

// ParseDateString parses s with the supported layouts and returns it in
// canonical form.
func ParseDateString(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	for _, layout := range dateStringLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(CanonicalDateLayout), true
		}
	}
	return "", false
}
