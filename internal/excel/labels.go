package excel

import (
	"strconv"
	"strings"
	"unicode/utf8"
)

// MaxSheetNameLength is Excel's limit on sheet name length.
const MaxSheetNameLength = 31

var invalidSheetNameChars = strings.NewReplacer(
	":", "_", "\\", "_", "/", "_", "?", "_", "*", "_", "[", "_", "]", "_",
)

// AllocateLabel returns a sheet name derived from desired that is not in
// used. On collision it appends _1, _2, ... and shortens the base so the
// suffix always fits. Names compare case-insensitively, as in Excel.
func AllocateLabel(desired string, used []string) string {
	taken := make(map[string]bool, len(used))
	for _, name := range used {
		taken[strings.ToLower(name)] = true
	}

	base := truncateLabel(cleanLabel(desired), MaxSheetNameLength)
	if !taken[strings.ToLower(base)] {
		return base
	}

	for counter := 1; ; counter++ {
		suffix := "_" + strconv.Itoa(counter)
		candidate := truncateLabel(base, MaxSheetNameLength-len(suffix)) + suffix
		if !taken[strings.ToLower(candidate)] {
			return candidate
		}
	}
}

// cleanLabel replaces characters excelize refuses in sheet names.
func cleanLabel(label string) string {
	label = invalidSheetNameChars.Replace(label)
	label = strings.Trim(label, "'")
	if label == "" {
		return "Sheet"
	}
	return label
}

func truncateLabel(label string, limit int) string {
	if utf8.RuneCountInString(label) <= limit {
		return label
	}
	runes := []rune(label)
	truncated := strings.TrimRight(string(runes[:limit]), "'")
	if truncated == "" {
		return "Sheet"
	}
	return truncated
}
