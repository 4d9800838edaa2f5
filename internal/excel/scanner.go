package excel

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Input files follow <client_name>_<date_token><ext>. The client name is
// every underscore-separated segment but the last; the last is the date
// token used for ordering and as a fallback tab label.

// ListWorkbooks returns the spreadsheet files directly inside dir whose
// extension is one of extensions, skipping lock files that start with
// tempPrefix.
func ListWorkbooks(dir string, extensions []string, tempPrefix string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	allowed := make(map[string]bool, len(extensions))
	for _, ext := range extensions {
		allowed[strings.ToLower(ext)] = true
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if tempPrefix != "" && strings.HasPrefix(name, tempPrefix) {
			continue
		}
		if !allowed[strings.ToLower(filepath.Ext(name))] {
			continue
		}
		files = append(files, filepath.Join(dir, name))
	}
	return files, nil
}

// BaseName returns the file name without directory and extension.
func BaseName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// ClientName extracts the client from a file name.
func ClientName(path string) string {
	name := BaseName(path)
	parts := strings.Split(name, "_")
	if len(parts) >= 2 {
		return strings.Join(parts[:len(parts)-1], "_")
	}
	return name
}

// DateToken returns the segment after the last underscore, or "" when the
// name has no underscore.
func DateToken(path string) string {
	parts := strings.Split(BaseName(path), "_")
	if len(parts) >= 2 {
		return parts[len(parts)-1]
	}
	return ""
}

// GroupByClient groups files by client, each group ordered by date token.
func GroupByClient(paths []string) map[string][]string {
	groups := make(map[string][]string)
	for _, path := range paths {
		client := ClientName(path)
		groups[client] = append(groups[client], path)
	}
	for _, files := range groups {
		SortByDateToken(files)
	}
	return groups
}

// SortByDateToken orders files ascending by date token, keeping the
// original order for equal tokens.
func SortByDateToken(files []string) {
	sort.SliceStable(files, func(i, j int) bool {
		return DateToken(files[i]) < DateToken(files[j])
	})
}
