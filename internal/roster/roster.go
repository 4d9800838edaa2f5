package roster

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/xuri/excelize/v2"
)

var (
	// ErrRosterMissing indicates the roster file does not exist.
	ErrRosterMissing = errors.New("roster file not found")

	// ErrColumnMissing indicates the roster has no header with the client column name.
	ErrColumnMissing = errors.New("roster column not found")
)

// Load reads the list of known clients. Workbooks are read from the header
// row of their first sheet; .txt files hold one client per line.
func Load(path, column string) ([]string, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", ErrRosterMissing, path)
	}

	if strings.EqualFold(filepath.Ext(path), ".txt") {
		return readLines(path)
	}
	return readWorkbook(path, column)
}

func readWorkbook(path, column string) ([]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open roster %s: %w", path, err)
	}
	defer f.Close()

	rows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		return nil, fmt.Errorf("failed to read roster %s: %w", path, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: %q in empty roster %s", ErrColumnMissing, column, path)
	}

	colIdx := -1
	for i, header := range rows[0] {
		if strings.TrimSpace(header) == column {
			colIdx = i
			break
		}
	}
	if colIdx == -1 {
		return nil, fmt.Errorf("%w: %q (available: %s)", ErrColumnMissing, column, strings.Join(rows[0], ", "))
	}

	var names []string
	for _, row := range rows[1:] {
		if colIdx < len(row) {
			names = append(names, row[colIdx])
		}
	}
	return unique(names), nil
}

// readLines reads client names from a text file (one per line)
func readLines(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file %s: %w", path, err)
	}
	defer file.Close()

	var names []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		names = append(names, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading file %s: %w", path, err)
	}
	return unique(names), nil
}

func unique(names []string) []string {
	seen := make(map[string]bool, len(names))
	result := make([]string, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		result = append(result, name)
	}
	return result
}

// Filter keeps the client groups named in the roster and returns the names of
// the groups it dropped. An empty roster keeps everything.
func Filter(groups map[string][]string, names []string) (map[string][]string, []string) {
	if len(names) == 0 {
		return groups, nil
	}

	known := make(map[string]bool, len(names))
	for _, name := range names {
		known[name] = true
	}

	kept := make(map[string][]string, len(groups))
	var skipped []string
	for client, files := range groups {
		if known[client] {
			kept[client] = files
		} else {
			skipped = append(skipped, client)
		}
	}
	sort.Strings(skipped)
	return kept, skipped
}
