package files

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

// FileInfo represents information about a discovered file
type FileInfo struct {
	Path    string
	Name    string
	Size    int64
	ModTime time.Time
	IsDir   bool
}

// TrialWorkbook is a measurement workbook resolved from a numbered file
// name pattern such as Trial1.xlsx.
type TrialWorkbook struct {
	Number int
	Path   string
	Name   string
}

// Discovery provides workbook discovery operations
type Discovery struct {
	basePath string
}

// NewDiscovery creates a new file discovery instance
func NewDiscovery(basePath string) *Discovery {
	return &Discovery{basePath: basePath}
}

// FindExcelFiles finds all Excel workbooks in the specified directory,
// sorted by name so iteration order is deterministic.
func (d *Discovery) FindExcelFiles(dir string) ([]FileInfo, error) {
	fullPath := d.resolveDir(dir)

	entries, err := os.ReadDir(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", fullPath, err)
	}

	var files []FileInfo
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name := entry.Name()
		if strings.HasSuffix(strings.ToLower(name), ".xlsx") ||
			strings.HasSuffix(strings.ToLower(name), ".xls") {
			info, err := entry.Info()
			if err != nil {
				continue
			}

			files = append(files, FileInfo{
				Path:    filepath.Join(fullPath, name),
				Name:    name,
				Size:    info.Size(),
				ModTime: info.ModTime(),
				IsDir:   false,
			})
		}
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].Name < files[j].Name
	})

	return files, nil
}

// FindTrialWorkbooks finds workbooks whose names match a numbered pattern
// (for example "Trial%d.xlsx" matches Trial1.xlsx, Trial2.xlsx, ...),
// sorted by trial number ascending.
func (d *Discovery) FindTrialWorkbooks(dir string, pattern string) ([]TrialWorkbook, error) {
	re, err := compileTrialPattern(pattern)
	if err != nil {
		return nil, err
	}

	fullPath := d.resolveDir(dir)

	entries, err := os.ReadDir(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", fullPath, err)
	}

	var workbooks []TrialWorkbook
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		matches := re.FindStringSubmatch(entry.Name())
		if matches == nil {
			continue
		}

		number, err := strconv.Atoi(matches[1])
		if err != nil || number < 1 {
			continue
		}

		workbooks = append(workbooks, TrialWorkbook{
			Number: number,
			Path:   filepath.Join(fullPath, entry.Name()),
			Name:   entry.Name(),
		})
	}

	sort.Slice(workbooks, func(i, j int) bool {
		if workbooks[i].Number != workbooks[j].Number {
			return workbooks[i].Number < workbooks[j].Number
		}
		return workbooks[i].Name < workbooks[j].Name
	})

	return workbooks, nil
}

// FindFilesByPattern finds files matching a glob pattern
func (d *Discovery) FindFilesByPattern(dir string, pattern string) ([]FileInfo, error) {
	fullPath := d.resolveDir(dir)
	searchPattern := filepath.Join(fullPath, pattern)

	matches, err := filepath.Glob(searchPattern)
	if err != nil {
		return nil, fmt.Errorf("invalid pattern %s: %w", pattern, err)
	}

	var files []FileInfo
	for _, match := range matches {
		info, err := os.Stat(match)
		if err != nil {
			continue
		}

		if !info.IsDir() {
			files = append(files, FileInfo{
				Path:    match,
				Name:    filepath.Base(match),
				Size:    info.Size(),
				ModTime: info.ModTime(),
				IsDir:   false,
			})
		}
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].Name < files[j].Name
	})

	return files, nil
}

// resolveDir resolves a directory relative to the base path unless it is
// already absolute.
func (d *Discovery) resolveDir(dir string) string {
	if filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(d.basePath, dir)
}

// compileTrialPattern compiles a Sprintf-style file pattern containing a
// single %d verb into a regular expression capturing the trial number.
func compileTrialPattern(pattern string) (*regexp.Regexp, error) {
	parts := strings.Split(pattern, "%d")
	if len(parts) != 2 {
		return nil, fmt.Errorf("trial file pattern %q must contain exactly one %%d", pattern)
	}

	expr := "(?i)^" + regexp.QuoteMeta(parts[0]) + `(\d+)` + regexp.QuoteMeta(parts[1]) + "$"
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid trial file pattern %q: %w", pattern, err)
	}
	return re, nil
}
