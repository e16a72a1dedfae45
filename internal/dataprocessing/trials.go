package dataprocessing

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"rheocli/internal/config"
	"rheocli/internal/errors"
	"rheocli/internal/files"
	"rheocli/pkg/contracts/domain"
)

// LoadTrial loads a single trial, preferring its per-trial workbook file
// (Trial1.xlsx convention) and falling back to the trial's sheet of the
// combined workbook.
func (l *Loader) LoadTrial(ctx context.Context, input config.InputConfig, dataDir string, trialNumber int) (*domain.MeasurementTable, error) {
	trialFile := filepath.Join(dataDir, fmt.Sprintf(input.TrialFilePattern, trialNumber))
	if fileExists(trialFile) {
		return l.LoadTable(ctx, trialFile, input.Sheet, trialNumber)
	}

	combined := filepath.Join(dataDir, input.Workbook)
	if fileExists(combined) {
		sheet := fmt.Sprintf("%s%d", input.TrialSheetPrefix, trialNumber)
		return l.LoadTable(ctx, combined, sheet, trialNumber)
	}

	return nil, errors.NewNotFoundError(fmt.Sprintf("trial %d workbook", trialNumber)).
		WithContext("data_dir", dataDir).
		WithContext("tried", []string{trialFile, combined})
}

// LoadTrialSet loads every available trial up to input.TrialCount: the
// numbered per-trial workbooks when any exist, otherwise the trial sheets
// of the combined workbook. Trials missing from the series are skipped
// with a warning; the set fails only when nothing loads.
func (l *Loader) LoadTrialSet(ctx context.Context, input config.InputConfig, dataDir string) ([]domain.MeasurementTable, error) {
	if _, err := os.Stat(dataDir); err != nil {
		return nil, errors.NewNotFoundError(fmt.Sprintf("data directory %s", dataDir))
	}

	discovery := files.NewDiscovery(dataDir)
	workbooks, err := discovery.FindTrialWorkbooks(".", input.TrialFilePattern)
	if err != nil {
		return nil, errors.NewConfigError("trial workbook discovery failed", err)
	}

	var tables []domain.MeasurementTable
	if len(workbooks) > 0 {
		for _, wb := range workbooks {
			if wb.Number > input.TrialCount {
				l.logger.WarnContext(ctx, "skipping trial beyond configured count",
					slog.Int("trial", wb.Number),
					slog.Int("trial_count", input.TrialCount))
				continue
			}
			table, err := l.LoadTable(ctx, wb.Path, input.Sheet, wb.Number)
			if err != nil {
				return nil, err
			}
			tables = append(tables, *table)
		}
	} else {
		combined := filepath.Join(dataDir, input.Workbook)
		if !fileExists(combined) {
			return nil, errors.NewNotFoundError("trial workbooks").
				WithContext("data_dir", dataDir).
				WithContext("file_pattern", input.TrialFilePattern).
				WithContext("combined_workbook", input.Workbook)
		}
		tables, err = l.loadWorkbookTrials(ctx, combined, input)
		if err != nil {
			return nil, err
		}
	}

	if len(tables) == 0 {
		return nil, errors.NewNotFoundError("trial data").
			WithContext("data_dir", dataDir)
	}

	if len(tables) < input.TrialCount {
		l.logger.WarnContext(ctx, "fewer trials than configured",
			slog.Int("found", len(tables)),
			slog.Int("expected", input.TrialCount))
	}

	l.logger.InfoContext(ctx, "trial set loaded",
		slog.Int("trials", len(tables)),
		slog.String("data_dir", dataDir))

	return tables, nil
}

// loadWorkbookTrials extracts the per-trial sheets of one combined
// workbook, opening the file once for the whole set.
func (l *Loader) loadWorkbookTrials(ctx context.Context, path string, input config.InputConfig) ([]domain.MeasurementTable, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, errors.NewParsingError(fmt.Sprintf("failed to open workbook %s", path), err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			l.logger.WarnContext(ctx, "failed to close workbook",
				slog.String("file", path),
				slog.String("error", cerr.Error()))
		}
	}()

	sheets := f.GetSheetList()

	var tables []domain.MeasurementTable
	for n := 1; n <= input.TrialCount; n++ {
		want := fmt.Sprintf("%s%d", input.TrialSheetPrefix, n)
		name, ok := findSheetName(sheets, want)
		if !ok {
			l.logger.WarnContext(ctx, "trial sheet not found, skipping",
				slog.String("sheet", want),
				slog.String("file", filepath.Base(path)))
			continue
		}

		table, err := l.extractTable(ctx, f, path, name, n)
		if err != nil {
			return nil, err
		}
		tables = append(tables, *table)
	}

	return tables, nil
}

// findSheetName matches a wanted sheet name against the workbook's sheet
// list, tolerating stray spaces and case differences.
func findSheetName(sheets []string, want string) (string, bool) {
	for _, name := range sheets {
		if name == want {
			return name, true
		}
	}
	for _, name := range sheets {
		if strings.EqualFold(strings.TrimSpace(name), strings.TrimSpace(want)) {
			return name, true
		}
	}
	return "", false
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
