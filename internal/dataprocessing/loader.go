package dataprocessing

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"rheocli/internal/config"
	"rheocli/internal/errors"
	"rheocli/pkg/contracts/domain"
)

// Loader reads rheometer measurement workbooks into domain tables. It is
// the single ingestion path shared by every analysis binary.
type Loader struct {
	logger *slog.Logger
}

// NewLoader creates a new measurement loader. A nil logger falls back to
// slog.Default().
func NewLoader(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{logger: logger}
}

// LoadTable reads one trial's measurement series from a workbook sheet.
// An empty sheet name resolves to the first sheet. The workbook handle is
// closed before return on all paths.
func (l *Loader) LoadTable(ctx context.Context, path, sheet string, trialNumber int) (*domain.MeasurementTable, error) {
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

	sheetName, err := l.resolveSheet(ctx, f, sheet)
	if err != nil {
		return nil, err
	}

	return l.extractTable(ctx, f, path, sheetName, trialNumber)
}

// resolveSheet picks the sheet to read: exact name first, then a
// trimmed case-insensitive match (sheet names frequently carry stray
// spaces), then the first sheet.
func (l *Loader) resolveSheet(ctx context.Context, f *excelize.File, want string) (string, error) {
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return "", errors.NewParsingError("workbook contains no sheets", nil)
	}

	if want == "" {
		return sheets[0], nil
	}

	for _, name := range sheets {
		if name == want {
			return name, nil
		}
	}

	for _, name := range sheets {
		if strings.EqualFold(strings.TrimSpace(name), strings.TrimSpace(want)) {
			return name, nil
		}
	}

	l.logger.WarnContext(ctx, "requested sheet not found, using first sheet",
		slog.String("requested", want),
		slog.String("using", sheets[0]))
	return sheets[0], nil
}

// extractTable parses the measurement columns out of one sheet of an
// already-open workbook.
func (l *Loader) extractTable(ctx context.Context, f *excelize.File, path, sheetName string, trialNumber int) (*domain.MeasurementTable, error) {
	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, errors.NewParsingError(fmt.Sprintf("failed to read sheet %s", sheetName), err).
			WithContext("file", path)
	}

	headerRow, columnMap := findHeaderRow(rows)
	if headerRow == -1 {
		return nil, errors.NewParsingError(
			fmt.Sprintf("required column %s not found", config.ZHeightColumn), nil).
			WithContext("file", path).
			WithContext("sheet", sheetName)
	}

	if missing := missingColumns(columnMap); len(missing) > 0 {
		return nil, errors.NewParsingError(
			fmt.Sprintf("missing required columns: %s", strings.Join(missing, ", ")), nil).
			WithContext("file", path).
			WithContext("sheet", sheetName)
	}

	table := &domain.MeasurementTable{
		Trial:       fmt.Sprintf("Trial %d", trialNumber),
		TrialNumber: trialNumber,
		SourceFile:  path,
		Sheet:       sheetName,
	}

	for i := headerRow + 1; i < len(rows); i++ {
		row := rows[i]
		if isEmptyRow(row) {
			continue
		}

		table.ZHeights = append(table.ZHeights, NormalizeZ(parseNumeric(cellAt(row, columnMap[config.ZHeightColumn]))))
		for cell := 1; cell <= domain.CellCount; cell++ {
			idx := columnMap[torqueColumn(cell)]
			table.Torques[cell-1] = append(table.Torques[cell-1], parseNumeric(cellAt(row, idx)))
		}
	}

	l.logger.InfoContext(ctx, "measurement table loaded",
		slog.String("trial", table.Trial),
		slog.String("file", filepath.Base(path)),
		slog.String("sheet", sheetName),
		slog.Int("rows", table.Rows()))

	return table, nil
}

// NormalizeZ converts a raw probe position to the positive magnitude used
// throughout reporting. The instrument records descent as negative
// z-heights. Idempotent: NormalizeZ(NormalizeZ(m)) == NormalizeZ(m).
func NormalizeZ(raw float64) float64 {
	return math.Abs(raw)
}

// findHeaderRow scans the leading rows for the header row (the one
// containing the z-height column) and maps column positions by name.
func findHeaderRow(rows [][]string) (int, map[string]int) {
	for i, row := range rows {
		columnMap := make(map[string]int)
		for j, header := range row {
			if name, ok := matchColumn(header); ok {
				if _, seen := columnMap[name]; !seen {
					columnMap[name] = j
				}
			}
		}
		if _, ok := columnMap[config.ZHeightColumn]; ok {
			return i, columnMap
		}
	}
	return -1, nil
}

// matchColumn maps a raw header cell onto the canonical column name it
// represents, tolerating stray spaces and case differences.
func matchColumn(header string) (string, bool) {
	trimmed := strings.TrimSpace(header)
	if strings.EqualFold(trimmed, config.ZHeightColumn) {
		return config.ZHeightColumn, true
	}
	for cell := 1; cell <= domain.CellCount; cell++ {
		if want := torqueColumn(cell); strings.EqualFold(trimmed, want) {
			return want, true
		}
	}
	return "", false
}

// missingColumns lists the required columns absent from the header.
func missingColumns(columnMap map[string]int) []string {
	var missing []string
	if _, ok := columnMap[config.ZHeightColumn]; !ok {
		missing = append(missing, config.ZHeightColumn)
	}
	for cell := 1; cell <= domain.CellCount; cell++ {
		if _, ok := columnMap[torqueColumn(cell)]; !ok {
			missing = append(missing, torqueColumn(cell))
		}
	}
	return missing
}

// torqueColumn returns the canonical torque column name for a cell (1-based).
func torqueColumn(cell int) string {
	return fmt.Sprintf(config.TorqueColumnFormat, cell)
}

// parseNumeric parses a spreadsheet cell tolerantly: trimmed, thousands
// separators stripped. Blank or non-numeric cells become NaN so the range
// filter drops them instead of poisoning the fit.
func parseNumeric(raw string) float64 {
	cleaned := strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
	if cleaned == "" {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

// cellAt returns the cell at idx, or "" when the row is shorter (excelize
// trims trailing empty cells per row).
func cellAt(row []string, idx int) string {
	if idx < len(row) {
		return row[idx]
	}
	return ""
}

// isEmptyRow reports whether every cell of a row is blank.
func isEmptyRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
