package exporter

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/xuri/excelize/v2"

	"rheocli/internal/config"
	apperrors "rheocli/internal/errors"
	"rheocli/pkg/contracts/domain"
)

// UncertaintyExporter writes positioning-uncertainty reports as CSV and as
// a styled per-cell workbook.
type UncertaintyExporter struct {
	csv    *CSVWriter
	logger *slog.Logger
}

// NewUncertaintyExporter creates an uncertainty exporter rooted at the
// application paths.
func NewUncertaintyExporter(paths *config.Paths, logger *slog.Logger) *UncertaintyExporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &UncertaintyExporter{csv: NewCSVWriter(paths), logger: logger}
}

// trialColumnHeader names a per-trial z column the way the reports label it.
func trialColumnHeader(trial int) string {
	return fmt.Sprintf("Trial %d(mm)", trial)
}

// reportTrialNumbers collects every trial that contributed a position to the
// report, sorted ascending.
func reportTrialNumbers(report *domain.UncertaintyReport) []int {
	seen := make(map[int]bool)
	for _, cell := range report.Cells {
		for _, row := range cell.Rows {
			for _, pos := range row.Positions {
				seen[pos.Trial] = true
			}
		}
	}
	trials := make([]int, 0, len(seen))
	for trial := range seen {
		trials = append(trials, trial)
	}
	sort.Ints(trials)
	return trials
}

// WriteUncertaintyCSV writes one row per (cell, torque level) with the
// back-solved z position of every contributing trial and the propagated
// uncertainty, raw numbers only.
func (e *UncertaintyExporter) WriteUncertaintyCSV(ctx context.Context, report *domain.UncertaintyReport, filePath string) error {
	trials := reportTrialNumbers(report)

	headers := []string{"Cell", "Torque(%)"}
	for _, trial := range trials {
		headers = append(headers, trialColumnHeader(trial))
	}
	headers = append(headers, "Min(mm)", "Max(mm)", "Range(mm)", "Uncertainty(%)")

	records := make([][]string, 0, len(report.Cells)*len(report.Levels))
	for _, cell := range report.Cells {
		for _, row := range cell.Rows {
			posByTrial := make(map[int]float64, len(row.Positions))
			for _, pos := range row.Positions {
				posByTrial[pos.Trial] = pos.Z
			}

			record := []string{formatInt(cell.Cell), formatTorqueLevel(row.TorqueLevel)}
			for _, trial := range trials {
				if z, ok := posByTrial[trial]; ok {
					record = append(record, formatMM(z))
				} else {
					record = append(record, "")
				}
			}
			record = append(record,
				formatMM(row.MinZ),
				formatMM(row.MaxZ),
				formatMM(row.RangeZ),
				formatPct(row.Uncertainty),
			)
			records = append(records, record)
		}
	}

	if err := e.csv.WriteSimpleCSV(filePath, headers, records); err != nil {
		return apperrors.NewStorageError("failed to write uncertainty summary", err)
	}

	e.logger.InfoContext(ctx, "uncertainty summary written",
		slog.String("path", filePath),
		slog.Int("cells", len(report.Cells)),
		slog.Int("rows", len(records)))
	return nil
}

// uncertaintyStyles holds the workbook-scoped style IDs shared by every
// sheet of the uncertainty report.
type uncertaintyStyles struct {
	title       int
	header      int
	torque      int
	trial       int
	stats       int
	uncertainty int
	category    map[domain.PerformanceCategory]int
}

// WriteUncertaintyWorkbook writes a Summary sheet with the per-cell verdicts
// and one detail sheet per cell with the full level-by-level table.
func (e *UncertaintyExporter) WriteUncertaintyWorkbook(ctx context.Context, report *domain.UncertaintyReport, filePath string) error {
	fullPath := e.csv.resolvePath(filePath)
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return apperrors.NewStorageError("failed to create report directory", err)
	}

	trials := reportTrialNumbers(report)

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", "Summary"); err != nil {
		return apperrors.NewStorageError("failed to name summary sheet", err)
	}

	styles, err := e.buildUncertaintyStyles(f)
	if err != nil {
		return err
	}

	if err := e.writeSummarySheet(f, report, styles); err != nil {
		return err
	}
	for _, cell := range report.Cells {
		sheetName := fmt.Sprintf("Cell %d", cell.Cell)
		if _, err := f.NewSheet(sheetName); err != nil {
			return apperrors.NewStorageError("failed to add cell sheet", err)
		}
		if err := e.writeCellSheet(f, sheetName, cell, trials, styles); err != nil {
			return err
		}
	}

	if err := f.SaveAs(fullPath); err != nil {
		return apperrors.NewStorageError("failed to save uncertainty workbook", err)
	}

	e.logger.InfoContext(ctx, "uncertainty workbook written",
		slog.String("path", fullPath),
		slog.Int("cells", len(report.Cells)),
		slog.String("verdict", string(report.Verdict)))
	return nil
}

func (e *UncertaintyExporter) buildUncertaintyStyles(f *excelize.File) (*uncertaintyStyles, error) {
	solid := func(fill, fontColor string, bold bool) *excelize.Style {
		return &excelize.Style{
			Fill:      excelize.Fill{Type: "pattern", Color: []string{fill}, Pattern: 1},
			Font:      &excelize.Font{Bold: bold, Color: fontColor},
			Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		}
	}

	styles := &uncertaintyStyles{category: make(map[domain.PerformanceCategory]int)}

	var err error
	if styles.title, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	}); err != nil {
		return nil, apperrors.NewStorageError("failed to build title style", err)
	}
	if styles.header, err = f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"2E86AB"}, Pattern: 1},
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF", Size: 11},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true},
	}); err != nil {
		return nil, apperrors.NewStorageError("failed to build header style", err)
	}
	if styles.torque, err = f.NewStyle(solid("A23B72", "FFFFFF", true)); err != nil {
		return nil, apperrors.NewStorageError("failed to build torque style", err)
	}
	if styles.trial, err = f.NewStyle(solid("F18F01", "FFFFFF", true)); err != nil {
		return nil, apperrors.NewStorageError("failed to build trial style", err)
	}
	if styles.stats, err = f.NewStyle(solid("ECF0F1", "000000", false)); err != nil {
		return nil, apperrors.NewStorageError("failed to build stats style", err)
	}
	if styles.uncertainty, err = f.NewStyle(solid("E74C3C", "FFFFFF", true)); err != nil {
		return nil, apperrors.NewStorageError("failed to build uncertainty style", err)
	}

	categoryFills := map[domain.PerformanceCategory][2]string{
		domain.CategoryExcellent:      {"2ECC71", "FFFFFF"},
		domain.CategoryGood:           {"F1C40F", "000000"},
		domain.CategoryAcceptable:     {"E67E22", "FFFFFF"},
		domain.CategoryNeedsAttention: {"E74C3C", "FFFFFF"},
	}
	for category, colors := range categoryFills {
		id, serr := f.NewStyle(solid(colors[0], colors[1], true))
		if serr != nil {
			return nil, apperrors.NewStorageError("failed to build category style", serr)
		}
		styles.category[category] = id
	}

	return styles, nil
}

var summaryHeaders = []string{
	"Cell",
	"Steepest Slope",
	"Most Sensitive Trial",
	"Worst Uncertainty(%)",
	"At Torque(%)",
	"Tolerance Uncertainty(%)",
	"Trials Used",
	"Performance",
}

func (e *UncertaintyExporter) writeSummarySheet(f *excelize.File, report *domain.UncertaintyReport, styles *uncertaintyStyles) error {
	const sheet = "Summary"

	lastCol, err := excelize.ColumnNumberToName(len(summaryHeaders))
	if err != nil {
		return apperrors.NewStorageError("failed to size summary sheet", err)
	}

	if err := f.MergeCell(sheet, "A1", lastCol+"1"); err != nil {
		return apperrors.NewStorageError("failed to merge summary title", err)
	}
	if err := f.SetCellValue(sheet, "A1", "Z-Height Positioning Uncertainty Analysis"); err != nil {
		return apperrors.NewStorageError("failed to write summary title", err)
	}
	if err := f.SetCellStyle(sheet, "A1", lastCol+"1", styles.title); err != nil {
		return apperrors.NewStorageError("failed to style summary title", err)
	}

	for i, header := range summaryHeaders {
		addr, aerr := excelize.CoordinatesToCellName(i+1, 2)
		if aerr != nil {
			return apperrors.NewStorageError("failed to address summary header", aerr)
		}
		if err := f.SetCellValue(sheet, addr, header); err != nil {
			return apperrors.NewStorageError("failed to write summary header", err)
		}
	}
	if err := f.SetCellStyle(sheet, "A2", lastCol+"2", styles.header); err != nil {
		return apperrors.NewStorageError("failed to style summary header", err)
	}

	for i, cell := range report.Cells {
		row := i + 3
		values := []interface{}{
			fmt.Sprintf("Cell %d", cell.Cell),
			formatCoefficient(cell.SteepestSlope),
			fmt.Sprintf("Trial %d", cell.SteepestTrial),
			formatUncertainty(cell.WorstUncertainty),
			formatTorqueLevel(cell.WorstLevel),
			fmt.Sprintf("±%.3f", cell.ToleranceUncertainty),
			cell.TrialsUsed,
			string(cell.Category),
		}
		for j, value := range values {
			addr, aerr := excelize.CoordinatesToCellName(j+1, row)
			if aerr != nil {
				return apperrors.NewStorageError("failed to address summary cell", aerr)
			}
			if err := f.SetCellValue(sheet, addr, value); err != nil {
				return apperrors.NewStorageError("failed to write summary row", err)
			}
		}
		addr := fmt.Sprintf("%s%d", lastCol, row)
		if err := f.SetCellStyle(sheet, addr, addr, styles.category[cell.Category]); err != nil {
			return apperrors.NewStorageError("failed to style category", err)
		}
	}

	// Overall verdict row
	verdictRow := len(report.Cells) + 3
	if err := f.SetCellValue(sheet, fmt.Sprintf("A%d", verdictRow), "Overall"); err != nil {
		return apperrors.NewStorageError("failed to write verdict label", err)
	}
	addr := fmt.Sprintf("%s%d", lastCol, verdictRow)
	if err := f.SetCellValue(sheet, addr, string(report.Verdict)); err != nil {
		return apperrors.NewStorageError("failed to write verdict", err)
	}
	if err := f.SetCellStyle(sheet, addr, addr, styles.category[report.Verdict]); err != nil {
		return apperrors.NewStorageError("failed to style verdict", err)
	}

	if err := f.SetColWidth(sheet, "A", "A", 10); err != nil {
		return apperrors.NewStorageError("failed to size summary columns", err)
	}
	if err := f.SetColWidth(sheet, "B", lastCol, 20); err != nil {
		return apperrors.NewStorageError("failed to size summary columns", err)
	}
	return nil
}

func (e *UncertaintyExporter) writeCellSheet(f *excelize.File, sheet string, cell domain.CellUncertainty, trials []int, styles *uncertaintyStyles) error {
	columnCount := 1 + len(trials) + 4
	lastCol, err := excelize.ColumnNumberToName(columnCount)
	if err != nil {
		return apperrors.NewStorageError("failed to size cell sheet", err)
	}

	if err := f.MergeCell(sheet, "A1", lastCol+"1"); err != nil {
		return apperrors.NewStorageError("failed to merge cell title", err)
	}
	title := fmt.Sprintf("Cell %d: Z-Height to Torque Uncertainty Analysis", cell.Cell)
	if err := f.SetCellValue(sheet, "A1", title); err != nil {
		return apperrors.NewStorageError("failed to write cell title", err)
	}
	if err := f.SetCellStyle(sheet, "A1", lastCol+"1", styles.title); err != nil {
		return apperrors.NewStorageError("failed to style cell title", err)
	}

	headers := []string{"Torque(%)"}
	for _, trial := range trials {
		headers = append(headers, trialColumnHeader(trial))
	}
	headers = append(headers, "Min(mm)", "Max(mm)", "Range(mm)", "Uncertainty(%)")
	for i, header := range headers {
		addr, aerr := excelize.CoordinatesToCellName(i+1, 2)
		if aerr != nil {
			return apperrors.NewStorageError("failed to address cell header", aerr)
		}
		if err := f.SetCellValue(sheet, addr, header); err != nil {
			return apperrors.NewStorageError("failed to write cell header", err)
		}
	}
	if err := f.SetCellStyle(sheet, "A2", lastCol+"2", styles.header); err != nil {
		return apperrors.NewStorageError("failed to style cell header", err)
	}

	for i, levelRow := range cell.Rows {
		row := i + 3
		posByTrial := make(map[int]float64, len(levelRow.Positions))
		for _, pos := range levelRow.Positions {
			posByTrial[pos.Trial] = pos.Z
		}

		values := []string{formatTorqueLevel(levelRow.TorqueLevel)}
		for _, trial := range trials {
			if z, ok := posByTrial[trial]; ok {
				values = append(values, formatMM(z))
			} else {
				values = append(values, "")
			}
		}
		values = append(values,
			formatMM(levelRow.MinZ),
			formatMM(levelRow.MaxZ),
			formatMM(levelRow.RangeZ),
			formatUncertainty(levelRow.Uncertainty),
		)
		for j, value := range values {
			addr, aerr := excelize.CoordinatesToCellName(j+1, row)
			if aerr != nil {
				return apperrors.NewStorageError("failed to address cell row", aerr)
			}
			if err := f.SetCellValue(sheet, addr, value); err != nil {
				return apperrors.NewStorageError("failed to write cell row", err)
			}
		}
	}

	// Region styling: torque column, trial columns, statistics, uncertainty.
	lastRow := len(cell.Rows) + 2
	if lastRow < 3 {
		return nil
	}
	if err := f.SetCellStyle(sheet, "A3", fmt.Sprintf("A%d", lastRow), styles.torque); err != nil {
		return apperrors.NewStorageError("failed to style torque column", err)
	}
	if len(trials) > 0 {
		lastTrial, terr := excelize.ColumnNumberToName(1 + len(trials))
		if terr != nil {
			return apperrors.NewStorageError("failed to size trial columns", terr)
		}
		if err := f.SetCellStyle(sheet, "B3", fmt.Sprintf("%s%d", lastTrial, lastRow), styles.trial); err != nil {
			return apperrors.NewStorageError("failed to style trial columns", err)
		}
	}
	statsFirst, serr := excelize.ColumnNumberToName(2 + len(trials))
	if serr != nil {
		return apperrors.NewStorageError("failed to size stats columns", serr)
	}
	statsLast, serr := excelize.ColumnNumberToName(columnCount - 1)
	if serr != nil {
		return apperrors.NewStorageError("failed to size stats columns", serr)
	}
	if err := f.SetCellStyle(sheet, statsFirst+"3", fmt.Sprintf("%s%d", statsLast, lastRow), styles.stats); err != nil {
		return apperrors.NewStorageError("failed to style stats columns", err)
	}
	if err := f.SetCellStyle(sheet, lastCol+"3", fmt.Sprintf("%s%d", lastCol, lastRow), styles.uncertainty); err != nil {
		return apperrors.NewStorageError("failed to style uncertainty column", err)
	}

	if err := f.SetColWidth(sheet, "A", lastCol, 12); err != nil {
		return apperrors.NewStorageError("failed to size cell columns", err)
	}
	if err := f.SetColWidth(sheet, lastCol, lastCol, 15); err != nil {
		return apperrors.NewStorageError("failed to size uncertainty column", err)
	}
	return nil
}
