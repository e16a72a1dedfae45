package exporter

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"rheocli/internal/config"
	apperrors "rheocli/internal/errors"
	"rheocli/pkg/contracts/domain"
)

// FitExporter writes regression results as machine-readable CSV and as a
// styled equations workbook.
type FitExporter struct {
	csv    *CSVWriter
	logger *slog.Logger
}

// NewFitExporter creates a fit exporter rooted at the application paths.
func NewFitExporter(paths *config.Paths, logger *slog.Logger) *FitExporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &FitExporter{csv: NewCSVWriter(paths), logger: logger}
}

var fitSummaryHeaders = []string{"Trial", "Cell", "Slope", "Intercept", "R_Squared", "Points", "Note"}

// WriteFitSummaryCSV writes one row per fitted (trial, cell) pair, followed
// by one row per pair that could not be fitted, with the reason in Note.
func (e *FitExporter) WriteFitSummaryCSV(ctx context.Context, fits []domain.FitResult, failures []domain.FitFailure, filePath string) error {
	records := make([][]string, 0, len(fits)+len(failures))
	for _, fit := range fits {
		records = append(records, []string{
			fit.Trial,
			formatInt(fit.Cell),
			formatCoefficient(fit.Slope),
			formatCoefficient(fit.Intercept),
			formatCoefficient(fit.RSquared),
			formatInt(fit.Points),
			"",
		})
	}
	for _, failure := range failures {
		records = append(records, []string{
			failure.Trial,
			formatInt(failure.Cell),
			"", "", "", "0",
			failure.Reason,
		})
	}

	if err := e.csv.WriteSimpleCSV(filePath, fitSummaryHeaders, records); err != nil {
		return apperrors.NewStorageError("failed to write fit summary", err)
	}

	e.logger.InfoContext(ctx, "fit summary written",
		slog.String("path", filePath),
		slog.Int("fits", len(fits)),
		slog.Int("failures", len(failures)))
	return nil
}

// WriteEquationsWorkbook writes the cells-by-trials equation matrix the way
// reviewers read it: one row per cell, one column per trial, each entry the
// fitted equation with its R². Pairs without in-window data fall back to a
// placeholder.
func (e *FitExporter) WriteEquationsWorkbook(ctx context.Context, trialNumbers []int, fits []domain.FitResult, filePath string) error {
	fullPath := e.csv.resolvePath(filePath)
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return apperrors.NewStorageError("failed to create report directory", err)
	}

	byTrialCell := make(map[int]map[int]domain.FitResult)
	for _, fit := range fits {
		if byTrialCell[fit.TrialNumber] == nil {
			byTrialCell[fit.TrialNumber] = make(map[int]domain.FitResult)
		}
		byTrialCell[fit.TrialNumber][fit.Cell] = fit
	}

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Equations"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return apperrors.NewStorageError("failed to name equations sheet", err)
	}

	lastCol, err := excelize.ColumnNumberToName(1 + len(trialNumbers))
	if err != nil {
		return apperrors.NewStorageError("failed to size equations sheet", err)
	}

	// Title row
	if err := f.MergeCell(sheet, "A1", lastCol+"1"); err != nil {
		return apperrors.NewStorageError("failed to merge title row", err)
	}
	if err := f.SetCellValue(sheet, "A1", "Summary of Linear Equations: y = mx + c"); err != nil {
		return apperrors.NewStorageError("failed to write title", err)
	}

	// Header row
	if err := f.SetCellValue(sheet, "A2", "Cell"); err != nil {
		return apperrors.NewStorageError("failed to write header", err)
	}
	for i, trial := range trialNumbers {
		cell, cerr := excelize.CoordinatesToCellName(i+2, 2)
		if cerr != nil {
			return apperrors.NewStorageError("failed to address header cell", cerr)
		}
		if err := f.SetCellValue(sheet, cell, fmt.Sprintf("Trial %d", trial)); err != nil {
			return apperrors.NewStorageError("failed to write header", err)
		}
	}

	// Data rows, one per cell
	for cellNum := 1; cellNum <= domain.CellCount; cellNum++ {
		row := cellNum + 2
		name, cerr := excelize.CoordinatesToCellName(1, row)
		if cerr != nil {
			return apperrors.NewStorageError("failed to address data cell", cerr)
		}
		if err := f.SetCellValue(sheet, name, fmt.Sprintf("Cell %d", cellNum)); err != nil {
			return apperrors.NewStorageError("failed to write cell label", err)
		}
		for i, trial := range trialNumbers {
			addr, aerr := excelize.CoordinatesToCellName(i+2, row)
			if aerr != nil {
				return apperrors.NewStorageError("failed to address data cell", aerr)
			}
			text := "No data\nin range"
			if fit, ok := byTrialCell[trial][cellNum]; ok {
				text = fmt.Sprintf("y = %.3fx + %.3f\n(R² = %.3f)", fit.Slope, fit.Intercept, fit.RSquared)
			}
			if err := f.SetCellValue(sheet, addr, text); err != nil {
				return apperrors.NewStorageError("failed to write equation", err)
			}
		}
	}

	if err := e.styleEquationsSheet(f, sheet, lastCol, len(trialNumbers)); err != nil {
		return err
	}

	if err := f.SaveAs(fullPath); err != nil {
		return apperrors.NewStorageError("failed to save equations workbook", err)
	}

	e.logger.InfoContext(ctx, "equations workbook written",
		slog.String("path", fullPath),
		slog.Int("trials", len(trialNumbers)),
		slog.Int("fits", len(fits)))
	return nil
}

func (e *FitExporter) styleEquationsSheet(f *excelize.File, sheet, lastCol string, trialCount int) error {
	titleStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return apperrors.NewStorageError("failed to build title style", err)
	}
	headerStyle, err := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4CAF50"}, Pattern: 1},
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF", Size: 12},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return apperrors.NewStorageError("failed to build header style", err)
	}
	cellColStyle, err := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"E8F5E8"}, Pattern: 1},
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return apperrors.NewStorageError("failed to build cell column style", err)
	}
	evenRowStyle, err := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"F5F5F5"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true},
	})
	if err != nil {
		return apperrors.NewStorageError("failed to build row style", err)
	}
	oddRowStyle, err := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"FFFFFF"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true},
	})
	if err != nil {
		return apperrors.NewStorageError("failed to build row style", err)
	}

	if err := f.SetCellStyle(sheet, "A1", lastCol+"1", titleStyle); err != nil {
		return apperrors.NewStorageError("failed to style title", err)
	}
	if err := f.SetCellStyle(sheet, "A2", lastCol+"2", headerStyle); err != nil {
		return apperrors.NewStorageError("failed to style header", err)
	}
	lastRow := domain.CellCount + 2
	if err := f.SetCellStyle(sheet, "A3", fmt.Sprintf("A%d", lastRow), cellColStyle); err != nil {
		return apperrors.NewStorageError("failed to style cell column", err)
	}
	for cellNum := 1; cellNum <= domain.CellCount; cellNum++ {
		row := cellNum + 2
		style := oddRowStyle
		if cellNum%2 == 0 {
			style = evenRowStyle
		}
		first := fmt.Sprintf("B%d", row)
		last := fmt.Sprintf("%s%d", lastCol, row)
		if err := f.SetCellStyle(sheet, first, last, style); err != nil {
			return apperrors.NewStorageError("failed to style data row", err)
		}
		if err := f.SetRowHeight(sheet, row, 32); err != nil {
			return apperrors.NewStorageError("failed to size data row", err)
		}
	}
	if err := f.SetRowHeight(sheet, 1, 24); err != nil {
		return apperrors.NewStorageError("failed to size title row", err)
	}
	if err := f.SetColWidth(sheet, "A", "A", 10); err != nil {
		return apperrors.NewStorageError("failed to size cell column", err)
	}
	if trialCount > 0 {
		if err := f.SetColWidth(sheet, "B", lastCol, 28); err != nil {
			return apperrors.NewStorageError("failed to size trial columns", err)
		}
	}
	return nil
}
