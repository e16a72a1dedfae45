package exporter

import (
	"bytes"
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"rheocli/internal/config"
	"rheocli/pkg/contracts/domain"
)

func newTestPaths(t *testing.T) *config.Paths {
	t.Helper()
	tempDir := t.TempDir()
	return &config.Paths{
		DataDir:    filepath.Join(tempDir, "data"),
		PlotsDir:   filepath.Join(tempDir, "plots"),
		ReportsDir: filepath.Join(tempDir, "reports"),
		LogsDir:    filepath.Join(tempDir, "logs"),
	}
}

func sampleFits() []domain.FitResult {
	return []domain.FitResult{
		{Trial: "Trial 1", TrialNumber: 1, Cell: 1, Slope: 87.767, Intercept: -5759.814, RSquared: 0.996, Points: 14},
		{Trial: "Trial 1", TrialNumber: 1, Cell: 2, Slope: 89.848, Intercept: -5873.516, RSquared: 0.991, Points: 13},
		{Trial: "Trial 2", TrialNumber: 2, Cell: 1, Slope: 135.833, Intercept: -8941.347, RSquared: 0.975, Points: 9},
	}
}

func readCSVWithoutBOM(t *testing.T, path string) [][]string {
	t.Helper()
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(content), 3)

	reader := csv.NewReader(bytes.NewReader(content[3:]))
	records, err := reader.ReadAll()
	require.NoError(t, err)
	return records
}

func TestWriteFitSummaryCSV(t *testing.T) {
	paths := newTestPaths(t)
	exp := NewFitExporter(paths, nil)

	failures := []domain.FitFailure{
		{Trial: "Trial 2", Cell: 2, Reason: "insufficient data: 1 points in range, need at least 2"},
	}
	err := exp.WriteFitSummaryCSV(context.Background(), sampleFits(), failures, "fit_summary.csv")
	require.NoError(t, err)

	records := readCSVWithoutBOM(t, filepath.Join(paths.ReportsDir, "fit_summary.csv"))
	require.Len(t, records, 5) // header + 3 fits + 1 failure

	assert.Equal(t, fitSummaryHeaders, records[0])
	assert.Equal(t, []string{"Trial 1", "1", "87.767", "-5759.814", "0.996", "14", ""}, records[1])
	assert.Equal(t, []string{"Trial 2", "1", "135.833", "-8941.347", "0.975", "9", ""}, records[3])

	failureRow := records[4]
	assert.Equal(t, "Trial 2", failureRow[0])
	assert.Equal(t, "2", failureRow[1])
	assert.Empty(t, failureRow[2])
	assert.Contains(t, failureRow[6], "insufficient data")
}

func TestWriteEquationsWorkbook(t *testing.T) {
	paths := newTestPaths(t)
	exp := NewFitExporter(paths, nil)

	err := exp.WriteEquationsWorkbook(context.Background(), []int{1, 2}, sampleFits(), "trial_equations.xlsx")
	require.NoError(t, err)

	path := filepath.Join(paths.ReportsDir, "trial_equations.xlsx")
	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	const sheet = "Equations"
	assert.Contains(t, f.GetSheetList(), sheet)

	title, err := f.GetCellValue(sheet, "A1")
	require.NoError(t, err)
	assert.Equal(t, "Summary of Linear Equations: y = mx + c", title)

	for addr, want := range map[string]string{
		"A2": "Cell",
		"B2": "Trial 1",
		"C2": "Trial 2",
		"A3": "Cell 1",
		"A8": "Cell 6",
	} {
		got, gerr := f.GetCellValue(sheet, addr)
		require.NoError(t, gerr)
		assert.Equal(t, want, got, "cell %s", addr)
	}

	// Fitted pair carries equation plus R²
	b3, err := f.GetCellValue(sheet, "B3")
	require.NoError(t, err)
	assert.Contains(t, b3, "y = 87.767x + -5759.814")
	assert.Contains(t, b3, "R² = 0.996")

	// Pair without a fit falls back to the placeholder
	c4, err := f.GetCellValue(sheet, "C4")
	require.NoError(t, err)
	assert.Contains(t, c4, "No data")
	assert.Contains(t, c4, "in range")

	// Cells 3..6 never fitted in either trial
	b5, err := f.GetCellValue(sheet, "B5")
	require.NoError(t, err)
	assert.Contains(t, b5, "No data")
}

func TestWriteEquationsWorkbook_NoTrials(t *testing.T) {
	paths := newTestPaths(t)
	exp := NewFitExporter(paths, nil)

	err := exp.WriteEquationsWorkbook(context.Background(), nil, nil, "empty.xlsx")
	require.NoError(t, err)

	f, err := excelize.OpenFile(filepath.Join(paths.ReportsDir, "empty.xlsx"))
	require.NoError(t, err)
	defer f.Close()

	a3, err := f.GetCellValue("Equations", "A3")
	require.NoError(t, err)
	assert.Equal(t, "Cell 1", a3)
}
