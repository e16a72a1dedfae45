package uncertainty

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rheocli/internal/config"
	"rheocli/internal/errors"
	"rheocli/pkg/contracts/domain"
)

func testAnalysisConfig() config.AnalysisConfig {
	return config.AnalysisConfig{
		WindowMin:            42,
		WindowMax:            57,
		TorqueLevels:         []float64{45, 50},
		PositioningTolerance: 0.05,
		Thresholds:           defaultThresholds(),
	}
}

func cellFit(trial, cell int, slope, intercept float64) domain.FitResult {
	return domain.FitResult{
		Trial:       trialName(trial),
		TrialNumber: trial,
		Cell:        cell,
		Slope:       slope,
		Intercept:   intercept,
		RSquared:    0.999,
		Points:      12,
	}
}

func trialName(n int) string {
	return map[int]string{1: "Trial 1", 2: "Trial 2", 3: "Trial 3", 4: "Trial 4"}[n]
}

func TestAnalyzeCell(t *testing.T) {
	analyzer := NewAnalyzer(nil, testAnalysisConfig())
	// Shuffled on purpose so position ordering is the analyzer's doing.
	fits := []domain.FitResult{
		cellFit(3, 1, 2.5, 0),
		cellFit(1, 1, 2, 0),
		cellFit(2, 1, 2, 1),
	}

	result, err := analyzer.AnalyzeCell(context.Background(), 1, fits)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Cell)
	assert.Equal(t, 3, result.TrialsUsed)
	assert.InDelta(t, 2.5, result.SteepestSlope, 1e-9)
	assert.Equal(t, 3, result.SteepestTrial)
	assert.InDelta(t, 0.125, result.ToleranceUncertainty, 1e-9)

	require.Len(t, result.Rows, 2)

	at45 := result.Rows[0]
	assert.Equal(t, 45.0, at45.TorqueLevel)
	require.Len(t, at45.Positions, 3)
	assert.Equal(t, []domain.TrialZ{
		{Trial: 1, Z: 22.5},
		{Trial: 2, Z: 22},
		{Trial: 3, Z: 18},
	}, at45.Positions)
	assert.InDelta(t, 18.0, at45.MinZ, 1e-9)
	assert.InDelta(t, 22.5, at45.MaxZ, 1e-9)
	assert.InDelta(t, 4.5, at45.RangeZ, 1e-9)
	assert.InDelta(t, 11.25, at45.Uncertainty, 1e-9)

	at50 := result.Rows[1]
	assert.InDelta(t, 5.0, at50.RangeZ, 1e-9)
	assert.InDelta(t, 12.5, at50.Uncertainty, 1e-9)

	assert.InDelta(t, 12.5, result.WorstUncertainty, 1e-9)
	assert.Equal(t, 50.0, result.WorstLevel)
	assert.Equal(t, domain.CategoryAcceptable, result.Category)
}

func TestAnalyzeCell_SteepestByMagnitude(t *testing.T) {
	analyzer := NewAnalyzer(nil, testAnalysisConfig())
	fits := []domain.FitResult{
		cellFit(1, 2, 3, 0),
		cellFit(2, 2, -4, 140),
	}

	result, err := analyzer.AnalyzeCell(context.Background(), 2, fits)
	require.NoError(t, err)

	assert.InDelta(t, -4.0, result.SteepestSlope, 1e-9)
	assert.Equal(t, 2, result.SteepestTrial)
	assert.InDelta(t, 0.2, result.ToleranceUncertainty, 1e-9)
}

func TestAnalyzeCell_SingleTrialFallsBackToTolerance(t *testing.T) {
	cfg := testAnalysisConfig()
	analyzer := NewAnalyzer(nil, cfg)

	result, err := analyzer.AnalyzeCell(context.Background(), 1, []domain.FitResult{
		cellFit(1, 1, 3, 0),
	})
	require.NoError(t, err)

	assert.Equal(t, 1, result.TrialsUsed)
	for _, row := range result.Rows {
		assert.InDelta(t, 0.0, row.RangeZ, 1e-9)
		assert.InDelta(t, 0.0, row.Uncertainty, 1e-9)
	}
	// 3 %/mm over 0.05 mm repeatability.
	assert.InDelta(t, 0.15, result.ToleranceUncertainty, 1e-9)
	assert.Equal(t, domain.CategoryExcellent, result.Category)

	// A sloppy positioner pushes the same cell down a band.
	cfg.PositioningTolerance = 2.0
	result, err = NewAnalyzer(nil, cfg).AnalyzeCell(context.Background(), 1, []domain.FitResult{
		cellFit(1, 1, 3, 0),
	})
	require.NoError(t, err)
	assert.InDelta(t, 6.0, result.ToleranceUncertainty, 1e-9)
	assert.Equal(t, domain.CategoryGood, result.Category)
}

func TestAnalyzeCell_SkipsNonInvertibleFits(t *testing.T) {
	analyzer := NewAnalyzer(nil, testAnalysisConfig())
	fits := []domain.FitResult{
		cellFit(1, 1, 2, 0),
		cellFit(2, 1, 0, 50),
	}

	result, err := analyzer.AnalyzeCell(context.Background(), 1, fits)
	require.NoError(t, err)

	assert.Equal(t, 1, result.TrialsUsed)
	require.Len(t, result.Rows[0].Positions, 1)
	assert.Equal(t, 1, result.Rows[0].Positions[0].Trial)
}

func TestAnalyzeCell_IgnoresOtherCells(t *testing.T) {
	analyzer := NewAnalyzer(nil, testAnalysisConfig())
	fits := []domain.FitResult{
		cellFit(1, 1, 2, 0),
		cellFit(1, 4, 9, 0),
	}

	result, err := analyzer.AnalyzeCell(context.Background(), 1, fits)
	require.NoError(t, err)
	assert.Equal(t, 1, result.TrialsUsed)
	assert.InDelta(t, 2.0, result.SteepestSlope, 1e-9)
}

func TestAnalyzeCell_NoFits(t *testing.T) {
	analyzer := NewAnalyzer(nil, testAnalysisConfig())

	_, err := analyzer.AnalyzeCell(context.Background(), 5, nil)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrTypeFit))
	assert.Contains(t, err.Error(), "no valid fits for cell 5")
}

func TestBuildReport(t *testing.T) {
	analyzer := NewAnalyzer(nil, testAnalysisConfig())
	fits := []domain.FitResult{
		// Cell 1 repeats tightly across trials.
		cellFit(1, 1, 2, 0),
		cellFit(2, 1, 2, 0.1),
		// Cell 3 drifts 15 mm between trials.
		cellFit(1, 3, 2, 0),
		cellFit(2, 3, 2, 30),
	}
	failures := []domain.FitFailure{
		{Trial: "Trial 2", Cell: 6, Reason: "insufficient data: 1 points in range, need at least 2"},
	}

	report, err := analyzer.BuildReport(context.Background(), fits, failures)
	require.NoError(t, err)

	assert.Equal(t, domain.TorqueWindow{Min: 42, Max: 57}, report.Window)
	assert.Equal(t, []float64{45, 50}, report.Levels)
	assert.InDelta(t, 0.05, report.Tolerance, 1e-9)
	assert.Equal(t, failures, report.Failures)

	require.Len(t, report.Cells, 2)
	assert.Equal(t, 1, report.Cells[0].Cell)
	assert.Equal(t, domain.CategoryExcellent, report.Cells[0].Category)
	assert.Equal(t, 3, report.Cells[1].Cell)
	assert.Equal(t, domain.CategoryNeedsAttention, report.Cells[1].Category)

	assert.Equal(t, domain.CategoryNeedsAttention, report.Verdict)
}

func TestBuildReport_NoFits(t *testing.T) {
	analyzer := NewAnalyzer(nil, testAnalysisConfig())

	_, err := analyzer.BuildReport(context.Background(), nil, nil)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrTypeFit))
}
