package regression

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rheocli/internal/errors"
	"rheocli/pkg/contracts/domain"
)

// cleanTable builds a trial whose every cell carries an exact line inside
// the torque window: torque = 42 + 0.2*cell*z for z in 1..5.
func cleanTable(trialNumber int) *domain.MeasurementTable {
	table := &domain.MeasurementTable{
		Trial:       fmt.Sprintf("Trial %d", trialNumber),
		TrialNumber: trialNumber,
		ZHeights:    []float64{1, 2, 3, 4, 5},
	}
	for cell := 1; cell <= domain.CellCount; cell++ {
		series := make([]float64, len(table.ZHeights))
		for i, z := range table.ZHeights {
			series[i] = 42 + 0.2*float64(cell)*z
		}
		table.Torques[cell-1] = series
	}
	return table
}

func TestFitCell(t *testing.T) {
	fitter := NewFitter(nil, defaultWindow())
	table := cleanTable(1)

	result, err := fitter.FitCell(table, 3)
	require.NoError(t, err)

	assert.Equal(t, "Trial 1", result.Trial)
	assert.Equal(t, 1, result.TrialNumber)
	assert.Equal(t, 3, result.Cell)
	assert.InDelta(t, 0.6, result.Slope, 1e-9)
	assert.InDelta(t, 42.0, result.Intercept, 1e-9)
	assert.InDelta(t, 1.0, result.RSquared, 1e-9)
	assert.Equal(t, 5, result.Points)
}

func TestFitCell_CountsOnlyRowsInWindow(t *testing.T) {
	fitter := NewFitter(nil, defaultWindow())
	table := &domain.MeasurementTable{
		Trial:       "Trial 1",
		TrialNumber: 1,
		ZHeights:    []float64{1, 2, 3, 4, 5},
	}
	// Rows 1 and 5 fall outside [42, 57] and must not count.
	table.Torques[0] = []float64{30, 44, 48, 52, 70}
	for cell := 2; cell <= domain.CellCount; cell++ {
		table.Torques[cell-1] = []float64{43, 44, 45, 46, 47}
	}

	result, err := fitter.FitCell(table, 1)
	require.NoError(t, err)
	assert.Equal(t, 3, result.Points)
	assert.InDelta(t, 4.0, result.Slope, 1e-9)
}

func TestFitCell_InvalidCell(t *testing.T) {
	fitter := NewFitter(nil, defaultWindow())
	table := cleanTable(1)

	for _, cell := range []int{0, -1, 7} {
		_, err := fitter.FitCell(table, cell)
		require.Error(t, err, "cell %d", cell)
		assert.True(t, errors.IsType(err, errors.ErrTypeFit))
	}
}

func TestFitTable(t *testing.T) {
	fitter := NewFitter(nil, defaultWindow())
	table := cleanTable(2)
	// Cell 3 has no rows in the window, cell 5 is flat.
	table.Torques[2] = []float64{10, 10, 10, 10, 10}
	table.Torques[4] = []float64{50, 50, 50, 50, 50}

	results, failures := fitter.FitTable(context.Background(), table)

	require.Len(t, results, 4)
	require.Len(t, failures, 2)

	wantCells := []int{1, 2, 4, 6}
	for i, result := range results {
		assert.Equal(t, wantCells[i], result.Cell)
		assert.Equal(t, "Trial 2", result.Trial)
		assert.InDelta(t, 0.2*float64(wantCells[i]), result.Slope, 1e-9)
	}

	assert.Equal(t, 3, failures[0].Cell)
	assert.Contains(t, failures[0].Reason, "insufficient data")
	assert.Equal(t, 5, failures[1].Cell)
	assert.Contains(t, failures[1].Reason, "constant torque")
	for _, failure := range failures {
		assert.Equal(t, "Trial 2", failure.Trial)
	}
}

func TestFitAll_OrderedByTrialThenCell(t *testing.T) {
	fitter := NewFitter(nil, defaultWindow())
	tables := []domain.MeasurementTable{*cleanTable(1), *cleanTable(2), *cleanTable(3)}

	results, failures := fitter.FitAll(context.Background(), tables)

	require.Empty(t, failures)
	require.Len(t, results, 3*domain.CellCount)

	i := 0
	for _, trial := range []int{1, 2, 3} {
		for cell := 1; cell <= domain.CellCount; cell++ {
			assert.Equal(t, trial, results[i].TrialNumber)
			assert.Equal(t, cell, results[i].Cell)
			i++
		}
	}
}

func TestNewFitter_Defaults(t *testing.T) {
	fitter := NewFitter(nil, domain.TorqueWindow{Min: 45, Max: 55})
	assert.Equal(t, 45.0, fitter.Window().Min)
	assert.Equal(t, 55.0, fitter.Window().Max)
}
