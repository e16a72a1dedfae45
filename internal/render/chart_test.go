package render

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rheocli/internal/errors"
	"rheocli/internal/regression"
	"rheocli/pkg/contracts/domain"
)

var pngSignature = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}

func testWindow() domain.TorqueWindow {
	return domain.TorqueWindow{Min: 42, Max: 57}
}

// trialTable builds a trial whose cells all have in-window data.
func trialTable(trialNumber int) *domain.MeasurementTable {
	table := &domain.MeasurementTable{
		Trial:       fmt.Sprintf("Trial %d", trialNumber),
		TrialNumber: trialNumber,
		ZHeights:    []float64{65.1, 65.2, 65.3, 65.4, 65.5, 65.6},
	}
	for cell := 1; cell <= domain.CellCount; cell++ {
		series := make([]float64, len(table.ZHeights))
		for i, z := range table.ZHeights {
			series[i] = 43 + 0.3*float64(cell)*(z-65.0)*10/3
		}
		table.Torques[cell-1] = series
	}
	return table
}

func requirePNG(t *testing.T, path string) {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Greater(t, len(data), 1024, "suspiciously small chart file")
	assert.Equal(t, pngSignature, data[:8])
}

func TestSaveTrialChart(t *testing.T) {
	window := testWindow()
	table := trialTable(1)
	fits, failures := regression.NewFitter(nil, window).FitTable(context.Background(), table)
	require.Empty(t, failures)
	require.Len(t, fits, domain.CellCount)

	path := filepath.Join(t.TempDir(), "trial1_fit.png")
	renderer := NewRenderer(nil, window)
	require.NoError(t, renderer.SaveTrialChart(context.Background(), table, fits, path))

	requirePNG(t, path)
}

func TestSaveTrialChart_NoDataInWindow(t *testing.T) {
	table := trialTable(1)
	for cell := range table.Torques {
		for i := range table.Torques[cell] {
			table.Torques[cell][i] = 10
		}
	}

	path := filepath.Join(t.TempDir(), "empty.png")
	renderer := NewRenderer(nil, testWindow())
	require.NoError(t, renderer.SaveTrialChart(context.Background(), table, nil, path))

	requirePNG(t, path)
}

func TestSaveTrialChart_WithoutFits(t *testing.T) {
	// Charts must not depend on fitting having succeeded.
	path := filepath.Join(t.TempDir(), "nofits.png")
	renderer := NewRenderer(nil, testWindow())
	require.NoError(t, renderer.SaveTrialChart(context.Background(), trialTable(1), nil, path))

	requirePNG(t, path)
}

func TestSaveTrialGrid(t *testing.T) {
	window := testWindow()
	tables := []domain.MeasurementTable{*trialTable(1), *trialTable(2), *trialTable(3)}
	fits, _ := regression.NewFitter(nil, window).FitAll(context.Background(), tables)

	path := filepath.Join(t.TempDir(), "all_trials.png")
	renderer := NewRenderer(nil, window)
	require.NoError(t, renderer.SaveTrialGrid(context.Background(), tablePointers(tables), fits, path))

	requirePNG(t, path)
}

func TestSaveTrialGrid_SingleTrial(t *testing.T) {
	window := testWindow()
	tables := []domain.MeasurementTable{*trialTable(1)}
	fits, _ := regression.NewFitter(nil, window).FitAll(context.Background(), tables)

	path := filepath.Join(t.TempDir(), "one_trial.png")
	renderer := NewRenderer(nil, window)
	require.NoError(t, renderer.SaveTrialGrid(context.Background(), tablePointers(tables), fits, path))

	requirePNG(t, path)
}

func tablePointers(tables []domain.MeasurementTable) []*domain.MeasurementTable {
	ptrs := make([]*domain.MeasurementTable, len(tables))
	for i := range tables {
		ptrs[i] = &tables[i]
	}
	return ptrs
}

func TestSaveTrialGrid_NoTrials(t *testing.T) {
	renderer := NewRenderer(nil, testWindow())

	err := renderer.SaveTrialGrid(context.Background(), nil, nil, filepath.Join(t.TempDir(), "never.png"))
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrTypeRender))
}

func TestCellColor(t *testing.T) {
	seen := make(map[uint32]int)
	for cell := 1; cell <= domain.CellCount; cell++ {
		c := CellColor(cell)
		key := uint32(c.R)<<16 | uint32(c.G)<<8 | uint32(c.B)
		if prev, dup := seen[key]; dup {
			t.Fatalf("cells %d and %d share a color", prev, cell)
		}
		seen[key] = cell
	}
	assert.Equal(t, CellColor(1), CellColor(7), "palette wraps around")
}

func TestDecimalTicks(t *testing.T) {
	ticker := decimalTicks(6, "%.3f")

	ticks := ticker.Ticks(0, 1)
	require.Len(t, ticks, 6)
	assert.Equal(t, "0.000", ticks[0].Label)
	assert.Equal(t, "1.000", ticks[len(ticks)-1].Label)

	single := ticker.Ticks(2.5, 2.5)
	require.Len(t, single, 1)
	assert.Equal(t, "2.500", single[0].Label)

	assert.Nil(t, ticker.Ticks(math.NaN(), 1))
}
