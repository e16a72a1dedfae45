package testutil

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"rheocli/internal/config"
	"rheocli/pkg/contracts/domain"
)

// TrialRow is one measurement row of a fixture workbook: the stage
// position as the instrument records it (negative z) and the torque read
// by each of the six cells.
type TrialRow struct {
	Z       float64
	Torques [domain.CellCount]float64
}

// MeasurementHeader returns the canonical column layout of a measurement
// sheet.
func MeasurementHeader() []interface{} {
	header := make([]interface{}, 0, domain.CellCount+1)
	header = append(header, config.ZHeightColumn)
	for cell := 1; cell <= domain.CellCount; cell++ {
		header = append(header, fmt.Sprintf(config.TorqueColumnFormat, cell))
	}
	return header
}

// WriteTrialWorkbook writes a single-sheet trial workbook with the
// canonical header and one row per measurement, returning its path.
func WriteTrialWorkbook(t *testing.T, dir, fileName, sheet string, rows []TrialRow) string {
	t.Helper()

	f := excelize.NewFile()
	require.NoError(t, f.SetSheetName(f.GetSheetName(0), sheet))

	header := MeasurementHeader()
	require.NoError(t, f.SetSheetRow(sheet, "A1", &header))

	for i, row := range rows {
		values := make([]interface{}, 0, domain.CellCount+1)
		values = append(values, row.Z)
		for _, torque := range row.Torques {
			values = append(values, torque)
		}
		cellRef, err := excelize.CoordinatesToCellName(1, i+2)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cellRef, &values))
	}

	path := filepath.Join(dir, fileName)
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())
	return path
}

// LinearTrialRows synthesizes measurements whose torque rises linearly
// with the normalized z position. Each cell c follows
// torque = slopes[c]*z + intercepts[c], sampled at positions zStart,
// zStart+zStep, ... The stage position is stored negated, the way the
// instrument writes it.
func LinearTrialRows(zStart, zStep float64, count int, slopes, intercepts [domain.CellCount]float64) []TrialRow {
	rows := make([]TrialRow, 0, count)
	for i := 0; i < count; i++ {
		z := zStart + float64(i)*zStep
		row := TrialRow{Z: -z}
		for c := 0; c < domain.CellCount; c++ {
			row.Torques[c] = slopes[c]*z + intercepts[c]
		}
		rows = append(rows, row)
	}
	return rows
}
