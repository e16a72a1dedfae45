package testutil

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"rheocli/pkg/contracts/domain"
)

func TestLogCapture(t *testing.T) {
	logger, capture := NewTestLogger(t)

	logger.Info("loading workbook", slog.String("file", "Trial1.xlsx"))
	logger.Warn("sheet not found")
	logger.Error("load failed", slog.Int("trial", 3))

	assert.Equal(t, 3, capture.Count())
	assert.True(t, capture.Contains(slog.LevelInfo, "loading"))
	assert.True(t, capture.Contains(slog.LevelWarn, "sheet not found"))
	assert.False(t, capture.Contains(slog.LevelInfo, "sheet not found"))

	value, ok := capture.AttrValue("file")
	require.True(t, ok)
	assert.Equal(t, "Trial1.xlsx", value)

	_, ok = capture.AttrValue("missing")
	assert.False(t, ok)

	records := capture.Records()
	require.Len(t, records, 3)
	assert.Equal(t, slog.LevelError, records[2].Level)
	assert.Equal(t, int64(3), records[2].Attrs["trial"])
}

func TestWriteTrialWorkbook(t *testing.T) {
	dir := t.TempDir()

	rows := []TrialRow{
		{Z: -65.80, Torques: [domain.CellCount]float64{44.1, 43.9, 44.0, 44.2, 44.3, 43.8}},
		{Z: -65.79, Torques: [domain.CellCount]float64{45.3, 45.1, 45.0, 45.2, 45.4, 44.9}},
	}
	path := WriteTrialWorkbook(t, dir, "Trial1.xlsx", "Sheet1", rows)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	sheetRows, err := f.GetRows("Sheet1")
	require.NoError(t, err)
	require.Len(t, sheetRows, 3)

	assert.Equal(t, "Z-Height", sheetRows[0][0])
	assert.Equal(t, "Cell_1_Torque", sheetRows[0][1])
	assert.Equal(t, "Cell_6_Torque", sheetRows[0][6])
	assert.Equal(t, "-65.8", sheetRows[1][0])
	assert.Equal(t, "44.1", sheetRows[1][1])
	assert.Equal(t, "44.9", sheetRows[2][6])
}

func TestLinearTrialRows(t *testing.T) {
	slopes := [domain.CellCount]float64{100, 100, 100, 100, 100, 100}
	intercepts := [domain.CellCount]float64{-6530, -6530, -6530, -6530, -6530, -6530}

	rows := LinearTrialRows(65.75, 0.001, 3, slopes, intercepts)
	require.Len(t, rows, 3)

	// Stage positions are stored negated
	assert.InDelta(t, -65.75, rows[0].Z, 1e-9)
	assert.InDelta(t, -65.752, rows[2].Z, 1e-9)

	// torque = 100*65.75 - 6530 = 45.0 at the first position
	assert.InDelta(t, 45.0, rows[0].Torques[0], 1e-9)
	assert.InDelta(t, 45.2, rows[2].Torques[3], 1e-9)
}
