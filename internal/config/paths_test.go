package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetPaths(t *testing.T) {
	paths, err := GetPaths()
	require.NoError(t, err)
	require.NotNil(t, paths)

	assert.NotEmpty(t, paths.ExecutableDir)
	assert.Equal(t, filepath.Join(paths.ExecutableDir, "data"), paths.DataDir)
	assert.Equal(t, filepath.Join(paths.ExecutableDir, "plots"), paths.PlotsDir)
	assert.Equal(t, filepath.Join(paths.ExecutableDir, "reports"), paths.ReportsDir)
	assert.Equal(t, filepath.Join(paths.ExecutableDir, "logs"), paths.LogsDir)

	assert.Equal(t, filepath.Join(paths.ReportsDir, "fit_summary.csv"), paths.FitSummaryCSV)
	assert.Equal(t, filepath.Join(paths.ReportsDir, "trial_equations.xlsx"), paths.EquationsXLSX)
	assert.Equal(t, filepath.Join(paths.ReportsDir, "uncertainty_summary.csv"), paths.UncertaintyCSV)
	assert.Equal(t, filepath.Join(paths.ReportsDir, "uncertainty_report.xlsx"), paths.UncertaintyXLSX)
}

func TestPaths_EnsureDirectories(t *testing.T) {
	base := t.TempDir()
	paths := &Paths{
		ExecutableDir: base,
		DataDir:       filepath.Join(base, "data"),
		PlotsDir:      filepath.Join(base, "plots"),
		ReportsDir:    filepath.Join(base, "reports"),
		LogsDir:       filepath.Join(base, "logs"),
	}

	err := paths.EnsureDirectories()
	require.NoError(t, err)

	for _, dir := range []string{paths.DataDir, paths.PlotsDir, paths.ReportsDir, paths.LogsDir} {
		info, statErr := os.Stat(dir)
		require.NoError(t, statErr)
		assert.True(t, info.IsDir())
	}

	// Second call is a no-op
	assert.NoError(t, paths.EnsureDirectories())
}

func TestPaths_Helpers(t *testing.T) {
	paths := &Paths{
		ExecutableDir: "/opt/rheo",
		DataDir:       "/opt/rheo/data",
		PlotsDir:      "/opt/rheo/plots",
		ReportsDir:    "/opt/rheo/reports",
		LogsDir:       "/opt/rheo/logs",
	}

	assert.Equal(t, filepath.Join("/opt/rheo/data", "Trial1.xlsx"), paths.GetDataPath("Trial1.xlsx"))
	assert.Equal(t, filepath.Join("/opt/rheo/plots", "curvefit_cells.png"), paths.GetPlotPath("curvefit_cells.png"))
	assert.Equal(t, filepath.Join("/opt/rheo/reports", "summary.csv"), paths.GetReportPath("summary.csv"))
	assert.Equal(t, filepath.Join("/opt/rheo/logs", "run.log"), paths.GetLogPath("run.log"))
	assert.Equal(t, filepath.Join("/opt/rheo", "extra"), paths.GetRelativePath("extra"))
}

func TestFileExists(t *testing.T) {
	dir := t.TempDir()
	existing := filepath.Join(dir, "present.txt")
	require.NoError(t, os.WriteFile(existing, []byte("x"), 0644))

	assert.True(t, FileExists(existing))
	assert.False(t, FileExists(filepath.Join(dir, "absent.txt")))
}
