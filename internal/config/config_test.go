package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NotNil(t, cfg)

	assert.Equal(t, 42.0, cfg.Analysis.WindowMin)
	assert.Equal(t, 57.0, cfg.Analysis.WindowMax)
	assert.Equal(t, []float64{42, 45, 48, 51, 54, 57}, cfg.Analysis.TorqueLevels)
	assert.Equal(t, 0.05, cfg.Analysis.PositioningTolerance)
	assert.Equal(t, 5.0, cfg.Analysis.Thresholds.Excellent)
	assert.Equal(t, 10.0, cfg.Analysis.Thresholds.Good)
	assert.Equal(t, 20.0, cfg.Analysis.Thresholds.Acceptable)

	assert.Equal(t, "RawData.xlsx", cfg.Input.Workbook)
	assert.Equal(t, 4, cfg.Input.TrialCount)
	assert.Equal(t, "Trial ", cfg.Input.TrialSheetPrefix)
	assert.Equal(t, "Trial%d.xlsx", cfg.Input.TrialFilePattern)

	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "both", cfg.Logging.Output)

	assert.False(t, cfg.Telemetry.Enabled)
	assert.Equal(t, "rheocli", cfg.Telemetry.ServiceName)
}

func TestAnalysisConfig_Window(t *testing.T) {
	cfg := Default()
	window := cfg.Analysis.Window()

	assert.Equal(t, 42.0, window.Min)
	assert.Equal(t, 57.0, window.Max)
	assert.True(t, window.IsValid())
	assert.True(t, window.Contains(42))
	assert.True(t, window.Contains(57))
	assert.False(t, window.Contains(41.9))
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 42.0, cfg.Analysis.WindowMin)
	assert.Equal(t, 57.0, cfg.Analysis.WindowMax)
	assert.NotEmpty(t, cfg.Paths.ExecutableDir)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("RHEO_ANALYSIS_WINDOW_MIN", "40")
	t.Setenv("RHEO_ANALYSIS_TORQUE_LEVELS", "45,51")
	t.Setenv("RHEO_ANALYSIS_POSITIONING_TOLERANCE", "0.1")
	t.Setenv("RHEO_INPUT_TRIAL_COUNT", "2")
	t.Setenv("RHEO_LOGGING_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 40.0, cfg.Analysis.WindowMin)
	assert.Equal(t, 57.0, cfg.Analysis.WindowMax)
	assert.Equal(t, []float64{45, 51}, cfg.Analysis.TorqueLevels)
	assert.Equal(t, 0.1, cfg.Analysis.PositioningTolerance)
	assert.Equal(t, 2, cfg.Input.TrialCount)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoad_InvalidWindow(t *testing.T) {
	t.Setenv("RHEO_ANALYSIS_WINDOW_MIN", "60")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation")
}

func TestLoad_LevelOutsideWindow(t *testing.T) {
	// Default levels reach 57, which the narrowed window excludes
	t.Setenv("RHEO_ANALYSIS_WINDOW_MAX", "50")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "outside window")
}

func TestLoad_NormalizesLogging(t *testing.T) {
	t.Setenv("RHEO_LOGGING_FORMAT", "text")
	t.Setenv("RHEO_LOGGING_OUTPUT", "syslog")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "both", cfg.Logging.Output)
}

func TestConfig_ValidateThresholds(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Config)
		wantError bool
	}{
		{
			name:      "defaults are valid",
			mutate:    func(c *Config) {},
			wantError: false,
		},
		{
			name: "good below excellent",
			mutate: func(c *Config) {
				c.Analysis.Thresholds.Good = 4
			},
			wantError: true,
		},
		{
			name: "acceptable below good",
			mutate: func(c *Config) {
				c.Analysis.Thresholds.Acceptable = 9
			},
			wantError: true,
		},
		{
			name: "zero tolerance",
			mutate: func(c *Config) {
				c.Analysis.PositioningTolerance = 0
			},
			wantError: true,
		},
		{
			name: "no torque levels",
			mutate: func(c *Config) {
				c.Analysis.TorqueLevels = nil
			},
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := cfg.validate()
			if tt.wantError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
