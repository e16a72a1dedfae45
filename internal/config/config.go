package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	"rheocli/pkg/contracts/domain"
)

// Config represents the complete application configuration
type Config struct {
	Analysis  AnalysisConfig  `yaml:"analysis" envconfig:"ANALYSIS"`
	Input     InputConfig     `yaml:"input" envconfig:"INPUT"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Telemetry TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
	Paths     PathsConfig     `yaml:"paths" envconfig:"PATHS"`
}

// AnalysisConfig contains the measurement analysis parameters.
// Torque values are percent of full scale throughout.
type AnalysisConfig struct {
	// WindowMin/WindowMax bound the inclusive torque range used to subset
	// rows before fitting. Defaults: 42 and 57.
	WindowMin float64 `yaml:"window_min" envconfig:"WINDOW_MIN" validate:"min=0"`
	WindowMax float64 `yaml:"window_max" envconfig:"WINDOW_MAX" validate:"gtfield=WindowMin"`

	// TorqueLevels are the probe levels at which z positions are
	// back-solved and compared across trials. Default: 42,45,48,51,54,57.
	TorqueLevels []float64 `yaml:"torque_levels" envconfig:"TORQUE_LEVELS" validate:"min=1"`

	// PositioningTolerance is the instrument's z-axis repeatability in mm,
	// used for the headline per-cell uncertainty figure. Default: 0.05.
	PositioningTolerance float64 `yaml:"positioning_tolerance" envconfig:"POSITIONING_TOLERANCE" validate:"gt=0"`

	Thresholds ThresholdConfig `yaml:"thresholds" envconfig:"THRESHOLDS"`
}

// Window returns the configured torque window.
func (a AnalysisConfig) Window() domain.TorqueWindow {
	return domain.TorqueWindow{Min: a.WindowMin, Max: a.WindowMax}
}

// ThresholdConfig sets the category cutoffs in percentage points of
// propagated torque uncertainty: EXCELLENT below Excellent, GOOD below
// Good, ACCEPTABLE below Acceptable, NEEDS ATTENTION otherwise.
// Defaults: 5, 10, 20.
type ThresholdConfig struct {
	Excellent  float64 `yaml:"excellent" envconfig:"EXCELLENT" validate:"gt=0"`
	Good       float64 `yaml:"good" envconfig:"GOOD" validate:"gtfield=Excellent"`
	Acceptable float64 `yaml:"acceptable" envconfig:"ACCEPTABLE" validate:"gtfield=Good"`
}

// InputConfig describes where trial workbooks come from.
type InputConfig struct {
	// Workbook is the default measurement file, resolved under the data
	// directory when relative. Default: RawData.xlsx.
	Workbook string `yaml:"workbook" envconfig:"WORKBOOK"`

	// Sheet optionally pins the sheet to read for single-trial runs.
	// Empty means resolve by candidates then first sheet.
	Sheet string `yaml:"sheet" envconfig:"SHEET"`

	// TrialCount is the number of trials a full run expects. Default: 4.
	TrialCount int `yaml:"trial_count" envconfig:"TRIAL_COUNT" validate:"min=1,max=12"`

	// TrialSheetPrefix names per-trial sheets inside one workbook
	// ("Trial " yields "Trial 1".."Trial N"). Default: "Trial ".
	TrialSheetPrefix string `yaml:"trial_sheet_prefix" envconfig:"TRIAL_SHEET_PREFIX"`

	// TrialFilePattern names per-trial workbook files in the data
	// directory. Default: "Trial%d.xlsx".
	TrialFilePattern string `yaml:"trial_file_pattern" envconfig:"TRIAL_FILE_PATTERN"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level       string `yaml:"level" envconfig:"LEVEL"`
	Format      string `yaml:"format" envconfig:"FORMAT"`
	Output      string `yaml:"output" envconfig:"OUTPUT"`
	FilePath    string `yaml:"file_path" envconfig:"FILE_PATH"`
	Development bool   `yaml:"development" envconfig:"DEVELOPMENT"`
}

// TelemetryConfig controls the OpenTelemetry tracing side.
type TelemetryConfig struct {
	Enabled     bool   `yaml:"enabled" envconfig:"ENABLED"`
	ServiceName string `yaml:"service_name" envconfig:"SERVICE_NAME"`
	Exporter    string `yaml:"exporter" envconfig:"EXPORTER"`
}

// PathsConfig contains file system paths configuration
type PathsConfig struct {
	ExecutableDir string `yaml:"executable_dir" envconfig:"EXECUTABLE_DIR"`
	DataDir       string `yaml:"data_dir" envconfig:"DATA_DIR"`
	PlotsDir      string `yaml:"plots_dir" envconfig:"PLOTS_DIR"`
	ReportsDir    string `yaml:"reports_dir" envconfig:"REPORTS_DIR"`
	LogsDir       string `yaml:"logs_dir" envconfig:"LOGS_DIR"`
}

// Load loads configuration from defaults, an optional YAML file, and
// environment variables, in that order of precedence (env wins).
func Load() (*Config, error) {
	cfg := Default()

	// Overlay config file if one exists
	if configFile := getConfigFilePath(); configFile != "" {
		if err := loadFromFile(configFile, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	// Environment variables take precedence over file values
	if err := envconfig.Process("RHEO", cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	// Resolve relative paths
	if err := cfg.resolvePaths(); err != nil {
		return nil, fmt.Errorf("failed to resolve paths: %w", err)
	}

	// Validate configuration
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// loadFromFile overlays configuration from a YAML file onto cfg
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return err
	}

	return nil
}

// resolvePaths sets up the executable directory
func (c *Config) resolvePaths() error {
	paths, err := GetPaths()
	if err != nil {
		return fmt.Errorf("failed to get paths: %w", err)
	}

	c.Paths.ExecutableDir = paths.ExecutableDir

	return nil
}

// validate validates the configuration
func (c *Config) validate() error {
	v := validator.New()
	if err := v.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	window := c.Analysis.Window()
	for _, level := range c.Analysis.TorqueLevels {
		if !window.Contains(level) {
			return fmt.Errorf("torque level %g outside window %s", level, window)
		}
	}

	// Always JSON logs
	if c.Logging.Format != "json" {
		c.Logging.Format = "json"
	}

	if c.Logging.Output != "stdout" && c.Logging.Output != "file" && c.Logging.Output != "both" {
		c.Logging.Output = "both"
	}

	if c.Logging.FilePath == "" {
		c.Logging.FilePath = "logs/app.log"
	}

	return nil
}

// getConfigFilePath returns the path to the config file
func getConfigFilePath() string {
	// Check for config file in common locations
	locations := []string{
		"config.yaml",
		"configs/config.yaml",
		"../configs/config.yaml",
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return "" // No config file found, use defaults and env vars
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Analysis: AnalysisConfig{
			WindowMin:            DefaultWindowMin,
			WindowMax:            DefaultWindowMax,
			TorqueLevels:         DefaultTorqueLevels(),
			PositioningTolerance: DefaultPositioningTolerance,
			Thresholds: ThresholdConfig{
				Excellent:  DefaultThresholdExcellent,
				Good:       DefaultThresholdGood,
				Acceptable: DefaultThresholdAcceptable,
			},
		},
		Input: InputConfig{
			Workbook:         DefaultWorkbookName,
			TrialCount:       DefaultTrialCount,
			TrialSheetPrefix: DefaultTrialSheetPrefix,
			TrialFilePattern: DefaultTrialFilePattern,
		},
		Logging: LoggingConfig{
			Level:       DefaultLogLevel,
			Format:      DefaultLogFormat,
			Output:      "both",
			FilePath:    "logs/app.log",
			Development: true,
		},
		Telemetry: TelemetryConfig{
			Enabled:     false,
			ServiceName: "rheocli",
			Exporter:    "stdout",
		},
		Paths: PathsConfig{
			DataDir:    DefaultDataDir,
			PlotsDir:   DefaultPlotsDir,
			ReportsDir: DefaultReportsDir,
			LogsDir:    DefaultLogsDir,
		},
	}
}
