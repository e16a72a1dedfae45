package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Paths contains all the application paths
// This is the single source of truth for ALL file paths in the application
type Paths struct {
	ExecutableDir string
	DataDir       string
	PlotsDir      string
	ReportsDir    string
	LogsDir       string

	// Well-known output files
	FitSummaryCSV   string
	EquationsXLSX   string
	UncertaintyCSV  string
	UncertaintyXLSX string
}

// GetPaths returns the application paths relative to the executable location
// All paths are ALWAYS relative to the executable directory, never the current working directory
func GetPaths() (*Paths, error) {
	exe, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("failed to get executable path: %v", err)
	}

	// Resolve symlinks to get the actual executable location
	exe, err = filepath.EvalSymlinks(exe)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve executable symlinks: %v", err)
	}

	exeDir := filepath.Dir(exe)

	// All paths are relative to the executable directory.
	// Directory structure:
	// dist/
	//   ├── data/      (trial workbooks)
	//   ├── plots/     (rendered charts)
	//   ├── reports/   (fit and uncertainty tables)
	//   └── logs/      (application logs)

	reportsDir := filepath.Join(exeDir, DefaultReportsDir)

	paths := &Paths{
		ExecutableDir: exeDir,
		DataDir:       filepath.Join(exeDir, DefaultDataDir),
		PlotsDir:      filepath.Join(exeDir, DefaultPlotsDir),
		ReportsDir:    reportsDir,
		LogsDir:       filepath.Join(exeDir, DefaultLogsDir),

		FitSummaryCSV:   filepath.Join(reportsDir, "fit_summary.csv"),
		EquationsXLSX:   filepath.Join(reportsDir, "trial_equations.xlsx"),
		UncertaintyCSV:  filepath.Join(reportsDir, "uncertainty_summary.csv"),
		UncertaintyXLSX: filepath.Join(reportsDir, "uncertainty_report.xlsx"),
	}

	return paths, nil
}

// EnsureDirectories creates all required directories if they don't exist
func (p *Paths) EnsureDirectories() error {
	directories := []string{
		p.DataDir,
		p.PlotsDir,
		p.ReportsDir,
		p.LogsDir,
	}

	logger := slog.Default()

	for _, dir := range directories {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %v", dir, err)
		}

		if logger != nil {
			logger.Debug("Ensured directory exists",
				slog.String("directory", dir))
		}
	}

	return nil
}

// GetRelativePath returns a path relative to the executable directory
func (p *Paths) GetRelativePath(subpath string) string {
	return filepath.Join(p.ExecutableDir, subpath)
}

// GetDataPath returns the path for an input workbook
func (p *Paths) GetDataPath(filename string) string {
	return filepath.Join(p.DataDir, filename)
}

// GetPlotPath returns the path for a rendered chart
func (p *Paths) GetPlotPath(filename string) string {
	return filepath.Join(p.PlotsDir, filename)
}

// GetReportPath returns the path for a report file
func (p *Paths) GetReportPath(filename string) string {
	return filepath.Join(p.ReportsDir, filename)
}

// GetLogPath returns the path for a log file
func (p *Paths) GetLogPath(filename string) string {
	return filepath.Join(p.LogsDir, filename)
}

// FileExists checks if a file exists
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}

// LogPathResolution logs detailed path resolution information for debugging
func (p *Paths) LogPathResolution() {
	logger := slog.Default()
	if logger == nil {
		return
	}

	logger.Info("Path resolution summary",
		slog.Group("directories",
			slog.String("executable", p.ExecutableDir),
			slog.String("data", p.DataDir),
			slog.String("plots", p.PlotsDir),
			slog.String("reports", p.ReportsDir),
			slog.String("logs", p.LogsDir),
		),
		slog.Group("report_files",
			slog.String("fit_summary_csv", p.FitSummaryCSV),
			slog.String("equations_xlsx", p.EquationsXLSX),
			slog.String("uncertainty_csv", p.UncertaintyCSV),
			slog.String("uncertainty_xlsx", p.UncertaintyXLSX),
		))
}
