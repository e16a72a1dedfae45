package validation

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"rheocli/internal/errors"
)

// FileValidator runs the pre-flight checks shared by the analysis binaries:
// measurement workbooks exist and look like spreadsheets, and output
// directories are writable before any fitting starts.
type FileValidator struct {
	logger *slog.Logger
}

// NewFileValidator creates a new file validator
func NewFileValidator(logger *slog.Logger) *FileValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileValidator{
		logger: logger,
	}
}

// ValidateInputDirectory validates that the measurement directory exists and
// reports how many files match the workbook pattern. A directory with no
// matching workbooks is not an error; the caller decides what an empty run
// means.
func (v *FileValidator) ValidateInputDirectory(dir string, requiredPattern string) error {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		v.logger.Error("Measurement directory does not exist",
			slog.String("directory", dir))
		return errors.NewNotFoundError(fmt.Sprintf("measurement directory %s", dir))
	}
	if err != nil {
		v.logger.Error("Failed to stat measurement directory",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return errors.NewAppError(errors.ErrTypeValidation,
			fmt.Sprintf("failed to stat directory %s", dir), err)
	}
	if !info.IsDir() {
		v.logger.Error("Measurement path is not a directory",
			slog.String("path", dir))
		return errors.NewValidationError(fmt.Sprintf("%s is not a directory", dir))
	}

	if requiredPattern != "" {
		pattern := filepath.Join(dir, requiredPattern)
		matches, err := filepath.Glob(pattern)
		if err != nil {
			v.logger.Error("Failed to check for workbooks",
				slog.String("pattern", pattern),
				slog.String("error", err.Error()))
			return errors.NewAppError(errors.ErrTypeValidation,
				"failed to check for workbooks", err)
		}

		if len(matches) == 0 {
			v.logger.Warn("No workbooks matching pattern found",
				slog.String("directory", dir),
				slog.String("pattern", requiredPattern))
			// Not an error, there is just nothing to analyze
			return nil
		}

		v.logger.Info("Measurement directory validated",
			slog.String("directory", dir),
			slog.Int("workbooks_found", len(matches)),
			slog.String("pattern", requiredPattern))
	}

	return nil
}

// ValidateOutputDirectory ensures the output directory exists or can be
// created, and that it is writable.
func (v *FileValidator) ValidateOutputDirectory(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		v.logger.Error("Failed to create output directory",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return errors.NewAppError(errors.ErrTypeValidation,
			fmt.Sprintf("failed to create output directory %s", dir), err)
	}

	// Verify it's writable by creating a test file
	testFile := filepath.Join(dir, ".write_test")
	file, err := os.Create(testFile)
	if err != nil {
		v.logger.Error("Output directory is not writable",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return errors.NewAppError(errors.ErrTypeValidation,
			fmt.Sprintf("output directory %s is not writable", dir), err)
	}
	file.Close()
	os.Remove(testFile)

	v.logger.Info("Output directory validated",
		slog.String("directory", dir))
	return nil
}

// ValidateFile checks if a specific file exists and is readable
func (v *FileValidator) ValidateFile(path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		v.logger.Error("File does not exist",
			slog.String("file", path))
		return errors.NewNotFoundError(fmt.Sprintf("file %s", path))
	}
	if err != nil {
		v.logger.Error("Failed to stat file",
			slog.String("file", path),
			slog.String("error", err.Error()))
		return errors.NewAppError(errors.ErrTypeValidation,
			fmt.Sprintf("failed to stat file %s", path), err)
	}
	if info.IsDir() {
		v.logger.Error("Path is a directory, not a file",
			slog.String("path", path))
		return errors.NewValidationError(fmt.Sprintf("%s is a directory, not a file", path))
	}

	// Check if file is readable by opening it
	file, err := os.Open(path)
	if err != nil {
		v.logger.Error("File is not readable",
			slog.String("file", path),
			slog.String("error", err.Error()))
		return errors.NewAppError(errors.ErrTypeValidation,
			fmt.Sprintf("file %s is not readable", path), err)
	}
	file.Close()

	v.logger.Debug("File validated",
		slog.String("file", path),
		slog.Int64("size", info.Size()))
	return nil
}

// ValidateMeasurementFile checks that a path points at a readable measurement
// workbook and not at an Excel lock file left behind by an open editor.
func (v *FileValidator) ValidateMeasurementFile(path string) error {
	if err := v.ValidateFile(path); err != nil {
		return err
	}

	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".xlsx" && ext != ".xls" {
		v.logger.Error("File is not an Excel workbook",
			slog.String("file", path),
			slog.String("extension", ext))
		return errors.NewValidationError(
			fmt.Sprintf("file %s is not an Excel workbook (extension: %s)", path, ext))
	}

	base := filepath.Base(path)
	if strings.HasPrefix(base, "~$") {
		v.logger.Warn("Skipping temporary Excel lock file",
			slog.String("file", path))
		return errors.NewValidationError(fmt.Sprintf("file %s is a temporary Excel lock file", path))
	}

	return nil
}
