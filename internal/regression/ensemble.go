package regression

import (
	"context"
	"errors"
	"log/slog"

	apperrors "rheocli/internal/errors"
	"rheocli/pkg/contracts/domain"
)

// Fitter runs the torque window filter and least squares fit across
// trials and cells.
type Fitter struct {
	logger *slog.Logger
	window domain.TorqueWindow
}

// NewFitter creates a fitter for one torque window. A nil logger falls
// back to slog.Default().
func NewFitter(logger *slog.Logger, window domain.TorqueWindow) *Fitter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Fitter{logger: logger, window: window}
}

// Window returns the torque window the fitter subsets rows by.
func (f *Fitter) Window() domain.TorqueWindow {
	return f.window
}

// FitCell fits one (trial, cell) pair over the filtered window.
func (f *Fitter) FitCell(table *domain.MeasurementTable, cell int) (*domain.FitResult, error) {
	z, torque, err := table.Series(cell)
	if err != nil {
		return nil, apperrors.NewFitError("invalid cell", err)
	}

	zf, tf := FilterWindow(z, torque, f.window)
	slope, intercept, rsquared, err := Fit(zf, tf)
	if err != nil {
		return nil, err
	}

	return &domain.FitResult{
		Trial:       table.Trial,
		TrialNumber: table.TrialNumber,
		Cell:        cell,
		Slope:       slope,
		Intercept:   intercept,
		RSquared:    rsquared,
		Points:      len(zf),
	}, nil
}

// FitTable fits all cells of one trial. Pairs that cannot be fitted are
// skipped and recorded with the reason; the rest of the trial continues.
func (f *Fitter) FitTable(ctx context.Context, table *domain.MeasurementTable) ([]domain.FitResult, []domain.FitFailure) {
	var results []domain.FitResult
	var failures []domain.FitFailure

	for cell := 1; cell <= domain.CellCount; cell++ {
		result, err := f.FitCell(table, cell)
		if err != nil {
			reason := failureReason(err)
			f.logger.WarnContext(ctx, "fit skipped",
				slog.String("trial", table.Trial),
				slog.Int("cell", cell),
				slog.String("reason", reason))
			failures = append(failures, domain.FitFailure{
				Trial:  table.Trial,
				Cell:   cell,
				Reason: reason,
			})
			continue
		}

		f.logger.InfoContext(ctx, "cell fitted",
			slog.String("trial", table.Trial),
			slog.Int("cell", cell),
			slog.Float64("slope", result.Slope),
			slog.Float64("intercept", result.Intercept),
			slog.Float64("r_squared", result.RSquared),
			slog.Int("points", result.Points))
		results = append(results, *result)
	}

	return results, failures
}

// FitAll fits every (trial, cell) pair across the set, trials in slice
// order, cells ascending.
func (f *Fitter) FitAll(ctx context.Context, tables []domain.MeasurementTable) ([]domain.FitResult, []domain.FitFailure) {
	var results []domain.FitResult
	var failures []domain.FitFailure

	for i := range tables {
		r, fl := f.FitTable(ctx, &tables[i])
		results = append(results, r...)
		failures = append(failures, fl...)
	}

	return results, failures
}

// failureReason extracts the short reason out of a typed fit error.
func failureReason(err error) string {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return err.Error()
}
