package uncertainty

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"

	"rheocli/internal/config"
	apperrors "rheocli/internal/errors"
	"rheocli/pkg/contracts/domain"
)

// Analyzer propagates z-positioning uncertainty through fitted cells.
type Analyzer struct {
	logger     *slog.Logger
	window     domain.TorqueWindow
	levels     []float64
	tolerance  float64
	thresholds config.ThresholdConfig
}

// NewAnalyzer creates an analyzer from the analysis configuration.
func NewAnalyzer(logger *slog.Logger, cfg config.AnalysisConfig) *Analyzer {
	if logger == nil {
		logger = slog.Default()
	}
	levels := make([]float64, len(cfg.TorqueLevels))
	copy(levels, cfg.TorqueLevels)
	return &Analyzer{
		logger:     logger,
		window:     cfg.Window(),
		levels:     levels,
		tolerance:  cfg.PositioningTolerance,
		thresholds: cfg.Thresholds,
	}
}

// Levels returns the torque levels the analyzer probes.
func (a *Analyzer) Levels() []float64 {
	return a.levels
}

// AnalyzeCell cross-references one cell's fits across trials: it back-solves
// the probe position at each torque level, measures the spread, and converts
// the worst spread into torque percentage points via the steepest slope.
//
// With fewer than two usable trials no spread exists, so the category falls
// back to the instrument positioning tolerance alone.
func (a *Analyzer) AnalyzeCell(ctx context.Context, cell int, fits []domain.FitResult) (*domain.CellUncertainty, error) {
	usable := make([]domain.FitResult, 0, len(fits))
	for _, fit := range fits {
		if fit.Cell != cell {
			continue
		}
		if fit.Slope == 0 {
			a.logger.WarnContext(ctx, "fit not invertible, trial skipped",
				slog.Int("cell", cell),
				slog.Int("trial", fit.TrialNumber),
			)
			continue
		}
		usable = append(usable, fit)
	}
	if len(usable) == 0 {
		return nil, apperrors.NewFitError(fmt.Sprintf("no valid fits for cell %d", cell), nil)
	}

	sort.Slice(usable, func(i, j int) bool {
		return usable[i].TrialNumber < usable[j].TrialNumber
	})

	steepest := usable[0]
	for _, fit := range usable[1:] {
		if math.Abs(fit.Slope) > math.Abs(steepest.Slope) {
			steepest = fit
		}
	}

	result := &domain.CellUncertainty{
		Cell:                 cell,
		SteepestSlope:        steepest.Slope,
		SteepestTrial:        steepest.TrialNumber,
		Rows:                 make([]domain.UncertaintyRow, 0, len(a.levels)),
		ToleranceUncertainty: Propagate(steepest.Slope, a.tolerance),
		TrialsUsed:           len(usable),
	}

	worst := math.Inf(-1)
	worstLevel := 0.0
	for _, level := range a.levels {
		row := domain.UncertaintyRow{
			TorqueLevel: level,
			Positions:   make([]domain.TrialZ, 0, len(usable)),
			MinZ:        math.NaN(),
			MaxZ:        math.NaN(),
			RangeZ:      math.NaN(),
			Uncertainty: math.NaN(),
		}
		for _, fit := range usable {
			z := SolveZ(fit, level)
			if math.IsNaN(z) {
				continue
			}
			row.Positions = append(row.Positions, domain.TrialZ{Trial: fit.TrialNumber, Z: z})
			if math.IsNaN(row.MinZ) || z < row.MinZ {
				row.MinZ = z
			}
			if math.IsNaN(row.MaxZ) || z > row.MaxZ {
				row.MaxZ = z
			}
		}
		if len(row.Positions) > 0 {
			row.RangeZ = row.MaxZ - row.MinZ
			row.Uncertainty = Propagate(steepest.Slope, row.RangeZ)
			if row.Uncertainty > worst {
				worst = row.Uncertainty
				worstLevel = level
			}
		}
		result.Rows = append(result.Rows, row)
	}

	if math.IsInf(worst, -1) {
		worst = math.NaN()
	}
	result.WorstUncertainty = worst
	result.WorstLevel = worstLevel

	effective := result.WorstUncertainty
	if result.TrialsUsed < 2 || math.IsNaN(effective) {
		effective = result.ToleranceUncertainty
	}
	result.Category = Classify(effective, a.thresholds)

	a.logger.InfoContext(ctx, "cell uncertainty analyzed",
		slog.Int("cell", cell),
		slog.Int("trials_used", result.TrialsUsed),
		slog.Float64("steepest_slope", result.SteepestSlope),
		slog.Float64("worst_uncertainty", result.WorstUncertainty),
		slog.String("category", string(result.Category)),
	)

	return result, nil
}

// BuildReport runs AnalyzeCell over every cell present in fits and rolls the
// results into one report. The verdict is the worst category among the cells.
func (a *Analyzer) BuildReport(ctx context.Context, fits []domain.FitResult, failures []domain.FitFailure) (*domain.UncertaintyReport, error) {
	byCell := make(map[int][]domain.FitResult)
	for _, fit := range fits {
		byCell[fit.Cell] = append(byCell[fit.Cell], fit)
	}
	if len(byCell) == 0 {
		return nil, apperrors.NewFitError("no cell produced a valid fit", nil)
	}

	cells := make([]int, 0, len(byCell))
	for cell := range byCell {
		cells = append(cells, cell)
	}
	sort.Ints(cells)

	report := &domain.UncertaintyReport{
		Window:    a.window,
		Levels:    a.levels,
		Tolerance: a.tolerance,
		Cells:     make([]domain.CellUncertainty, 0, len(cells)),
		Failures:  failures,
		Verdict:   domain.CategoryExcellent,
	}
	for _, cell := range cells {
		analysis, err := a.AnalyzeCell(ctx, cell, byCell[cell])
		if err != nil {
			return nil, err
		}
		report.Cells = append(report.Cells, *analysis)
		report.Verdict = worseOf(report.Verdict, analysis.Category)
	}

	a.logger.InfoContext(ctx, "uncertainty report built",
		slog.Int("cells", len(report.Cells)),
		slog.Int("fit_failures", len(report.Failures)),
		slog.String("verdict", string(report.Verdict)),
	)

	return report, nil
}
