package domain

import (
	"fmt"
)

// CellCount is the number of torque sensors recorded per trial.
const CellCount = 6

// MeasurementTable holds one trial's z-height vs torque series for all cells.
// Z-heights are sign-normalized to positive magnitudes at load time.
type MeasurementTable struct {
	Trial       string               `json:"trial" validate:"required"`
	TrialNumber int                  `json:"trial_number" validate:"min=1"`
	SourceFile  string               `json:"source_file,omitempty"`
	Sheet       string               `json:"sheet,omitempty"`
	ZHeights    []float64            `json:"z_heights"`
	Torques     [CellCount][]float64 `json:"torques"`
}

// Rows returns the number of measurement rows in the table.
func (t *MeasurementTable) Rows() int {
	return len(t.ZHeights)
}

// Series returns the aligned (z, torque) pair for one cell (1-based).
func (t *MeasurementTable) Series(cell int) ([]float64, []float64, error) {
	if cell < 1 || cell > CellCount {
		return nil, nil, fmt.Errorf("cell %d out of range 1..%d", cell, CellCount)
	}
	return t.ZHeights, t.Torques[cell-1], nil
}

// TorqueWindow is the inclusive torque range used to subset rows before fitting.
type TorqueWindow struct {
	Min float64 `json:"min" yaml:"min" validate:"min=0"`
	Max float64 `json:"max" yaml:"max" validate:"min=0"`
}

// IsValid reports whether the window bounds are ordered.
func (w TorqueWindow) IsValid() bool {
	return w.Min < w.Max
}

// Contains reports whether v lies within the window, bounds inclusive.
func (w TorqueWindow) Contains(v float64) bool {
	return v >= w.Min && v <= w.Max
}

// String returns the window in interval notation.
func (w TorqueWindow) String() string {
	return fmt.Sprintf("[%g, %g]", w.Min, w.Max)
}

// FitResult is the ordinary least squares fit for one (trial, cell) pair.
type FitResult struct {
	Trial       string  `json:"trial"`
	TrialNumber int     `json:"trial_number"`
	Cell        int     `json:"cell" validate:"min=1,max=6"`
	Slope       float64 `json:"slope"`
	Intercept   float64 `json:"intercept"`
	RSquared    float64 `json:"r_squared"`
	Points      int     `json:"points"`
}

// Equation formats the fitted line the way reports annotate it.
func (f FitResult) Equation() string {
	return fmt.Sprintf("y = %.3fx + %.3f (R² = %.3f)", f.Slope, f.Intercept, f.RSquared)
}

// FitFailure records a (trial, cell) pair that could not be fitted and why.
type FitFailure struct {
	Trial  string `json:"trial"`
	Cell   int    `json:"cell"`
	Reason string `json:"reason"`
}

// PerformanceCategory labels a cell's positioning sensitivity.
type PerformanceCategory string

const (
	CategoryExcellent      PerformanceCategory = "EXCELLENT"
	CategoryGood           PerformanceCategory = "GOOD"
	CategoryAcceptable     PerformanceCategory = "ACCEPTABLE"
	CategoryNeedsAttention PerformanceCategory = "NEEDS ATTENTION"
)

// TrialZ is one trial's back-solved probe position at a torque level.
type TrialZ struct {
	Trial int     `json:"trial"`
	Z     float64 `json:"z_mm"`
}

// UncertaintyRow summarizes cross-trial probe positions at one torque level.
// Uncertainty is the steepest-slope propagation of the observed z range,
// in percentage points of torque.
type UncertaintyRow struct {
	TorqueLevel float64  `json:"torque_level"`
	Positions   []TrialZ `json:"positions"`
	MinZ        float64  `json:"min_z_mm"`
	MaxZ        float64  `json:"max_z_mm"`
	RangeZ      float64  `json:"range_z_mm"`
	Uncertainty float64  `json:"uncertainty_pct"`
}

// CellUncertainty is the full positioning-uncertainty analysis for one cell.
type CellUncertainty struct {
	Cell                 int                 `json:"cell" validate:"min=1,max=6"`
	SteepestSlope        float64             `json:"steepest_slope"`
	SteepestTrial        int                 `json:"steepest_trial"`
	Rows                 []UncertaintyRow    `json:"rows"`
	WorstUncertainty     float64             `json:"worst_uncertainty_pct"`
	WorstLevel           float64             `json:"worst_level"`
	ToleranceUncertainty float64             `json:"tolerance_uncertainty_pct"`
	Category             PerformanceCategory `json:"category"`
	TrialsUsed           int                 `json:"trials_used"`
}

// UncertaintyReport aggregates the per-cell analyses for one run.
type UncertaintyReport struct {
	Window    TorqueWindow        `json:"window"`
	Levels    []float64           `json:"levels"`
	Tolerance float64             `json:"tolerance_mm"`
	Cells     []CellUncertainty   `json:"cells"`
	Failures  []FitFailure        `json:"failures,omitempty"`
	Verdict   PerformanceCategory `json:"verdict"`
}
