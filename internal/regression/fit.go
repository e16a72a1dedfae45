package regression

import (
	"fmt"

	"gonum.org/v1/gonum/stat"

	"rheocli/internal/errors"
)

// Fit computes the ordinary least squares line y = slope*x + intercept
// for paired series of equal length, with R² = 1 − SSR/SST. Inputs must
// be NaN-free; FilterWindow guarantees that for measurement series.
//
// Degenerate inputs fail explicitly instead of producing a silent line:
// fewer than 2 points, zero x-variance (slope undefined), or constant y
// (R² undefined).
func Fit(x, y []float64) (slope, intercept, rsquared float64, err error) {
	if len(x) != len(y) {
		return 0, 0, 0, errors.NewFitError(
			fmt.Sprintf("mismatched series lengths: %d vs %d", len(x), len(y)), nil)
	}
	if len(x) < 2 {
		return 0, 0, 0, errors.NewFitError(
			fmt.Sprintf("insufficient data: %d points in range, need at least 2", len(x)), nil)
	}
	if stat.Variance(x, nil) == 0 {
		return 0, 0, 0, errors.NewFitError("zero variance in z-heights, slope undefined", nil)
	}
	if stat.Variance(y, nil) == 0 {
		return 0, 0, 0, errors.NewFitError("constant torque, R² undefined", nil)
	}

	intercept, slope = stat.LinearRegression(x, y, nil, false)
	rsquared = stat.RSquared(x, y, nil, intercept, slope)
	return slope, intercept, rsquared, nil
}
