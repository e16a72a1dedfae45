package uncertainty

import (
	"math"

	"rheocli/internal/config"
	"rheocli/pkg/contracts/domain"
)

// SolveZ back-solves the probe z position at which a fitted cell reads the
// given torque, rounded to micrometer precision. Returns NaN when the fit
// cannot be inverted.
func SolveZ(fit domain.FitResult, torque float64) float64 {
	if fit.Slope == 0 {
		return math.NaN()
	}
	z := (torque - fit.Intercept) / fit.Slope
	if math.IsInf(z, 0) || math.IsNaN(z) {
		return math.NaN()
	}
	return round3(z)
}

// Propagate converts a z displacement into torque percentage points using
// the given slope. The slope sign is irrelevant to the magnitude.
func Propagate(slope, deltaZ float64) float64 {
	return math.Abs(slope) * deltaZ
}

// Classify maps a propagated uncertainty to its performance category using
// strict upper bounds, so a value equal to a cutoff lands in the next band.
func Classify(uncertainty float64, thresholds config.ThresholdConfig) domain.PerformanceCategory {
	switch {
	case uncertainty < thresholds.Excellent:
		return domain.CategoryExcellent
	case uncertainty < thresholds.Good:
		return domain.CategoryGood
	case uncertainty < thresholds.Acceptable:
		return domain.CategoryAcceptable
	default:
		return domain.CategoryNeedsAttention
	}
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}

var categoryRank = map[domain.PerformanceCategory]int{
	domain.CategoryExcellent:      0,
	domain.CategoryGood:           1,
	domain.CategoryAcceptable:     2,
	domain.CategoryNeedsAttention: 3,
}

// worseOf returns the lower-performing of two categories.
func worseOf(a, b domain.PerformanceCategory) domain.PerformanceCategory {
	if categoryRank[b] > categoryRank[a] {
		return b
	}
	return a
}
