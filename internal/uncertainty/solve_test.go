package uncertainty

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"rheocli/internal/config"
	"rheocli/pkg/contracts/domain"
)

func defaultThresholds() config.ThresholdConfig {
	return config.ThresholdConfig{
		Excellent:  config.DefaultThresholdExcellent,
		Good:       config.DefaultThresholdGood,
		Acceptable: config.DefaultThresholdAcceptable,
	}
}

func TestSolveZ(t *testing.T) {
	tests := []struct {
		name   string
		fit    domain.FitResult
		torque float64
		want   float64
	}{
		{
			name:   "exact division",
			fit:    domain.FitResult{Slope: 2, Intercept: 40},
			torque: 50,
			want:   5.0,
		},
		{
			name:   "rounds to three decimals",
			fit:    domain.FitResult{Slope: 3, Intercept: 0},
			torque: 10,
			want:   3.333,
		},
		{
			name:   "negative slope",
			fit:    domain.FitResult{Slope: -2, Intercept: 60},
			torque: 50,
			want:   5.0,
		},
		{
			name:   "negative position survives",
			fit:    domain.FitResult{Slope: 2, Intercept: 50},
			torque: 45,
			want:   -2.5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SolveZ(tt.fit, tt.torque)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestSolveZ_ZeroSlope(t *testing.T) {
	got := SolveZ(domain.FitResult{Slope: 0, Intercept: 45}, 50)
	assert.True(t, math.IsNaN(got))
}

func TestPropagate(t *testing.T) {
	assert.InDelta(t, 0.3, Propagate(3.0, 0.1), 1e-9)
	assert.InDelta(t, 0.3, Propagate(-3.0, 0.1), 1e-9, "slope sign must not matter")
	assert.InDelta(t, 0.0, Propagate(3.0, 0), 1e-9)
}

func TestClassify_Boundaries(t *testing.T) {
	thresholds := defaultThresholds()

	tests := []struct {
		uncertainty float64
		want        domain.PerformanceCategory
	}{
		{0, domain.CategoryExcellent},
		{4.999, domain.CategoryExcellent},
		{5, domain.CategoryGood},
		{9.999, domain.CategoryGood},
		{10, domain.CategoryAcceptable},
		{19.999, domain.CategoryAcceptable},
		{20, domain.CategoryNeedsAttention},
		{100, domain.CategoryNeedsAttention},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Classify(tt.uncertainty, thresholds),
			"uncertainty %.3f", tt.uncertainty)
	}
}

func TestClassify_Monotonic(t *testing.T) {
	thresholds := defaultThresholds()

	prev := -1
	for u := 0.0; u <= 25.0; u += 0.5 {
		rank := categoryRank[Classify(u, thresholds)]
		assert.GreaterOrEqual(t, rank, prev, "category must not improve as uncertainty grows")
		prev = rank
	}
}

func TestWorseOf(t *testing.T) {
	assert.Equal(t, domain.CategoryGood, worseOf(domain.CategoryExcellent, domain.CategoryGood))
	assert.Equal(t, domain.CategoryNeedsAttention, worseOf(domain.CategoryNeedsAttention, domain.CategoryAcceptable))
	assert.Equal(t, domain.CategoryExcellent, worseOf(domain.CategoryExcellent, domain.CategoryExcellent))
}
