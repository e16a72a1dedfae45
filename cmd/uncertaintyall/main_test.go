package main

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"rheocli/pkg/contracts/domain"
)

func TestRowStats(t *testing.T) {
	t.Run("normal rows", func(t *testing.T) {
		rows := []domain.UncertaintyRow{
			{TorqueLevel: 45, Uncertainty: 0.5},
			{TorqueLevel: 48, Uncertainty: 2.0},
			{TorqueLevel: 51, Uncertainty: 3.5},
		}

		minU, maxU, avgU, n := rowStats(rows)

		assert.Equal(t, 3, n)
		assert.InDelta(t, 0.5, minU, 1e-9)
		assert.InDelta(t, 3.5, maxU, 1e-9)
		assert.InDelta(t, 2.0, avgU, 1e-9)
	})

	t.Run("skips levels without a cross-trial value", func(t *testing.T) {
		rows := []domain.UncertaintyRow{
			{TorqueLevel: 45, Uncertainty: 1.0},
			{TorqueLevel: 48, Uncertainty: math.NaN()},
			{TorqueLevel: 51, Uncertainty: 3.0},
		}

		minU, maxU, avgU, n := rowStats(rows)

		assert.Equal(t, 2, n)
		assert.InDelta(t, 1.0, minU, 1e-9)
		assert.InDelta(t, 3.0, maxU, 1e-9)
		assert.InDelta(t, 2.0, avgU, 1e-9)
	})

	t.Run("no rows", func(t *testing.T) {
		minU, maxU, avgU, n := rowStats(nil)

		assert.Equal(t, 0, n)
		assert.Zero(t, minU)
		assert.Zero(t, maxU)
		assert.Zero(t, avgU)
	})
}

func TestFormatLevels(t *testing.T) {
	assert.Equal(t, "42, 45, 48, 51, 54, 57", formatLevels([]float64{42, 45, 48, 51, 54, 57}))
	assert.Equal(t, "45.5", formatLevels([]float64{45.5}))
	assert.Equal(t, "", formatLevels(nil))
}
