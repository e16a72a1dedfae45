package exporter

import (
	"fmt"
	"math"
)

// formatMM formats a z position in millimeters for report output with
// exactly 3 decimal places, matching the solver's rounding. NaN becomes an
// empty field.
func formatMM(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return fmt.Sprintf("%.3f", v)
}

// formatCoefficient formats a slope or intercept for report output
func formatCoefficient(v float64) string {
	return fmt.Sprintf("%.3f", v)
}

// formatUncertainty formats a propagated torque uncertainty as a
// plus-or-minus percentage. NaN becomes an empty field.
func formatUncertainty(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return fmt.Sprintf("±%.1f", v)
}

// formatTorqueLevel formats a probe torque level, which is always a whole
// percentage in practice
func formatTorqueLevel(v float64) string {
	return fmt.Sprintf("%.0f", v)
}

// formatPct formats a raw percentage value for machine-readable CSV output.
// NaN becomes an empty field.
func formatPct(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return fmt.Sprintf("%.3f", v)
}

// formatInt formats an int value for CSV output
func formatInt(i int) string {
	return fmt.Sprintf("%d", i)
}
