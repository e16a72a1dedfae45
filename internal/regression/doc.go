// Package regression holds the fitting core shared by the analysis
// binaries: the inclusive torque window filter and the ordinary least
// squares fit of torque against z-height, run per (trial, cell) pair.
//
// The pipeline is always filter first, fit second. FilterWindow drops NaN
// rows and rows outside the configured torque window; Fit refuses
// degenerate input (fewer than two points, zero variance in either
// series) with a typed fit error so a bad pair is reported and skipped,
// never silently turned into a meaningless line.
//
// Slope, intercept and R² come from gonum's stat.LinearRegression and
// stat.RSquared. For well-posed input the fitted line passes through
// (mean(z), mean(torque)) and 0 ≤ R² ≤ 1, with R² = 1 exactly for
// collinear data.
package regression
