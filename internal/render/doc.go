// Package render draws z-height vs torque charts as print-resolution PNGs.
//
// A trial renders as one panel: each cell's measurements inside the torque
// window as a colored point series, the fitted line dashed across the cell's
// z span, and the fit equation at the line end. Single-trial runs save one
// panel per file; multi-trial runs tile the panels into a two-column grid
// under a shared headline. The torque axis is pinned to the window so charts
// from different trials compare directly.
package render
