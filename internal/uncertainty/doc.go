// Package uncertainty quantifies how z-positioning error shows up in the
// torque a cell reports.
//
// Each trial's linear fit is inverted to find the probe position that
// produces a given torque level. Comparing those positions across trials
// yields a z range per level, and multiplying the range by the steepest
// slope among the trials converts it into torque percentage points, the
// worst-case misread an operator would see at that level. Cells are then
// binned into performance categories by configurable cutoffs.
//
// When only one trial is available there is no cross-trial spread, so the
// category is taken from the instrument's z repeatability tolerance instead.
package uncertainty
