// Package dataprocessing loads rheometer measurement workbooks into the
// domain tables the analysis binaries consume. It is the single ingestion
// path for the suite: every binary reads spreadsheets through the same
// Loader instead of carrying its own parsing code.
//
// # Input format
//
// A measurement sheet carries a header row with the column Z-Height and
// the six torque columns Cell_1_Torque through Cell_6_Torque. The header
// row does not have to be the first row; the loader scans the leading rows
// for it and maps columns by name, tolerating stray spaces and case
// differences. Missing required columns fail the load with a parsing
// error.
//
// Numeric cells are parsed tolerantly: trimmed, thousands separators
// stripped. Blank or non-numeric cells become NaN and are dropped later by
// the torque range filter. Raw z-heights are sign-normalized to positive
// magnitudes at load time (the instrument records probe descent as
// negative positions).
//
// # Trial sets
//
// Trials arrive in one of two layouts:
//
//   - one workbook per trial, named by a numbered pattern such as
//     Trial1.xlsx, Trial2.xlsx, ... in the data directory;
//   - one combined workbook with per-trial sheets Trial 1, Trial 2, ...
//
// LoadTrialSet prefers the per-file layout and falls back to the combined
// workbook. Trials missing from the series are skipped with a warning; the
// set fails only when nothing loads.
//
// # Usage
//
//	loader := dataprocessing.NewLoader(logger)
//
//	// One trial
//	table, err := loader.LoadTrial(ctx, cfg.Input, paths.DataDir, 1)
//
//	// The whole series
//	tables, err := loader.LoadTrialSet(ctx, cfg.Input, paths.DataDir)
package dataprocessing
