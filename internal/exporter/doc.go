// Package exporter writes analysis results to CSV files and Excel workbooks.
//
// This package contains three main components:
//
// CSVWriter: Core CSV writing functionality with support for headers,
// appending, and UTF-8 BOM for Excel compatibility. Relative paths resolve
// against the application directories, defaulting to reports.
//
// FitExporter: Writes the per-(trial, cell) regression results as a flat
// CSV and as a styled cells-by-trials equations workbook.
//
// UncertaintyExporter: Writes the positioning-uncertainty report as a flat
// CSV and as a workbook with a verdict summary sheet plus one detail sheet
// per cell.
//
// Example usage:
//
//	fitExporter := exporter.NewFitExporter(paths, logger)
//	if err := fitExporter.WriteFitSummaryCSV(ctx, fits, failures, "fit_summary.csv"); err != nil {
//		return err
//	}
//	if err := fitExporter.WriteEquationsWorkbook(ctx, trials, fits, "trial_equations.xlsx"); err != nil {
//		return err
//	}
package exporter
