// Package files provides workbook discovery utilities for the rheometer
// analysis suite.
//
// Discovery locates measurement workbooks in the data directory: either
// every Excel file (sorted by name for deterministic iteration) or the
// numbered trial series resolved from a Sprintf-style pattern such as
// "Trial%d.xlsx".
//
// Example usage:
//
//	discovery := files.NewDiscovery("/path/to/base")
//
//	// Find the numbered trial workbooks
//	trials, err := discovery.FindTrialWorkbooks("data", "Trial%d.xlsx")
//
//	// Or list every workbook in the data directory
//	workbooks, err := discovery.FindExcelFiles("data")
package files
