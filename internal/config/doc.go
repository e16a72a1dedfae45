// Package config provides centralized configuration management for the rheo
// analysis suite. It handles loading configuration from multiple sources,
// validation, and provides a type-safe API for accessing configuration values
// throughout the four analysis binaries.
//
// # Configuration Sources
//
// Configuration is loaded from the following sources in order of precedence:
//
//	1. Environment variables (highest priority)
//	2. Configuration file (config.yaml)
//	3. Default values (lowest priority)
//
// # Environment Variables
//
// All environment variables follow the pattern RHEO_* for namespacing:
//
//	RHEO_ANALYSIS_WINDOW_MIN=42
//	RHEO_ANALYSIS_WINDOW_MAX=57
//	RHEO_ANALYSIS_TORQUE_LEVELS=42,45,48,51,54,57
//	RHEO_ANALYSIS_POSITIONING_TOLERANCE=0.05
//	RHEO_INPUT_WORKBOOK=RawData.xlsx
//	RHEO_LOGGING_LEVEL=info
//
// # Defaults
//
// The documented defaults live in Default() and the constants of this
// package: torque window [42, 57], probe levels 42..57 in steps of 3,
// positioning tolerance 0.05 mm, and category thresholds 5/10/20
// percentage points.
//
// # Path Management
//
// The package provides centralized path management through the Paths type,
// which handles all file system paths relative to the executable location:
//
//	paths, err := config.GetPaths()
//	workbook := paths.GetDataPath("Trial1.xlsx")
//	chart := paths.GetPlotPath("curvefit_cells.png")
//
// # Validation
//
// All configuration is validated at load time: the torque window must be
// ordered, probe levels must fall inside the window, thresholds must be
// strictly increasing, and the positioning tolerance must be positive.
//
// # Usage
//
// Load configuration at binary startup:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
package config
