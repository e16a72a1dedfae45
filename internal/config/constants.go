package config

// Application constants for the rheo analysis suite
const (
	// Application Info
	AppName    = "Rheo Analysis Suite"
	AppVersion = "1.2.0"

	// Default analysis parameters. Torque values are percent of full scale;
	// lengths are millimeters.
	DefaultWindowMin            = 42.0
	DefaultWindowMax            = 57.0
	DefaultPositioningTolerance = 0.05
	DefaultThresholdExcellent   = 5.0
	DefaultThresholdGood        = 10.0
	DefaultThresholdAcceptable  = 20.0

	// Input defaults
	DefaultWorkbookName     = "RawData.xlsx"
	DefaultTrialCount       = 4
	DefaultTrialSheetPrefix = "Trial "
	DefaultTrialFilePattern = "Trial%d.xlsx"

	// File paths (relative to executable)
	DefaultDataDir    = "data"
	DefaultPlotsDir   = "plots"
	DefaultReportsDir = "reports"
	DefaultLogsDir    = "logs"

	// Log settings
	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"

	// Column headers expected in trial workbooks
	ZHeightColumn      = "Z-Height"
	TorqueColumnFormat = "Cell_%d_Torque"
)

// DefaultTorqueLevels returns the probe levels used for uncertainty
// reports when none are configured.
func DefaultTorqueLevels() []float64 {
	return []float64{42, 45, 48, 51, 54, 57}
}
