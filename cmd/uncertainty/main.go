package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"math"
	"os"
	"strconv"
	"strings"

	"rheocli/internal/config"
	"rheocli/internal/dataprocessing"
	"rheocli/internal/exporter"
	"rheocli/internal/infrastructure"
	"rheocli/internal/regression"
	"rheocli/internal/uncertainty"
	"rheocli/internal/validation"
	"rheocli/pkg/contracts"
	"rheocli/pkg/contracts/domain"
)

func main() {
	cell := flag.Int("cell", 1, "measurement cell to analyze (1-6)")
	levels := flag.String("levels", "", "comma-separated torque probe levels in percent (defaults to the configured levels)")
	tolerance := flag.Float64("tolerance", 0, "z-positioning tolerance in mm (defaults to the configured tolerance)")
	inDir := flag.String("in", "", "input directory with trial workbooks (defaults to data/ next to the executable)")
	trials := flag.Int("trials", 0, "number of trials to load (defaults to the configured trial count)")
	showVersion := flag.Bool("version", false, "print version information and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(contracts.GetFullVersionString())
		return
	}

	// Initialize paths first to get default directories
	paths, err := config.GetPaths()
	if err != nil {
		slog.Error("Failed to initialize paths", "error", err)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Invalid configuration", "error", err)
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if *trials > 0 {
		cfg.Input.TrialCount = *trials
	}
	if *tolerance > 0 {
		cfg.Analysis.PositioningTolerance = *tolerance
	}
	if *levels != "" {
		parsed, perr := parseLevels(*levels)
		if perr != nil {
			slog.Error("Invalid torque levels", "error", perr)
			fmt.Fprintf(os.Stderr, "Error: %v\n", perr)
			os.Exit(1)
		}
		window := cfg.Analysis.Window()
		for _, level := range parsed {
			if !window.Contains(level) {
				slog.Error("Torque level outside window",
					"level", level, "window", window.String())
				fmt.Fprintf(os.Stderr, "Error: torque level %g outside window %s\n", level, window)
				os.Exit(1)
			}
		}
		cfg.Analysis.TorqueLevels = parsed
	}

	if *cell < 1 || *cell > domain.CellCount {
		slog.Error("Cell out of range", "cell", *cell)
		fmt.Fprintf(os.Stderr, "Error: cell %d out of range 1-%d\n", *cell, domain.CellCount)
		os.Exit(1)
	}

	if err := paths.EnsureDirectories(); err != nil {
		slog.Error("Failed to create required directories", "error", err)
		os.Exit(1)
	}

	if cfg.Logging.FilePath == "" || cfg.Logging.FilePath == "logs/app.log" {
		cfg.Logging.FilePath = paths.GetLogPath("uncertainty.log")
	}
	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Warn("Failed to initialize logger, using default", "error", err)
		logger = slog.Default()
	}
	defer infrastructure.CloseLogFile()

	ctx := infrastructure.EnsureTraceID(context.Background())

	var providers *infrastructure.OTelProviders
	if cfg.Telemetry.Enabled {
		providers, err = infrastructure.InitializeOTel(infrastructure.OTelConfigFromApp(cfg.Telemetry), logger)
		if err != nil {
			logger.WarnContext(ctx, "Failed to initialize telemetry, continuing without",
				slog.String("error", err.Error()))
			providers = nil
		}
	}

	dataDir := *inDir
	if dataDir == "" {
		dataDir = paths.DataDir
	}

	logger.InfoContext(ctx, "Starting cell uncertainty analysis",
		slog.Int("cell", *cell),
		slog.String("data_dir", dataDir))

	validator := validation.NewFileValidator(logger)
	if err := validator.ValidateInputDirectory(dataDir, "*.xlsx"); err != nil {
		logger.ErrorContext(ctx, "Input directory not usable", slog.String("error", err.Error()))
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := validator.ValidateOutputDirectory(paths.ReportsDir); err != nil {
		logger.ErrorContext(ctx, "Reports directory not usable", slog.String("error", err.Error()))
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(strings.Repeat("=", 70))
	fmt.Printf("CELL %d: Z-HEIGHT TO TORQUE UNCERTAINTY ANALYSIS\n", *cell)
	fmt.Println(strings.Repeat("=", 70))

	loader := dataprocessing.NewLoader(logger)
	loadCtx, loadSpan := providers.StartSpan(ctx, "uncertainty.load")
	tables, err := loader.LoadTrialSet(loadCtx, cfg.Input, dataDir)
	loadSpan.End()
	if err != nil {
		logger.ErrorContext(ctx, "Failed to load trial set", slog.String("error", err.Error()))
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Found %d trials\n", len(tables))

	window := cfg.Analysis.Window()
	fitter := regression.NewFitter(logger, window)
	fitCtx, fitSpan := providers.StartSpan(ctx, "uncertainty.fit")
	fits, failures := fitter.FitAll(fitCtx, tables)
	fitSpan.End()

	analyzer := uncertainty.NewAnalyzer(logger, cfg.Analysis)
	analyzeCtx, analyzeSpan := providers.StartSpan(ctx, "uncertainty.analyze")
	result, err := analyzer.AnalyzeCell(analyzeCtx, *cell, fits)
	analyzeSpan.End()
	if err != nil {
		logger.ErrorContext(ctx, "Uncertainty analysis failed",
			slog.Int("cell", *cell),
			slog.String("error", err.Error()))
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	printCellSummary(result, cfg.Analysis.PositioningTolerance)

	report := &domain.UncertaintyReport{
		Window:    window,
		Levels:    analyzer.Levels(),
		Tolerance: cfg.Analysis.PositioningTolerance,
		Cells:     []domain.CellUncertainty{*result},
		Failures:  failuresForCell(failures, *cell),
		Verdict:   result.Category,
	}

	reportCtx, reportSpan := providers.StartSpan(ctx, "uncertainty.report")
	uncExporter := exporter.NewUncertaintyExporter(paths, logger)

	workbookPath := paths.GetReportPath(fmt.Sprintf("cell_%d_uncertainty.xlsx", *cell))
	csvPath := paths.GetReportPath(fmt.Sprintf("cell_%d_uncertainty.csv", *cell))

	sinks, failedSinks := 0, 0

	sinks++
	if err := uncExporter.WriteUncertaintyWorkbook(reportCtx, report, workbookPath); err != nil {
		failedSinks++
		logger.ErrorContext(reportCtx, "Failed to write uncertainty workbook", slog.String("error", err.Error()))
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	} else {
		fmt.Printf("\nSaved uncertainty workbook: %s\n", workbookPath)
	}

	sinks++
	if err := uncExporter.WriteUncertaintyCSV(reportCtx, report, csvPath); err != nil {
		failedSinks++
		logger.ErrorContext(reportCtx, "Failed to write uncertainty summary", slog.String("error", err.Error()))
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	} else {
		fmt.Printf("Saved uncertainty summary: %s\n", csvPath)
	}
	reportSpan.End()

	logger.InfoContext(ctx, "Cell uncertainty analysis complete",
		slog.Int("cell", *cell),
		slog.Int("trials_used", result.TrialsUsed),
		slog.String("category", string(result.Category)))

	if err := providers.Shutdown(ctx); err != nil {
		logger.WarnContext(ctx, "Telemetry shutdown failed", slog.String("error", err.Error()))
	}

	if failedSinks == sinks {
		fmt.Fprintln(os.Stderr, "Error: all outputs failed")
		os.Exit(1)
	}
}

// printCellSummary reports one cell's spread per torque level, the
// steepest-slope conversion, and the verdict.
func printCellSummary(result *domain.CellUncertainty, tolerance float64) {
	fmt.Printf("Trials with a valid fit: %d\n", result.TrialsUsed)
	fmt.Printf("Most sensitive trial: Trial %d (slope = %.1f)\n", result.SteepestTrial, result.SteepestSlope)

	fmt.Println("\nZ-position spread at each torque level:")
	for _, row := range result.Rows {
		if len(row.Positions) == 0 {
			fmt.Printf("  %3.0f%% torque: no back-solved positions\n", row.TorqueLevel)
			continue
		}
		fmt.Printf("  %3.0f%% torque: z range %.3f mm [%s]\n",
			row.TorqueLevel, row.RangeZ, spreadLabel(row.RangeZ))
	}

	fmt.Println()
	if result.TrialsUsed >= 2 && !math.IsNaN(result.WorstUncertainty) {
		fmt.Printf("Worst propagated uncertainty: ±%.1f%% at %.0f%% torque\n",
			result.WorstUncertainty, result.WorstLevel)
	} else {
		fmt.Println("Cross-trial spread unavailable (single trial)")
	}
	fmt.Printf("Uncertainty at ±%.3f mm positioning tolerance: ±%.3f%%\n",
		tolerance, result.ToleranceUncertainty)
	fmt.Printf("Performance: %s\n", result.Category)
}

// parseLevels parses a comma-separated list of torque levels.
func parseLevels(raw string) ([]float64, error) {
	parts := strings.Split(raw, ",")
	levels := make([]float64, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		v, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid torque level %q", trimmed)
		}
		levels = append(levels, v)
	}
	if len(levels) == 0 {
		return nil, fmt.Errorf("no torque levels in %q", raw)
	}
	return levels, nil
}

// spreadLabel grades a cross-trial z range in mm for the console summary.
func spreadLabel(rangeZ float64) string {
	switch {
	case math.IsNaN(rangeZ):
		return "N/A"
	case rangeZ < 0.2:
		return "LOW"
	case rangeZ < 0.5:
		return "MEDIUM"
	default:
		return "HIGH"
	}
}

// failuresForCell keeps only the fit failures belonging to one cell.
func failuresForCell(failures []domain.FitFailure, cell int) []domain.FitFailure {
	var kept []domain.FitFailure
	for _, failure := range failures {
		if failure.Cell == cell {
			kept = append(kept, failure)
		}
	}
	return kept
}
