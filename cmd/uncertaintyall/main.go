package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"math"
	"os"
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
	inDir := flag.String("in", "", "input directory with trial workbooks (defaults to data/ next to the executable)")
	tolerance := flag.Float64("tolerance", 0, "z-positioning tolerance in mm (defaults to the configured tolerance)")
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

	if err := paths.EnsureDirectories(); err != nil {
		slog.Error("Failed to create required directories", "error", err)
		os.Exit(1)
	}

	if cfg.Logging.FilePath == "" || cfg.Logging.FilePath == "logs/app.log" {
		cfg.Logging.FilePath = paths.GetLogPath("uncertaintyall.log")
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

	logger.InfoContext(ctx, "Starting uncertainty analysis",
		slog.String("data_dir", dataDir),
		slog.Float64("tolerance_mm", cfg.Analysis.PositioningTolerance))

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

	loader := dataprocessing.NewLoader(logger)
	loadCtx, loadSpan := providers.StartSpan(ctx, "uncertaintyall.load")
	tables, err := loader.LoadTrialSet(loadCtx, cfg.Input, dataDir)
	loadSpan.End()
	if err != nil {
		logger.ErrorContext(ctx, "Failed to load trial set", slog.String("error", err.Error()))
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	window := cfg.Analysis.Window()
	fitter := regression.NewFitter(logger, window)
	fitCtx, fitSpan := providers.StartSpan(ctx, "uncertaintyall.fit")
	fits, failures := fitter.FitAll(fitCtx, tables)
	fitSpan.End()

	analyzer := uncertainty.NewAnalyzer(logger, cfg.Analysis)
	analyzeCtx, analyzeSpan := providers.StartSpan(ctx, "uncertaintyall.analyze")
	report, err := analyzer.BuildReport(analyzeCtx, fits, failures)
	analyzeSpan.End()
	if err != nil {
		logger.ErrorContext(ctx, "Uncertainty analysis failed", slog.String("error", err.Error()))
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	printReport(report, len(tables))

	reportCtx, reportSpan := providers.StartSpan(ctx, "uncertaintyall.report")
	uncExporter := exporter.NewUncertaintyExporter(paths, logger)

	sinks, failedSinks := 0, 0

	sinks++
	if err := uncExporter.WriteUncertaintyWorkbook(reportCtx, report, paths.UncertaintyXLSX); err != nil {
		failedSinks++
		logger.ErrorContext(reportCtx, "Failed to write uncertainty workbook", slog.String("error", err.Error()))
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	} else {
		fmt.Printf("Saved uncertainty workbook: %s\n", paths.UncertaintyXLSX)
	}

	sinks++
	if err := uncExporter.WriteUncertaintyCSV(reportCtx, report, paths.UncertaintyCSV); err != nil {
		failedSinks++
		logger.ErrorContext(reportCtx, "Failed to write uncertainty summary", slog.String("error", err.Error()))
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	} else {
		fmt.Printf("Saved uncertainty summary: %s\n", paths.UncertaintyCSV)
	}
	reportSpan.End()

	logger.InfoContext(ctx, "Uncertainty analysis complete",
		slog.Int("cells", len(report.Cells)),
		slog.Int("failures", len(report.Failures)),
		slog.String("verdict", string(report.Verdict)))

	if err := providers.Shutdown(ctx); err != nil {
		logger.WarnContext(ctx, "Telemetry shutdown failed", slog.String("error", err.Error()))
	}

	if failedSinks == sinks {
		fmt.Fprintln(os.Stderr, "Error: all outputs failed")
		os.Exit(1)
	}
}

// printReport writes the per-cell verdicts and the overall verdict to the
// console.
func printReport(report *domain.UncertaintyReport, trialCount int) {
	fmt.Println(strings.Repeat("=", 70))
	fmt.Println("UNCERTAINTY ANALYSIS FOR RHEOMETER MEASUREMENTS")
	fmt.Println(strings.Repeat("=", 70))
	fmt.Printf("Trials: %d  |  Torque window: %g-%g%%  |  Probe levels: %s\n",
		trialCount, report.Window.Min, report.Window.Max, formatLevels(report.Levels))
	fmt.Printf("Z-positioning tolerance: ±%.3f mm\n", report.Tolerance)

	for _, cell := range report.Cells {
		fmt.Printf("\nCell %d:\n", cell.Cell)
		fmt.Printf("  Most sensitive trial: Trial %d (slope = %.1f)\n",
			cell.SteepestTrial, cell.SteepestSlope)

		if minU, maxU, avgU, n := rowStats(cell.Rows); n > 0 && cell.TrialsUsed >= 2 {
			fmt.Printf("  Max uncertainty: ±%.1f%% at %.0f%% torque\n", maxU, cell.WorstLevel)
			fmt.Printf("  Min uncertainty: ±%.1f%%\n", minU)
			fmt.Printf("  Avg uncertainty: ±%.1f%%\n", avgU)
		} else {
			fmt.Println("  Cross-trial spread unavailable (single trial)")
		}
		fmt.Printf("  Tolerance-based uncertainty: ±%.3f%%\n", cell.ToleranceUncertainty)
		fmt.Printf("  Performance: %s\n", cell.Category)
	}

	if len(report.Failures) > 0 {
		fmt.Printf("\nSkipped (trial, cell) pairs: %d\n", len(report.Failures))
		for _, failure := range report.Failures {
			fmt.Printf("  %s Cell %d: %s\n", failure.Trial, failure.Cell, failure.Reason)
		}
	}

	fmt.Println("\n" + strings.Repeat("=", 70))
	fmt.Printf("Overall performance: %s\n", report.Verdict)
	fmt.Println(strings.Repeat("=", 70))
}

// rowStats summarizes the propagated uncertainty across a cell's levels,
// ignoring levels with no cross-trial value.
func rowStats(rows []domain.UncertaintyRow) (minU, maxU, avgU float64, n int) {
	minU = math.Inf(1)
	maxU = math.Inf(-1)
	var sum float64
	for _, row := range rows {
		if math.IsNaN(row.Uncertainty) {
			continue
		}
		minU = math.Min(minU, row.Uncertainty)
		maxU = math.Max(maxU, row.Uncertainty)
		sum += row.Uncertainty
		n++
	}
	if n == 0 {
		return 0, 0, 0, 0
	}
	return minU, maxU, sum / float64(n), n
}

// formatLevels renders the probe levels compactly for the console header.
func formatLevels(levels []float64) string {
	parts := make([]string, 0, len(levels))
	for _, level := range levels {
		parts = append(parts, fmt.Sprintf("%g", level))
	}
	return strings.Join(parts, ", ")
}
