package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"rheocli/internal/config"
	"rheocli/internal/dataprocessing"
	"rheocli/internal/exporter"
	"rheocli/internal/infrastructure"
	"rheocli/internal/regression"
	"rheocli/internal/render"
	"rheocli/internal/validation"
	"rheocli/pkg/contracts"
	"rheocli/pkg/contracts/domain"
)

func main() {
	inDir := flag.String("in", "", "input directory with trial workbooks (defaults to data/ next to the executable)")
	trials := flag.Int("trials", 0, "number of trials to load (defaults to the configured trial count)")
	out := flag.String("out", "", "output path for the tiled chart PNG (defaults to plots/all_trials_fit.png)")
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

	if err := paths.EnsureDirectories(); err != nil {
		slog.Error("Failed to create required directories", "error", err)
		os.Exit(1)
	}

	if cfg.Logging.FilePath == "" || cfg.Logging.FilePath == "logs/app.log" {
		cfg.Logging.FilePath = paths.GetLogPath("fitall.log")
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

	logger.InfoContext(ctx, "Starting multi-trial fit",
		slog.String("data_dir", dataDir),
		slog.Int("trial_count", cfg.Input.TrialCount))

	validator := validation.NewFileValidator(logger)
	if err := validator.ValidateInputDirectory(dataDir, "*.xlsx"); err != nil {
		logger.ErrorContext(ctx, "Input directory not usable", slog.String("error", err.Error()))
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := validator.ValidateOutputDirectory(paths.PlotsDir); err != nil {
		logger.ErrorContext(ctx, "Plots directory not usable", slog.String("error", err.Error()))
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := validator.ValidateOutputDirectory(paths.ReportsDir); err != nil {
		logger.ErrorContext(ctx, "Reports directory not usable", slog.String("error", err.Error()))
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	loader := dataprocessing.NewLoader(logger)
	loadCtx, loadSpan := providers.StartSpan(ctx, "fitall.load")
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
	fitCtx, fitSpan := providers.StartSpan(ctx, "fitall.fit")
	fits, failures := fitter.FitAll(fitCtx, tables)
	fitSpan.End()

	for i := range tables {
		printTrialBlock(window, &tables[i], fits, failures)
	}

	if len(fits) == 0 {
		logger.ErrorContext(ctx, "No (trial, cell) pair produced a valid fit",
			slog.Int("trials", len(tables)),
			slog.Int("failures", len(failures)))
		fmt.Fprintf(os.Stderr, "Error: no (trial, cell) pair produced a valid fit in range %g-%g\n",
			window.Min, window.Max)
		os.Exit(1)
	}

	gridPath := *out
	if gridPath == "" {
		gridPath = paths.GetPlotPath("all_trials_fit.png")
	}

	reportCtx, reportSpan := providers.StartSpan(ctx, "fitall.report")
	renderer := render.NewRenderer(logger, window)
	fitExporter := exporter.NewFitExporter(paths, logger)

	tablePtrs := make([]*domain.MeasurementTable, len(tables))
	for i := range tables {
		tablePtrs[i] = &tables[i]
	}

	sinks, failedSinks := 0, 0

	sinks++
	if err := renderer.SaveTrialGrid(reportCtx, tablePtrs, fits, gridPath); err != nil {
		failedSinks++
		logger.ErrorContext(reportCtx, "Failed to render trial grid", slog.String("error", err.Error()))
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	} else {
		fmt.Printf("\nSaved chart grid: %s\n", gridPath)
	}

	sinks++
	if err := fitExporter.WriteEquationsWorkbook(reportCtx, trialNumbers(tables), fits, paths.EquationsXLSX); err != nil {
		failedSinks++
		logger.ErrorContext(reportCtx, "Failed to write equations workbook", slog.String("error", err.Error()))
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	} else {
		fmt.Printf("Saved equations workbook: %s\n", paths.EquationsXLSX)
	}

	sinks++
	if err := fitExporter.WriteFitSummaryCSV(reportCtx, fits, failures, paths.FitSummaryCSV); err != nil {
		failedSinks++
		logger.ErrorContext(reportCtx, "Failed to write fit summary", slog.String("error", err.Error()))
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	} else {
		fmt.Printf("Saved fit summary: %s\n", paths.FitSummaryCSV)
	}
	reportSpan.End()

	logger.InfoContext(ctx, "Multi-trial fit complete",
		slog.Int("trials", len(tables)),
		slog.Int("fits", len(fits)),
		slog.Int("failures", len(failures)))

	if err := providers.Shutdown(ctx); err != nil {
		logger.WarnContext(ctx, "Telemetry shutdown failed", slog.String("error", err.Error()))
	}

	if failedSinks == sinks {
		fmt.Fprintln(os.Stderr, "Error: all outputs failed")
		os.Exit(1)
	}
}

// printTrialBlock reports one trial's per-cell point counts and fitted
// equations on the console.
func printTrialBlock(window domain.TorqueWindow, table *domain.MeasurementTable, fits []domain.FitResult, failures []domain.FitFailure) {
	fmt.Printf("\n%s: %d rows from %s\n", table.Trial, table.Rows(), filepath.Base(table.SourceFile))

	byCell := make(map[int]domain.FitResult, domain.CellCount)
	for _, fit := range fits {
		if fit.TrialNumber == table.TrialNumber {
			byCell[fit.Cell] = fit
		}
	}
	failed := make(map[int]string, domain.CellCount)
	for _, failure := range failures {
		if failure.Trial == table.Trial {
			failed[failure.Cell] = failure.Reason
		}
	}

	for cell := 1; cell <= domain.CellCount; cell++ {
		if fit, ok := byCell[cell]; ok {
			fmt.Printf("  Cell %d: %d points in range %g-%g, %s\n",
				cell, fit.Points, window.Min, window.Max, fit.Equation())
		} else if reason, ok := failed[cell]; ok {
			fmt.Printf("  Cell %d: %s\n", cell, reason)
		}
	}
}

// trialNumbers lists the loaded trial numbers in table order.
func trialNumbers(tables []domain.MeasurementTable) []int {
	numbers := make([]int, 0, len(tables))
	for _, table := range tables {
		numbers = append(numbers, table.TrialNumber)
	}
	return numbers
}
