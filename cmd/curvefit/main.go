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
	workbook := flag.String("workbook", "", "measurement workbook to load (defaults to the configured workbook under data/)")
	sheet := flag.String("sheet", "", "sheet to read (defaults to the trial's sheet, then the first sheet)")
	trial := flag.Int("trial", 1, "trial number to fit")
	out := flag.String("out", "", "output path for the chart PNG (defaults to plots/trial_N_fit.png)")
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

	if err := paths.EnsureDirectories(); err != nil {
		slog.Error("Failed to create required directories", "error", err)
		os.Exit(1)
	}

	// Per-binary log file under the executable-relative logs directory
	if cfg.Logging.FilePath == "" || cfg.Logging.FilePath == "logs/app.log" {
		cfg.Logging.FilePath = paths.GetLogPath("curvefit.log")
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

	logger.InfoContext(ctx, "Starting curve fit",
		slog.Int("trial", *trial),
		slog.String("executable_dir", paths.ExecutableDir))

	validator := validation.NewFileValidator(logger)
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

	loadCtx, loadSpan := providers.StartSpan(ctx, "curvefit.load")
	var table *domain.MeasurementTable
	if *workbook != "" {
		path := resolveWorkbookPath(paths, *workbook)
		if verr := validator.ValidateMeasurementFile(path); verr != nil {
			loadSpan.End()
			logger.ErrorContext(ctx, "Input workbook rejected", slog.String("error", verr.Error()))
			fmt.Fprintf(os.Stderr, "Error: %v\n", verr)
			os.Exit(1)
		}
		table, err = loader.LoadTable(loadCtx, path, sheetForTrial(cfg.Input, *sheet, *trial), *trial)
	} else {
		table, err = loader.LoadTrial(loadCtx, cfg.Input, paths.DataDir, *trial)
	}
	loadSpan.End()
	if err != nil {
		logger.ErrorContext(ctx, "Failed to load measurement table", slog.String("error", err.Error()))
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	window := cfg.Analysis.Window()
	fmt.Printf("Loaded %s: %d rows from %s\n", table.Trial, table.Rows(), filepath.Base(table.SourceFile))

	fitter := regression.NewFitter(logger, window)
	fitCtx, fitSpan := providers.StartSpan(ctx, "curvefit.fit")
	fits, failures := fitter.FitTable(fitCtx, table)
	fitSpan.End()

	printCellPoints(window, fits, failures)

	if len(fits) == 0 {
		logger.ErrorContext(ctx, "No cell produced a valid fit",
			slog.String("trial", table.Trial),
			slog.Int("failures", len(failures)))
		fmt.Fprintf(os.Stderr, "Error: no cell produced a valid fit in range %g-%g\n", window.Min, window.Max)
		os.Exit(1)
	}

	fmt.Println("\nFitted equations:")
	for _, fit := range fits {
		fmt.Printf("  Cell %d: %s\n", fit.Cell, fit.Equation())
	}

	chartPath := *out
	if chartPath == "" {
		chartPath = paths.GetPlotPath(chartFileName(*trial))
	}

	reportCtx, reportSpan := providers.StartSpan(ctx, "curvefit.report")
	renderer := render.NewRenderer(logger, window)
	fitExporter := exporter.NewFitExporter(paths, logger)

	sinks, failedSinks := 0, 0

	sinks++
	if err := renderer.SaveTrialChart(reportCtx, table, fits, chartPath); err != nil {
		failedSinks++
		logger.ErrorContext(reportCtx, "Failed to render chart", slog.String("error", err.Error()))
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	} else {
		fmt.Printf("\nSaved chart: %s\n", chartPath)
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

	logger.InfoContext(ctx, "Curve fit complete",
		slog.String("trial", table.Trial),
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

// printCellPoints reports the in-range point count per cell in cell order,
// with the failure reason for cells that could not be fitted.
func printCellPoints(window domain.TorqueWindow, fits []domain.FitResult, failures []domain.FitFailure) {
	byCell := make(map[int]domain.FitResult, len(fits))
	for _, fit := range fits {
		byCell[fit.Cell] = fit
	}
	failed := make(map[int]string, len(failures))
	for _, failure := range failures {
		failed[failure.Cell] = failure.Reason
	}

	for cell := 1; cell <= domain.CellCount; cell++ {
		if fit, ok := byCell[cell]; ok {
			fmt.Printf("Cell %d: %d data points in range %g-%g\n", cell, fit.Points, window.Min, window.Max)
		} else if reason, ok := failed[cell]; ok {
			fmt.Printf("Cell %d: %s\n", cell, reason)
		}
	}
}

// resolveWorkbookPath resolves a workbook argument under the data directory
// unless it is already absolute.
func resolveWorkbookPath(paths *config.Paths, workbook string) string {
	if filepath.IsAbs(workbook) {
		return workbook
	}
	return paths.GetDataPath(workbook)
}

// sheetForTrial picks the sheet to read for one trial: the explicit flag,
// then the configured sheet, then the trial's conventional sheet name.
func sheetForTrial(input config.InputConfig, flagSheet string, trial int) string {
	if flagSheet != "" {
		return flagSheet
	}
	if input.Sheet != "" {
		return input.Sheet
	}
	return fmt.Sprintf("%s%d", input.TrialSheetPrefix, trial)
}

// chartFileName names the per-trial chart file.
func chartFileName(trial int) string {
	return fmt.Sprintf("trial_%d_fit.png", trial)
}
