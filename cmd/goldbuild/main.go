// Command goldbuild runs one gold-layer build: it reads the four raw tables
// from the raw directory, evaluates data quality and writes the three gold
// tables to the processed directory.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"extrapulse/internal/config"
	"extrapulse/internal/pipeline"
	"extrapulse/internal/store"
)

func main() {
	rawDir := flag.String("raw", "", "raw input directory (overrides config)")
	outDir := flag.String("out", "", "processed output directory (overrides config)")
	asOfFlag := flag.String("as-of", "", "as-of date YYYY-MM-DD stamped on DQ results (defaults to today)")
	excel := flag.Bool("excel", false, "also write the analyst summary workbook")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	if *rawDir != "" {
		cfg.Paths.RawDir = *rawDir
	}
	if *outDir != "" {
		cfg.Paths.ProcessedDir = *outDir
	}

	logger := config.NewLogger(cfg.Logging)
	slog.SetDefault(logger)

	asOf, err := resolveAsOf(*asOfFlag, cfg.Pipeline.AsOf)
	if err != nil {
		slog.Error("Invalid as-of date", "error", err)
		os.Exit(1)
	}

	paths := config.NewPaths(cfg.Paths)
	if err := paths.EnsureOutputDirs(); err != nil {
		slog.Error("Failed to prepare output directories", "error", err)
		os.Exit(1)
	}

	st, err := store.Detect(paths, logger)
	if err != nil {
		slog.Error("Input snapshot unavailable", "error", err,
			"hint", "run datagen first or point -raw at a directory with the four input tables")
		os.Exit(1)
	}

	runner := pipeline.NewRunner(st, asOf, logger)
	if *excel || cfg.Pipeline.ExcelReport {
		runner = runner.WithWorkbook(paths.ReportFile(cfg.Pipeline.WorkbookFile))
	}

	summary, err := runner.Run(context.Background())
	if err != nil {
		slog.Error("Gold build failed", "error", err)
		os.Exit(1)
	}

	fmt.Printf("Run %s (%s) completed in %s\n", summary.RunID, summary.Format, summary.Duration.Round(time.Millisecond))
	fmt.Printf("  events: %d  kpi rows: %d  cohort rows: %d\n", summary.Events, summary.KPIRows, summary.CohortRows)
	fmt.Println("DQ checks:")
	for _, r := range summary.DQ {
		fmt.Printf("  %-42s %-16s %-4s failed_rows=%d\n", r.CheckName, r.TableName, r.Severity, r.FailedRows)
	}
}

// resolveAsOf picks the DQ stamp date: flag first, then config, then today.
func resolveAsOf(flagValue, cfgValue string) (time.Time, error) {
	value := flagValue
	if value == "" {
		value = cfgValue
	}
	if value == "" {
		now := time.Now().UTC()
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	t, err := time.ParseInLocation("2006-01-02", value, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse as-of date %q: %w", value, err)
	}
	return t, nil
}
