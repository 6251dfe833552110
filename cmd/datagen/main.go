// Command datagen writes a synthetic "digital extras" raw snapshot: the
// three dimension tables and the fact_events stream, in parquet or CSV.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"time"

	"extrapulse/internal/config"
	"extrapulse/internal/schema"
	"extrapulse/internal/simulate"
	"extrapulse/internal/store"
)

func main() {
	outDir := flag.String("out", "", "output directory for the raw tables (overrides config)")
	seed := flag.Int64("seed", 0, "random seed (overrides config)")
	customers := flag.Int("customers", 0, "number of customers (overrides config)")
	format := flag.String("format", "", "output format: parquet or csv (overrides config)")
	noise := flag.Float64("noise", -1, "fraction of noisy events for the DQ demo (overrides config)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	if *outDir != "" {
		cfg.Paths.RawDir = *outDir
	}
	if *seed != 0 {
		cfg.Simulate.Seed = *seed
	}
	if *customers != 0 {
		cfg.Simulate.Customers = *customers
	}
	if *format != "" {
		cfg.Simulate.Format = *format
	}
	if *noise >= 0 {
		cfg.Simulate.QualityNoise = *noise
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	logger := config.NewLogger(cfg.Logging)
	slog.SetDefault(logger)

	simCfg, err := simulateConfig(cfg.Simulate)
	if err != nil {
		slog.Error("Invalid simulation window", "error", err)
		os.Exit(1)
	}

	generator, err := simulate.New(cfg.Simulate.Seed, simCfg, logger)
	if err != nil {
		slog.Error("Failed to create generator", "error", err)
		os.Exit(1)
	}
	dataset := generator.Generate()

	paths := config.NewPaths(cfg.Paths)
	if err := os.MkdirAll(paths.RawDir, 0755); err != nil {
		slog.Error("Failed to create raw directory", "error", err)
		os.Exit(1)
	}

	st := store.New(paths, store.Format(cfg.Simulate.Format), logger)
	writes := []struct {
		table string
		fn    func() error
	}{
		{store.TableMarket, func() error { return st.WriteMarkets(dataset.Markets) }},
		{store.TableExtra, func() error { return st.WriteExtras(dataset.Extras) }},
		{store.TableCustomer, func() error { return st.WriteCustomers(dataset.Customers) }},
		{store.TableEvents, func() error { return st.WriteEvents(dataset.Events) }},
	}
	for _, w := range writes {
		if err := w.fn(); err != nil {
			slog.Error("Failed to write table", "table", w.table, "error", err)
			os.Exit(1)
		}
	}

	fmt.Printf("Generated tables (%s) in %s:\n", cfg.Simulate.Format, paths.RawDir)
	fmt.Printf("  %-14s %8d rows\n", store.TableMarket, len(dataset.Markets))
	fmt.Printf("  %-14s %8d rows\n", store.TableExtra, len(dataset.Extras))
	fmt.Printf("  %-14s %8d rows\n", store.TableCustomer, len(dataset.Customers))
	fmt.Printf("  %-14s %8d rows\n", store.TableEvents, len(dataset.Events))

	fmt.Println("Event type distribution:")
	for _, line := range eventDistribution(dataset.Events) {
		fmt.Println("  " + line)
	}
}

func simulateConfig(cfg config.SimulateConfig) (simulate.Config, error) {
	start, err := time.ParseInLocation("2006-01-02", cfg.Start, time.UTC)
	if err != nil {
		return simulate.Config{}, fmt.Errorf("parse start date: %w", err)
	}
	end, err := time.ParseInLocation("2006-01-02", cfg.End, time.UTC)
	if err != nil {
		return simulate.Config{}, fmt.Errorf("parse end date: %w", err)
	}
	campaign, err := time.ParseInLocation("2006-01-02", cfg.CampaignDate, time.UTC)
	if err != nil {
		return simulate.Config{}, fmt.Errorf("parse campaign date: %w", err)
	}
	return simulate.Config{
		Customers:              cfg.Customers,
		Start:                  start,
		End:                    end,
		CampaignDate:           campaign,
		CampaignMarkets:        cfg.CampaignMarkets,
		CampaignConvMultiplier: cfg.CampaignConvMultiplier,
		QualityNoise:           cfg.QualityNoise,
	}, nil
}

func eventDistribution(events []schema.Event) []string {
	counts := make(map[schema.EventType]int)
	for _, e := range events {
		counts[e.EventType]++
	}
	types := make([]string, 0, len(counts))
	for t := range counts {
		types = append(types, string(t))
	}
	sort.Strings(types)

	lines := make([]string, 0, len(types))
	for _, t := range types {
		lines = append(lines, fmt.Sprintf("%-14s %8d", t, counts[schema.EventType(t)]))
	}
	return lines
}
