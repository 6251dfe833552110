package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("EXTRA_CONFIG_FILE", filepath.Join(t.TempDir(), "nope.yaml"))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "data/raw", cfg.Paths.RawDir)
	assert.Equal(t, "data/processed", cfg.Paths.ProcessedDir)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
	assert.Equal(t, int64(42), cfg.Simulate.Seed)
	assert.Equal(t, 25000, cfg.Simulate.Customers)
	assert.Equal(t, "parquet", cfg.Simulate.Format)
	assert.Equal(t, []string{"DE", "FR", "US", "GB"}, cfg.Simulate.CampaignMarkets)
	assert.InDelta(t, 0.002, cfg.Simulate.QualityNoise, 1e-9)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("EXTRA_CONFIG_FILE", filepath.Join(t.TempDir(), "nope.yaml"))
	t.Setenv("EXTRA_PATHS_RAW_DIR", "/srv/extras/raw")
	t.Setenv("EXTRA_LOGGING_FORMAT", "json")
	t.Setenv("EXTRA_SIMULATE_SEED", "7")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/srv/extras/raw", cfg.Paths.RawDir)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, int64(7), cfg.Simulate.Seed)
	assert.Equal(t, "data/processed", cfg.Paths.ProcessedDir, "untouched fields keep defaults")
}

func TestLoadYAMLFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "config.yaml")
	content := `
paths:
  raw_dir: /data/in
pipeline:
  as_of: "2025-06-01"
  excel_report: true
`
	require.NoError(t, os.WriteFile(file, []byte(content), 0644))
	t.Setenv("EXTRA_CONFIG_FILE", file)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/data/in", cfg.Paths.RawDir)
	assert.Equal(t, "2025-06-01", cfg.Pipeline.AsOf)
	assert.True(t, cfg.Pipeline.ExcelReport)
}

func TestEnvWinsOverFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(file, []byte("paths:\n  raw_dir: /from/file\n"), 0644))
	t.Setenv("EXTRA_CONFIG_FILE", file)
	t.Setenv("EXTRA_PATHS_RAW_DIR", "/from/env")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "/from/env", cfg.Paths.RawDir)
}

func TestValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }},
		{"bad as-of date", func(c *Config) { c.Pipeline.AsOf = "June 1st" }},
		{"bad simulate format", func(c *Config) { c.Simulate.Format = "xlsx" }},
		{"zero customers", func(c *Config) { c.Simulate.Customers = 0 }},
		{"noise above one", func(c *Config) { c.Simulate.QualityNoise = 1.5 }},
		{"empty raw dir", func(c *Config) { c.Paths.RawDir = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	t.Run("defaults are valid", func(t *testing.T) {
		cfg := Default()
		assert.NoError(t, cfg.Validate())
	})
}

func TestPaths(t *testing.T) {
	paths := NewPaths(PathsConfig{RawDir: "raw", ProcessedDir: "out", ReportsDir: "reports"})

	assert.Equal(t, filepath.Join("raw", "fact_events.parquet"), paths.RawTable("fact_events", "parquet"))
	assert.Equal(t, filepath.Join("out", "gold_daily_kpi.csv"), paths.ProcessedTable("gold_daily_kpi", "csv"))
	assert.Equal(t, filepath.Join("reports", "gold_summary.xlsx"), paths.ReportFile("gold_summary.xlsx"))
}

func TestEnsureOutputDirs(t *testing.T) {
	root := t.TempDir()
	paths := Paths{
		RawDir:       filepath.Join(root, "raw"),
		ProcessedDir: filepath.Join(root, "processed"),
		ReportsDir:   filepath.Join(root, "reports"),
	}

	require.NoError(t, paths.EnsureOutputDirs())
	assert.DirExists(t, paths.ProcessedDir)
	assert.DirExists(t, paths.ReportsDir)
	assert.NoDirExists(t, paths.RawDir, "the raw directory is never created implicitly")
}
