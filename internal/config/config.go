package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// envPrefix is the prefix for all environment variable overrides,
// e.g. EXTRA_PATHS_RAW_DIR.
const envPrefix = "EXTRA"

// Config is the complete application configuration.
type Config struct {
	Paths    PathsConfig    `yaml:"paths" envconfig:"PATHS"`
	Logging  LoggingConfig  `yaml:"logging" envconfig:"LOGGING"`
	Pipeline PipelineConfig `yaml:"pipeline" envconfig:"PIPELINE"`
	Simulate SimulateConfig `yaml:"simulate" envconfig:"SIMULATE"`
}

// PathsConfig contains the data directory layout.
type PathsConfig struct {
	RawDir       string `yaml:"raw_dir" envconfig:"RAW_DIR" validate:"required"`
	ProcessedDir string `yaml:"processed_dir" envconfig:"PROCESSED_DIR" validate:"required"`
	ReportsDir   string `yaml:"reports_dir" envconfig:"REPORTS_DIR" validate:"required"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" envconfig:"FORMAT" validate:"oneof=text json"`
}

// PipelineConfig contains gold-build run configuration.
type PipelineConfig struct {
	// AsOf stamps the DQ result rows; empty means today's date.
	AsOf string `yaml:"as_of" envconfig:"AS_OF" validate:"omitempty,datetime=2006-01-02"`
	// ExcelReport additionally writes an analyst workbook with one sheet
	// per gold table.
	ExcelReport  bool   `yaml:"excel_report" envconfig:"EXCEL_REPORT"`
	WorkbookFile string `yaml:"workbook_file" envconfig:"WORKBOOK_FILE" validate:"required"`
}

// SimulateConfig configures the synthetic data generator.
type SimulateConfig struct {
	Seed                   int64    `yaml:"seed" envconfig:"SEED"`
	Customers              int      `yaml:"customers" envconfig:"CUSTOMERS" validate:"gt=0"`
	Start                  string   `yaml:"start" envconfig:"START" validate:"datetime=2006-01-02"`
	End                    string   `yaml:"end" envconfig:"END" validate:"datetime=2006-01-02"`
	Format                 string   `yaml:"format" envconfig:"FORMAT" validate:"oneof=parquet csv"`
	CampaignDate           string   `yaml:"campaign_date" envconfig:"CAMPAIGN_DATE" validate:"datetime=2006-01-02"`
	CampaignMarkets        []string `yaml:"campaign_markets" envconfig:"CAMPAIGN_MARKETS"`
	CampaignConvMultiplier float64  `yaml:"campaign_conv_multiplier" envconfig:"CAMPAIGN_CONV_MULTIPLIER" validate:"gt=0"`
	QualityNoise           float64  `yaml:"quality_noise" envconfig:"QUALITY_NOISE" validate:"gte=0,lte=1"`
}

// Default returns the configuration defaults applied before any overlay.
func Default() Config {
	return Config{
		Paths: PathsConfig{
			RawDir:       "data/raw",
			ProcessedDir: "data/processed",
			ReportsDir:   "data/reports",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Pipeline: PipelineConfig{
			WorkbookFile: "gold_summary.xlsx",
		},
		Simulate: SimulateConfig{
			Seed:                   42,
			Customers:              25000,
			Start:                  "2025-01-01",
			End:                    "2025-12-31",
			Format:                 "parquet",
			CampaignDate:           "2025-07-01",
			CampaignMarkets:        []string{"DE", "FR", "US", "GB"},
			CampaignConvMultiplier: 1.25,
			QualityNoise:           0.002,
		},
	}
}

// Load resolves the configuration from defaults, the optional YAML file and
// environment variables, then validates it.
func Load() (*Config, error) {
	cfg := Default()

	configFile := os.Getenv(envPrefix + "_CONFIG_FILE")
	if configFile == "" {
		configFile = "config.yaml"
	}
	if _, err := os.Stat(configFile); err == nil {
		data, err := os.ReadFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("read config file %s: %w", configFile, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", configFile, err)
		}
	}

	if err := envconfig.Process(envPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("process environment config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the configuration against its struct constraints.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}
