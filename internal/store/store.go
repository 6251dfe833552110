package store

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"extrapulse/internal/config"
	"extrapulse/internal/schema"
)

// Format identifies the tabular file format of a run.
type Format string

const (
	FormatParquet Format = "parquet"
	FormatCSV     Format = "csv"
)

// Table names of the pipeline's external interface.
const (
	TableMarket          = "dim_market"
	TableExtra           = "dim_extra"
	TableCustomer        = "dim_customer"
	TableEvents          = "fact_events"
	TableDQResults       = "gold_dq_results"
	TableDailyKPI        = "gold_daily_kpi"
	TableCohortRetention = "gold_cohort_retention"
)

// ErrTableMissing marks a required input table that is absent from the raw
// directory.
var ErrTableMissing = errors.New("input table missing")

// Store reads raw tables and writes gold tables in one fixed format.
type Store struct {
	paths  config.Paths
	format Format
	logger *slog.Logger
}

// New creates a store for an explicitly chosen format.
func New(paths config.Paths, format Format, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{paths: paths, format: format, logger: logger}
}

// Detect creates a store with the format inferred from the raw directory:
// parquet when fact_events.parquet exists, CSV when fact_events.csv exists.
// Neither existing is a structural error.
func Detect(paths config.Paths, logger *slog.Logger) (*Store, error) {
	for _, format := range []Format{FormatParquet, FormatCSV} {
		if _, err := os.Stat(paths.RawTable(TableEvents, string(format))); err == nil {
			if logger != nil {
				logger.Info("detected input format",
					slog.String("format", string(format)),
					slog.String("raw_dir", paths.RawDir))
			}
			return New(paths, format, logger), nil
		}
	}
	return nil, fmt.Errorf("%w: %s (no parquet or csv in %s)", ErrTableMissing, TableEvents, paths.RawDir)
}

// Format returns the format the store reads and writes.
func (s *Store) Format() Format { return s.format }

// inputPath resolves a raw table path and fails fast when the table is
// absent.
func (s *Store) inputPath(name string) (string, error) {
	path := s.paths.RawTable(name, string(s.format))
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: %s (%s)", ErrTableMissing, name, path)
		}
		return "", fmt.Errorf("stat %s: %w", path, err)
	}
	return path, nil
}

// ReadMarkets loads dim_market.
func (s *Store) ReadMarkets() ([]schema.Market, error) {
	path, err := s.inputPath(TableMarket)
	if err != nil {
		return nil, err
	}
	if s.format == FormatParquet {
		return readParquetFile[schema.Market](path)
	}
	return readMarketsCSV(path)
}

// ReadExtras loads dim_extra.
func (s *Store) ReadExtras() ([]schema.Extra, error) {
	path, err := s.inputPath(TableExtra)
	if err != nil {
		return nil, err
	}
	if s.format == FormatParquet {
		return readParquetFile[schema.Extra](path)
	}
	return readExtrasCSV(path)
}

// ReadCustomers loads dim_customer.
func (s *Store) ReadCustomers() ([]schema.Customer, error) {
	path, err := s.inputPath(TableCustomer)
	if err != nil {
		return nil, err
	}
	if s.format == FormatParquet {
		return readParquetFile[schema.Customer](path)
	}
	return readCustomersCSV(path)
}

// ReadEvents loads fact_events.
func (s *Store) ReadEvents() ([]schema.Event, error) {
	path, err := s.inputPath(TableEvents)
	if err != nil {
		return nil, err
	}
	if s.format == FormatParquet {
		return readParquetFile[schema.Event](path)
	}
	return readEventsCSV(path)
}

// WriteMarkets writes dim_market to the raw directory.
func (s *Store) WriteMarkets(rows []schema.Market) error {
	path := s.paths.RawTable(TableMarket, string(s.format))
	if s.format == FormatParquet {
		return writeParquetFile(path, rows)
	}
	return writeMarketsCSV(path, rows)
}

// WriteExtras writes dim_extra to the raw directory.
func (s *Store) WriteExtras(rows []schema.Extra) error {
	path := s.paths.RawTable(TableExtra, string(s.format))
	if s.format == FormatParquet {
		return writeParquetFile(path, rows)
	}
	return writeExtrasCSV(path, rows)
}

// WriteCustomers writes dim_customer to the raw directory.
func (s *Store) WriteCustomers(rows []schema.Customer) error {
	path := s.paths.RawTable(TableCustomer, string(s.format))
	if s.format == FormatParquet {
		return writeParquetFile(path, rows)
	}
	return writeCustomersCSV(path, rows)
}

// WriteEvents writes fact_events to the raw directory.
func (s *Store) WriteEvents(rows []schema.Event) error {
	path := s.paths.RawTable(TableEvents, string(s.format))
	if s.format == FormatParquet {
		return writeParquetFile(path, rows)
	}
	return writeEventsCSV(path, rows)
}

// WriteDQResults writes gold_dq_results to the processed directory.
func (s *Store) WriteDQResults(rows []schema.DQResult) error {
	path := s.paths.ProcessedTable(TableDQResults, string(s.format))
	s.logWrite(TableDQResults, path, len(rows))
	if s.format == FormatParquet {
		return writeParquetFile(path, rows)
	}
	return writeDQResultsCSV(path, rows)
}

// WriteDailyKPI writes gold_daily_kpi to the processed directory.
func (s *Store) WriteDailyKPI(rows []schema.DailyKPI) error {
	path := s.paths.ProcessedTable(TableDailyKPI, string(s.format))
	s.logWrite(TableDailyKPI, path, len(rows))
	if s.format == FormatParquet {
		return writeParquetFile(path, rows)
	}
	return writeDailyKPICSV(path, rows)
}

// WriteCohortRetention writes gold_cohort_retention to the processed
// directory.
func (s *Store) WriteCohortRetention(rows []schema.CohortRetention) error {
	path := s.paths.ProcessedTable(TableCohortRetention, string(s.format))
	s.logWrite(TableCohortRetention, path, len(rows))
	if s.format == FormatParquet {
		return writeParquetFile(path, rows)
	}
	return writeCohortRetentionCSV(path, rows)
}

func (s *Store) logWrite(table, path string, rows int) {
	s.logger.Info("writing gold table",
		slog.String("table", table),
		slog.String("path", path),
		slog.Int("rows", rows))
}
