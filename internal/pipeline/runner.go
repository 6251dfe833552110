package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"extrapulse/internal/exporter"
	"extrapulse/internal/gold"
	"extrapulse/internal/schema"
	"extrapulse/internal/store"
)

// Runner executes one gold-build run over a fixed input snapshot.
type Runner struct {
	store        *store.Store
	asOf         time.Time
	workbookPath string
	logger       *slog.Logger
}

// NewRunner creates a runner. asOf stamps the DQ result rows for this run.
func NewRunner(st *store.Store, asOf time.Time, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{store: st, asOf: asOf, logger: logger}
}

// WithWorkbook additionally writes the analyst workbook to path after the
// gold tables are written.
func (r *Runner) WithWorkbook(path string) *Runner {
	r.workbookPath = path
	return r
}

// Summary reports what a completed run produced.
type Summary struct {
	RunID      string
	Format     store.Format
	Events     int
	DQ         []schema.DQResult
	KPIRows    int
	CohortRows int
	Duration   time.Duration
}

// Run loads the input snapshot, derives the three gold tables and writes
// them. The four input loads run concurrently; every transformation is a
// single-threaded pure function of the loaded snapshot.
func (r *Runner) Run(ctx context.Context) (*Summary, error) {
	start := time.Now()
	runID := uuid.NewString()
	logger := r.logger.With(slog.String("run_id", runID))

	logger.InfoContext(ctx, "starting gold build",
		slog.String("format", string(r.store.Format())),
		slog.Time("as_of", r.asOf))

	var (
		markets   []schema.Market
		extras    []schema.Extra
		customers []schema.Customer
		events    []schema.Event
	)

	g, _ := errgroup.WithContext(ctx)
	g.Go(func() (err error) { markets, err = r.store.ReadMarkets(); return err })
	g.Go(func() (err error) { extras, err = r.store.ReadExtras(); return err })
	g.Go(func() (err error) { customers, err = r.store.ReadCustomers(); return err })
	g.Go(func() (err error) { events, err = r.store.ReadEvents(); return err })
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("load input tables: %w", err)
	}

	logger.InfoContext(ctx, "input snapshot loaded",
		slog.Int("markets", len(markets)),
		slog.Int("extras", len(extras)),
		slog.Int("customers", len(customers)),
		slog.Int("events", len(events)))

	dq := gold.EvaluateDQ(r.asOf, events, customers, extras)
	logDQFindings(ctx, logger, dq)

	kpi := gold.BuildDailyKPI(events, markets, extras)
	cohort := gold.BuildCohortRetention(events)

	if err := r.store.WriteDQResults(dq); err != nil {
		return nil, fmt.Errorf("write %s: %w", store.TableDQResults, err)
	}
	if err := r.store.WriteDailyKPI(kpi); err != nil {
		return nil, fmt.Errorf("write %s: %w", store.TableDailyKPI, err)
	}
	if err := r.store.WriteCohortRetention(cohort); err != nil {
		return nil, fmt.Errorf("write %s: %w", store.TableCohortRetention, err)
	}

	if r.workbookPath != "" {
		if err := exporter.WriteWorkbook(r.workbookPath, dq, kpi, cohort); err != nil {
			return nil, fmt.Errorf("write workbook: %w", err)
		}
	}

	duration := time.Since(start)
	logger.InfoContext(ctx, "gold build completed",
		slog.Int("kpi_rows", len(kpi)),
		slog.Int("cohort_rows", len(cohort)),
		slog.Duration("duration", duration))

	return &Summary{
		RunID:      runID,
		Format:     r.store.Format(),
		Events:     len(events),
		DQ:         dq,
		KPIRows:    len(kpi),
		CohortRows: len(cohort),
		Duration:   duration,
	}, nil
}

// logDQFindings surfaces each non-clean check at its own severity. Findings
// are advisory: the run continues regardless.
func logDQFindings(ctx context.Context, logger *slog.Logger, results []schema.DQResult) {
	for _, r := range results {
		attrs := []any{
			slog.String("check", r.CheckName),
			slog.String("table", r.TableName),
			slog.Int64("failed_rows", r.FailedRows),
		}
		switch r.Severity {
		case schema.SeverityFail:
			logger.ErrorContext(ctx, "data quality check failed", attrs...)
		case schema.SeverityWarn:
			logger.WarnContext(ctx, "data quality check warning", attrs...)
		default:
			logger.DebugContext(ctx, "data quality check clean", attrs...)
		}
	}
}
