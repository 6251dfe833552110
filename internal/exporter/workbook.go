package exporter

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"extrapulse/internal/schema"
)

// Workbook sheet names, one per gold table.
const (
	SheetDQResults       = "DQ Results"
	SheetDailyKPI        = "Daily KPI"
	SheetCohortRetention = "Cohort Retention"
)

// WriteWorkbook writes the three gold tables into a single Excel workbook,
// one sheet per table, for analyst hand-off. The sheets mirror the CSV
// column sets exactly; the workbook is a convenience view, not part of the
// stable table interface.
func WriteWorkbook(path string, dq []schema.DQResult, kpi []schema.DailyKPI, cohort []schema.CohortRetention) error {
	slog.Info("writing gold summary workbook",
		slog.String("path", path),
		slog.Int("dq_rows", len(dq)),
		slog.Int("kpi_rows", len(kpi)),
		slog.Int("cohort_rows", len(cohort)))

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetDQResults); err != nil {
		return fmt.Errorf("rename default sheet: %w", err)
	}
	for _, name := range []string{SheetDailyKPI, SheetCohortRetention} {
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("create sheet %s: %w", name, err)
		}
	}

	if err := writeDQSheet(f, dq); err != nil {
		return err
	}
	if err := writeKPISheet(f, kpi); err != nil {
		return err
	}
	if err := writeCohortSheet(f, cohort); err != nil {
		return err
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	return nil
}

func writeDQSheet(f *excelize.File, rows []schema.DQResult) error {
	header := []interface{}{"date", "check_name", "table_name", "severity", "failed_rows", "sample_keys"}
	if err := setRow(f, SheetDQResults, 1, header); err != nil {
		return err
	}
	for i, r := range rows {
		row := []interface{}{
			r.Date.Format("2006-01-02"),
			r.CheckName,
			r.TableName,
			string(r.Severity),
			r.FailedRows,
			r.SampleKeys,
		}
		if err := setRow(f, SheetDQResults, i+2, row); err != nil {
			return err
		}
	}
	return nil
}

func writeKPISheet(f *excelize.File, rows []schema.DailyKPI) error {
	header := []interface{}{
		"date", "market", "region", "extra_id", "category",
		"trials", "purchases", "renewals", "cancels",
		"active_subscriptions", "active_users", "sessions", "mrr",
	}
	if err := setRow(f, SheetDailyKPI, 1, header); err != nil {
		return err
	}
	for i, r := range rows {
		row := []interface{}{
			r.Date.Format("2006-01-02"),
			r.Market,
			deref(r.Region),
			r.ExtraID,
			deref(r.Category),
			r.Trials,
			r.Purchases,
			r.Renewals,
			r.Cancels,
			r.ActiveSubscriptions,
			r.ActiveUsers,
			r.Sessions,
			deref(r.MRR),
		}
		if err := setRow(f, SheetDailyKPI, i+2, row); err != nil {
			return err
		}
	}
	return nil
}

func writeCohortSheet(f *excelize.File, rows []schema.CohortRetention) error {
	header := []interface{}{
		"cohort_month", "market", "extra_id", "month_n",
		"retained_subs", "cohort_size", "retention_rate",
	}
	if err := setRow(f, SheetCohortRetention, 1, header); err != nil {
		return err
	}
	for i, r := range rows {
		row := []interface{}{
			r.CohortMonth.Format("2006-01"),
			r.Market,
			r.ExtraID,
			r.MonthN,
			r.RetainedSubs,
			r.CohortSize,
			r.RetentionRate,
		}
		if err := setRow(f, SheetCohortRetention, i+2, row); err != nil {
			return err
		}
	}
	return nil
}

func setRow(f *excelize.File, sheet string, rowNum int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, rowNum)
	if err != nil {
		return fmt.Errorf("cell coordinates: %w", err)
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("write row %d of %s: %w", rowNum, sheet, err)
	}
	return nil
}

// deref unwraps a nullable cell value; nil stays an empty cell.
func deref[T any](p *T) interface{} {
	if p == nil {
		return nil
	}
	return *p
}
