package store

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"extrapulse/internal/exporter"
	"extrapulse/internal/schema"
)

// CSV column orders. These mirror the gold table contracts; reordering is a
// breaking change toward downstream consumers.
var (
	marketHeader   = []string{"market", "region"}
	extraHeader    = []string{"extra_id", "extra_name", "category", "price_monthly"}
	customerHeader = []string{"customer_id", "market", "segment", "signup_date"}
	eventHeader    = []string{"event_ts", "event_date", "customer_id", "market", "extra_id", "event_type", "quantity"}
	dqHeader       = []string{"date", "check_name", "table_name", "severity", "failed_rows", "sample_keys"}
	kpiHeader      = []string{"date", "market", "region", "extra_id", "category", "trials", "purchases", "renewals", "cancels", "active_subscriptions", "active_users", "sessions", "mrr"}
	cohortHeader   = []string{"cohort_month", "market", "extra_id", "month_n", "retained_subs", "cohort_size", "retention_rate"}
)

const (
	timestampLayout = "2006-01-02 15:04:05"
	dateLayout      = "2006-01-02"
	monthLayout     = "2006-01"
)

// readCSVRecords reads a whole CSV file, tolerating a UTF-8 BOM, and
// verifies the header against the table contract.
func readCSVRecords(path string, header []string) ([][]string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	content = bytes.TrimPrefix(content, []byte{0xEF, 0xBB, 0xBF})

	records, err := csv.NewReader(bytes.NewReader(content)).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse CSV %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%s: empty CSV, header row required", path)
	}
	if got := records[0]; !equalHeader(got, header) {
		return nil, fmt.Errorf("%s: unexpected header %v, want %v", path, got, header)
	}
	return records[1:], nil
}

func equalHeader(got, want []string) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range want {
		if strings.TrimSpace(got[i]) != want[i] {
			return false
		}
	}
	return true
}

func writeCSV(path string, header []string, records [][]string) error {
	w := &exporter.CSVWriter{}
	return w.WriteSimple(path, header, records)
}

func readMarketsCSV(path string) ([]schema.Market, error) {
	records, err := readCSVRecords(path, marketHeader)
	if err != nil {
		return nil, err
	}
	rows := make([]schema.Market, 0, len(records))
	for _, rec := range records {
		rows = append(rows, schema.Market{Market: rec[0], Region: rec[1]})
	}
	return rows, nil
}

func writeMarketsCSV(path string, rows []schema.Market) error {
	records := make([][]string, 0, len(rows))
	for _, r := range rows {
		records = append(records, []string{r.Market, r.Region})
	}
	return writeCSV(path, marketHeader, records)
}

func readExtrasCSV(path string) ([]schema.Extra, error) {
	records, err := readCSVRecords(path, extraHeader)
	if err != nil {
		return nil, err
	}
	rows := make([]schema.Extra, 0, len(records))
	for _, rec := range records {
		price, err := parseFloat(rec[3])
		if err != nil {
			return nil, fmt.Errorf("%s: price_monthly %q: %w", path, rec[3], err)
		}
		rows = append(rows, schema.Extra{
			ExtraID:      rec[0],
			Name:         rec[1],
			Category:     rec[2],
			PriceMonthly: price,
		})
	}
	return rows, nil
}

func writeExtrasCSV(path string, rows []schema.Extra) error {
	records := make([][]string, 0, len(rows))
	for _, r := range rows {
		records = append(records, []string{
			r.ExtraID,
			r.Name,
			r.Category,
			strconv.FormatFloat(r.PriceMonthly, 'f', -1, 64),
		})
	}
	return writeCSV(path, extraHeader, records)
}

func readCustomersCSV(path string) ([]schema.Customer, error) {
	records, err := readCSVRecords(path, customerHeader)
	if err != nil {
		return nil, err
	}
	rows := make([]schema.Customer, 0, len(records))
	for _, rec := range records {
		signup, err := parseDate(rec[3])
		if err != nil {
			return nil, fmt.Errorf("%s: signup_date %q: %w", path, rec[3], err)
		}
		rows = append(rows, schema.Customer{
			CustomerID: rec[0],
			Market:     rec[1],
			Segment:    rec[2],
			SignupDate: signup,
		})
	}
	return rows, nil
}

func writeCustomersCSV(path string, rows []schema.Customer) error {
	records := make([][]string, 0, len(rows))
	for _, r := range rows {
		records = append(records, []string{
			r.CustomerID,
			r.Market,
			r.Segment,
			formatDate(r.SignupDate),
		})
	}
	return writeCSV(path, customerHeader, records)
}

func readEventsCSV(path string) ([]schema.Event, error) {
	records, err := readCSVRecords(path, eventHeader)
	if err != nil {
		return nil, err
	}
	rows := make([]schema.Event, 0, len(records))
	for _, rec := range records {
		ts, err := parseTimestamp(rec[0])
		if err != nil {
			return nil, fmt.Errorf("%s: event_ts %q: %w", path, rec[0], err)
		}
		date, err := parseDate(rec[1])
		if err != nil {
			return nil, fmt.Errorf("%s: event_date %q: %w", path, rec[1], err)
		}
		quantity, err := parseInt(rec[6])
		if err != nil {
			return nil, fmt.Errorf("%s: quantity %q: %w", path, rec[6], err)
		}
		rows = append(rows, schema.Event{
			EventTS:    ts,
			EventDate:  date,
			CustomerID: rec[2],
			Market:     rec[3],
			ExtraID:    rec[4],
			EventType:  schema.EventType(rec[5]),
			Quantity:   quantity,
		})
	}
	return rows, nil
}

func writeEventsCSV(path string, rows []schema.Event) error {
	records := make([][]string, 0, len(rows))
	for _, r := range rows {
		records = append(records, []string{
			formatTimestamp(r.EventTS),
			formatDate(r.EventDate),
			r.CustomerID,
			r.Market,
			r.ExtraID,
			string(r.EventType),
			strconv.FormatInt(r.Quantity, 10),
		})
	}
	return writeCSV(path, eventHeader, records)
}

func writeDQResultsCSV(path string, rows []schema.DQResult) error {
	records := make([][]string, 0, len(rows))
	for _, r := range rows {
		records = append(records, []string{
			formatDate(r.Date),
			r.CheckName,
			r.TableName,
			string(r.Severity),
			strconv.FormatInt(r.FailedRows, 10),
			r.SampleKeys,
		})
	}
	return writeCSV(path, dqHeader, records)
}

func writeDailyKPICSV(path string, rows []schema.DailyKPI) error {
	records := make([][]string, 0, len(rows))
	for _, r := range rows {
		records = append(records, []string{
			formatDate(r.Date),
			r.Market,
			stringOrEmpty(r.Region),
			r.ExtraID,
			stringOrEmpty(r.Category),
			strconv.FormatInt(r.Trials, 10),
			strconv.FormatInt(r.Purchases, 10),
			strconv.FormatInt(r.Renewals, 10),
			strconv.FormatInt(r.Cancels, 10),
			strconv.FormatInt(r.ActiveSubscriptions, 10),
			strconv.FormatInt(r.ActiveUsers, 10),
			strconv.FormatInt(r.Sessions, 10),
			floatOrEmpty(r.MRR, 2),
		})
	}
	return writeCSV(path, kpiHeader, records)
}

func writeCohortRetentionCSV(path string, rows []schema.CohortRetention) error {
	records := make([][]string, 0, len(rows))
	for _, r := range rows {
		records = append(records, []string{
			r.CohortMonth.Format(monthLayout),
			r.Market,
			r.ExtraID,
			strconv.FormatInt(int64(r.MonthN), 10),
			strconv.FormatInt(r.RetainedSubs, 10),
			strconv.FormatInt(r.CohortSize, 10),
			strconv.FormatFloat(r.RetentionRate, 'f', 4, 64),
		})
	}
	return writeCSV(path, cohortHeader, records)
}

// parseTimestamp accepts the pipeline's own timestamp layout plus RFC 3339
// variants produced by other tooling. Empty means missing.
func parseTimestamp(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, nil
	}
	for _, layout := range []string{timestampLayout, time.RFC3339, "2006-01-02T15:04:05", dateLayout} {
		if t, err := time.ParseInLocation(layout, value, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", value)
}

func parseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, nil
	}
	t, err := time.ParseInLocation(dateLayout, value, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("unrecognized date %q", value)
	}
	return t, nil
}

func parseFloat(value string) (float64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, nil
	}
	return strconv.ParseFloat(value, 64)
}

func parseInt(value string) (int64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, nil
	}
	return strconv.ParseInt(value, 10, 64)
}

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(timestampLayout)
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(dateLayout)
}

func stringOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func floatOrEmpty(f *float64, decimals int) string {
	if f == nil {
		return ""
	}
	return strconv.FormatFloat(*f, 'f', decimals, 64)
}
