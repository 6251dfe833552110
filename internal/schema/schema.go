package schema

import "time"

// EventType enumerates the subscription lifecycle event types carried by
// fact_events. Any other value is schema-invalid input.
type EventType string

const (
	EventTrialStart   EventType = "trial_start"
	EventPurchase     EventType = "purchase"
	EventRenew        EventType = "renew"
	EventCancel       EventType = "cancel"
	EventUsageSession EventType = "usage_session"
)

// Severity classifies a data-quality finding.
type Severity string

const (
	SeverityInfo Severity = "info"
	SeverityWarn Severity = "warn"
	SeverityFail Severity = "fail"
)

// Market is one row of dim_market. Static reference set.
type Market struct {
	Market string `parquet:"market"`
	Region string `parquet:"region"`
}

// Extra is one row of dim_extra. Static reference set; price_monthly is
// expected to be strictly positive, a violation is a DQ finding rather than
// a load error.
type Extra struct {
	ExtraID      string  `parquet:"extra_id"`
	Name         string  `parquet:"extra_name"`
	Category     string  `parquet:"category"`
	PriceMonthly float64 `parquet:"price_monthly"`
}

// Customer is one row of dim_customer.
type Customer struct {
	CustomerID string    `parquet:"customer_id"`
	Market     string    `parquet:"market"`
	Segment    string    `parquet:"segment"`
	SignupDate time.Time `parquet:"signup_date,timestamp(millisecond)"`
}

// Event is one row of fact_events. Events are append-only facts; no
// uniqueness is enforced on ingest, duplicate rows are a DQ signal.
type Event struct {
	EventTS    time.Time `parquet:"event_ts,timestamp(millisecond)"`
	EventDate  time.Time `parquet:"event_date,timestamp(millisecond)"`
	CustomerID string    `parquet:"customer_id"`
	Market     string    `parquet:"market"`
	ExtraID    string    `parquet:"extra_id"`
	EventType  EventType `parquet:"event_type"`
	Quantity   int64     `parquet:"quantity"`
}

// HasMissingKey reports whether any of the key columns checked by the
// missing_keys DQ rule is absent (zero time or empty string). Quantity is
// not a key column.
func (e Event) HasMissingKey() bool {
	return e.EventTS.IsZero() ||
		e.EventDate.IsZero() ||
		e.CustomerID == "" ||
		e.Market == "" ||
		e.ExtraID == "" ||
		e.EventType == ""
}

// DedupKey identifies an event row for the exact-duplicate DQ rule:
// identical timestamp, customer, extra and event type.
type DedupKey struct {
	EventTS    int64
	CustomerID string
	ExtraID    string
	EventType  EventType
}

// DedupKey returns the duplicate-detection key for the event.
func (e Event) DedupKey() DedupKey {
	return DedupKey{
		EventTS:    e.EventTS.UnixNano(),
		CustomerID: e.CustomerID,
		ExtraID:    e.ExtraID,
		EventType:  e.EventType,
	}
}

// TripleKey identifies a (customer, market, extra) subscription triple, the
// grain of the sequence DQ rule and of cohort assignment.
type TripleKey struct {
	CustomerID string
	Market     string
	ExtraID    string
}

// Triple returns the subscription triple the event belongs to.
func (e Event) Triple() TripleKey {
	return TripleKey{CustomerID: e.CustomerID, Market: e.Market, ExtraID: e.ExtraID}
}

// DQResult is one row of gold_dq_results: one check evaluated over one run.
type DQResult struct {
	Date       time.Time `parquet:"date,timestamp(millisecond)"`
	CheckName  string    `parquet:"check_name"`
	TableName  string    `parquet:"table_name"`
	Severity   Severity  `parquet:"severity"`
	FailedRows int64     `parquet:"failed_rows"`
	SampleKeys string    `parquet:"sample_keys"`
}

// DailyKPI is one row of gold_daily_kpi, keyed by (date, market, extra_id).
// Region, Category and MRR are nil when the market or extra code has no
// matching dimension row; that is denormalization fallout, not an error.
// ActiveSubscriptions is a cumulative proxy and may legitimately be negative.
type DailyKPI struct {
	Date                time.Time `parquet:"date,timestamp(millisecond)"`
	Market              string    `parquet:"market"`
	Region              *string   `parquet:"region,optional"`
	ExtraID             string    `parquet:"extra_id"`
	Category            *string   `parquet:"category,optional"`
	Trials              int64     `parquet:"trials"`
	Purchases           int64     `parquet:"purchases"`
	Renewals            int64     `parquet:"renewals"`
	Cancels             int64     `parquet:"cancels"`
	ActiveSubscriptions int64     `parquet:"active_subscriptions"`
	ActiveUsers         int64     `parquet:"active_users"`
	Sessions            int64     `parquet:"sessions"`
	MRR                 *float64  `parquet:"mrr,optional"`
}

// CohortRetention is one row of gold_cohort_retention, keyed by
// (cohort_month, market, extra_id, month_n).
type CohortRetention struct {
	CohortMonth   time.Time `parquet:"cohort_month,timestamp(millisecond)"`
	Market        string    `parquet:"market"`
	ExtraID       string    `parquet:"extra_id"`
	MonthN        int32     `parquet:"month_n"`
	RetainedSubs  int64     `parquet:"retained_subs"`
	CohortSize    int64     `parquet:"cohort_size"`
	RetentionRate float64   `parquet:"retention_rate"`
}

// MonthOf truncates t to the first day of its calendar month in UTC.
func MonthOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// DateOf truncates t to midnight UTC, the grain of event_date.
func DateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// MonthsBetween returns the whole-month calendar difference from a to b
// (b minus a). Both arguments are expected to be month starts; day and time
// parts are ignored.
func MonthsBetween(a, b time.Time) int {
	return (b.Year()-a.Year())*12 + int(b.Month()) - int(a.Month())
}
