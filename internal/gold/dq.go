package gold

import (
	"time"

	"extrapulse/internal/schema"
)

// DQ check names as they appear in gold_dq_results. The evaluation order is
// fixed and part of the output contract.
const (
	CheckMissingKeys      = "missing_keys"
	CheckDuplicates       = "duplicates"
	CheckInvalidSequence  = "invalid_sequence_renew_before_purchase"
	CheckMarketMismatch   = "market_mismatch_events_vs_customers"
	CheckNonPositivePrice = "non_positive_price"
)

// EvaluateDQ runs the fixed battery of five data-quality checks against the
// input tables and returns exactly five result rows, one per check, in a
// fixed order. Each check is self-contained; a failing check never blocks
// the others. Counts are exact, never sampled.
//
// asOf stamps the result rows; it is passed in rather than read from the
// wall clock so runs are reproducible.
func EvaluateDQ(asOf time.Time, events []schema.Event, customers []schema.Customer, extras []schema.Extra) []schema.DQResult {
	asOf = schema.DateOf(asOf)

	results := make([]schema.DQResult, 0, 5)
	add := func(check, table string, failSeverity schema.Severity, failed int64) {
		severity := schema.SeverityInfo
		if failed > 0 {
			severity = failSeverity
		}
		results = append(results, schema.DQResult{
			Date:       asOf,
			CheckName:  check,
			TableName:  table,
			Severity:   severity,
			FailedRows: failed,
			SampleKeys: "", // reserved for future enrichment
		})
	}

	add(CheckMissingKeys, "events", schema.SeverityFail, countMissingKeys(events))
	add(CheckDuplicates, "events", schema.SeverityWarn, countDuplicates(events))
	add(CheckInvalidSequence, "events", schema.SeverityWarn, countRenewBeforePurchase(events))
	add(CheckMarketMismatch, "events/customers", schema.SeverityWarn, countMarketMismatches(events, customers))
	add(CheckNonPositivePrice, "extras", schema.SeverityFail, countNonPositivePrices(extras))

	return results
}

// countMissingKeys counts event rows with any key column absent.
func countMissingKeys(events []schema.Event) int64 {
	var n int64
	for _, e := range events {
		if e.HasMissingKey() {
			n++
		}
	}
	return n
}

// countDuplicates counts event rows that exactly repeat an earlier row on
// (event_ts, customer_id, extra_id, event_type). The first occurrence is
// never counted.
func countDuplicates(events []schema.Event) int64 {
	seen := make(map[schema.DedupKey]struct{}, len(events))
	var n int64
	for _, e := range events {
		key := e.DedupKey()
		if _, ok := seen[key]; ok {
			n++
			continue
		}
		seen[key] = struct{}{}
	}
	return n
}

// countRenewBeforePurchase counts (customer, market, extra) triples whose
// earliest renew precedes their earliest purchase, or that renew without
// any purchase at all. Triples with no renew are never counted.
func countRenewBeforePurchase(events []schema.Event) int64 {
	firstPurchase := make(map[schema.TripleKey]time.Time)
	firstRenew := make(map[schema.TripleKey]time.Time)

	for _, e := range events {
		switch e.EventType {
		case schema.EventPurchase:
			recordEarliest(firstPurchase, e.Triple(), e.EventDate)
		case schema.EventRenew:
			recordEarliest(firstRenew, e.Triple(), e.EventDate)
		}
	}

	var n int64
	for key, renew := range firstRenew {
		purchase, ok := firstPurchase[key]
		if !ok || renew.Before(purchase) {
			n++
		}
	}
	return n
}

// countMarketMismatches counts event rows whose market differs from the
// customer's registered market. Events for unknown customers, or customers
// without a registered market, are not mismatches.
func countMarketMismatches(events []schema.Event, customers []schema.Customer) int64 {
	registered := make(map[string]string, len(customers))
	for _, c := range customers {
		if _, ok := registered[c.CustomerID]; !ok {
			registered[c.CustomerID] = c.Market
		}
	}

	var n int64
	for _, e := range events {
		market, ok := registered[e.CustomerID]
		if ok && market != "" && e.Market != market {
			n++
		}
	}
	return n
}

// countNonPositivePrices counts extras priced at or below zero.
func countNonPositivePrices(extras []schema.Extra) int64 {
	var n int64
	for _, x := range extras {
		if x.PriceMonthly <= 0 {
			n++
		}
	}
	return n
}

func recordEarliest(m map[schema.TripleKey]time.Time, key schema.TripleKey, date time.Time) {
	if existing, ok := m[key]; !ok || date.Before(existing) {
		m[key] = date
	}
}
