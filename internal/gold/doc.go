// Package gold derives the analytics-ready gold tables of the extras
// pipeline from the raw dimension and event tables.
//
// # Components
//
// The package contains the three transformations that carry all of the
// pipeline's correctness subtleties:
//
//  1. EvaluateDQ: a fixed battery of five data-quality checks producing
//     gold_dq_results (dq.go)
//  2. BuildDailyKPI: the per-day / per-market / per-extra KPI rollup with
//     the cumulative subscription proxy and MRR (dailykpi.go)
//  3. BuildCohortRetention: cohort assignment from first purchase and
//     retention indexed by months-since-cohort (cohort.go)
//
// Every transformation is a pure function of its inputs: identical input
// tables always yield identical output rows, no wall clock or shared state
// is consulted. The DQ evaluation date is an explicit as-of parameter for
// that reason.
//
// Data-quality findings are first-class output, never errors: the KPI and
// cohort builders run regardless of DQ severity, so reporting is never
// blocked by upstream defects. Duplicate events therefore inflate KPI
// counts by design; the DQ table is the mechanism that surfaces them.
package gold
