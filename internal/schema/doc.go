// Package schema defines the row contracts shared by every stage of the
// extras analytics pipeline: the four raw input tables (dim_market, dim_extra,
// dim_customer, fact_events) and the three derived gold tables
// (gold_dq_results, gold_daily_kpi, gold_cohort_retention).
//
// Column names and their order are the stable interface toward downstream
// reporting consumers; renaming or reordering a column is a breaking change.
// The package holds no transformation logic.
package schema
