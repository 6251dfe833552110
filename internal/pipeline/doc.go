// Package pipeline sequences one gold-build run: load the four raw tables,
// evaluate data quality, build the daily KPI and cohort retention tables,
// and hand the results to the store.
//
// A run either completes and writes all three gold tables or fails before
// producing any output. Data-quality findings never stop a run; a missing
// or unreadable input table always does.
package pipeline
