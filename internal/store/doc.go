// Package store is the tabular I/O boundary of the pipeline: it reads the
// four raw input tables and writes the three gold output tables in a single
// format per run, either parquet or plain CSV.
//
// The format is detected once from the raw directory (parquet preferred,
// keyed off the presence of fact_events) and applies to every table of the
// run. A missing input table is a structural error wrapped around
// ErrTableMissing and aborts the run before any computation; it is a
// deployment problem, never a data-quality finding.
package store
