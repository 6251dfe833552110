// Package exporter writes analyst-facing report artifacts: plain CSV files
// (also used by the store's CSV table format) and an Excel workbook bundling
// the three gold tables for hand-off.
package exporter
