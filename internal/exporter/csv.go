package exporter

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// CSVWriter provides CSV export functionality.
type CSVWriter struct{}

// WriteOptions configures CSV writing behavior.
type WriteOptions struct {
	Headers   []string
	Records   [][]string
	BOMPrefix bool // add UTF-8 BOM so Excel recognizes the encoding
}

// WriteCSV writes data to a CSV file at the given path with the given
// options, creating parent directories as needed.
func (w *CSVWriter) WriteCSV(path string, options WriteOptions) error {
	slog.Debug("writing CSV file",
		slog.String("path", path),
		slog.Int("record_count", len(options.Records)))

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}
	defer file.Close()

	if options.BOMPrefix {
		if _, err := file.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
			return fmt.Errorf("write BOM: %w", err)
		}
	}

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if len(options.Headers) > 0 {
		if err := writer.Write(options.Headers); err != nil {
			return fmt.Errorf("write headers: %w", err)
		}
	}
	for i, record := range options.Records {
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("write record %d: %w", i, err)
		}
	}

	return writer.Error()
}

// WriteSimple writes a CSV file with headers and records.
func (w *CSVWriter) WriteSimple(path string, headers []string, records [][]string) error {
	return w.WriteCSV(path, WriteOptions{
		Headers:   headers,
		Records:   records,
		BOMPrefix: true,
	})
}
