package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// Paths is the single source of truth for every file location the pipeline
// reads or writes.
type Paths struct {
	RawDir       string
	ProcessedDir string
	ReportsDir   string
}

// NewPaths builds a Paths value from the configuration.
func NewPaths(cfg PathsConfig) Paths {
	return Paths{
		RawDir:       cfg.RawDir,
		ProcessedDir: cfg.ProcessedDir,
		ReportsDir:   cfg.ReportsDir,
	}
}

// RawTable returns the path of a raw input table in the given format
// extension ("parquet" or "csv").
func (p Paths) RawTable(name, ext string) string {
	return filepath.Join(p.RawDir, name+"."+ext)
}

// ProcessedTable returns the path of a gold output table in the given
// format extension.
func (p Paths) ProcessedTable(name, ext string) string {
	return filepath.Join(p.ProcessedDir, name+"."+ext)
}

// ReportFile returns the path of an analyst report artifact.
func (p Paths) ReportFile(name string) string {
	return filepath.Join(p.ReportsDir, name)
}

// EnsureOutputDirs creates the output directories if they do not exist.
// The raw directory is deliberately not created here: its absence is a
// deployment error the pipeline must surface, not repair.
func (p Paths) EnsureOutputDirs() error {
	for _, dir := range []string{p.ProcessedDir, p.ReportsDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}
