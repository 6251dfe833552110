// Package config loads and validates the pipeline configuration.
//
// Configuration is resolved in three layers: coded defaults, an optional
// YAML file (config.yaml next to the working directory, or the path in
// EXTRA_CONFIG_FILE), and EXTRA_-prefixed environment variables, with each
// layer overriding the previous one. The resolved configuration is
// validated before use; a run never starts on an invalid configuration.
//
// The Paths value derived from the configuration is the single source of
// truth for every file location the pipeline touches.
package config
