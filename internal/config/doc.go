// Package config loads, normalizes, and validates bdetect configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), and reads TOML files. The Config type centralizes every knob the
// CLI needs: working directory, ledger location, classifier model settings,
// and fetcher options.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths and clear validation errors.
package config
