// Package logging assembles the structured slog loggers used across bdetect.
//
// It owns the console and JSON handlers, centralizes level parsing and output
// plumbing, and exposes attr helpers so pipeline stages emit log lines with a
// consistent shape. A no-op logger is provided for tests and wiring code that
// cannot fail.
package logging
