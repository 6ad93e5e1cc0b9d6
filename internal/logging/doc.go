// Package logging assembles structured slog loggers and formatting helpers used
// across stitchfetch.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so fetch code can automatically
// tag log lines with run and screen identifiers. The console handler renders
// the screen and artifact as a subject column so a batch reads top to bottom in
// input order. The package also provides a no-op logger for tests and wiring
// code that cannot fail.
package logging
