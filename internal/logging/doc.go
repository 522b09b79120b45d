// Package logging assembles structured slog loggers and formatting helpers used
// across the rexpaces pipeline.
//
// It owns the console and JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so pipeline code can tag log
// lines with run ids, stages, chunk indexes and correlation ids. A run may
// also tee a debug-level JSON copy of its records into a per-run log file next
// to the artifacts. The package provides a no-op logger for tests and wiring
// code that cannot fail.
package logging
