// Package logging assembles structured slog loggers and formatting helpers used
// across the dubbing service.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so stage code can tag log lines
// with job IDs, stages, and correlation IDs. Each job can additionally tee its
// records into a dedicated JSON log under the log directory.
package logging
