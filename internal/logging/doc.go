// Package logging assembles structured slog loggers and formatting helpers used
// across animebot.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so request handlers can tag log
// lines with correlation IDs and the anime command being served. A no-op logger
// is provided for tests and wiring code that cannot fail.
package logging
