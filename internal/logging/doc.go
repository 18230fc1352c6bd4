// Package logging assembles structured slog loggers and formatting helpers used
// across hebrewtutor services.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so handlers can tag log lines
// with request correlation IDs and the book/chapter being aligned. A no-op
// logger is provided for tests and for wiring code that cannot fail.
package logging
