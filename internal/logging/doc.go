// Package logging assembles the slog loggers used across drumviz.
//
// It owns the console and JSON handlers, routes output to the terminal and the
// run log file, and exposes context-aware helpers so pipeline stages tag their
// lines with the run ID, stage, and segment ordinal automatically. A no-op
// logger is provided for tests and wiring code that cannot fail.
package logging
