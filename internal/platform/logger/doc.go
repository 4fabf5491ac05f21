// Package logger provides structured logging functionality for the application.
//
// It uses Go's standard library log/slog package to emit JSON logs with a
// configurable level, and carries request-scoped loggers through a
// context.Context so handlers and stores log with the same trace attributes.
package logger
