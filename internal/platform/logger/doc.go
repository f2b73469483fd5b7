// Package logger provides structured logging functionality for the application.
//
// It utilizes Go's standard library log/slog package to implement structured JSON logging
// with configurable log levels, and carries request- and task-scoped loggers through
// context.Context so trace identifiers survive across layer boundaries.
package logger
