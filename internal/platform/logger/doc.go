// Package logger provides structured logging functionality for the application.
//
// It utilizes Go's standard library log/slog package to implement structured JSON logging
// with configurable log levels. Request-scoped loggers travel in the context and are
// retrieved with FromContext; records logged with a context carrying an
// OpenTelemetry span are tagged with its trace and span ids.
package logger
