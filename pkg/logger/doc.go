// Package logger builds configured slog loggers with consistent attribute
// helpers used across the module.
package logger
