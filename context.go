package logrotate

import (
	"context"
)

type ctxLoggerKey struct{}

var loggerKey = ctxLoggerKey{}

// WithLogger returns a new context carrying the provided logger.
func WithLogger(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// LoggerFromContext retrieves the logger from the context.
// The boolean return value indicates if a logger was found in the context.
// If no logger is found, it returns nil and false.
func LoggerFromContext(ctx context.Context) (*Logger, bool) {
	if ctx == nil {
		return nil, false
	}

	l, ok := ctx.Value(loggerKey).(*Logger)
	return l, ok
}

// LoggerFromContextOrDefault retrieves the logger from the context,
// falling back to the package default logger if none is present.
func LoggerFromContextOrDefault(ctx context.Context) *Logger {
	if logger, ok := LoggerFromContext(ctx); ok {
		return logger
	}

	return Default()
}
