package logrotate

import (
	"context"
	"os"
	"sync"
	"time"
)

// stderrAppender formats records with the default formatter and writes them
// to stderr. It backs the default logger until SetDefault is called, so the
// package-level helpers are always usable.
type stderrAppender struct {
	f TextFormatter
}

// Append implements the Appender interface.
func (a *stderrAppender) Append(r Record) error {
	if r.Time.IsZero() {
		r.Time = time.Now()
	}
	_, err := os.Stderr.Write(a.f.Format(r))
	return err
}

// global is the package default logger instance.
// It is initialized on first use.
var global = struct {
	mu     sync.Mutex
	logger *Logger
}{}

// SetDefault sets the package default logger used by the package-level
// logging functions. Passing nil resets to the stderr-backed default.
func SetDefault(l *Logger) {
	global.mu.Lock()
	global.logger = l
	global.mu.Unlock()
}

// Default returns the package default logger. If no logger has been set,
// it initializes one writing to stderr at LevelInfo.
// Never panics; always returns a usable logger.
func Default() *Logger {
	global.mu.Lock()
	defer global.mu.Unlock()

	if global.logger == nil {
		global.logger, _ = NewLogger(&stderrAppender{})
	}

	return global.logger
}

// logWithDefault logs through the default logger, accounting for the extra
// stack frame the package-level helpers add.
func logWithDefault(level LogLevel, msg string, keyValues ...any) {
	Default().log(level, msg, 1, keyValues...)
}

// Log logs a message at the given level using the package default logger.
func Log(_ context.Context, level LogLevel, msg string, keyValues ...any) {
	logWithDefault(level, msg, keyValues...)
}

// Trace logs a message at the trace level using the package default logger.
func Trace(_ context.Context, msg string, keyValues ...any) {
	logWithDefault(LevelTrace, msg, keyValues...)
}

// Debug logs a message at the debug level using the package default logger.
func Debug(_ context.Context, msg string, keyValues ...any) {
	logWithDefault(LevelDebug, msg, keyValues...)
}

// Info logs a message at the info level using the package default logger.
func Info(_ context.Context, msg string, keyValues ...any) {
	logWithDefault(LevelInfo, msg, keyValues...)
}

// Warn logs a message at the warn level using the package default logger.
func Warn(_ context.Context, msg string, keyValues ...any) {
	logWithDefault(LevelWarn, msg, keyValues...)
}

// Error logs a message at the error level using the package default logger.
func Error(_ context.Context, msg string, keyValues ...any) {
	logWithDefault(LevelError, msg, keyValues...)
}
