package logrotate

import (
	"fmt"
	"io"
	"log"
	"os"
	"sync"

	"github.com/balinomad/go-atomicwriter"
)

// fallbackLogger provides a minimal, panic-safe destination for internal
// failures, such as a record that could not be appended. It is used so a
// logging call site never has to handle errors itself.
// Safe for concurrent use by multiple goroutines.
type fallbackLogger struct {
	w *atomicwriter.AtomicWriter
	l *log.Logger
}

// newFallbackLogger creates a fallbackLogger with the given output writer.
func newFallbackLogger(w io.Writer) (*fallbackLogger, error) {
	aw, err := atomicwriter.NewAtomicWriter(w)
	if err != nil {
		return nil, err
	}

	return &fallbackLogger{
		w: aw,
		l: log.New(aw, "[logrotate] ", log.LstdFlags),
	}, nil
}

// Log prints a message with its key-value pairs.
func (l *fallbackLogger) Log(level LogLevel, msg string, keyValues ...any) {
	var kvs string
	if len(keyValues) > 0 {
		kvs = fmt.Sprintf(" %v", keyValues)
	}

	l.l.Printf("%s: %s%s", level.String(), msg, kvs)
}

// SetOutput swaps the output atomically without blocking logging.
func (l *fallbackLogger) SetOutput(w io.Writer) error {
	return l.w.Swap(w)
}

// fallback is the package-wide fallback logger, initialized lazily on
// first failure to avoid startup overhead.
var fallback = struct {
	mu sync.Mutex
	l  *fallbackLogger
}{}

// getFallback returns the package fallback logger, creating it on first
// use with stderr output. It never fails: stderr is always a valid writer.
func getFallback() *fallbackLogger {
	fallback.mu.Lock()
	defer fallback.mu.Unlock()

	if fallback.l == nil {
		fallback.l, _ = newFallbackLogger(os.Stderr)
	}
	return fallback.l
}

// setFallback replaces the package fallback logger. Passing nil resets to
// the lazy stderr-backed default.
func setFallback(l *fallbackLogger) {
	fallback.mu.Lock()
	fallback.l = l
	fallback.mu.Unlock()
}
