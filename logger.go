package logrotate

import (
	"context"
	"sync/atomic"

	"github.com/balinomad/go-caller"
	"github.com/balinomad/go-ctxmap"
)

// DefaultKeySeparator is the default separator for group key prefixes.
const DefaultKeySeparator = "_"

// fieldStringer returns a string representation of a key-value pair.
var fieldStringer = func(k string, v any) string { return k + "=" + stringify(v) }

// Logger is a minimal leveled frontend over an Appender. It filters by
// level, carries persistent fields and groups, optionally reports the call
// site, and hands finished records to the Appender, typically a *Writer.
//
// Logger is safe for concurrent use. With and WithGroup return new
// instances sharing the same Appender; SetLevel affects the receiver only.
type Logger struct {
	out        Appender
	lvl        atomic.Int32
	fields     *ctxmap.CtxMap
	withCaller bool
	callerSkip int
}

// loggerOptions holds the configuration assembled by NewLogger.
type loggerOptions struct {
	level      LogLevel
	withCaller bool
	callerSkip int
	separator  string
}

// LoggerOption sets optional configuration for NewLogger.
type LoggerOption func(*loggerOptions) error

// WithLevel sets the minimum enabled log level. The default is LevelInfo.
func WithLevel(level LogLevel) LoggerOption {
	return func(o *loggerOptions) error {
		if err := ValidateLogLevel(level); err != nil {
			return err
		}
		o.level = level
		return nil
	}
}

// WithCaller enables or disables reporting the call site as a "source"
// field on every record.
func WithCaller(enabled bool) LoggerOption {
	return func(o *loggerOptions) error {
		o.withCaller = enabled
		return nil
	}
}

// WithCallerSkip adds extra stack frames to skip when resolving the call
// site, for wrappers around the Logger.
func WithCallerSkip(skip int) LoggerOption {
	return func(o *loggerOptions) error {
		if skip < 0 {
			return configError("caller skip must be non-negative")
		}
		o.callerSkip = skip
		return nil
	}
}

// WithKeySeparator sets the separator placed between a group prefix and
// field keys. The default is DefaultKeySeparator.
func WithKeySeparator(sep string) LoggerOption {
	return func(o *loggerOptions) error {
		o.separator = sep
		return nil
	}
}

// NewLogger creates a Logger writing to the given Appender.
func NewLogger(out Appender, opts ...LoggerOption) (*Logger, error) {
	if out == nil {
		return nil, ErrNilWriter
	}

	o := &loggerOptions{
		level:     LevelInfo,
		separator: DefaultKeySeparator,
	}
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}

	l := &Logger{
		out:        out,
		fields:     ctxmap.NewCtxMap(o.separator, " ", fieldStringer),
		withCaller: o.withCaller,
		callerSkip: o.callerSkip,
	}
	l.lvl.Store(int32(o.level))

	return l, nil
}

// log builds the record and hands it to the Appender. Append failures are
// reported through the package fallback logger so the frontend itself
// never returns an error to logging call sites.
func (l *Logger) log(level LogLevel, msg string, skip int, keyValues ...any) {
	if !l.Enabled(level) {
		return
	}

	// Drop an incomplete trailing pair.
	if len(keyValues)%2 != 0 {
		keyValues = keyValues[:len(keyValues)-1]
	}

	fields := make([]Field, 0, l.fields.Len()+len(keyValues)/2+1)
	l.fields.Range(func(k string, v any) {
		fields = append(fields, Field{Key: k, Value: v})
	})
	if l.withCaller {
		// Add 1 to skip the level method above this function; caller.New
		// already skips its own caller, which is this function.
		if s := l.callerSkip + skip + 1; s > 0 {
			fields = append(fields, Field{Key: "source", Value: caller.New(s).Location()})
		}
	}
	for i := 0; i < len(keyValues)-1; i += 2 {
		fields = append(fields, Field{Key: stringify(keyValues[i]), Value: keyValues[i+1]})
	}

	rec := Record{Level: level, Message: msg, Fields: fields}
	if err := l.out.Append(rec); err != nil {
		getFallback().Log(LevelError, "log append failed",
			"original_level", level.String(),
			"original_msg", msg,
			"append_error", err.Error())
	}
}

// Log is the generic logging entry point. The context is accepted for
// interface parity with richer frontends and is currently unused.
func (l *Logger) Log(_ context.Context, level LogLevel, msg string, keyValues ...any) {
	l.log(level, msg, 0, keyValues...)
}

// Enabled reports whether logging at the given level is currently enabled.
func (l *Logger) Enabled(level LogLevel) bool {
	return level >= LogLevel(l.lvl.Load())
}

// SetLevel dynamically changes the minimum level of records that will be
// written.
func (l *Logger) SetLevel(level LogLevel) error {
	if err := ValidateLogLevel(level); err != nil {
		return err
	}

	l.lvl.Store(int32(level))

	return nil
}

// With returns a new Logger that always includes the given key-value pairs.
// The receiver is unchanged.
func (l *Logger) With(keyValues ...any) *Logger {
	if len(keyValues) < 2 {
		return l
	}

	clone := l.clone()
	clone.fields = l.fields.WithPairs(keyValues...)

	return clone
}

// WithGroup returns a new Logger that prefixes field keys with the given
// group name. An empty name returns the receiver.
func (l *Logger) WithGroup(name string) *Logger {
	if name == "" {
		return l
	}

	clone := l.clone()
	clone.fields = l.fields.WithPrefix(name)

	return clone
}

// clone returns a copy of the logger sharing the Appender and fields.
func (l *Logger) clone() *Logger {
	clone := &Logger{
		out:        l.out,
		fields:     l.fields,
		withCaller: l.withCaller,
		callerSkip: l.callerSkip,
	}
	clone.lvl.Store(l.lvl.Load())

	return clone
}

// Trace logs a message at the trace level.
func (l *Logger) Trace(_ context.Context, msg string, keyValues ...any) {
	l.log(LevelTrace, msg, 0, keyValues...)
}

// Debug logs a message at the debug level.
func (l *Logger) Debug(_ context.Context, msg string, keyValues ...any) {
	l.log(LevelDebug, msg, 0, keyValues...)
}

// Info logs a message at the info level.
func (l *Logger) Info(_ context.Context, msg string, keyValues ...any) {
	l.log(LevelInfo, msg, 0, keyValues...)
}

// Warn logs a message at the warn level.
func (l *Logger) Warn(_ context.Context, msg string, keyValues ...any) {
	l.log(LevelWarn, msg, 0, keyValues...)
}

// Error logs a message at the error level.
func (l *Logger) Error(_ context.Context, msg string, keyValues ...any) {
	l.log(LevelError, msg, 0, keyValues...)
}
