package logrotate

import (
	"fmt"
	"strings"
)

// LogLevel represents log severity levels.
type LogLevel int32

// Log levels are ordered from least to most severe.
const (
	LevelTrace LogLevel = iota
	LevelDebug
	LevelInfo
	LevelWarn
	LevelError
)

// String returns a human-readable representation of the log level.
func (l LogLevel) String() string {
	switch l {
	case LevelTrace:
		return "TRACE"
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return fmt.Sprintf("UNKNOWN (%d)", l)
	}
}

// ParseLevel converts a string to a LogLevel.
// It is case-insensitive. If the string is not a valid level,
// it returns LevelInfo and an error.
func ParseLevel(levelStr string) (LogLevel, error) {
	switch strings.ToUpper(levelStr) {
	case "TRACE":
		return LevelTrace, nil
	case "DEBUG":
		return LevelDebug, nil
	case "INFO":
		return LevelInfo, nil
	case "WARN":
		return LevelWarn, nil
	case "ERROR":
		return LevelError, nil
	}
	return LevelInfo, fmt.Errorf("unknown log level: %q", levelStr)
}

// IsValidLogLevel returns true if the given log level is valid.
func IsValidLogLevel(level LogLevel) bool {
	return level >= LevelTrace && level <= LevelError
}

// ValidateLogLevel returns an error if the given log level is invalid.
func ValidateLogLevel(level LogLevel) error {
	if !IsValidLogLevel(level) {
		return invalidLevelError(level)
	}

	return nil
}
