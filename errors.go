package logrotate

import (
	"errors"
	"fmt"
)

// Sentinel errors for common conditions
var (
	ErrClosed          = errors.New("writer is closed")
	ErrInvalidConfig   = errors.New("invalid configuration")
	ErrCompressionFail = errors.New("compression failed")
	ErrNilWriter       = errors.New("writer cannot be nil")
)

// configError returns an error with ErrInvalidConfig.
func configError(detail string) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfig, detail)
}

// compressionError returns an error with ErrCompressionFail.
func compressionError(path string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrCompressionFail, path, err)
}

// invalidLevelError returns an error for a LogLevel that is out of range.
func invalidLevelError(level LogLevel) error {
	return fmt.Errorf("invalid log level %d, must be between %d and %d", level, LevelTrace, LevelError)
}
