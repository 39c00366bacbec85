// Package file provides an alternative rotation backend built on
// lumberjack. It keeps timestamp-suffixed backups instead of the indexed
// base.1..N history of the root package, which suits deployments where
// external tooling collects dated files.
package file

import (
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/balinomad/go-logrotate"
)

// Config holds the settings for a lumberjack-backed writer. Sizes are in
// megabytes and ages in days, following the conventions of the underlying
// library.
type Config struct {
	// Filename is the file to write logs to.
	Filename string
	// MaxSizeMB is the size in megabytes at which the file is rotated.
	MaxSizeMB int
	// RetentionCount is the maximum number of backups to keep.
	// Zero keeps all backups.
	RetentionCount int
	// RetentionDays is the maximum age in days of a backup before it is
	// removed. Zero keeps backups regardless of age.
	RetentionDays int
	// Compress enables gzip compression of rotated backups.
	Compress bool
}

// Writer rotates a log file using timestamped backup names. It is safe for
// concurrent use.
type Writer struct {
	lj *lumberjack.Logger
}

var _ logrotate.Rotator = (*Writer)(nil)

// New creates a Writer from the given configuration.
func New(cfg Config) (*Writer, error) {
	switch {
	case cfg.Filename == "":
		return nil, logrotate.ErrInvalidConfig
	case cfg.MaxSizeMB < 0 || cfg.RetentionCount < 0 || cfg.RetentionDays < 0:
		return nil, logrotate.ErrInvalidConfig
	}

	return &Writer{
		lj: &lumberjack.Logger{
			Filename:   cfg.Filename,
			MaxSize:    cfg.MaxSizeMB,
			MaxAge:     cfg.RetentionDays,
			MaxBackups: cfg.RetentionCount,
			Compress:   cfg.Compress,
		},
	}, nil
}

// Write appends p to the active file, rotating first when the size
// threshold would be exceeded.
func (w *Writer) Write(p []byte) (int, error) {
	return w.lj.Write(p)
}

// Rotate forces a rotation regardless of the thresholds.
func (w *Writer) Rotate() error {
	return w.lj.Rotate()
}

// Close closes the active file.
func (w *Writer) Close() error {
	return w.lj.Close()
}
