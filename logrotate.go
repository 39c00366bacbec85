// Package logrotate provides a process-local log file sink with in-process
// rotation, mirroring the behavior of the classic logrotate utility without
// an external scheduler.
//
// Purpose
//
//	logrotate.Writer is a concurrent-safe writer that appends formatted log
//	records (or raw bytes) to a file and retires that file into a numbered
//	history once it exceeds configured size or age limits. Rotated files are
//	named <base>.1 (newest) through <base>.N (oldest), optionally compressed,
//	and pruned so the history never exceeds the configured retention.
//
// Intended use
//   - General-purpose application logging where rotations are infrequent
//     relative to individual writes. Every append holds one exclusive lock
//     for its whole format-check-rotate-write sequence; a caller may block
//     for the duration of a rotation, which is accepted as a bounded,
//     infrequent latency cost.
//   - As the output sink of a logging frontend: Writer implements io.Writer,
//     so it plugs directly into zap, zerolog, logrus, log15, slog or any
//     other library that writes lines to an io.Writer.
//
// Guarantees & limitations
//   - For a single Writer, records appear in the files in exactly the order
//     they were appended. A record is never split, truncated, or duplicated
//     across a rotation boundary.
//   - A record larger than the size threshold is still written in full; the
//     threshold schedules rotation, it is not a hard cap on file size.
//   - A failed rotation leaves the file set in the best available consistent
//     state and the Writer usable; the error is returned to the caller and
//     the next append re-evaluates the policy.
//   - One process owns a given base path. There is no multi-process
//     coordination, no background rotation goroutine, and no internal retry.
package logrotate

import "io"

// Appender accepts structured log records. It is the surface a logging
// frontend needs from this package; Writer is the canonical implementation.
type Appender interface {
	// Append formats the record and writes it to the active file,
	// rotating first if a threshold has been crossed.
	Append(r Record) error
}

// Rotator is implemented by writers that can rotate their backing file on
// demand in addition to rotating automatically.
// All implementations must be safe for concurrent use.
type Rotator interface {
	io.WriteCloser

	// Rotate retires the active file into the rotated history and starts
	// a fresh one, regardless of the configured thresholds.
	Rotate() error
}

// Ensure Writer satisfies the package interfaces.
var (
	_ Appender = (*Writer)(nil)
	_ Rotator  = (*Writer)(nil)
)
