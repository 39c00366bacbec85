// Package multi provides a thread-safe fan-out that duplicates appended
// records to several sinks, such as a rotating file plus stderr.
package multi

import (
	"errors"
	"io"
	"sync"

	"github.com/balinomad/go-logrotate"
)

// Appender duplicates every record to all underlying appenders. It is safe
// for concurrent use.
type Appender struct {
	mu   sync.Mutex
	outs []logrotate.Appender
}

var _ logrotate.Appender = (*Appender)(nil)

// New creates an Appender fanning out to the given sinks.
func New(outs ...logrotate.Appender) *Appender {
	// Defensive copy so later mutation of the argument slice has no effect.
	o := make([]logrotate.Appender, len(outs))
	copy(o, outs)
	return &Appender{outs: o}
}

// Append hands the record to every sink. All sinks are attempted even after
// an error; the errors are combined and returned.
func (a *Appender) Append(r logrotate.Record) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	var errs []error
	for _, out := range a.outs {
		if err := out.Append(r); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// AddAppenders adds one or more sinks to the fan-out.
func (a *Appender) AddAppenders(outs ...logrotate.Appender) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.outs = append(a.outs, outs...)
}

// Rotate forces a rotation on every sink that supports it.
func (a *Appender) Rotate() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	var errs []error
	for _, out := range a.outs {
		if r, ok := out.(interface{ Rotate() error }); ok {
			if err := r.Rotate(); err != nil {
				errs = append(errs, err)
			}
		}
	}

	return errors.Join(errs...)
}

// Close closes every sink that implements io.Closer. All sinks are closed
// even after an error; the errors are combined and returned.
func (a *Appender) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	var errs []error
	for _, out := range a.outs {
		if c, ok := out.(io.Closer); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}

	return errors.Join(errs...)
}
