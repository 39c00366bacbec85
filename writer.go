package logrotate

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// writeBufferSize is the size of the in-memory buffer in front of the
// active file. Flush, Sync, Close and rotation all drain it.
const writeBufferSize = 4096

// writerState tracks the Writer's lifecycle. Transitions happen only with
// the lock held: stateOpen -> stateRotating -> stateOpen, or -> stateClosed.
type writerState int

const (
	stateOpen writerState = iota
	stateRotating
	stateClosed
)

// Writer is the single entry point for appending log records to a file
// with in-process rotation. It is safe for concurrent use by multiple
// goroutines: one exclusive lock guards the whole format-check-rotate-write
// sequence, so a half-completed rotation is never observable.
type Writer struct {
	mu        sync.Mutex
	filename  string
	policy    policy
	files     *fileSet
	formatter Formatter

	state    writerState
	file     *os.File
	buf      *bufio.Writer
	size     int64 // bytes in the active file since it was opened or rotated
	openedAt time.Time

	errHandler func(error)
	now        func() time.Time // clock; replaceable in tests
}

// New constructs a Writer appending to filename. The parent directory is
// created if missing; an existing file is appended to, and its current size
// counts toward the size threshold.
//
// With neither WithMaxSize nor WithMaxAge the Writer never rotates on its
// own and degenerates to a plain append-only file writer; Rotate can still
// be called manually.
func New(filename string, opts ...Option) (*Writer, error) {
	if filename == "" {
		return nil, configError("filename cannot be empty")
	}

	o := &options{
		retentionCount: DefaultRetentionCount,
		formatter:      &TextFormatter{},
	}
	for _, opt := range opts {
		opt(o)
	}
	if err := o.validate(); err != nil {
		return nil, err
	}

	w := &Writer{
		filename: filename,
		policy: policy{
			maxSize: o.maxSize,
			minSize: o.minSize,
			maxAge:  o.maxAge,
		},
		formatter:  o.formatter,
		errHandler: o.errHandler,
		now:        time.Now,
	}
	w.files = &fileSet{
		filename:       filename,
		retentionCount: o.retentionCount,
		retentionAge:   o.retentionAge,
		codec:          o.codec,
		delayCompress:  o.delayCompress,
		report:         w.report,
	}

	if err := w.openExistingOrNew(); err != nil {
		return nil, err
	}
	return w, nil
}

// Append formats the record and writes the resulting line to the active
// file, rotating first if a threshold has been crossed. A zero record time
// is filled with the current time. Records from concurrent callers are
// written whole and in append order.
//
// Formatting cannot fail by contract; the returned error is either a
// rotation failure or a write failure, and in both cases the record was
// not written. The Writer stays usable and the next call re-evaluates the
// rotation policy.
func (w *Writer) Append(r Record) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.state == stateClosed {
		return ErrClosed
	}

	if r.Time.IsZero() {
		r.Time = w.now()
	}

	_, err := w.write(w.formatter.Format(r))
	return err
}

// Write implements io.Writer so the Writer can serve as the sink of any
// logging frontend. Each call is treated as one record: it is subject to
// the same rotation check and ordering guarantees as Append.
func (w *Writer) Write(p []byte) (n int, err error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.state == stateClosed {
		return 0, ErrClosed
	}

	return w.write(p)
}

// write checks the rotation policy, rotates if due, and appends p.
// Caller must hold the lock.
func (w *Writer) write(p []byte) (n int, err error) {
	if w.policy.due(w.size, w.openedAt, w.now()) {
		if rerr := w.rotate(); rerr != nil {
			// The record is not written; the caller decides whether to
			// drop, buffer, or retry. The next write re-evaluates the
			// policy and may retry the rotation.
			return 0, rerr
		}
	}

	// A previous failed rotation may have left no handle behind.
	if w.file == nil {
		if oerr := w.openExistingOrNew(); oerr != nil {
			return 0, oerr
		}
	}

	n, err = w.buf.Write(p)
	w.size += int64(n)
	return n, err
}

// Rotate triggers a rotation regardless of the configured thresholds.
// It returns ErrClosed after Close.
func (w *Writer) Rotate() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.state == stateClosed {
		return ErrClosed
	}

	return w.rotate()
}

// Flush forces any buffered bytes to the file. It may be called at any
// time and is idempotent; after Close it is a no-op.
func (w *Writer) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.flush()
}

// Sync flushes buffered bytes and asks the OS to commit the active file to
// stable storage. After Close it is a no-op.
func (w *Writer) Sync() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.flush(); err != nil {
		return err
	}
	if w.file == nil {
		return nil
	}
	return w.file.Sync()
}

// Close flushes and closes the active file and marks the Writer closed.
// It is safe to call multiple times; subsequent Append, Write and Rotate
// calls return ErrClosed.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.state == stateClosed {
		return nil
	}
	w.state = stateClosed

	ferr := w.flush()
	cerr := w.closeFile()
	if ferr != nil {
		return ferr
	}
	return cerr
}

// flush drains the buffer. Caller must hold the lock.
func (w *Writer) flush() error {
	if w.buf == nil {
		return nil
	}
	if err := w.buf.Flush(); err != nil {
		return fmt.Errorf("failed to flush buffer: %w", err)
	}
	return nil
}

// closeFile closes the active handle. Caller must hold the lock and must
// have flushed first.
func (w *Writer) closeFile() error {
	if w.file == nil {
		return nil
	}
	err := w.file.Close()
	w.file = nil
	w.buf = nil
	return err
}

// openExistingOrNew opens the active file for appending, creating it and
// its directory if needed. Caller must hold the lock.
func (w *Writer) openExistingOrNew() error {
	dir := filepath.Dir(w.filename)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	info, err := os.Stat(w.filename)
	switch {
	case err == nil:
		w.size = info.Size()
	case os.IsNotExist(err):
		w.size = 0
	default:
		return fmt.Errorf("failed to get file info: %w", err)
	}

	f, err := os.OpenFile(w.filename, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}

	w.file = f
	w.buf = bufio.NewWriterSize(f, writeBufferSize)
	w.openedAt = w.now()

	return nil
}

// rotate retires the active file and opens a fresh one. Caller must hold
// the lock.
//
// If the file set could not be advanced (for example the rename failed),
// the old active file is reopened so nothing is lost, and the error
// propagates. If the fresh active file cannot be created, the rotation
// fails entirely: the Writer will not append blind, and the next write
// attempts to reopen.
func (w *Writer) rotate() error {
	w.state = stateRotating
	defer func() {
		if w.state == stateRotating {
			w.state = stateOpen
		}
	}()

	if err := w.flush(); err != nil {
		return err
	}
	if err := w.closeFile(); err != nil {
		return fmt.Errorf("failed to close file before rotation: %w", err)
	}

	ferr := w.files.rotate()
	oerr := w.openExistingOrNew()

	switch {
	case ferr != nil && oerr != nil:
		return errors.Join(ferr, oerr)
	case ferr != nil:
		return ferr
	case oerr != nil:
		return oerr
	}

	w.size = 0
	return nil
}

// report hands a non-fatal error to the configured handler in a goroutine
// to avoid blocking the writer. If no handler is configured, the error is
// printed to stderr.
func (w *Writer) report(err error) {
	if err == nil {
		return
	}

	handler := w.errHandler
	if handler == nil {
		fmt.Fprintln(os.Stderr, "logrotate:", err)
		return
	}

	go func() {
		defer func() {
			if r := recover(); r != nil {
				fmt.Fprintf(os.Stderr, "logrotate: error handler panicked: %v\n", r)
			}
		}()
		handler(err)
	}()
}
