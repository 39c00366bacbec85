package logrotate

import "time"

// DefaultRetentionCount is the number of rotated files kept when
// WithRetentionCount is not used.
const DefaultRetentionCount = 7

// options holds the configuration assembled by New.
type options struct {
	maxSize        int64
	minSize        int64
	maxAge         time.Duration
	retentionCount int
	retentionAge   time.Duration
	codec          Codec
	delayCompress  bool
	formatter      Formatter
	errHandler     func(error)
}

// Option sets optional configuration for New.
type Option func(*options)

// WithMaxSize sets the size threshold in bytes. Once the active file has
// grown to at least this many bytes, the next append rotates it first.
// Zero disables size-based rotation.
func WithMaxSize(bytes int64) Option {
	return func(o *options) {
		o.maxSize = bytes
	}
}

// WithMaxAge sets the age threshold. Once the active file has been open for
// at least this long, the next append rotates it first. The Minutely through
// Yearly constants provide the classic cadences. Zero disables age-based
// rotation.
func WithMaxAge(d time.Duration) Option {
	return func(o *options) {
		o.maxAge = d
	}
}

// WithMinSize prevents age-based rotation of files smaller than the given
// byte count, so a quiet period does not produce a chain of near-empty
// rotated files. Requires WithMaxAge.
func WithMinSize(bytes int64) Option {
	return func(o *options) {
		o.minSize = bytes
	}
}

// WithRetentionCount sets how many rotated files to keep. The oldest is
// deleted whenever a rotation would exceed the cap. Zero means keep no
// history at all: rotation truncates the active file in place.
func WithRetentionCount(n int) Option {
	return func(o *options) {
		o.retentionCount = n
	}
}

// WithRetentionAge removes rotated files older than the given duration
// during rotation, in addition to the retention count cap.
// Zero disables age-based pruning.
func WithRetentionAge(d time.Duration) Option {
	return func(o *options) {
		o.retentionAge = d
	}
}

// WithCompression compresses each newly rotated file with the given codec.
// Already-rotated files are never re-compressed.
func WithCompression(c Codec) Option {
	return func(o *options) {
		o.codec = c
	}
}

// WithDelayCompress postpones compression by one rotation: the newest
// rotated file stays uncompressed (so it can still be inspected cheaply)
// and is compressed during the following rotation. Requires WithCompression.
func WithDelayCompress() Option {
	return func(o *options) {
		o.delayCompress = true
	}
}

// WithFormatter sets the formatter used by Append.
// The default is a TextFormatter with DefaultTimeLayout.
func WithFormatter(f Formatter) Option {
	return func(o *options) {
		o.formatter = f
	}
}

// WithErrorHandler sets an optional handler for non-fatal internal errors,
// such as a cleanup step failing after an otherwise successful rotation.
// The handler is called asynchronously and must not call back into the
// writer. If nil, such problems are printed to os.Stderr.
func WithErrorHandler(h func(error)) Option {
	return func(o *options) {
		o.errHandler = h
	}
}

// validate checks the assembled configuration.
func (o *options) validate() error {
	if o.maxSize < 0 {
		return configError("max size must be non-negative")
	}
	if o.minSize < 0 {
		return configError("min size must be non-negative")
	}
	if o.maxAge < 0 {
		return configError("max age must be non-negative")
	}
	if o.retentionCount < 0 {
		return configError("retention count must be non-negative")
	}
	if o.retentionAge < 0 {
		return configError("retention age must be non-negative")
	}
	if o.minSize > 0 && o.maxAge == 0 {
		return configError("min size requires a max age")
	}
	if !o.codec.valid() {
		return configError("unknown compression codec")
	}
	if o.delayCompress && o.codec == CodecNone {
		return configError("delayed compression requires a codec")
	}

	return nil
}
