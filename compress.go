package logrotate

import (
	"compress/gzip"
	"io"
	"os"

	"github.com/klauspost/compress/zstd"
)

// Codec selects the compression applied to freshly rotated files.
type Codec int

const (
	// CodecNone leaves rotated files uncompressed.
	CodecNone Codec = iota
	// CodecGzip compresses rotated files with gzip, adding a ".gz" suffix.
	CodecGzip
	// CodecZstd compresses rotated files with zstandard, adding a ".zst" suffix.
	CodecZstd
)

// String returns a human-readable representation of the codec.
func (c Codec) String() string {
	switch c {
	case CodecNone:
		return "none"
	case CodecGzip:
		return "gzip"
	case CodecZstd:
		return "zstd"
	default:
		return "unknown"
	}
}

// suffix returns the filename suffix the codec appends to compressed files.
func (c Codec) suffix() string {
	switch c {
	case CodecGzip:
		return ".gz"
	case CodecZstd:
		return ".zst"
	default:
		return ""
	}
}

// valid reports whether c is a known codec.
func (c Codec) valid() bool {
	return c >= CodecNone && c <= CodecZstd
}

// compressFile compresses src into src+suffix and removes the uncompressed
// original. On failure the partial output is removed and src is left intact,
// so the file set stays consistent.
func compressFile(src string, codec Codec) error {
	in, err := os.Open(src)
	if err != nil {
		return compressionError(src, err)
	}

	dst := src + codec.suffix()
	out, err := os.Create(dst)
	if err != nil {
		in.Close()
		return compressionError(dst, err)
	}

	switch codec {
	case CodecGzip:
		gw := gzip.NewWriter(out)
		if _, err = io.Copy(gw, in); err == nil {
			err = gw.Close()
		}
	case CodecZstd:
		var zw *zstd.Encoder
		if zw, err = zstd.NewWriter(out); err == nil {
			if _, err = io.Copy(zw, in); err == nil {
				err = zw.Close()
			}
		}
	default:
		in.Close()
		out.Close()
		os.Remove(dst)
		return compressionError(src, configError("no codec selected"))
	}

	if cerr := out.Close(); err == nil {
		err = cerr
	}
	in.Close()

	if err != nil {
		os.Remove(dst)
		return compressionError(src, err)
	}

	if err := os.Remove(src); err != nil {
		return compressionError(src, err)
	}

	return nil
}
