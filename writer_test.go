package logrotate

import (
	"bytes"
	"compress/gzip"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/klauspost/compress/zstd"
)

func TestNew(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name        string
		filename    string
		opts        []Option
		expectError bool
		errorMsg    string
	}{
		{
			name:     "valid_minimal",
			filename: "app.log",
		},
		{
			name:     "valid_with_subdirectory",
			filename: filepath.Join("logs", "app.log"),
			opts:     []Option{WithMaxSize(1 << 20), WithRetentionCount(3)},
		},
		{
			name:     "valid_no_thresholds",
			filename: "append-only.log",
			opts:     []Option{WithRetentionCount(0)},
		},
		{
			name:        "empty_filename",
			filename:    "",
			expectError: true,
			errorMsg:    "filename cannot be empty",
		},
		{
			name:        "negative_max_size",
			filename:    "app.log",
			opts:        []Option{WithMaxSize(-1)},
			expectError: true,
			errorMsg:    "max size must be non-negative",
		},
		{
			name:        "negative_retention_count",
			filename:    "app.log",
			opts:        []Option{WithRetentionCount(-1)},
			expectError: true,
			errorMsg:    "retention count must be non-negative",
		},
		{
			name:        "min_size_without_max_age",
			filename:    "app.log",
			opts:        []Option{WithMinSize(100)},
			expectError: true,
			errorMsg:    "min size requires a max age",
		},
		{
			name:        "delay_compress_without_codec",
			filename:    "app.log",
			opts:        []Option{WithDelayCompress()},
			expectError: true,
			errorMsg:    "delayed compression requires a codec",
		},
		{
			name:        "unknown_codec",
			filename:    "app.log",
			opts:        []Option{WithCompression(Codec(42))},
			expectError: true,
			errorMsg:    "unknown compression codec",
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			filename := tc.filename
			if filename != "" {
				filename = filepath.Join(t.TempDir(), filename)
			}

			w, err := New(filename, tc.opts...)
			if tc.expectError {
				if err == nil {
					t.Fatal("expected an error but got none")
				}
				if !errors.Is(err, ErrInvalidConfig) {
					t.Errorf("error %v is not ErrInvalidConfig", err)
				}
				if !strings.Contains(err.Error(), tc.errorMsg) {
					t.Errorf("error message %q does not contain %q", err.Error(), tc.errorMsg)
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			defer w.Close()

			if _, statErr := os.Stat(filename); statErr != nil {
				t.Errorf("active file was not created: %v", statErr)
			}
		})
	}
}

// TestWriter_SizeTrigger walks the documented scenario: a 100-byte size
// threshold and nine 15-byte records rotate exactly once, after the
// seventh record crosses the threshold.
func TestWriter_SizeTrigger(t *testing.T) {
	t.Parallel()
	filename := filepath.Join(t.TempDir(), "size.log")

	w, err := New(filename, WithMaxSize(100), WithRetentionCount(2))
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}

	record := []byte("abcdefghijklmn\n") // 15 bytes
	var want bytes.Buffer
	for i := 0; i < 9; i++ {
		if _, err := w.Write(record); err != nil {
			t.Fatalf("Write %d failed: %v", i+1, err)
		}
		want.Write(record)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}

	// Records 1-7 (105 bytes) in the rotated file, 8-9 in the active file.
	assertFileContent(t, filename+".1", strings.Repeat(string(record), 7))
	assertFileContent(t, filename, strings.Repeat(string(record), 2))
	assertFileNotExists(t, filename+".2")
}

// TestWriter_OversizeRecord checks that a record larger than the size
// threshold is written whole; the threshold schedules rotation, it does
// not cap the file.
func TestWriter_OversizeRecord(t *testing.T) {
	t.Parallel()
	filename := filepath.Join(t.TempDir(), "oversize.log")

	w, err := New(filename, WithMaxSize(10), WithRetentionCount(2))
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}

	big := strings.Repeat("x", 100) + "\n"
	if _, err := w.Write([]byte(big)); err != nil {
		t.Fatalf("oversize write failed: %v", err)
	}
	if _, err := w.Write([]byte("next\n")); err != nil {
		t.Fatalf("follow-up write failed: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}

	assertFileContent(t, filename+".1", big)
	assertFileContent(t, filename, "next\n")
}

// TestWriter_RetentionCap rotates well past the retention count and checks
// the history stays contiguous at .1 (newest) through .K (oldest).
func TestWriter_RetentionCap(t *testing.T) {
	t.Parallel()
	const retention = 2
	filename := filepath.Join(t.TempDir(), "cap.log")

	w, err := New(filename, WithRetentionCount(retention))
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}

	for i := 0; i < retention+5; i++ {
		if _, err := w.Write([]byte(fmt.Sprintf("generation-%d\n", i))); err != nil {
			t.Fatalf("write %d failed: %v", i, err)
		}
		if err := w.Rotate(); err != nil {
			t.Fatalf("rotation %d failed: %v", i, err)
		}
	}
	if _, err := w.Write([]byte("active\n")); err != nil {
		t.Fatalf("final write failed: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}

	assertFileContent(t, filename, "active\n")
	assertFileContent(t, filename+".1", "generation-6\n")
	assertFileContent(t, filename+".2", "generation-5\n")
	assertFileNotExists(t, filename+".3")
}

// TestWriter_ZeroRetentionTruncate checks that with no retention the
// rotation truncates in place and never creates a .1 file.
func TestWriter_ZeroRetentionTruncate(t *testing.T) {
	t.Parallel()
	filename := filepath.Join(t.TempDir(), "truncate.log")

	w, err := New(filename, WithRetentionCount(0))
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}

	if _, err := w.Write([]byte("soon to be dropped\n")); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if err := w.Rotate(); err != nil {
		t.Fatalf("Rotate() failed: %v", err)
	}

	assertFileNotExists(t, filename+".1")
	assertFileContent(t, filename, "")

	if _, err := w.Write([]byte("fresh start\n")); err != nil {
		t.Fatalf("write after truncate failed: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}
	assertFileContent(t, filename, "fresh start\n")
}

func TestWriter_Compression(t *testing.T) {
	t.Parallel()
	filename := filepath.Join(t.TempDir(), "gz.log")

	w, err := New(filename, WithRetentionCount(2), WithCompression(CodecGzip))
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}

	content := "hello gzip\n"
	if _, err := w.Write([]byte(content)); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if err := w.Rotate(); err != nil {
		t.Fatalf("Rotate() failed: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}

	// Only the compressed variant may remain.
	assertFileNotExists(t, filename+".1")
	if got := gunzipFile(t, filename+".1.gz"); got != content {
		t.Errorf("decompressed content = %q, want %q", got, content)
	}
}

func TestWriter_ZstdCompression(t *testing.T) {
	t.Parallel()
	filename := filepath.Join(t.TempDir(), "zst.log")

	w, err := New(filename, WithRetentionCount(2), WithCompression(CodecZstd))
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}

	content := "hello zstd\n"
	if _, err := w.Write([]byte(content)); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if err := w.Rotate(); err != nil {
		t.Fatalf("Rotate() failed: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}

	assertFileNotExists(t, filename+".1")

	raw, err := os.ReadFile(filename + ".1.zst")
	if err != nil {
		t.Fatalf("failed to read compressed file: %v", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		t.Fatalf("failed to create zstd reader: %v", err)
	}
	defer dec.Close()
	got, err := dec.DecodeAll(raw, nil)
	if err != nil {
		t.Fatalf("failed to decompress: %v", err)
	}
	if string(got) != content {
		t.Errorf("decompressed content = %q, want %q", got, content)
	}
}

// TestWriter_DelayCompress checks that the newest rotated file stays
// uncompressed and is compressed one rotation later.
func TestWriter_DelayCompress(t *testing.T) {
	t.Parallel()
	filename := filepath.Join(t.TempDir(), "delay.log")

	w, err := New(filename, WithRetentionCount(3), WithCompression(CodecGzip), WithDelayCompress())
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}

	if _, err := w.Write([]byte("first\n")); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if err := w.Rotate(); err != nil {
		t.Fatalf("first Rotate() failed: %v", err)
	}

	// After one rotation the newest backup is still plain.
	assertFileContent(t, filename+".1", "first\n")
	assertFileNotExists(t, filename+".1.gz")

	if _, err := w.Write([]byte("second\n")); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if err := w.Rotate(); err != nil {
		t.Fatalf("second Rotate() failed: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}

	assertFileContent(t, filename+".1", "second\n")
	assertFileNotExists(t, filename+".2")
	if got := gunzipFile(t, filename+".2.gz"); got != "first\n" {
		t.Errorf("decompressed content = %q, want %q", got, "first\n")
	}
}

// TestWriter_AgeTrigger advances a fake clock past the age threshold and
// checks exactly one rotation happens.
func TestWriter_AgeTrigger(t *testing.T) {
	t.Parallel()
	filename := filepath.Join(t.TempDir(), "age.log")

	w, err := New(filename, WithMaxAge(Hourly), WithRetentionCount(2))
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}

	if _, err := w.Write([]byte("old line\n")); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	w.now = func() time.Time { return time.Now().Add(2 * time.Hour) }

	if _, err := w.Write([]byte("new line\n")); err != nil {
		t.Fatalf("write after threshold failed: %v", err)
	}
	// The clock has not advanced since the rotation, so no second one.
	if _, err := w.Write([]byte("another line\n")); err != nil {
		t.Fatalf("second write failed: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}

	assertFileContent(t, filename+".1", "old line\n")
	assertFileContent(t, filename, "new line\nanother line\n")
	assertFileNotExists(t, filename+".2")
}

// TestWriter_MinSizeGate checks that an elapsed age threshold does not
// rotate a file smaller than the configured minimum size.
func TestWriter_MinSizeGate(t *testing.T) {
	t.Parallel()
	filename := filepath.Join(t.TempDir(), "minsize.log")

	w, err := New(filename, WithMaxAge(Hourly), WithMinSize(100), WithRetentionCount(2))
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}

	w.now = func() time.Time { return time.Now().Add(2 * time.Hour) }

	if _, err := w.Write([]byte("tiny\n")); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	assertFileNotExists(t, filename+".1")

	filler := strings.Repeat("f", 120) + "\n"
	if _, err := w.Write([]byte(filler)); err != nil {
		t.Fatalf("filler write failed: %v", err)
	}
	// File now exceeds the minimum; the elapsed age rotates on next write.
	if _, err := w.Write([]byte("after\n")); err != nil {
		t.Fatalf("write after gate failed: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}

	assertFileContent(t, filename+".1", "tiny\n"+filler)
	assertFileContent(t, filename, "after\n")
}

// TestWriter_ExistingFileSizeCounts checks that the size of a pre-existing
// file counts toward the size threshold.
func TestWriter_ExistingFileSizeCounts(t *testing.T) {
	t.Parallel()
	filename := filepath.Join(t.TempDir(), "existing.log")

	preexisting := strings.Repeat("e", 60)
	if err := os.WriteFile(filename, []byte(preexisting), 0o644); err != nil {
		t.Fatalf("failed to seed file: %v", err)
	}

	w, err := New(filename, WithMaxSize(50), WithRetentionCount(2))
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}

	if _, err := w.Write([]byte("new\n")); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}

	assertFileContent(t, filename+".1", preexisting)
	assertFileContent(t, filename, "new\n")
}

func TestWriter_Append(t *testing.T) {
	t.Parallel()
	filename := filepath.Join(t.TempDir(), "append.log")

	w, err := New(filename)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}

	ts := time.Date(2026, time.March, 14, 9, 26, 53, 0, time.UTC)
	records := []Record{
		{Time: ts, Level: LevelInfo, Message: "first"},
		{Time: ts, Level: LevelWarn, Message: "second", Fields: []Field{{Key: "n", Value: 2}}},
		{Time: ts, Level: LevelError, Message: "third"},
	}
	for i, r := range records {
		if err := w.Append(r); err != nil {
			t.Fatalf("Append %d failed: %v", i, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}

	want := "2026-03-14T09:26:53.000 INFO first\n" +
		"2026-03-14T09:26:53.000 WARN second n=2\n" +
		"2026-03-14T09:26:53.000 ERROR third\n"
	assertFileContent(t, filename, want)
}

// TestWriter_AppendFillsZeroTime checks that Append stamps records that
// carry no timestamp.
func TestWriter_AppendFillsZeroTime(t *testing.T) {
	t.Parallel()
	filename := filepath.Join(t.TempDir(), "zerotime.log")

	w, err := New(filename)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}

	fixed := time.Date(2026, time.May, 5, 5, 5, 5, 0, time.UTC)
	w.now = func() time.Time { return fixed }

	if err := w.Append(Record{Level: LevelInfo, Message: "stamped"}); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}

	assertFileContent(t, filename, "2026-05-05T05:05:05.000 INFO stamped\n")
}

func TestWriter_FlushAndSync(t *testing.T) {
	t.Parallel()
	filename := filepath.Join(t.TempDir(), "flush.log")

	w, err := New(filename)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	defer w.Close()

	if _, err := w.Write([]byte("buffered\n")); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	// Small writes stay in the buffer until flushed.
	info, err := os.Stat(filename)
	if err != nil {
		t.Fatalf("Stat() failed: %v", err)
	}
	if info.Size() != 0 {
		t.Fatalf("expected empty file before flush, size=%d", info.Size())
	}

	if err := w.Flush(); err != nil {
		t.Fatalf("Flush() failed: %v", err)
	}
	assertFileContent(t, filename, "buffered\n")

	// Flush is idempotent.
	if err := w.Flush(); err != nil {
		t.Fatalf("second Flush() failed: %v", err)
	}
	if err := w.Sync(); err != nil {
		t.Fatalf("Sync() failed: %v", err)
	}
	assertFileContent(t, filename, "buffered\n")
}

func TestWriter_Close(t *testing.T) {
	t.Parallel()
	filename := filepath.Join(t.TempDir(), "close.log")

	w, err := New(filename)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}

	if err := w.Close(); err != nil {
		t.Errorf("first Close() failed: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Errorf("second Close() should not fail: %v", err)
	}

	if _, err := w.Write([]byte("after close")); !errors.Is(err, ErrClosed) {
		t.Errorf("Write after Close = %v, want ErrClosed", err)
	}
	if err := w.Append(Record{Level: LevelInfo, Message: "after close"}); !errors.Is(err, ErrClosed) {
		t.Errorf("Append after Close = %v, want ErrClosed", err)
	}
	if err := w.Rotate(); !errors.Is(err, ErrClosed) {
		t.Errorf("Rotate after Close = %v, want ErrClosed", err)
	}
	if err := w.Flush(); err != nil {
		t.Errorf("Flush after Close = %v, want nil", err)
	}
}

// TestWriter_Concurrency hammers the writer from many goroutines and
// verifies every line survives intact, exactly once, across the file set.
func TestWriter_Concurrency(t *testing.T) {
	t.Parallel()
	filename := filepath.Join(t.TempDir(), "concurrent.log")

	w, err := New(filename, WithMaxSize(8*1024), WithRetentionCount(50))
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}

	const numGoroutines = 20
	const writesPerGoroutine = 10
	padding := strings.Repeat("p", 200)

	var wg sync.WaitGroup
	wg.Add(numGoroutines)
	for i := 0; i < numGoroutines; i++ {
		go func(id int) {
			defer wg.Done()
			for j := 0; j < writesPerGoroutine; j++ {
				line := fmt.Sprintf("g%02d-w%02d %s\n", id, j, padding)
				if _, err := w.Write([]byte(line)); err != nil {
					t.Errorf("write in goroutine failed: %v", err)
				}
			}
		}(i)
	}
	wg.Wait()

	if err := w.Close(); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}

	files, err := filepath.Glob(filename + "*")
	if err != nil {
		t.Fatalf("Glob failed: %v", err)
	}

	seen := make(map[string]int)
	for _, file := range files {
		content, readErr := os.ReadFile(file)
		if readErr != nil {
			t.Fatalf("failed to read %s: %v", file, readErr)
		}
		for _, line := range strings.Split(strings.TrimSuffix(string(content), "\n"), "\n") {
			if line == "" {
				continue
			}
			if !strings.HasSuffix(line, padding) {
				t.Errorf("torn line found in %s: %q", file, line)
				continue
			}
			seen[line[:7]]++
		}
	}

	if len(seen) != numGoroutines*writesPerGoroutine {
		t.Errorf("distinct lines = %d, want %d", len(seen), numGoroutines*writesPerGoroutine)
	}
	for key, count := range seen {
		if count != 1 {
			t.Errorf("line %s written %d times, want once", key, count)
		}
	}
}

// TestWriter_OrderingAcrossRotations appends numbered records and checks
// that reading the files oldest-first reproduces the exact append order.
func TestWriter_OrderingAcrossRotations(t *testing.T) {
	t.Parallel()
	filename := filepath.Join(t.TempDir(), "order.log")

	w, err := New(filename, WithMaxSize(64), WithRetentionCount(20))
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}

	const total = 30
	var want bytes.Buffer
	for i := 0; i < total; i++ {
		line := fmt.Sprintf("record-%02d\n", i)
		if _, err := w.Write([]byte(line)); err != nil {
			t.Fatalf("write %d failed: %v", i, err)
		}
		want.WriteString(line)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}

	// Oldest file first: highest index down to .1, then the active file.
	var got bytes.Buffer
	for i := 20; i >= 1; i-- {
		content, readErr := os.ReadFile(fmt.Sprintf("%s.%d", filename, i))
		if readErr != nil {
			continue
		}
		got.Write(content)
	}
	content, err := os.ReadFile(filename)
	if err != nil {
		t.Fatalf("failed to read active file: %v", err)
	}
	got.Write(content)

	if got.String() != want.String() {
		t.Errorf("reassembled content does not match append order:\ngot:  %q\nwant: %q", got.String(), want.String())
	}
}

// gunzipFile decompresses a gzip file and returns its content.
func gunzipFile(t *testing.T, filename string) string {
	t.Helper()
	f, err := os.Open(filename)
	if err != nil {
		t.Fatalf("failed to open %s: %v", filename, err)
	}
	defer f.Close()

	gr, err := gzip.NewReader(f)
	if err != nil {
		t.Fatalf("failed to create gzip reader for %s: %v", filename, err)
	}
	defer gr.Close()

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(gr); err != nil {
		t.Fatalf("failed to decompress %s: %v", filename, err)
	}
	return buf.String()
}

// assertFileContent is a test helper to check if a file's content matches the expected string.
func assertFileContent(t *testing.T, filename, expected string) {
	t.Helper()
	content, err := os.ReadFile(filename)
	if err != nil {
		t.Fatalf("failed to read file %s: %v", filename, err)
	}
	if expected != string(content) {
		t.Errorf("file content mismatch for %s:\ngot:  %q\nwant: %q", filename, string(content), expected)
	}
}

// assertFileNotExists is a test helper to check that a file does not exist.
func assertFileNotExists(t *testing.T, filename string) {
	t.Helper()
	_, err := os.Stat(filename)
	if !os.IsNotExist(err) {
		if err == nil {
			t.Errorf("file should not exist but it does: %s", filename)
		} else {
			t.Errorf("expected a file-not-exist error for %s, but got: %v", filename, err)
		}
	}
}
