package logrotate

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"
)

// compressedSuffixes lists every suffix a rotated file may carry, so pruning
// and shifting keep working after the configured codec changes.
var compressedSuffixes = []string{".gz", ".zst"}

// fileSet owns the mapping from rotation index to filesystem path and
// performs the shift/rename/compress/prune sequence of a rotation. Index 0
// is the active file at filename; indices 1..retentionCount are the history,
// 1 being the most recently rotated.
//
// fileSet is not safe for concurrent use on its own; the Writer serializes
// all calls under its lock.
type fileSet struct {
	filename       string
	retentionCount int
	retentionAge   time.Duration
	codec          Codec
	delayCompress  bool
	report         func(error) // receives non-fatal problems
}

// indexPath returns the path for rotation index i, with the codec suffix
// when compressed is true.
func (s *fileSet) indexPath(i int, compressed bool) string {
	p := fmt.Sprintf("%s.%d", s.filename, i)
	if compressed {
		p += s.codec.suffix()
	}
	return p
}

// rotate retires the active file into the history. The caller must have
// flushed and closed the active file handle first.
//
// Steps:
//   - retentionCount 0: truncate the active file in place, keep no history
//   - compress leftovers from earlier rotations when compression is delayed
//   - drop the oldest index, then shift the history up by one, highest first
//   - rename the active file to index 1 and compress it if configured
//   - prune files beyond the retention count or age
//
// The order guarantees that a failure midway never deletes the most recent
// data before a safe copy exists: only the oldest file is removed up front,
// and the active file is renamed, not copied.
func (s *fileSet) rotate() error {
	if s.retentionCount == 0 {
		return s.truncate()
	}

	// Confirm the active file is present before touching the history, so a
	// rotation that cannot proceed leaves the index set intact. A rename
	// that fails later still ages the history by one generation until a
	// retry succeeds.
	if _, err := os.Stat(s.filename); err != nil {
		return fmt.Errorf("failed to stat log file: %w", err)
	}

	if s.delayCompress {
		s.compressAged()
	}

	// Drop the oldest index so the shift below never overwrites anything.
	s.removeIndex(s.retentionCount)

	// Shift the remaining history up by one, highest index first.
	for i := s.retentionCount - 1; i >= 1; i-- {
		s.shiftIndex(i)
	}

	// Retire the active file. A failure here is fatal to the rotation:
	// the newest data stays where it is and the error propagates.
	rotated := s.indexPath(1, false)
	if err := safeRename(s.filename, rotated); err != nil {
		return fmt.Errorf("failed to rename log file: %w", err)
	}

	if s.codec != CodecNone && !s.delayCompress {
		if err := compressFile(rotated, s.codec); err != nil {
			// The data is already safe in the uncompressed rotated file.
			return err
		}
	}

	s.prune()

	return nil
}

// truncate implements the zero-retention rotation: the active file is
// emptied in place and no history is written.
func (s *fileSet) truncate() error {
	if err := os.Truncate(s.filename, 0); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to truncate log file: %w", err)
	}
	return nil
}

// removeIndex deletes the rotated file at index i in any suffix variant.
func (s *fileSet) removeIndex(i int) {
	for _, p := range s.variants(i) {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			s.report(fmt.Errorf("failed to remove %s: %w", p, err))
		}
	}
}

// shiftIndex renames index i to index i+1, preserving whatever compression
// suffix the file carries. A failed shift is reported but does not abort the
// rotation; pruning picks up stragglers on a later rotation.
func (s *fileSet) shiftIndex(i int) {
	plain := s.indexPath(i, false)
	for _, p := range s.variants(i) {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		dst := s.indexPath(i+1, false) + strings.TrimPrefix(p, plain)
		if err := safeRename(p, dst); err != nil {
			s.report(fmt.Errorf("failed to shift %s: %w", p, err))
		}
	}
}

// variants returns the possible on-disk names for index i: the plain name
// plus every known compression suffix.
func (s *fileSet) variants(i int) []string {
	plain := s.indexPath(i, false)
	out := make([]string, 0, len(compressedSuffixes)+1)
	out = append(out, plain)
	for _, suffix := range compressedSuffixes {
		out = append(out, plain+suffix)
	}
	return out
}

// compressAged compresses rotated files left uncompressed by delayed
// compression. Only the history is touched, never the active file.
func (s *fileSet) compressAged() {
	for i := 1; i <= s.retentionCount; i++ {
		p := s.indexPath(i, false)
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := compressFile(p, s.codec); err != nil {
			s.report(err)
		}
	}
}

// backupFile is one rotated file found on disk during pruning.
type backupFile struct {
	index int
	path  string
}

// prune removes rotated files with indices beyond retentionCount and,
// when a retention age is set, files older than that age. Pruning is a
// best-effort cleanup after a successful rotation; problems are reported,
// not returned.
func (s *fileSet) prune() {
	backups, err := s.scan()
	if err != nil {
		s.report(fmt.Errorf("rotation succeeded but cleanup failed: %w", err))
		return
	}

	cutoff := time.Time{}
	if s.retentionAge > 0 {
		cutoff = time.Now().Add(-s.retentionAge)
	}

	for _, b := range backups {
		drop := b.index > s.retentionCount
		if !drop && !cutoff.IsZero() {
			if info, statErr := os.Stat(b.path); statErr == nil && info.ModTime().Before(cutoff) {
				drop = true
			}
		}
		if !drop {
			continue
		}
		if err := os.Remove(b.path); err != nil && !os.IsNotExist(err) {
			s.report(fmt.Errorf("failed to prune %s: %w", b.path, err))
		}
	}
}

// scan finds all rotated files belonging to this set, sorted by index
// ascending (newest first).
func (s *fileSet) scan() ([]backupFile, error) {
	dir := filepath.Dir(s.filename)
	base := filepath.Base(s.filename)

	ents, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}

	prefix := base + "."
	var backups []backupFile
	for _, e := range ents {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasPrefix(name, prefix) {
			continue
		}
		idxStr := name[len(prefix):]
		for _, suffix := range compressedSuffixes {
			idxStr = strings.TrimSuffix(idxStr, suffix)
		}
		idx, err := strconv.Atoi(idxStr)
		if err != nil || idx < 1 {
			continue
		}
		backups = append(backups, backupFile{index: idx, path: filepath.Join(dir, name)})
	}

	sort.Slice(backups, func(i, j int) bool {
		return backups[i].index < backups[j].index
	})

	return backups, nil
}

// safeRename is a wrapper around os.Rename that first removes the
// destination path if it already exists. This is necessary on Windows
// because os.Rename will fail if the destination path already exists.
func safeRename(oldPath, newPath string) error {
	if _, err := os.Stat(newPath); err == nil {
		if err := os.Remove(newPath); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to remove existing destination %s: %w", newPath, err)
		}
	}

	return os.Rename(oldPath, newPath)
}
