package logrotate

import "time"

// Rotation cadences for use with WithMaxAge, mirroring the schedules of the
// classic logrotate utility. A month counts as 30 days and a year as 365.
const (
	Minutely = time.Minute
	Hourly   = time.Hour
	Daily    = 24 * time.Hour
	Weekly   = 7 * Daily
	Monthly  = 30 * Daily
	Yearly   = 365 * Daily
)

// policy holds the rotation thresholds. It is a pure decision component:
// it never touches the filesystem and has no side effects.
type policy struct {
	maxSize int64         // bytes; 0 => no size-based rotation
	minSize int64         // bytes; gates the age trigger when > 0
	maxAge  time.Duration // 0 => no age-based rotation
}

// due reports whether rotation should happen before the next write.
//
// size is the byte count of the active file, excluding the incoming record:
// rotation triggers on the append after a threshold is crossed, never by
// truncating or splitting the record that crosses it. The size and age
// triggers combine with OR; minSize, when set, requires the file to have
// grown to at least that many bytes before an elapsed maxAge rotates it.
// With no threshold configured the policy degenerates to pure append.
func (p policy) due(size int64, openedAt time.Time, now time.Time) bool {
	if p.maxSize > 0 && size >= p.maxSize {
		return true
	}

	if p.maxAge > 0 && now.Sub(openedAt) >= p.maxAge {
		if p.minSize > 0 {
			return size >= p.minSize
		}
		return true
	}

	return false
}
