package logrotate

import "fmt"

// DefaultTimeLayout is the timestamp layout used when none is configured.
// It matches the classic logrotate line format with millisecond precision.
const DefaultTimeLayout = "2006-01-02T15:04:05.000"

// Formatter renders a record into a single terminated line of bytes.
//
// Implementations must be pure: no I/O, deterministic for identical input,
// and they must never fail. A value that cannot be rendered is stringified
// with a lossy fallback rather than dropping the line.
type Formatter interface {
	Format(r Record) []byte
}

// TextFormatter renders records as
//
//	<timestamp> <level> <message> [key=value ...]
//
// terminated by a newline. Field order follows Record.Fields.
type TextFormatter struct {
	// TimeLayout is the time.Format layout for the timestamp.
	// Empty means DefaultTimeLayout.
	TimeLayout string
}

// Ensure TextFormatter implements Formatter.
var _ Formatter = (*TextFormatter)(nil)

// Format implements the Formatter interface.
func (f *TextFormatter) Format(r Record) []byte {
	layout := f.TimeLayout
	if layout == "" {
		layout = DefaultTimeLayout
	}

	// Rough pre-size: timestamp + level + message + fields.
	buf := make([]byte, 0, len(layout)+8+len(r.Message)+len(r.Fields)*16)
	buf = r.Time.AppendFormat(buf, layout)
	buf = append(buf, ' ')
	buf = append(buf, r.Level.String()...)
	buf = append(buf, ' ')
	buf = append(buf, r.Message...)

	for _, field := range r.Fields {
		buf = append(buf, ' ')
		buf = append(buf, field.Key...)
		buf = append(buf, '=')
		buf = append(buf, stringify(field.Value)...)
	}

	return append(buf, '\n')
}

// stringify returns a string representation of a field value.
// A panicking Stringer or Error method must not take the whole line down,
// so rendering falls back to a placeholder instead of propagating.
func stringify(v any) (s string) {
	defer func() {
		if recover() != nil {
			s = "<unprintable>"
		}
	}()

	switch val := v.(type) {
	case string:
		return val
	case error:
		return val.Error()
	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprint(v)
	}
}
