package logrotate

import "time"

// Field is a single key-value pair attached to a record.
type Field struct {
	Key   string
	Value any
}

// Record is one log entry handed to the Writer by a logging frontend.
// It is ephemeral: the Writer formats it into a line and does not retain it.
type Record struct {
	// Time is the moment the record was produced.
	// A zero Time is replaced with the current time during Append.
	Time time.Time

	// Level is the record's severity.
	Level LogLevel

	// Message is the log message.
	Message string

	// Fields are rendered after the message in the order given.
	// The order is preserved so callers control readability.
	Fields []Field
}
