package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// TimestampLayout is the fixed-width index format: local time, microseconds, no zone.
const TimestampLayout = "2006-01-02T15:04:05.000000"

// secondsLayout is used by ISO for instants with no sub-second part
const secondsLayout = "2006-01-02T15:04:05"

// Timestamp is a time.Time that round-trips through the project document's
// ISO-8601 format
type Timestamp struct {
	time.Time
}

// NewTimestamp wraps t, truncated to the precision stored on disk
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t.Truncate(time.Microsecond)}
}

// Now returns the current local time as a Timestamp
func Now() Timestamp {
	return NewTimestamp(time.Now())
}

// String formats the timestamp using TimestampLayout
func (t Timestamp) String() string {
	if t.IsZero() {
		return ""
	}
	return t.Format(TimestampLayout)
}

// ISO formats the timestamp the way the project document stores it. The
// fraction is omitted when the microseconds are zero.
func (t Timestamp) ISO() string {
	if t.IsZero() {
		return ""
	}
	if t.Nanosecond()/int(time.Microsecond) == 0 {
		return t.Format(secondsLayout)
	}
	return t.Format(TimestampLayout)
}

// MarshalJSON implements json.Marshaler
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.ISO())
}

// UnmarshalJSON implements json.Unmarshaler
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		t.Time = time.Time{}
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("timestamp must be a string: %w", err)
	}
	if s == "" {
		t.Time = time.Time{}
		return nil
	}

	parsed, err := ParseTimestamp(s)
	if err != nil {
		return err
	}
	t.Time = parsed
	return nil
}

// ParseTimestamp attempts to parse timestamps from the formats the project
// document has been written with
func ParseTimestamp(s string) (time.Time, error) {
	formats := []string{
		TimestampLayout,
		"2006-01-02T15:04:05.999999999",
		"2006-01-02T15:04:05",
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02 15:04:05",
	}

	for _, format := range formats {
		if t, err := time.ParseInLocation(format, s, time.Local); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}
