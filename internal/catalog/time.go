package catalog

import (
	"encoding/json"
	"fmt"
	"time"
)

// TimeLayout renders seven fractional digits and a literal Z.
const TimeLayout = "2006-01-02T15:04:05.0000000Z"

// ticksAtUnixEpoch is the number of 100ns ticks between 0001-01-01 and 1970-01-01.
const ticksAtUnixEpoch int64 = 621355968000000000

// Time is a UTC instant with the catalog's JSON representation.
type Time struct {
	time.Time
}

// NewTime wraps t.
func NewTime(t time.Time) Time { return Time{Time: t} }

// Equal reports whether both values denote the same instant.
func (t Time) Equal(u Time) bool { return t.Time.Equal(u.Time) }

// String returns the wire form, or the default time formatting when t is not UTC.
func (t Time) String() string {
	if s, err := formatTime(t.Time); err == nil {
		return s
	}
	return t.Time.String()
}

// MarshalJSON fails with ErrNonUTC for a non-zero offset.
func (t Time) MarshalJSON() ([]byte, error) {
	s, err := formatTime(t.Time)
	if err != nil {
		return nil, err
	}
	return json.Marshal(s)
}

// UnmarshalJSON accepts any RFC 3339 timestamp and normalizes it to UTC.
func (t *Time) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("%w: timestamp: %w", ErrSchemaViolation, err)
	}
	parsed, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return fmt.Errorf("%w: timestamp %q: %w", ErrSchemaViolation, s, err)
	}
	t.Time = parsed.UTC()
	return nil
}

func formatTime(t time.Time) (string, error) {
	if _, offset := t.Zone(); offset != 0 {
		return "", fmt.Errorf("%w: %s", ErrNonUTC, t.Format(time.RFC3339Nano))
	}
	return t.UTC().Format(TimeLayout), nil
}

// IsUTC reports whether t has a zero offset.
func IsUTC(t time.Time) bool {
	_, offset := t.Zone()
	return offset == 0
}

// Ticks converts t to 100ns ticks since 0001-01-01T00:00:00Z.
func Ticks(t time.Time) int64 {
	return ticksAtUnixEpoch + t.Unix()*1e7 + int64(t.Nanosecond()/100)
}

// TimeFromTicks is the inverse of Ticks.
func TimeFromTicks(ticks int64) time.Time {
	unix := ticks - ticksAtUnixEpoch
	return time.Unix(unix/1e7, (unix%1e7)*100).UTC()
}
