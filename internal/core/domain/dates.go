package domain

import (
	"strings"
	"time"
)

// DateLayout is the wire format for calendar days
const DateLayout = "2006-01-02"

// DisplayDateLayout is used in member-facing messages
const DisplayDateLayout = "02/01/2006"

// DateOf drops the time of day, keeping the calendar day as seen in t's
// own location. The result is UTC midnight.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// StoredDate normalizes a persisted calendar day. Drivers may hand back
// UTC midnight shifted into the server zone, so read it as UTC.
func StoredDate(t time.Time) time.Time {
	return DateOf(t.UTC())
}

// ParseDate parses a YYYY-MM-DD calendar day (a full RFC3339 timestamp is
// accepted and truncated to its day).
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(DateLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, err
	}
	return DateOf(t), nil
}

// DaysBetween counts whole calendar days from a to b (negative if b is before a)
func DaysBetween(a, b time.Time) int {
	return int(DateOf(b).Sub(DateOf(a)).Hours() / 24)
}

// AddDays adds n calendar days to a stored date
func AddDays(t time.Time, n int) time.Time {
	return StoredDate(t).AddDate(0, 0, n)
}
