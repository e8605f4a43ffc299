package util

import (
	"strings"
	"time"
)

// DayLayout is the ISO calendar-day layout used for all date keys.
const DayLayout = "2006-01-02"

// DayKey drops any time-of-day component from a timestamp string, keeping
// the portion before a 'T' or space separator.
func DayKey(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexAny(s, "T "); i >= 0 {
		s = s[:i]
	}
	return s
}

// FormatDay renders t as a calendar-day key in UTC.
func FormatDay(t time.Time) string {
	return t.UTC().Format(DayLayout)
}

// ParseDay parses a calendar-day key.
func ParseDay(s string) (time.Time, bool) {
	t, err := time.Parse(DayLayout, DayKey(s))
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
