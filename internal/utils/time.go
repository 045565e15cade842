package utils

import (
	"strings"
	"time"
)

// layoutBookeo is the query-parameter format the provider expects.
const layoutBookeo = "2006-01-02T15:04:05Z"

// NowUTC returns current time in UTC.
func NowUTC() time.Time {
	return time.Now().UTC()
}

// FormatBookeo renders a time as the provider's startTime/endTime parameter format.
func FormatBookeo(t time.Time) string {
	return t.UTC().Format(layoutBookeo)
}

// ParseRFC3339 parses an RFC 3339 timestamp, accepting a trailing Z or an
// explicit offset. Empty input returns the zero time without error.
func ParseRFC3339(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Parse(layoutBookeo, s)
	}
	return t, nil
}
