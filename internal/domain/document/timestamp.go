package document

import (
	"fmt"
	"strings"
	"time"
)

// NaiveLayout is the wire format of a timezone-naive timestamp.
const NaiveLayout = "2006-01-02T15:04:05.999999"

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
}

// NormalizeTime drops the timezone offset, keeping the wall clock as-is.
// 10:00+03:00 becomes 10:00 (UTC location), not 07:00.
func NormalizeTime(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}

// ParseTimestamp parses the accepted timestamp formats and normalizes the result.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("timestamp is empty")
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return NormalizeTime(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

// FormatTimestamp renders a normalized timestamp without offset.
func FormatTimestamp(t time.Time) string {
	return t.Format(NaiveLayout)
}
