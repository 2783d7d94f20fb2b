package core

import (
	"strings"
	"time"
)

// ISODate is the storage layout for calendar dates.
const ISODate = "2006-01-02"

// BRDate is the pt-BR display layout.
const BRDate = "02/01/2006"

var dateLayouts = []string{
	ISODate,
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
}

// ParseDate parses a stored date and truncates it to calendar-date precision
// in UTC. Timestamps with an offset are converted to UTC first. The boolean is false for empty or malformed input.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, s)
		if err != nil {
			continue
		}
		y, m, d := t.UTC().Date()
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), true
	}
	return time.Time{}, false
}

// FormatISODate renders t as YYYY-MM-DD.
func FormatISODate(t time.Time) string {
	return t.Format(ISODate)
}

// FormatBR renders a stored date as dd/mm/yyyy, or "" when it does not parse.
func FormatBR(s string) string {
	t, ok := ParseDate(s)
	if !ok {
		return ""
	}
	return t.Format(BRDate)
}
