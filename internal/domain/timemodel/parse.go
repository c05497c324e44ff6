package timemodel

import (
	"strings"
	"time"
)

const dateOnlyLen = len("2006-01-02")

// Instant is a parsed start value. HasClock is false for date-only input.
type Instant struct {
	Time     time.Time
	HasClock bool
}

// zoneless layouts are interpreted in the resolver's location.
var zonelessLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
}

// ParseInstant parses a feed timestamp. It accepts RFC 3339 with or without
// fractional seconds, zoneless date-times (read in loc) and date-only values
// (midnight in loc). A space between date and time is treated as 'T'.
// Unparsable input returns ok=false; it never panics.
func ParseInstant(raw string, loc *time.Location) (Instant, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return Instant{}, false
	}
	if len(s) > dateOnlyLen && s[dateOnlyLen] == ' ' {
		s = s[:dateOnlyLen] + "T" + strings.TrimSpace(s[dateOnlyLen+1:])
	}
	if len(s) == dateOnlyLen {
		t, err := time.ParseInLocation(time.DateOnly, s, loc)
		if err != nil {
			return Instant{}, false
		}
		return Instant{Time: t}, true
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return Instant{Time: t.In(loc), HasClock: true}, true
	}
	for _, layout := range zonelessLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return Instant{Time: t, HasClock: true}, true
		}
	}
	return Instant{}, false
}

// startOfDay returns local midnight of t's calendar day in loc.
func startOfDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// endOfDay returns the last millisecond of t's calendar day in loc.
func endOfDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, int(999*time.Millisecond), loc)
}

// atClock returns t's calendar day in loc at hour:minute, plus dayOffset days.
// Hours past 23 roll into the following day.
func atClock(t time.Time, loc *time.Location, dayOffset, hour, minute int) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day()+dayOffset, hour, minute, 0, 0, loc)
}
