package services

import (
	"fmt"
	"time"

	"focalAPI/internal/types/focus"
)

// todayIn resolves "today" as a calendar day in the user's stored IANA
// timezone, falling back to UTC when none is set or the name is bad.
// Day buckets never carry a time-of-day component.
func todayIn(tz *string) time.Time {
	loc := time.UTC
	if tz != nil && *tz != "" {
		if l, err := time.LoadLocation(*tz); err == nil {
			loc = l
		}
	}
	now := time.Now().In(loc)
	y, m, d := now.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// parseDay parses a YYYY-MM-DD day-bucket key.
func parseDay(s string) (time.Time, error) {
	d, err := time.Parse(focus.DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", s)
	}
	return d, nil
}
