package services

import (
	"fmt"
	"time"
)

// DateLayout is the storage format of every calendar date in the record store.
const DateLayout = "2006-01-02"

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: bad date %q", ErrValidation, s)
	}
	return t, nil
}

// FormatDate renders t in DateLayout.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// WeekEnding returns the first day on or after d that falls on closeDay.
// A date that already falls on closeDay is its own week ending.
func WeekEnding(d time.Time, closeDay time.Weekday) time.Time {
	days := (int(closeDay) - int(d.Weekday()) + 7) % 7
	return d.AddDate(0, 0, days)
}
