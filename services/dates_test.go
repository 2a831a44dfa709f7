package services

import (
	"errors"
	"testing"
	"time"
)

func TestWeekEnding(t *testing.T) {
	tests := []struct {
		date string
		day  time.Weekday
		want string
	}{
		{"2025-03-03", time.Saturday, "2025-03-08"}, // Monday
		{"2025-03-07", time.Saturday, "2025-03-08"}, // Friday
		{"2025-03-08", time.Saturday, "2025-03-08"}, // already the close day
		{"2025-03-09", time.Saturday, "2025-03-15"}, // Sunday starts a new week
		{"2025-03-03", time.Sunday, "2025-03-09"},
		{"2025-12-29", time.Friday, "2026-01-02"},
	}
	for _, tt := range tests {
		t.Run(tt.date+"/"+tt.day.String(), func(t *testing.T) {
			got := FormatDate(WeekEnding(mustDate(t, tt.date), tt.day))
			if got != tt.want {
				t.Errorf("WeekEnding(%s, %s) = %s, want %s", tt.date, tt.day, got, tt.want)
			}
		})
	}
}

func TestParseDate_Invalid(t *testing.T) {
	for _, s := range []string{"", "08/03/2025", "2025-13-01", "2025-02-30"} {
		if _, err := ParseDate(s); !errors.Is(err, ErrValidation) {
			t.Errorf("ParseDate(%q) error = %v, want ErrValidation", s, err)
		}
	}
}
