// Package dates maps calendar dates to the month and day keys tasks are stored under.
package dates

import (
	"fmt"
	"strconv"
	"time"
)

const monthKeyLayout = "2006-01"

// MonthKey returns the month key of t in YYYY-MM format.
func MonthKey(t time.Time) string {
	return fmt.Sprintf("%04d-%02d", t.Year(), int(t.Month()))
}

// DaysInMonth returns the number of days in the month containing t.
func DaysInMonth(t time.Time) int {
	// Day 0 of the following month is the last day of this one.
	return time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// DayKey returns the two-digit, zero-padded key for a day of the month.
func DayKey(day int) string {
	return fmt.Sprintf("%02d", day)
}

// ParseDayKey converts a day key back to its day number.
func ParseDayKey(key string) (int, error) {
	if len(key) != 2 {
		return 0, fmt.Errorf("invalid day key %q", key)
	}
	day, err := strconv.Atoi(key)
	if err != nil || day < 1 || day > 31 {
		return 0, fmt.Errorf("invalid day key %q", key)
	}
	return day, nil
}

// ParseMonthKey parses a YYYY-MM key into the first day of that month (UTC).
func ParseMonthKey(key string) (time.Time, error) {
	if len(key) != len(monthKeyLayout) {
		return time.Time{}, fmt.Errorf("invalid month key %q", key)
	}
	t, err := time.Parse(monthKeyLayout, key)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid month key %q: %w", key, err)
	}
	return t, nil
}

// DaysInMonthKey returns the number of days in the month named by key.
func DaysInMonthKey(key string) (int, error) {
	t, err := ParseMonthKey(key)
	if err != nil {
		return 0, err
	}
	return DaysInMonth(t), nil
}

// ValidDay reports whether day exists in the month named by key.
func ValidDay(key string, day int) bool {
	n, err := DaysInMonthKey(key)
	if err != nil {
		return false
	}
	return day >= 1 && day <= n
}

// NextMonth moves t forward exactly one calendar month. When the day of month
// does not exist in the target month it is clamped to the target's last day,
// so Jan 31 becomes Feb 28 (or 29) instead of rolling into March.
func NextMonth(t time.Time) time.Time {
	return addMonths(t, 1)
}

// PreviousMonth moves t back exactly one calendar month, clamping the day the
// same way NextMonth does.
func PreviousMonth(t time.Time) time.Time {
	return addMonths(t, -1)
}

func addMonths(t time.Time, n int) time.Time {
	first := time.Date(t.Year(), t.Month()+time.Month(n), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	day := t.Day()
	if last := DaysInMonth(first); day > last {
		day = last
	}
	return first.AddDate(0, 0, day-1)
}

// FormatMonthYear renders t as a month heading, e.g. "November 2025".
func FormatMonthYear(t time.Time) string {
	return t.Format("January 2006")
}
