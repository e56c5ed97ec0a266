// Package bizday converts instants to calendar-day keys in the
// operator's business time zone. Every aggregation query uses the
// half-open bounds produced here so day membership never depends on the
// server's local zone.
package bizday

import (
	"fmt"
	"time"
)

const dayLayout = "2006-01-02"

// Location resolves the configured business time zone
func Location(name string) (*time.Location, error) {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("invalid business time zone %q: %w", name, err)
	}
	return loc, nil
}

// DayOf truncates an instant to its calendar day in loc
func DayOf(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
}

// ParseDay parses a YYYY-MM-DD value as a day in loc
func ParseDay(value string, loc *time.Location) (time.Time, error) {
	day, err := time.ParseInLocation(dayLayout, value, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: use YYYY-MM-DD", value)
	}
	return day, nil
}

// Format renders a day key as YYYY-MM-DD
func Format(day time.Time) string {
	return day.Format(dayLayout)
}

// Bounds returns the [start, end) instants covering one business day
func Bounds(day time.Time, loc *time.Location) (time.Time, time.Time) {
	start := DayOf(day, loc)
	return start, start.AddDate(0, 0, 1)
}

// MonthOf returns the first day of the month containing day
func MonthOf(day time.Time, loc *time.Location) time.Time {
	local := day.In(loc)
	return time.Date(local.Year(), local.Month(), 1, 0, 0, 0, 0, loc)
}

// MonthBounds returns the [first, firstOfNext) days of day's month
func MonthBounds(day time.Time, loc *time.Location) (time.Time, time.Time) {
	first := MonthOf(day, loc)
	return first, first.AddDate(0, 1, 0)
}

// DaysBetween enumerates every day from from through to, inclusive.
// Returns nil when from is after to.
func DaysBetween(from, to time.Time, loc *time.Location) []time.Time {
	start := DayOf(from, loc)
	end := DayOf(to, loc)
	if start.After(end) {
		return nil
	}
	var days []time.Time
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

// SameDay reports whether two instants fall on the same business day
func SameDay(a, b time.Time, loc *time.Location) bool {
	return DayOf(a, loc).Equal(DayOf(b, loc))
}
