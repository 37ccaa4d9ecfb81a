// Package dateutil holds the calendar arithmetic behind the month views.
// Dates are time.Time values at midnight in their location; only the
// year, month and day are significant.
package dateutil

import (
	"fmt"
	"strconv"
	"time"
)

// GridSize is the number of cells in a month grid: six Sunday-first weeks.
const GridSize = 42

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

// StartOfDay truncates t to midnight in its own location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// StartOfMonth returns midnight on the first day of t's month.
func StartOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

// DaysInMonth returns the number of days in t's month.
func DaysInMonth(t time.Time) int {
	// Day 0 of the next month normalizes to the last day of this one.
	return time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, t.Location()).Day()
}

// FirstWeekday returns the weekday of the first day of t's month.
func FirstWeekday(t time.Time) time.Weekday {
	return StartOfMonth(t).Weekday()
}

// MonthGridDays returns the 42 consecutive dates shown for ref's month:
// the tail of the previous month back to Sunday, every day of the month,
// then the head of the next month.
func MonthGridDays(ref time.Time) []time.Time {
	first := StartOfMonth(ref)
	leading := int(first.Weekday())
	inMonth := DaysInMonth(ref)
	trailing := max(0, GridSize-leading-inMonth)

	days := make([]time.Time, 0, leading+inMonth+trailing)
	for i := leading; i > 0; i-- {
		days = append(days, first.AddDate(0, 0, -i))
	}
	for d := 0; d < inMonth; d++ {
		days = append(days, first.AddDate(0, 0, d))
	}
	next := first.AddDate(0, 1, 0)
	for d := 0; d < trailing; d++ {
		days = append(days, next.AddDate(0, 0, d))
	}
	return days
}

// AddMonths moves d by delta calendar months. A day of month that does not
// exist in the target month is clamped to its last day, so Jan 31 + 1 is
// Feb 28 (or 29). The time of day is kept.
func AddMonths(d time.Time, delta int) time.Time {
	target := time.Date(d.Year(), d.Month()+time.Month(delta), 1, 0, 0, 0, 0, d.Location())
	day := min(d.Day(), DaysInMonth(target))
	return time.Date(target.Year(), target.Month(), day, d.Hour(), d.Minute(), d.Second(), d.Nanosecond(), d.Location())
}

// IsSameDay reports whether a and b fall on the same calendar date.
func IsSameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// SameMonth reports whether a and b are in the same month of the same year.
func SameMonth(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month()
}

// IsToday reports whether d is the clock's current date, compared in d's location.
func IsToday(d time.Time, clock Clock) bool {
	return IsSameDay(d, clock.Now().In(d.Location()))
}

// FormatDate renders d as YYYY-MM-DD.
func FormatDate(d time.Time) string {
	return d.Format(DateLayout)
}

// ParseDate parses YYYY-MM-DD as local midnight.
func ParseDate(s string) (time.Time, error) {
	return ParseDateIn(s, time.Local)
}

// ParseDateIn parses YYYY-MM-DD as midnight in loc.
func ParseDateIn(s string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return t, nil
}

// ParseMonth parses YYYY-MM as midnight on the first of that month in loc.
func ParseMonth(s string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation("2006-01", s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse month %q: %w", s, err)
	}
	return t, nil
}

// ParseTimeOfDay parses a zero-padded 24-hour HH:MM value.
func ParseTimeOfDay(s string) (hour, minute int, err error) {
	if len(s) != len(TimeLayout) || s[2] != ':' || !digits(s[:2]) || !digits(s[3:]) {
		return 0, 0, fmt.Errorf("time of day %q: want HH:MM", s)
	}
	hour, herr := strconv.Atoi(s[:2])
	minute, merr := strconv.Atoi(s[3:])
	if herr != nil || merr != nil || hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("time of day %q: out of range", s)
	}
	return hour, minute, nil
}

func digits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// FormatEventTime renders two HH:MM values as "9:00 AM - 10:30 AM".
func FormatEventTime(start, end string) string {
	return formatClock12(start) + " - " + formatClock12(end)
}

func formatClock12(s string) string {
	hour, minute, err := ParseTimeOfDay(s)
	if err != nil {
		return s
	}
	suffix := "AM"
	if hour >= 12 {
		suffix = "PM"
	}
	h := hour % 12
	if h == 0 {
		h = 12
	}
	return fmt.Sprintf("%d:%02d %s", h, minute, suffix)
}

// MonthName returns the English month name, e.g. "March".
func MonthName(t time.Time) string {
	return t.Month().String()
}

// Year returns the four-digit year.
func Year(t time.Time) int {
	return t.Year()
}

// MonthTitle returns e.g. "March 2024".
func MonthTitle(t time.Time) string {
	return MonthName(t) + " " + strconv.Itoa(Year(t))
}

// FormatDateHeader returns e.g. "Friday, March 1".
func FormatDateHeader(t time.Time) string {
	return t.Format("Monday, January 2")
}

// WeekdayLabels are the grid column headers, Sunday first.
var WeekdayLabels = func() []string {
	labels := make([]string, 7)
	for d := time.Sunday; d <= time.Saturday; d++ {
		labels[d] = d.String()[:3]
	}
	return labels
}()
