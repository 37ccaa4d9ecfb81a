package dateutil

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestMonthGridDaysShape(t *testing.T) {
	// Every month from 2000 through 2040 covers every weekday/length combination.
	for ref := date(2000, time.January, 1); ref.Year() <= 2040; ref = AddMonths(ref, 1) {
		days := MonthGridDays(ref)
		if len(days) != GridSize {
			t.Fatalf("%s: got %d days, want %d", MonthTitle(ref), len(days), GridSize)
		}
		if days[0].Weekday() != time.Sunday {
			t.Errorf("%s: grid starts on %v, want Sunday", MonthTitle(ref), days[0].Weekday())
		}
		for i := 1; i < len(days); i++ {
			if want := days[i-1].AddDate(0, 0, 1); !days[i].Equal(want) {
				t.Fatalf("%s: day %d = %s, want %s", MonthTitle(ref), i, FormatDate(days[i]), FormatDate(want))
			}
		}

		// The reference month must be one contiguous run starting at index firstWeekday.
		lead := int(FirstWeekday(ref))
		n := DaysInMonth(ref)
		for i, d := range days {
			inMonth := SameMonth(d, ref)
			if want := i >= lead && i < lead+n; inMonth != want {
				t.Fatalf("%s: index %d (%s) in month = %v, want %v", MonthTitle(ref), i, FormatDate(d), inMonth, want)
			}
		}
	}
}

func TestMonthGridDaysMarch2024(t *testing.T) {
	days := MonthGridDays(date(2024, time.March, 15))

	if got := FormatDate(days[0]); got != "2024-02-25" {
		t.Errorf("first cell = %s, want 2024-02-25", got)
	}
	if got := FormatDate(days[5]); got != "2024-03-01" {
		t.Errorf("cell 5 = %s, want 2024-03-01", got)
	}
	if got := FormatDate(days[41]); got != "2024-04-06" {
		t.Errorf("last cell = %s, want 2024-04-06", got)
	}
}

func TestMonthGridDaysLongMonthStartingSaturday(t *testing.T) {
	// December 2029 starts on a Saturday and has 31 days: 6 + 31 + 5.
	days := MonthGridDays(date(2029, time.December, 1))
	if len(days) != GridSize {
		t.Fatalf("got %d days, want %d", len(days), GridSize)
	}
	if got := FormatDate(days[6]); got != "2029-12-01" {
		t.Errorf("cell 6 = %s, want 2029-12-01", got)
	}
	if got := FormatDate(days[41]); got != "2030-01-05" {
		t.Errorf("last cell = %s, want 2030-01-05", got)
	}
}

func TestMonthGridDaysNoLeading(t *testing.T) {
	// February 2015 starts on a Sunday and has 28 days.
	days := MonthGridDays(date(2015, time.February, 10))
	if got := FormatDate(days[0]); got != "2015-02-01" {
		t.Errorf("first cell = %s, want 2015-02-01", got)
	}
	if got := FormatDate(days[28]); got != "2015-03-01" {
		t.Errorf("cell 28 = %s, want 2015-03-01", got)
	}
}

func TestAddMonths(t *testing.T) {
	tests := []struct {
		in    time.Time
		delta int
		want  string
	}{
		{date(2024, time.March, 15), 1, "2024-04-15"},
		{date(2024, time.December, 10), 1, "2025-01-10"},
		{date(2024, time.January, 10), -1, "2023-12-10"},
		{date(2024, time.March, 15), -14, "2023-01-15"},
		{date(2024, time.January, 31), 1, "2024-02-29"},
		{date(2023, time.January, 31), 1, "2023-02-28"},
		{date(2024, time.March, 31), -1, "2024-02-29"},
		{date(2024, time.May, 31), 1, "2024-06-30"},
		{date(2024, time.August, 31), 0, "2024-08-31"},
	}

	for _, tt := range tests {
		if got := FormatDate(AddMonths(tt.in, tt.delta)); got != tt.want {
			t.Errorf("AddMonths(%s, %d) = %s, want %s", FormatDate(tt.in), tt.delta, got, tt.want)
		}
	}
}

func TestAddMonthsInverse(t *testing.T) {
	for _, n := range []int{1, 2, 5, 12, 13, 25} {
		for d := date(2023, time.January, 1); d.Year() < 2025; d = d.AddDate(0, 0, 1) {
			if d.Day() > 28 {
				continue // may clamp
			}
			if got := AddMonths(AddMonths(d, n), -n); !got.Equal(d) {
				t.Fatalf("AddMonths(AddMonths(%s, %d), %d) = %s", FormatDate(d), n, -n, FormatDate(got))
			}
		}
	}
}

func TestAddMonthsKeepsTimeOfDay(t *testing.T) {
	in := time.Date(2024, time.January, 31, 14, 30, 0, 0, time.UTC)
	got := AddMonths(in, 1)
	if got.Hour() != 14 || got.Minute() != 30 {
		t.Errorf("time of day = %02d:%02d, want 14:30", got.Hour(), got.Minute())
	}
}

func TestIsSameDay(t *testing.T) {
	a := time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC)
	b := time.Date(2024, time.March, 15, 23, 59, 0, 0, time.UTC)
	c := time.Date(2024, time.March, 16, 0, 0, 0, 0, time.UTC)
	if !IsSameDay(a, b) {
		t.Error("same date with different times should match")
	}
	if IsSameDay(a, c) {
		t.Error("different dates should not match")
	}
}

func TestIsToday(t *testing.T) {
	clock := FixedClock(time.Date(2024, time.March, 15, 18, 0, 0, 0, time.UTC))
	if !IsToday(date(2024, time.March, 15), clock) {
		t.Error("expected March 15 to be today")
	}
	if IsToday(date(2024, time.March, 14), clock) {
		t.Error("March 14 should not be today")
	}
}

func TestFormatEventTime(t *testing.T) {
	tests := []struct {
		start, end string
		want       string
	}{
		{"00:00", "01:30", "12:00 AM - 1:30 AM"},
		{"13:00", "14:00", "1:00 PM - 2:00 PM"},
		{"11:45", "12:15", "11:45 AM - 12:15 PM"},
		{"23:05", "23:59", "11:05 PM - 11:59 PM"},
		{"bogus", "09:00", "bogus - 9:00 AM"},
	}

	for _, tt := range tests {
		if got := FormatEventTime(tt.start, tt.end); got != tt.want {
			t.Errorf("FormatEventTime(%q, %q) = %q, want %q", tt.start, tt.end, got, tt.want)
		}
	}
}

func TestParseTimeOfDay(t *testing.T) {
	for _, bad := range []string{"", "9:00", "24:00", "12:60", "+1:00", "12-00", "12:0a"} {
		if _, _, err := ParseTimeOfDay(bad); err == nil {
			t.Errorf("ParseTimeOfDay(%q) should fail", bad)
		}
	}
	h, m, err := ParseTimeOfDay("07:05")
	if err != nil {
		t.Fatalf("ParseTimeOfDay: %v", err)
	}
	if h != 7 || m != 5 {
		t.Errorf("got %d:%d, want 7:5", h, m)
	}
}

func TestParseDate(t *testing.T) {
	d, err := ParseDateIn("2024-03-15", time.UTC)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !d.Equal(date(2024, time.March, 15)) {
		t.Errorf("got %v", d)
	}
	if _, err := ParseDateIn("2024-13-01", time.UTC); err == nil {
		t.Error("expected error for month 13")
	}
}

func TestDisplayHelpers(t *testing.T) {
	d := date(2024, time.March, 1)
	if got := MonthName(d); got != "March" {
		t.Errorf("MonthName = %q", got)
	}
	if got := Year(d); got != 2024 {
		t.Errorf("Year = %d", got)
	}
	if got := MonthTitle(d); got != "March 2024" {
		t.Errorf("MonthTitle = %q", got)
	}
	if got := FormatDateHeader(d); got != "Friday, March 1" {
		t.Errorf("FormatDateHeader = %q", got)
	}
	if got := WeekdayLabels[0] + WeekdayLabels[6]; got != "SunSat" {
		t.Errorf("WeekdayLabels = %v", WeekdayLabels)
	}
}
