package model

import "time"

type ViewMode string

const (
	ViewGrid ViewMode = "grid"
	ViewList ViewMode = "list"
)

// ParseViewMode returns grid for anything other than "list".
func ParseViewMode(s string) ViewMode {
	if ViewMode(s) == ViewList {
		return ViewList
	}
	return ViewGrid
}

// CalendarView selects which builder runs and which month is displayed.
// ReferenceDate is independent of the current date.
type CalendarView struct {
	Mode          ViewMode  `json:"mode"`
	ReferenceDate time.Time `json:"referenceDate"`
}

type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// Toggle returns the opposite theme.
func (t Theme) Toggle() Theme {
	if t == ThemeDark {
		return ThemeLight
	}
	return ThemeDark
}
