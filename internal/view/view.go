// Package view derives the per-day and per-date buckets the calendar
// renders from the event list.
package view

import (
	"cmp"
	"encoding/json"
	"slices"
	"strings"
	"time"

	"github.com/dukerupert/pocketcal/internal/dateutil"
	"github.com/dukerupert/pocketcal/internal/model"
)

// MaxVisibleEvents is how many events a grid cell shows before "+N more".
const MaxVisibleEvents = 3

// DayCell is one square of the month grid.
type DayCell struct {
	Date   time.Time     `json:"-"`
	Key    string        `json:"date"`
	Day    int           `json:"day"`
	Events []model.Event `json:"events"`
	// Dimmed marks days outside the reference month.
	Dimmed bool `json:"dimmed"`
	Today  bool `json:"today"`
}

// Visible returns at most n events and the number left over.
func (c DayCell) Visible(n int) ([]model.Event, int) {
	if len(c.Events) <= n {
		return c.Events, 0
	}
	return c.Events[:n], len(c.Events) - n
}

// MarshalJSON adds the events that fit in the cell as "visible" and the
// hidden remainder as "more".
func (c DayCell) MarshalJSON() ([]byte, error) {
	type cell DayCell
	visible, more := c.Visible(MaxVisibleEvents)
	return json.Marshal(struct {
		cell
		Visible []model.Event `json:"visible"`
		More    int           `json:"more"`
	}{cell(c), visible, more})
}

// DateGroup is one date heading of the list view.
type DateGroup struct {
	Date   time.Time     `json:"-"`
	Key    string        `json:"date"`
	Header string        `json:"header"`
	Events []model.Event `json:"events"`
}

// Grid buckets events into the 42 cells of the reference month's grid.
// An event lands in a cell only when its date equals the cell's date, and
// each cell keeps the events in list order.
func Grid(v model.CalendarView, events []model.Event, clock dateutil.Clock) []DayCell {
	byDate := make(map[string][]model.Event)
	for _, ev := range events {
		byDate[ev.Date] = append(byDate[ev.Date], ev)
	}

	days := dateutil.MonthGridDays(v.ReferenceDate)
	cells := make([]DayCell, len(days))
	for i, d := range days {
		key := dateutil.FormatDate(d)
		dayEvents := byDate[key]
		if dayEvents == nil {
			dayEvents = []model.Event{}
		}
		cells[i] = DayCell{
			Date:   d,
			Key:    key,
			Day:    d.Day(),
			Events: dayEvents,
			Dimmed: !dateutil.SameMonth(d, v.ReferenceDate),
			Today:  dateutil.IsToday(d, clock),
		}
	}
	return cells
}

// Weeks splits grid cells into rows of seven.
func Weeks(cells []DayCell) [][]DayCell {
	var rows [][]DayCell
	for week := range slices.Chunk(cells, 7) {
		rows = append(rows, week)
	}
	return rows
}

// List returns the reference month's events sorted by date then start
// time and grouped by date. Both keys are zero-padded, so plain string
// comparison orders them.
func List(v model.CalendarView, events []model.Event) []DateGroup {
	prefix := v.ReferenceDate.Format("2006-01-")

	var month []model.Event
	for _, ev := range events {
		if strings.HasPrefix(ev.Date, prefix) {
			month = append(month, ev)
		}
	}
	slices.SortStableFunc(month, func(a, b model.Event) int {
		return cmp.Or(cmp.Compare(a.Date, b.Date), cmp.Compare(a.StartTime, b.StartTime))
	})

	var groups []DateGroup
	for _, ev := range month {
		if n := len(groups); n > 0 && groups[n-1].Key == ev.Date {
			groups[n-1].Events = append(groups[n-1].Events, ev)
			continue
		}
		d, err := dateutil.ParseDateIn(ev.Date, v.ReferenceDate.Location())
		if err != nil {
			// Not a real date; no header to show it under.
			continue
		}
		groups = append(groups, DateGroup{
			Date:   d,
			Key:    ev.Date,
			Header: dateutil.FormatDateHeader(d),
			Events: []model.Event{ev},
		})
	}
	return groups
}

// Page is everything a presentation needs to draw one view.
type Page struct {
	Title    string         `json:"title"`
	Month    string         `json:"month"`
	Mode     model.ViewMode `json:"mode"`
	Weekdays []string       `json:"weekdays,omitempty"`
	Cells    []DayCell      `json:"cells,omitempty"`
	Groups   []DateGroup    `json:"groups,omitempty"`
}

// Build runs the builder selected by v.Mode.
func Build(v model.CalendarView, events []model.Event, clock dateutil.Clock) Page {
	p := Page{
		Title: dateutil.MonthTitle(v.ReferenceDate),
		Month: v.ReferenceDate.Format("2006-01"),
		Mode:  v.Mode,
	}
	switch v.Mode {
	case model.ViewList:
		p.Groups = List(v, events)
	default:
		p.Mode = model.ViewGrid
		p.Weekdays = dateutil.WeekdayLabels
		p.Cells = Grid(v, events, clock)
	}
	return p
}
