// Package ical converts events to and from iCalendar.
package ical

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"

	"github.com/dukerupert/pocketcal/internal/categorize"
	"github.com/dukerupert/pocketcal/internal/dateutil"
	"github.com/dukerupert/pocketcal/internal/model"
)

const (
	productID = "-//pocketcal//pocketcal//EN"
	uidSuffix = "@pocketcal"
	// Floating local time: no zone, no trailing Z.
	floatingLayout = "20060102T150405"
)

// Export renders events as a VCALENDAR. Times are floating wall-clock values
// so that importers show them unchanged in their own zone.
func Export(events []model.Event, now time.Time) string {
	cal := ics.NewCalendar()
	cal.SetProductId(productID)
	cal.SetMethod(ics.MethodPublish)

	for _, ev := range events {
		start, end, err := span(ev)
		if err != nil {
			continue
		}
		vev := cal.AddEvent(ev.ID + uidSuffix)
		vev.SetDtStampTime(now)
		vev.SetSummary(ev.Title)
		if ev.Description != "" {
			vev.SetDescription(ev.Description)
		}
		vev.SetProperty(ics.ComponentPropertyDtStart, start.Format(floatingLayout))
		vev.SetProperty(ics.ComponentPropertyDtEnd, end.Format(floatingLayout))
		vev.SetProperty(ics.ComponentPropertyCategories, strings.ToUpper(string(ev.Category)))
		if ev.Color != "" {
			vev.SetProperty(ics.ComponentPropertyColor, ev.Color)
		}
	}

	return cal.Serialize()
}

// Import reads VEVENTs into event bodies. Events that cannot be placed on a
// single day with a start and end time are skipped and counted.
func Import(r io.Reader, logger *slog.Logger) ([]model.EventInput, int, error) {
	cal, err := ics.ParseCalendar(r)
	if err != nil {
		return nil, 0, fmt.Errorf("parse calendar: %w", err)
	}

	var (
		inputs  []model.EventInput
		skipped int
	)
	for _, vev := range cal.Events() {
		in, err := fromVEvent(vev)
		if err != nil {
			skipped++
			logger.Warn("skip vevent", "uid", propValue(vev, ics.ComponentPropertyUniqueId), "error", err)
			continue
		}
		inputs = append(inputs, in)
	}
	return inputs, skipped, nil
}

func fromVEvent(vev *ics.VEvent) (model.EventInput, error) {
	if dt := vev.GetProperty(ics.ComponentPropertyDtStart); dt != nil && !strings.Contains(dt.Value, "T") {
		return model.EventInput{}, fmt.Errorf("all-day events are not supported")
	}

	start, err := propTime(vev, ics.ComponentPropertyDtStart, vev.GetStartAt)
	if err != nil {
		return model.EventInput{}, fmt.Errorf("dtstart: %w", err)
	}
	end, err := propTime(vev, ics.ComponentPropertyDtEnd, vev.GetEndAt)
	if err != nil {
		return model.EventInput{}, fmt.Errorf("dtend: %w", err)
	}

	if !dateutil.IsSameDay(start, end) {
		return model.EventInput{}, fmt.Errorf("event spans more than one day")
	}

	title := propValue(vev, ics.ComponentPropertySummary)
	category := categorize.Guess(title)
	if c := propValue(vev, ics.ComponentPropertyCategories); c != "" {
		// Only the first of a comma-separated list is kept.
		category = model.ParseCategory(strings.Split(c, ",")[0])
	}

	in := model.EventInput{
		Title:       title,
		Description: propValue(vev, ics.ComponentPropertyDescription),
		Date:        dateutil.FormatDate(start),
		StartTime:   start.Format(dateutil.TimeLayout),
		EndTime:     end.Format(dateutil.TimeLayout),
		Category:    category,
		Color:       propValue(vev, ics.ComponentPropertyColor),
	}.Normalize()

	if err := in.Validate(); err != nil {
		return model.EventInput{}, err
	}
	return in, nil
}

// propTime reads a date-time property as local wall-clock time. Floating
// values are taken as-is; zoned values go through the library's TZID
// handling and are converted to local time.
func propTime(vev *ics.VEvent, prop ics.ComponentProperty, zoned func() (time.Time, error)) (time.Time, error) {
	p := vev.GetProperty(prop)
	if p == nil {
		return time.Time{}, fmt.Errorf("missing %s", prop)
	}
	_, hasTZ := p.ICalParameters["TZID"]
	if !hasTZ && !strings.HasSuffix(p.Value, "Z") {
		return time.ParseInLocation(floatingLayout, p.Value, time.Local)
	}
	t, err := zoned()
	if err != nil {
		return time.Time{}, err
	}
	return t.In(time.Local), nil
}

func span(ev model.Event) (time.Time, time.Time, error) {
	day, err := dateutil.ParseDate(ev.Date)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	sh, sm, err := dateutil.ParseTimeOfDay(ev.StartTime)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	eh, em, err := dateutil.ParseTimeOfDay(ev.EndTime)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	y, m, d := day.Date()
	start := time.Date(y, m, d, sh, sm, 0, 0, time.Local)
	end := time.Date(y, m, d, eh, em, 0, 0, time.Local)
	return start, end, nil
}

func propValue(vev *ics.VEvent, prop ics.ComponentProperty) string {
	if p := vev.GetProperty(prop); p != nil {
		return p.Value
	}
	return ""
}
