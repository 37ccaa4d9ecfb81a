// Package render prints calendar pages to a terminal.
package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/dukerupert/pocketcal/internal/dateutil"
	"github.com/dukerupert/pocketcal/internal/model"
	"github.com/dukerupert/pocketcal/internal/view"
)

// cellWidth is the printed width of one grid column.
const cellWidth = 7

var (
	headerColor = color.New(color.FgCyan, color.Bold)
	todayColor  = color.New(color.FgCyan, color.Bold, color.ReverseVideo)
	dimColor    = color.New(color.Faint)
	timeColor   = color.New(color.FgGreen)
	subtleColor = color.New(color.FgHiBlack)

	categoryColors = map[model.Category]*color.Color{
		model.CategoryWork:     color.New(color.FgBlue, color.Bold),
		model.CategoryPersonal: color.New(color.FgGreen, color.Bold),
		model.CategoryMeeting:  color.New(color.FgYellow, color.Bold),
		model.CategoryOther:    color.New(color.FgMagenta, color.Bold),
	}
)

// Page prints p in whichever mode it was built for.
func Page(w io.Writer, p view.Page) error {
	if p.Mode == model.ViewList {
		return List(w, p)
	}
	return Grid(w, p)
}

// Grid prints a seven-column month grid. Each cell shows the day number and,
// when the day has events, how many fit in the cell. A trailing "+" means
// more events are hidden.
func Grid(w io.Writer, p view.Page) error {
	var b strings.Builder

	b.WriteString(headerColor.Sprint(center(p.Title, 7*cellWidth)))
	b.WriteByte('\n')
	for _, label := range p.Weekdays {
		b.WriteString(subtleColor.Sprint(fmt.Sprintf("%-*s", cellWidth, label)))
	}
	b.WriteByte('\n')

	for _, week := range view.Weeks(p.Cells) {
		for _, c := range week {
			shown, more := c.Visible(view.MaxVisibleEvents)
			// Pad before coloring; escape codes would throw off the width.
			text := fmt.Sprintf("%-*s", cellWidth, fmt.Sprintf("%2d%s", c.Day, countMark(len(shown), more)))
			switch {
			case c.Today:
				text = todayColor.Sprint(text)
			case c.Dimmed:
				text = dimColor.Sprint(text)
			}
			b.WriteString(text)
		}
		b.WriteByte('\n')
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// List prints each date heading followed by its events.
func List(w io.Writer, p view.Page) error {
	var b strings.Builder

	b.WriteString(headerColor.Sprint(p.Title))
	b.WriteByte('\n')
	if len(p.Groups) == 0 {
		b.WriteString(subtleColor.Sprint("No events this month"))
		b.WriteByte('\n')
	}

	for _, g := range p.Groups {
		b.WriteByte('\n')
		b.WriteString(headerColor.Sprint(g.Header))
		b.WriteByte('\n')
		for _, ev := range g.Events {
			fmt.Fprintf(&b, "  %s  %s %s\n",
				timeColor.Sprint(fmt.Sprintf("%-19s", dateutil.FormatEventTime(ev.StartTime, ev.EndTime))),
				categoryColor(ev.Category).Sprint(ev.Title),
				subtleColor.Sprint("["+string(ev.Category)+"]"),
			)
			if ev.Description != "" {
				fmt.Fprintf(&b, "  %-19s  %s\n", "", subtleColor.Sprint(ev.Description))
			}
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func countMark(shown, more int) string {
	switch {
	case shown == 0:
		return ""
	case more > 0:
		return fmt.Sprintf("(%d+)", shown)
	default:
		return fmt.Sprintf("(%d)", shown)
	}
}

func categoryColor(c model.Category) *color.Color {
	if col, ok := categoryColors[c]; ok {
		return col
	}
	return categoryColors[model.CategoryOther]
}

func center(s string, width int) string {
	if len(s) >= width {
		return s
	}
	left := (width - len(s)) / 2
	return strings.Repeat(" ", left) + s
}
