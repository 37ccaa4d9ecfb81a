package model

import (
	"strings"
	"time"
)

type Category string

const (
	CategoryWork     Category = "work"
	CategoryPersonal Category = "personal"
	CategoryMeeting  Category = "meeting"
	CategoryOther    Category = "other"
)

// Categories lists the known categories in display order.
var Categories = []Category{CategoryWork, CategoryPersonal, CategoryMeeting, CategoryOther}

var categoryColors = map[Category]string{
	CategoryWork:     "#3B82F6",
	CategoryPersonal: "#10B981",
	CategoryMeeting:  "#F59E0B",
	CategoryOther:    "#8B5CF6",
}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	_, ok := categoryColors[c]
	return ok
}

// DefaultColor returns the display color used when an event has none.
func (c Category) DefaultColor() string {
	if color, ok := categoryColors[c]; ok {
		return color
	}
	return categoryColors[CategoryOther]
}

// ParseCategory maps a free-form string to a Category, falling back to other.
func ParseCategory(s string) Category {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if c.Valid() {
		return c
	}
	return CategoryOther
}

// Event is a single calendar entry. Date is YYYY-MM-DD and the times are
// 24-hour HH:MM wall-clock values on that date.
type Event struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Date        string   `json:"date"`
	StartTime   string   `json:"startTime"`
	EndTime     string   `json:"endTime"`
	Category    Category `json:"category"`
	Color       string   `json:"color"`
}

// Input returns the event body without its id.
func (e Event) Input() EventInput {
	return EventInput{
		Title:       e.Title,
		Description: e.Description,
		Date:        e.Date,
		StartTime:   e.StartTime,
		EndTime:     e.EndTime,
		Category:    e.Category,
		Color:       e.Color,
	}
}

// EventInput is an event body as submitted by a caller. Ids are never
// caller-supplied.
type EventInput struct {
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Date        string   `json:"date"`
	StartTime   string   `json:"startTime"`
	EndTime     string   `json:"endTime"`
	Category    Category `json:"category"`
	Color       string   `json:"color"`
}

// Normalize trims text fields and fills in the category color when none was given.
func (in EventInput) Normalize() EventInput {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	in.Date = strings.TrimSpace(in.Date)
	in.StartTime = strings.TrimSpace(in.StartTime)
	in.EndTime = strings.TrimSpace(in.EndTime)
	if in.Category == "" {
		in.Category = CategoryWork
	}
	in.Color = strings.TrimSpace(in.Color)
	if in.Color == "" {
		in.Color = in.Category.DefaultColor()
	}
	return in
}

// Validate checks the body and returns a *ValidationError listing every bad field.
func (in EventInput) Validate() error {
	verr := &ValidationError{}

	if strings.TrimSpace(in.Title) == "" {
		verr.Add("title", "title is required")
	}

	switch {
	case in.Date == "":
		verr.Add("date", "date is required")
	case !validDate(in.Date):
		verr.Add("date", "date must be YYYY-MM-DD")
	}

	startOK := validClock(in.StartTime)
	endOK := validClock(in.EndTime)
	if !startOK {
		verr.Add("startTime", "start time must be HH:MM")
	}
	if !endOK {
		verr.Add("endTime", "end time must be HH:MM")
	}
	// Zero-padded HH:MM compares correctly as a string.
	if startOK && endOK && in.StartTime >= in.EndTime {
		verr.Add("endTime", "end time must be after start time")
	}

	if !in.Category.Valid() {
		verr.Add("category", "unknown category")
	}

	if verr.Empty() {
		return nil
	}
	return verr
}

func validDate(s string) bool {
	if len(s) != len("2006-01-02") {
		return false
	}
	_, err := time.Parse("2006-01-02", s)
	return err == nil
}

func validClock(s string) bool {
	if len(s) != len("15:04") {
		return false
	}
	_, err := time.Parse("15:04", s)
	return err == nil
}
