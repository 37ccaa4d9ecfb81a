package ical

import (
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/dukerupert/pocketcal/internal/model"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var stamp = time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)

func TestExportContainsEvent(t *testing.T) {
	events := []model.Event{{
		ID: "abc", Title: "Dentist", Description: "Bring forms",
		Date: "2024-03-15", StartTime: "09:00", EndTime: "10:30",
		Category: model.CategoryPersonal, Color: "#10B981",
	}}
	out := Export(events, stamp)

	for _, want := range []string{
		"BEGIN:VCALENDAR",
		"UID:abc@pocketcal",
		"SUMMARY:Dentist",
		"DTSTART:20240315T090000",
		"DTEND:20240315T103000",
		"CATEGORIES:PERSONAL",
		"END:VEVENT",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("export missing %q:\n%s", want, out)
		}
	}
}

func TestExportSkipsMalformed(t *testing.T) {
	out := Export([]model.Event{{ID: "bad", Title: "x", Date: "someday", StartTime: "09:00", EndTime: "10:00"}}, stamp)
	if strings.Contains(out, "BEGIN:VEVENT") {
		t.Errorf("malformed event exported:\n%s", out)
	}
}

func TestRoundTrip(t *testing.T) {
	events := []model.Event{
		{ID: "1", Title: "Standup", Date: "2024-03-15", StartTime: "09:00", EndTime: "09:15", Category: model.CategoryMeeting, Color: "#F59E0B"},
		{ID: "2", Title: "Gym", Description: "Leg day", Date: "2024-03-16", StartTime: "18:00", EndTime: "19:00", Category: model.CategoryPersonal, Color: "#10B981"},
	}

	inputs, skipped, err := Import(strings.NewReader(Export(events, stamp)), discardLogger())
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if skipped != 0 {
		t.Errorf("skipped = %d, want 0", skipped)
	}
	if len(inputs) != len(events) {
		t.Fatalf("got %d inputs, want %d", len(inputs), len(events))
	}
	for i, in := range inputs {
		if in != events[i].Input() {
			t.Errorf("input %d = %+v, want %+v", i, in, events[i].Input())
		}
	}
}

func TestImportSkipsUnsupported(t *testing.T) {
	payload := strings.Join([]string{
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:-//test//EN",
		"BEGIN:VEVENT",
		"UID:allday",
		"SUMMARY:Holiday",
		"DTSTART;VALUE=DATE:20240315",
		"DTEND;VALUE=DATE:20240316",
		"END:VEVENT",
		"BEGIN:VEVENT",
		"UID:multiday",
		"SUMMARY:Conference",
		"DTSTART:20240315T090000",
		"DTEND:20240317T170000",
		"END:VEVENT",
		"BEGIN:VEVENT",
		"UID:ok",
		"SUMMARY:Lunch",
		"CATEGORIES:Holiday,Food",
		"DTSTART:20240315T120000",
		"DTEND:20240315T130000",
		"END:VEVENT",
		"END:VCALENDAR",
		"",
	}, "\r\n")

	inputs, skipped, err := Import(strings.NewReader(payload), discardLogger())
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if skipped != 2 {
		t.Errorf("skipped = %d, want 2", skipped)
	}
	if len(inputs) != 1 {
		t.Fatalf("got %d inputs, want 1", len(inputs))
	}
	in := inputs[0]
	if in.Title != "Lunch" || in.Date != "2024-03-15" || in.StartTime != "12:00" || in.EndTime != "13:00" {
		t.Errorf("input = %+v", in)
	}
	if in.Category != model.CategoryOther || in.Color != "#8B5CF6" {
		t.Errorf("category/color = %s/%s, want other default", in.Category, in.Color)
	}
}

func TestImportGarbage(t *testing.T) {
	inputs, _, err := Import(strings.NewReader("not a calendar"), discardLogger())
	if err == nil && len(inputs) != 0 {
		t.Errorf("garbage produced events: %+v", inputs)
	}
}

func TestImportGuessesMissingCategory(t *testing.T) {
	payload := strings.Join([]string{
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:-//test//EN",
		"BEGIN:VEVENT",
		"UID:sync",
		"SUMMARY:Weekly team sync",
		"DTSTART:20240318T100000",
		"DTEND:20240318T103000",
		"END:VEVENT",
		"END:VCALENDAR",
		"",
	}, "\r\n")

	inputs, _, err := Import(strings.NewReader(payload), discardLogger())
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if len(inputs) != 1 {
		t.Fatalf("got %d inputs, want 1", len(inputs))
	}
	if got := inputs[0].Category; got != model.CategoryMeeting {
		t.Errorf("category = %q, want meeting", got)
	}
	if got := inputs[0].Color; got != "#F59E0B" {
		t.Errorf("color = %q, want meeting default", got)
	}
}
