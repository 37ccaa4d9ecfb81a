package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dukerupert/pocketcal/internal/backup"
	"github.com/dukerupert/pocketcal/internal/dateutil"
	"github.com/dukerupert/pocketcal/internal/kv"
	"github.com/dukerupert/pocketcal/internal/model"
	"github.com/dukerupert/pocketcal/internal/storage"
	"github.com/dukerupert/pocketcal/internal/store"
	"github.com/dukerupert/pocketcal/internal/theme"
	"github.com/dukerupert/pocketcal/internal/view"
)

var testClock = dateutil.FixedClock(time.Date(2024, time.March, 15, 10, 0, 0, 0, time.UTC))

type fixture struct {
	mux    *http.ServeMux
	events *store.EventStore
	kv     *kv.Memory
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func setup(t *testing.T, opts ...kv.MemoryOption) *fixture {
	t.Helper()
	ctx := context.Background()
	logger := testLogger()

	mem := kv.NewMemory(opts...)
	adapter := storage.NewAdapter(mem, logger)
	events := store.NewEventStore(ctx, adapter, logger)
	pref := theme.Load(ctx, mem, logger)

	eh := NewEventHandler(events, logger)
	vh := NewViewHandler(events, testClock, time.UTC)
	th := NewThemeHandler(pref, nil, logger)
	ih := NewICalHandler(events, testClock, logger)
	bh := NewBackupHandler(backup.NewManager(events, logger), logger)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/events", eh.List)
	mux.HandleFunc("POST /api/events", eh.Create)
	mux.HandleFunc("DELETE /api/events", eh.Clear)
	mux.HandleFunc("GET /api/events/{id}", eh.Get)
	mux.HandleFunc("PUT /api/events/{id}", eh.Update)
	mux.HandleFunc("DELETE /api/events/{id}", eh.Delete)
	mux.HandleFunc("GET /api/view", vh.Page)
	mux.HandleFunc("GET /api/theme", th.Get)
	mux.HandleFunc("PUT /api/theme", th.Set)
	mux.HandleFunc("POST /api/theme/toggle", th.Toggle)
	mux.HandleFunc("GET /api/export.ics", ih.Export)
	mux.HandleFunc("POST /api/import.ics", ih.Import)
	mux.HandleFunc("POST /api/backup", bh.Create)
	mux.HandleFunc("POST /api/restore", bh.Restore)

	return &fixture{mux: mux, events: events, kv: mem}
}

func (f *fixture) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	f.mux.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}

const standup = `{"title":"Standup","date":"2024-03-15","startTime":"09:00","endTime":"09:15","category":"meeting"}`

func TestEventCRUD(t *testing.T) {
	f := setup(t)

	rec := f.do(t, "POST", "/api/events", standup)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, want %d: %s", rec.Code, http.StatusCreated, rec.Body)
	}
	created := decode[model.Event](t, rec)
	if created.ID == "" {
		t.Fatal("created event has no id")
	}
	if created.Color != "#F59E0B" {
		t.Errorf("color = %q, want meeting default", created.Color)
	}

	rec = f.do(t, "GET", "/api/events/"+created.ID, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d", rec.Code)
	}
	if got := decode[model.Event](t, rec); got != created {
		t.Errorf("get = %+v, want %+v", got, created)
	}

	rec = f.do(t, "PUT", "/api/events/"+created.ID,
		`{"title":"Retro","date":"2024-03-15","startTime":"15:00","endTime":"16:00","category":"meeting"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("update status = %d: %s", rec.Code, rec.Body)
	}
	updated := decode[model.Event](t, rec)
	if updated.ID != created.ID || updated.Title != "Retro" {
		t.Errorf("updated = %+v", updated)
	}

	rec = f.do(t, "GET", "/api/events", "")
	if list := decode[[]model.Event](t, rec); len(list) != 1 || list[0].Title != "Retro" {
		t.Errorf("list = %+v", list)
	}

	rec = f.do(t, "DELETE", "/api/events/"+created.ID, "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", rec.Code)
	}
	if rec = f.do(t, "GET", "/api/events/"+created.ID, ""); rec.Code != http.StatusNotFound {
		t.Errorf("get after delete status = %d, want 404", rec.Code)
	}
}

func TestListEmptyIsArray(t *testing.T) {
	f := setup(t)
	rec := f.do(t, "GET", "/api/events", "")
	if got := strings.TrimSpace(rec.Body.String()); got != "[]" {
		t.Errorf("body = %q, want []", got)
	}
}

func TestCreateValidation(t *testing.T) {
	f := setup(t)

	rec := f.do(t, "POST", "/api/events", `{"title":"  ","date":"2024-03-15","startTime":"10:00","endTime":"09:00"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	body := decode[struct {
		Error  string             `json:"error"`
		Fields []model.FieldError `json:"fields"`
	}](t, rec)
	if len(body.Fields) != 2 {
		t.Errorf("fields = %+v, want title and endTime", body.Fields)
	}
	if n := len(f.events.All()); n != 0 {
		t.Errorf("store has %d events after invalid create", n)
	}

	if rec := f.do(t, "POST", "/api/events", `{`); rec.Code != http.StatusBadRequest {
		t.Errorf("malformed JSON status = %d, want 400", rec.Code)
	}
}

func TestUpdateUnknown(t *testing.T) {
	f := setup(t)
	if rec := f.do(t, "PUT", "/api/events/nope", standup); rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestDeleteUnknownIsNoContent(t *testing.T) {
	f := setup(t)
	if rec := f.do(t, "DELETE", "/api/events/nope", ""); rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", rec.Code)
	}
}

func TestClearEvents(t *testing.T) {
	f := setup(t)
	f.do(t, "POST", "/api/events", standup)
	f.do(t, "POST", "/api/events", standup)

	if rec := f.do(t, "DELETE", "/api/events", ""); rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}
	if n := len(f.events.All()); n != 0 {
		t.Errorf("store has %d events after clear", n)
	}
	if _, ok, _ := f.kv.Get(context.Background(), storage.EventsKey); ok {
		t.Error("stored record should be removed")
	}
}

func TestCreateStorageFull(t *testing.T) {
	f := setup(t, kv.WithQuota(10))

	rec := f.do(t, "POST", "/api/events", standup)
	if rec.Code != http.StatusInsufficientStorage {
		t.Fatalf("status = %d, want 507", rec.Code)
	}
	body := decode[struct {
		Error string      `json:"error"`
		Event model.Event `json:"event"`
	}](t, rec)
	if body.Error != "Unable to save events. Storage may be full." {
		t.Errorf("error = %q", body.Error)
	}
	if body.Event.ID == "" {
		t.Error("response should carry the unsaved event")
	}
	if n := len(f.events.All()); n != 1 {
		t.Errorf("store has %d events, want 1", n)
	}
}

func TestViewGrid(t *testing.T) {
	f := setup(t)
	f.do(t, "POST", "/api/events", standup)

	rec := f.do(t, "GET", "/api/view?month=2024-03", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	page := decode[view.Page](t, rec)
	if page.Title != "March 2024" || page.Mode != model.ViewGrid {
		t.Errorf("page = %q %q", page.Title, page.Mode)
	}
	if len(page.Cells) != dateutil.GridSize {
		t.Fatalf("cells = %d, want %d", len(page.Cells), dateutil.GridSize)
	}
	for _, c := range page.Cells {
		if c.Key == "2024-03-15" {
			if len(c.Events) != 1 || !c.Today {
				t.Errorf("March 15 cell = %+v", c)
			}
		}
	}
}

func TestViewListDefaultsToCurrentMonth(t *testing.T) {
	f := setup(t)
	f.do(t, "POST", "/api/events", standup)

	page := decode[view.Page](t, f.do(t, "GET", "/api/view?mode=list", ""))
	if page.Month != "2024-03" {
		t.Errorf("month = %q, want 2024-03", page.Month)
	}
	if len(page.Groups) != 1 || page.Groups[0].Header != "Friday, March 15" {
		t.Errorf("groups = %+v", page.Groups)
	}

	if rec := f.do(t, "GET", "/api/view?month=March", ""); rec.Code != http.StatusBadRequest {
		t.Errorf("bad month status = %d, want 400", rec.Code)
	}
}

func TestTheme(t *testing.T) {
	f := setup(t)

	if got := decode[themeBody](t, f.do(t, "GET", "/api/theme", "")); got.Theme != model.ThemeLight {
		t.Errorf("default theme = %q, want light", got.Theme)
	}
	if got := decode[themeBody](t, f.do(t, "POST", "/api/theme/toggle", "")); got.Theme != model.ThemeDark {
		t.Errorf("toggled theme = %q, want dark", got.Theme)
	}
	if v, _, _ := f.kv.Get(context.Background(), theme.Key); v != "dark" {
		t.Errorf("stored theme = %q, want dark", v)
	}
	if got := decode[themeBody](t, f.do(t, "PUT", "/api/theme", `{"theme":"light"}`)); got.Theme != model.ThemeLight {
		t.Errorf("set theme = %q, want light", got.Theme)
	}
	if rec := f.do(t, "PUT", "/api/theme", `{"theme":"sepia"}`); rec.Code != http.StatusBadRequest {
		t.Errorf("unknown theme status = %d, want 400", rec.Code)
	}
}

func TestICalExportImport(t *testing.T) {
	f := setup(t)
	f.do(t, "POST", "/api/events", standup)
	f.do(t, "POST", "/api/events", `{"title":"Dentist","date":"2024-04-02","startTime":"14:00","endTime":"15:00","category":"personal"}`)

	rec := f.do(t, "GET", "/api/export.ics?month=2024-03", "")
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/calendar") {
		t.Errorf("content type = %q", ct)
	}
	ics := rec.Body.String()
	if !strings.Contains(ics, "SUMMARY:Standup") || strings.Contains(ics, "Dentist") {
		t.Fatalf("export filtered wrong:\n%s", ics)
	}

	other := setup(t)
	rec = other.do(t, "POST", "/api/import.ics", ics)
	if rec.Code != http.StatusOK {
		t.Fatalf("import status = %d: %s", rec.Code, rec.Body)
	}
	if res := decode[importResult](t, rec); res.Imported != 1 || res.Skipped != 0 {
		t.Errorf("import result = %+v", res)
	}
	got := other.events.All()
	if len(got) != 1 || got[0].Title != "Standup" || got[0].StartTime != "09:00" {
		t.Errorf("imported = %+v", got)
	}

	if rec := other.do(t, "POST", "/api/import.ics", "not a calendar"); rec.Code != http.StatusBadRequest {
		t.Errorf("garbage import status = %d, want 400", rec.Code)
	}
}

func TestBackupRestore(t *testing.T) {
	f := setup(t)
	f.do(t, "POST", "/api/events", standup)

	rec := f.do(t, "POST", "/api/backup", `{"passphrase":"hunter2"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("backup status = %d: %s", rec.Code, rec.Body)
	}
	blob := rec.Body.Bytes()

	other := setup(t)

	req := httptest.NewRequest("POST", "/api/restore", bytes.NewReader(blob))
	req.Header.Set("Content-Type", "application/octet-stream")
	req.Header.Set(PassphraseHeader, "wrong")
	rec = httptest.NewRecorder()
	other.mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("wrong passphrase status = %d, want 400", rec.Code)
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	mw.WriteField("passphrase", "hunter2")
	fw, _ := mw.CreateFormFile("file", "pocketcal.bak")
	fw.Write(blob)
	mw.Close()

	req = httptest.NewRequest("POST", "/api/restore", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec = httptest.NewRecorder()
	other.mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("restore status = %d: %s", rec.Code, rec.Body)
	}
	if got := decode[map[string]int](t, rec); got["restored"] != 1 {
		t.Errorf("restored = %v", got)
	}
	if got := other.events.All(); len(got) != 1 || got[0].Title != "Standup" {
		t.Errorf("events after restore = %+v", got)
	}
}

func TestBackupRequiresPassphrase(t *testing.T) {
	f := setup(t)
	if rec := f.do(t, "POST", "/api/backup", `{}`); rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}
