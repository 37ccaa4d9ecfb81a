package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/dukerupert/pocketcal/internal/dateutil"
	"github.com/dukerupert/pocketcal/internal/ical"
	"github.com/dukerupert/pocketcal/internal/model"
	"github.com/dukerupert/pocketcal/internal/storage"
	"github.com/dukerupert/pocketcal/internal/store"
)

type ICalHandler struct {
	events *store.EventStore
	clock  dateutil.Clock
	logger *slog.Logger
}

func NewICalHandler(events *store.EventStore, clock dateutil.Clock, logger *slog.Logger) *ICalHandler {
	return &ICalHandler{events: events, clock: clock, logger: logger}
}

// Export writes every event, or only those in ?month=YYYY-MM, as text/calendar.
func (h *ICalHandler) Export(w http.ResponseWriter, r *http.Request) {
	events := h.events.All()
	name := "pocketcal.ics"

	if month := r.URL.Query().Get("month"); month != "" {
		if _, err := dateutil.ParseMonth(month, time.UTC); err != nil {
			writeError(w, http.StatusBadRequest, "month must be YYYY-MM")
			return
		}
		filtered := events[:0]
		for _, ev := range events {
			if strings.HasPrefix(ev.Date, month+"-") {
				filtered = append(filtered, ev)
			}
		}
		events = filtered
		name = "pocketcal-" + month + ".ics"
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	w.Write([]byte(ical.Export(events, h.clock.Now())))
}

type importResult struct {
	Imported int    `json:"imported"`
	Skipped  int    `json:"skipped"`
	Error    string `json:"error,omitempty"`
}

// Import creates an event for each usable VEVENT in the request body.
func (h *ICalHandler) Import(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	inputs, skipped, err := ical.Import(r.Body, h.logger)
	if err != nil {
		writeError(w, http.StatusBadRequest, "could not parse calendar")
		return
	}

	res := importResult{Skipped: skipped}
	var saveErr *storage.StorageError
	for _, in := range inputs {
		_, err := h.events.Create(r.Context(), in)
		var verr *model.ValidationError
		switch {
		case err == nil:
			res.Imported++
		case errors.As(err, &verr):
			h.logger.Debug("skipping invalid imported event", "title", in.Title, "error", err)
			res.Skipped++
		case errors.As(err, &saveErr):
			// Kept in memory; keep going so the count is accurate.
			res.Imported++
		default:
			writeStoreError(w, h.logger, err)
			return
		}
	}

	h.logger.Info("calendar imported", "imported", res.Imported, "skipped", res.Skipped)
	if saveErr != nil {
		res.Error = saveErr.Message()
		writeJSON(w, http.StatusInsufficientStorage, res)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
