package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/dukerupert/pocketcal/internal/model"
	"github.com/dukerupert/pocketcal/internal/storage"
	"github.com/dukerupert/pocketcal/internal/store"
)

// EventHandler serves CRUD on the event list. Change notifications go out
// through the store's listeners, not from here.
type EventHandler struct {
	events *store.EventStore
	logger *slog.Logger
}

func NewEventHandler(events *store.EventStore, logger *slog.Logger) *EventHandler {
	return &EventHandler{events: events, logger: logger}
}

func (h *EventHandler) List(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.events.All())
}

func (h *EventHandler) Get(w http.ResponseWriter, r *http.Request) {
	ev, err := h.events.Get(r.PathValue("id"))
	if writeStoreError(w, h.logger, err) {
		return
	}
	writeJSON(w, http.StatusOK, ev)
}

func (h *EventHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in model.EventInput
	if !decodeJSON(w, r, &in) {
		return
	}

	ev, err := h.events.Create(r.Context(), in)
	if h.writeUnsaved(w, ev, err) || writeStoreError(w, h.logger, err) {
		return
	}
	writeJSON(w, http.StatusCreated, ev)
}

func (h *EventHandler) Update(w http.ResponseWriter, r *http.Request) {
	var in model.EventInput
	if !decodeJSON(w, r, &in) {
		return
	}

	ev, err := h.events.Update(r.Context(), r.PathValue("id"), in)
	if h.writeUnsaved(w, ev, err) || writeStoreError(w, h.logger, err) {
		return
	}
	writeJSON(w, http.StatusOK, ev)
}

func (h *EventHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if writeStoreError(w, h.logger, h.events.Delete(r.Context(), r.PathValue("id"))) {
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Clear removes every event.
func (h *EventHandler) Clear(w http.ResponseWriter, r *http.Request) {
	h.events.Reset(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

// writeUnsaved handles a mutation that applied in memory but could not be
// persisted. The client still gets the event so it can keep displaying it.
func (h *EventHandler) writeUnsaved(w http.ResponseWriter, ev model.Event, err error) bool {
	var serr *storage.StorageError
	if !errors.As(err, &serr) {
		return false
	}
	h.logger.Error("event not saved", "id", ev.ID, "reason", serr.Reason, "error", serr.Err)
	writeJSON(w, http.StatusInsufficientStorage, map[string]any{
		"error": serr.Message(),
		"event": ev,
	})
	return true
}
