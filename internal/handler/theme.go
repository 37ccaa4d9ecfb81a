package handler

import (
	"log/slog"
	"net/http"

	"github.com/dukerupert/pocketcal/internal/model"
	"github.com/dukerupert/pocketcal/internal/theme"
	"github.com/dukerupert/pocketcal/internal/websocket"
)

type ThemeHandler struct {
	pref   *theme.Preference
	hub    *websocket.Hub
	logger *slog.Logger
}

func NewThemeHandler(pref *theme.Preference, hub *websocket.Hub, logger *slog.Logger) *ThemeHandler {
	return &ThemeHandler{pref: pref, hub: hub, logger: logger}
}

type themeBody struct {
	Theme model.Theme `json:"theme"`
}

func (h *ThemeHandler) Get(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, themeBody{Theme: h.pref.Current()})
}

func (h *ThemeHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	t, err := h.pref.Toggle(r.Context())
	h.respond(w, t, err)
}

func (h *ThemeHandler) Set(w http.ResponseWriter, r *http.Request) {
	var body themeBody
	if !decodeJSON(w, r, &body) {
		return
	}
	if body.Theme != model.ThemeLight && body.Theme != model.ThemeDark {
		writeError(w, http.StatusBadRequest, "theme must be light or dark")
		return
	}
	t, err := h.pref.Set(r.Context(), body.Theme)
	h.respond(w, t, err)
}

func (h *ThemeHandler) respond(w http.ResponseWriter, t model.Theme, err error) {
	if err != nil {
		h.logger.Error("failed to save theme", "error", err)
		writeJSON(w, http.StatusInsufficientStorage, map[string]any{
			"error": "unable to save theme",
			"theme": t,
		})
		return
	}
	if h.hub != nil {
		h.hub.Broadcast(websocket.NewMessage("theme", "updated", "", map[string]any{"theme": t}))
	}
	writeJSON(w, http.StatusOK, themeBody{Theme: t})
}
