package handler

import (
	"net/http"
	"time"

	"github.com/dukerupert/pocketcal/internal/dateutil"
	"github.com/dukerupert/pocketcal/internal/model"
	"github.com/dukerupert/pocketcal/internal/store"
	"github.com/dukerupert/pocketcal/internal/view"
)

type ViewHandler struct {
	events *store.EventStore
	clock  dateutil.Clock
	loc    *time.Location
}

func NewViewHandler(events *store.EventStore, clock dateutil.Clock, loc *time.Location) *ViewHandler {
	return &ViewHandler{events: events, clock: clock, loc: loc}
}

// Page returns the grid or list for ?month=YYYY-MM (default: the current
// month) and ?mode=grid|list (default: grid).
func (h *ViewHandler) Page(w http.ResponseWriter, r *http.Request) {
	ref, ok := h.month(w, r)
	if !ok {
		return
	}
	v := model.CalendarView{
		Mode:          model.ParseViewMode(r.URL.Query().Get("mode")),
		ReferenceDate: ref,
	}
	writeJSON(w, http.StatusOK, view.Build(v, h.events.All(), h.clock))
}

func (h *ViewHandler) month(w http.ResponseWriter, r *http.Request) (time.Time, bool) {
	s := r.URL.Query().Get("month")
	if s == "" {
		return dateutil.StartOfMonth(h.clock.Now().In(h.loc)), true
	}
	ref, err := dateutil.ParseMonth(s, h.loc)
	if err != nil {
		writeError(w, http.StatusBadRequest, "month must be YYYY-MM")
		return time.Time{}, false
	}
	return ref, true
}
