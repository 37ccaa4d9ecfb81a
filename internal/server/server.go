package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/dukerupert/pocketcal/internal/backup"
	"github.com/dukerupert/pocketcal/internal/dateutil"
	"github.com/dukerupert/pocketcal/internal/handler"
	"github.com/dukerupert/pocketcal/internal/middleware"
	"github.com/dukerupert/pocketcal/internal/store"
	"github.com/dukerupert/pocketcal/internal/theme"
	ws "github.com/dukerupert/pocketcal/internal/websocket"
)

// Backup and restore derive an Argon2id key per request, so they are
// limited per client.
const (
	backupLimit  = 10
	backupPeriod = time.Minute
)

type Server struct {
	hub         *ws.Hub
	events      *store.EventStore
	eventH      *handler.EventHandler
	viewH       *handler.ViewHandler
	themeH      *handler.ThemeHandler
	icalH       *handler.ICalHandler
	backupH     *handler.BackupHandler
	rateLimiter *middleware.RateLimiter
	unsubscribe func()
	origins     []string
	proxies     middleware.TrustedProxies
	logger      *slog.Logger
}

// Options configures New. Zero values pick the system clock and local time.
type Options struct {
	Clock          dateutil.Clock
	Location       *time.Location
	OriginPatterns []string
	// TrustedProxies may set X-Forwarded-For. Empty means the peer address
	// is always the client, which keeps rate limits unspoofable.
	TrustedProxies middleware.TrustedProxies
}

func New(events *store.EventStore, pref *theme.Preference, opts Options, logger *slog.Logger) *Server {
	if opts.Clock == nil {
		opts.Clock = dateutil.SystemClock{}
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}

	hub := ws.NewHub(logger.With("component", "websocket"))
	backupMgr := backup.NewManager(events, logger.With("component", "backup"))

	return &Server{
		hub:         hub,
		events:      events,
		eventH:      handler.NewEventHandler(events, logger.With("component", "events")),
		viewH:       handler.NewViewHandler(events, opts.Clock, opts.Location),
		themeH:      handler.NewThemeHandler(pref, hub, logger.With("component", "theme")),
		icalH:       handler.NewICalHandler(events, opts.Clock, logger.With("component", "ical")),
		backupH:     handler.NewBackupHandler(backupMgr, logger.With("component", "backup")),
		rateLimiter: middleware.NewRateLimiter(backupLimit, backupPeriod),
		unsubscribe: events.Subscribe(hub.StoreListener()),
		origins:     opts.OriginPatterns,
		proxies:     opts.TrustedProxies,
		logger:      logger,
	}
}

// Hub returns the websocket hub.
func (s *Server) Hub() *ws.Hub {
	return s.hub
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

// Close stops forwarding store changes and disconnects websocket clients.
func (s *Server) Close() {
	s.unsubscribe()
	s.hub.Close()
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.healthHandler)
	mux.HandleFunc("GET /ws", ws.HandleWebSocket(s.hub, s.origins...))

	mux.HandleFunc("GET /api/events", s.eventH.List)
	mux.HandleFunc("POST /api/events", s.eventH.Create)
	mux.HandleFunc("DELETE /api/events", s.eventH.Clear)
	mux.HandleFunc("GET /api/events/{id}", s.eventH.Get)
	mux.HandleFunc("PUT /api/events/{id}", s.eventH.Update)
	mux.HandleFunc("DELETE /api/events/{id}", s.eventH.Delete)

	mux.HandleFunc("GET /api/view", s.viewH.Page)

	mux.HandleFunc("GET /api/theme", s.themeH.Get)
	mux.HandleFunc("PUT /api/theme", s.themeH.Set)
	mux.HandleFunc("POST /api/theme/toggle", s.themeH.Toggle)

	mux.HandleFunc("GET /api/export.ics", s.icalH.Export)
	mux.HandleFunc("POST /api/import.ics", s.icalH.Import)

	limited := middleware.RateLimit(s.rateLimiter)
	mux.Handle("POST /api/backup", limited(http.HandlerFunc(s.backupH.Create)))
	mux.Handle("POST /api/restore", limited(http.HandlerFunc(s.backupH.Restore)))

	var h http.Handler = mux
	h = middleware.Recover(s.logger.With("component", "http"))(h)
	h = middleware.RequestLogger(s.logger.With("component", "http"))(h)
	return middleware.ClientIP(s.proxies)(h)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"status":  "ok",
		"events":  len(s.events.All()),
		"clients": s.hub.ClientCount(),
		"seq":     s.hub.Seq(),
	})
}
