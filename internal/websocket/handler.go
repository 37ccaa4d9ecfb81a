package websocket

import (
	"net/http"

	ws "github.com/coder/websocket"

	"github.com/dukerupert/pocketcal/internal/middleware"
)

// HandleWebSocket returns an HTTP handler that upgrades connections to WebSocket
// and runs them as Hub clients. originPatterns are passed to the upgrader;
// same-origin requests are always accepted.
func HandleWebSocket(hub *Hub, originPatterns ...string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := ws.Accept(w, r, &ws.AcceptOptions{
			OriginPatterns: originPatterns,
		})
		if err != nil {
			hub.logger.Warn("websocket accept", "error", err)
			return
		}
		remote := middleware.RealIP(r)
		hub.logger.Debug("websocket connected", "remote", remote)

		NewClient(hub, conn, remote).Run(r.Context())
	}
}
