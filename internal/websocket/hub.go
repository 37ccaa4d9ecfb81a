package websocket

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/dukerupert/pocketcal/internal/store"
)

// Message is a change notification broadcast to every client. Clients
// re-fetch what they display when one arrives.
//
// Event messages carry the store's change sequence number. A client that
// sees a gap in Seq has missed a change and should reload everything.
type Message struct {
	Type   string         `json:"type"`
	Entity string         `json:"entity"`
	Action string         `json:"action"`
	ID     string         `json:"id,omitempty"`
	Seq    uint64         `json:"seq,omitempty"`
	Extra  map[string]any `json:"extra,omitempty"`
}

// NewMessage creates a Message with the Type field derived from entity and action.
func NewMessage(entity, action, id string, extra map[string]any) Message {
	return Message{
		Type:   fmt.Sprintf("%s_%s", entity, action),
		Entity: entity,
		Action: action,
		ID:     id,
		Extra:  extra,
	}
}

// Hub fans store changes out to connected clients.
//
// Every client first receives a sync_hello message holding the last
// sequence number the hub has sent, then every later message in order.
// A client whose buffer fills is disconnected rather than skipped, so a
// connected client never silently misses a change.
type Hub struct {
	mu      sync.Mutex
	clients map[*Client]struct{}
	seq     uint64
	closed  bool
	logger  *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients: make(map[*Client]struct{}),
		logger:  logger,
	}
}

// Register adds a client and queues its hello message. It reports false
// when the hub has been closed.
func (h *Hub) Register(c *Client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}

	hello, err := json.Marshal(Message{
		Type:   "sync_hello",
		Entity: "sync",
		Action: "hello",
		Seq:    h.seq,
		Extra:  map[string]any{"clients": len(h.clients) + 1},
	})
	if err != nil {
		h.logger.Error("marshal hello", "error", err)
		return false
	}
	c.send <- hello
	h.clients[c] = struct{}{}
	return true
}

// Unregister removes a client and closes its send channel.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	h.drop(c, closeGone)
	h.mu.Unlock()
}

// drop must be called with h.mu held.
func (h *Hub) drop(c *Client, reason closeReason) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	c.reason = reason
	close(c.send)
}

// Broadcast sends msg to every client. Messages with a sequence number
// advance the hub's position.
func (h *Hub) Broadcast(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("marshal broadcast", "error", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if msg.Seq > h.seq {
		h.seq = msg.Seq
	}
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			h.logger.Warn("disconnecting slow websocket client", "remote", c.remote, "type", msg.Type, "seq", msg.Seq)
			h.drop(c, closeSlow)
		}
	}
}

// Seq returns the last sequence number broadcast.
func (h *Hub) Seq() uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.seq
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close disconnects every client and refuses new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for c := range h.clients {
		h.drop(c, closeShutdown)
	}
}

// StoreListener adapts the hub to store.EventStore.Subscribe.
func (h *Hub) StoreListener() store.Listener {
	return func(c store.Change) {
		extra := map[string]any{}
		if c.Event.Date != "" {
			extra["date"] = c.Event.Date
		}
		msg := NewMessage("event", string(c.Action), c.Event.ID, extra)
		msg.Seq = c.Seq
		h.Broadcast(msg)
	}
}
