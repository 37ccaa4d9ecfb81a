package websocket

import (
	"context"
	"time"

	ws "github.com/coder/websocket"
)

const (
	sendBufferSize = 16
	pingInterval   = 30 * time.Second
	writeTimeout   = 10 * time.Second
)

// closeReason records why the hub let go of a client.
type closeReason int

const (
	closeGone closeReason = iota
	closeSlow
	closeShutdown
)

func (r closeReason) status() (ws.StatusCode, string) {
	switch r {
	case closeSlow:
		return ws.StatusTryAgainLater, "client too slow, reconnect and reload"
	case closeShutdown:
		return ws.StatusGoingAway, "server shutting down"
	default:
		return ws.StatusNormalClosure, ""
	}
}

// Client is one connected browser tab. It only receives.
type Client struct {
	hub    *Hub
	conn   *ws.Conn
	remote string
	send   chan []byte
	// reason is set by the hub before send is closed.
	reason closeReason
}

func NewClient(hub *Hub, conn *ws.Conn, remote string) *Client {
	return &Client{
		hub:    hub,
		conn:   conn,
		remote: remote,
		send:   make(chan []byte, sendBufferSize),
	}
}

// Run registers the client and writes hub messages until the peer goes
// away, the hub drops the client, or ctx ends.
func (c *Client) Run(ctx context.Context) {
	if !c.hub.Register(c) {
		c.conn.Close(closeShutdown.status())
		return
	}
	defer c.hub.Unregister(c)

	// Anything the browser sends is discarded; CloseRead still handles
	// control frames and cancels ctx when the connection closes.
	ctx = c.conn.CloseRead(ctx)

	start := time.Now()
	err := c.writeLoop(ctx)
	c.hub.logger.Debug("websocket disconnected",
		"remote", c.remote,
		"duration", time.Since(start),
		"status", ws.CloseStatus(err),
	)
}

func (c *Client) writeLoop(ctx context.Context) error {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				return c.conn.Close(c.reason.status())
			}
			writeCtx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := c.conn.Write(writeCtx, ws.MessageText, msg)
			cancel()
			if err != nil {
				return err
			}
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := c.conn.Ping(pingCtx)
			cancel()
			if err != nil {
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
