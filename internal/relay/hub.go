// Package relay is the backend side of the feed: it reads samples from the
// receiver's serial port (or a demo generator) and broadcasts them as
// position_update envelopes to websocket clients.
package relay

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"nhooyr.io/websocket"
)

const (
	clientBuffer = 16
	writeTimeout = 5 * time.Second
)

type client struct {
	id   string
	send chan []byte
}

// Hub fans frames out to every connected websocket client. Broadcast never
// blocks: a client whose buffer is full is disconnected.
type Hub struct {
	mu      sync.Mutex
	clients map[*client]struct{}
	closed  bool
	log     zerolog.Logger
}

// NewHub creates an empty hub.
func NewHub(log zerolog.Logger) *Hub {
	return &Hub{
		clients: make(map[*client]struct{}),
		log:     log.With().Str("component", "hub").Logger(),
	}
}

// ServeHTTP upgrades the request and streams broadcasts to it until the client
// goes away.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{InsecureSkipVerify: true})
	if err != nil {
		h.log.Warn().Err(err).Str("remote", r.RemoteAddr).Msg("WebSocket upgrade failed")
		return
	}

	c := &client{id: uuid.NewString(), send: make(chan []byte, clientBuffer)}
	if !h.register(c) {
		conn.Close(websocket.StatusGoingAway, "shutting down")
		return
	}
	h.log.Info().Str("client", c.id).Str("remote", r.RemoteAddr).Int("clients", h.Clients()).Msg("WebSocket client connected")

	// the feed is one-way; CloseRead discards inbound frames and cancels ctx on close
	ctx := conn.CloseRead(r.Context())
	status, reason := h.writeLoop(ctx, conn, c)

	h.unregister(c)
	conn.Close(status, reason)
	h.log.Info().Str("client", c.id).Int("clients", h.Clients()).Msg("WebSocket client disconnected")
}

func (h *Hub) writeLoop(ctx context.Context, conn *websocket.Conn, c *client) (websocket.StatusCode, string) {
	for {
		select {
		case <-ctx.Done():
			return websocket.StatusNormalClosure, ""
		case msg, ok := <-c.send:
			if !ok {
				return websocket.StatusGoingAway, "disconnected by relay"
			}
			wctx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := conn.Write(wctx, websocket.MessageText, msg)
			cancel()
			if err != nil {
				h.log.Debug().Err(err).Str("client", c.id).Msg("WebSocket write failed")
				return websocket.StatusInternalError, "write failed"
			}
		}
	}
}

func (h *Hub) register(c *client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.clients[c] = struct{}{}
	return true
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

// Broadcast queues msg for every client.
func (h *Hub) Broadcast(msg []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
			h.log.Warn().Str("client", c.id).Msg("Dropping slow client")
			delete(h.clients, c)
			close(c.send)
		}
	}
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// DisconnectAll drops every connected client. Clients may reconnect.
func (h *Hub) DisconnectAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.dropAllLocked()
}

// Close disconnects every client and rejects new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	h.dropAllLocked()
}

func (h *Hub) dropAllLocked() {
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
}
