package websockets

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/chris/trade-sphere/pkg/events"
	"github.com/gorilla/websocket"
)

const (
	// writeWait is the maximum time to wait for a write to complete.
	writeWait = 10 * time.Second

	// pingPeriod sends pings at this interval.
	pingPeriod = 54 * time.Second

	// sendBufferSize is the channel buffer for outgoing messages per client.
	sendBufferSize = 64
)

type deadlineSetter interface {
	SetWriteDeadline(t time.Time) error
}

type client struct {
	id   string
	conn Conn
	send chan []byte
}

// Hub keeps the set of locally connected clients and fans messages out to them.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*client
	logger  *slog.Logger
}

// NewHub creates an empty hub.
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		clients: make(map[string]*client),
		logger:  logger,
	}
}

// Make sure we conform to the interfaces
var (
	_ ConnectionManager = (*Hub)(nil)
	_ Publisher         = (*Hub)(nil)
	_ events.Emitter    = (*Hub)(nil)
)

// AddConnection registers conn and starts its write pump.
func (h *Hub) AddConnection(ctx context.Context, connectionID string, conn Conn) error {
	c := &client{id: connectionID, conn: conn, send: make(chan []byte, sendBufferSize)}

	h.mu.Lock()
	if _, exists := h.clients[connectionID]; exists {
		h.mu.Unlock()
		return fmt.Errorf("connection %s already registered", connectionID)
	}
	h.clients[connectionID] = c
	h.mu.Unlock()

	go h.writePump(c)
	return nil
}

// RemoveConnection stops the write pump. Removing an unknown ID is a no-op.
func (h *Hub) RemoveConnection(ctx context.Context, connectionID string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if c, ok := h.clients[connectionID]; ok {
		delete(h.clients, connectionID)
		close(c.send)
	}
	return nil
}

// Count returns the number of connected clients.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Publish sends a message to all connected clients. Clients whose buffer is
// full miss the message.
func (h *Hub) Publish(ctx context.Context, message Message) error {
	payload, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for id, c := range h.clients {
		select {
		case c.send <- payload:
		default:
			h.logger.Warn("dropping message for slow client", "connectionId", id)
		}
	}
	return nil
}

// Emit broadcasts a committed event.
func (h *Hub) Emit(ctx context.Context, evt events.Event) error {
	return h.Publish(ctx, Message{Type: MessageTypeFor(evt), Payload: evt})
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			h.setDeadline(c)
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				h.logger.Error("failed to post to connection", "connectionId", c.id, "error", err)
				h.RemoveConnection(context.Background(), c.id)
				return
			}
		case <-ticker.C:
			h.setDeadline(c)
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				h.RemoveConnection(context.Background(), c.id)
				return
			}
		}
	}
}

func (h *Hub) setDeadline(c *client) {
	if d, ok := c.conn.(deadlineSetter); ok {
		_ = d.SetWriteDeadline(time.Now().Add(writeWait))
	}
}
