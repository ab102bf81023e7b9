package websockets

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/chris/trade-sphere/pkg/websockets"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	// pongWait is the maximum time to wait for a pong from the client.
	pongWait = 60 * time.Second

	// maxMessageSize is the maximum size of an incoming message.
	maxMessageSize = 4096
)

// Handler handles WebSocket connections.
type Handler struct {
	connManager websockets.ConnectionManager
}

// NewHandler creates a new Handler.
func NewHandler(connManager websockets.ConnectionManager) *Handler {
	return &Handler{
		connManager: connManager,
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// ServeHTTP upgrades the request and subscribes the client to trade updates.
// GET /ws
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("failed to upgrade connection", "error", err)
		return
	}

	connectionID := uuid.New().String()
	slog.Info("Client connected", "connectionId", connectionID)

	ctx := r.Context()
	if err := h.connManager.AddConnection(ctx, connectionID, conn); err != nil {
		slog.Error("failed to register connection", "error", err)
		conn.Close()
		return
	}

	defer func() {
		slog.Info("Client disconnected", "connectionId", connectionID)
		if err := h.connManager.RemoveConnection(ctx, connectionID); err != nil {
			slog.Error("failed to remove connection", "error", err)
		}
	}()

	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	// Clients do not send anything meaningful; reading detects the close.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Error("unexpected close error", "error", err)
			}
			break
		}
	}
}
