package websockets

import (
	"context"
)

// Conn is the part of a websocket connection the hub writes to.
// *websocket.Conn satisfies it.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// ConnectionManager defines the interface for managing WebSocket connections.
type ConnectionManager interface {
	AddConnection(ctx context.Context, connectionID string, conn Conn) error
	RemoveConnection(ctx context.Context, connectionID string) error
}

// Publisher defines the interface for publishing messages to WebSocket clients.
type Publisher interface {
	Publish(ctx context.Context, message Message) error
}
