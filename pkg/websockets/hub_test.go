package websockets

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/chris/trade-sphere/pkg/events"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConn struct {
	mu     sync.Mutex
	frames [][]byte
	closed bool
}

func (f *fakeConn) WriteMessage(messageType int, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if messageType == websocket.TextMessage {
		f.frames = append(f.frames, data)
	}
	return nil
}

func (f *fakeConn) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeConn) snapshot() ([][]byte, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]byte(nil), f.frames...), f.closed
}

func TestHub(t *testing.T) {
	ctx := context.Background()

	t.Run("Emit Broadcasts To Every Client", func(t *testing.T) {
		hub := NewHub(nil)
		a, b := &fakeConn{}, &fakeConn{}
		require.NoError(t, hub.AddConnection(ctx, "a", a))
		require.NoError(t, hub.AddConnection(ctx, "b", b))

		id := uint64(4)
		evt := events.New(events.TypeEscrowReleased, &id, nil, time.Now())
		require.NoError(t, hub.Emit(ctx, evt))

		for _, conn := range []*fakeConn{a, b} {
			assert.Eventually(t, func() bool {
				frames, _ := conn.snapshot()
				return len(frames) == 1
			}, time.Second, 10*time.Millisecond)

			frames, _ := conn.snapshot()
			var msg struct {
				Type    MessageType  `json:"type"`
				Payload events.Event `json:"payload"`
			}
			require.NoError(t, json.Unmarshal(frames[0], &msg))
			assert.Equal(t, MessageTypeTradeUpdate, msg.Type)
			assert.Equal(t, evt.ID, msg.Payload.ID)
		}
	})

	t.Run("Duplicate Connection Rejected", func(t *testing.T) {
		hub := NewHub(nil)
		require.NoError(t, hub.AddConnection(ctx, "a", &fakeConn{}))
		assert.Error(t, hub.AddConnection(ctx, "a", &fakeConn{}))
		assert.Equal(t, 1, hub.Count())
	})

	t.Run("Remove Closes Connection", func(t *testing.T) {
		hub := NewHub(nil)
		conn := &fakeConn{}
		require.NoError(t, hub.AddConnection(ctx, "a", conn))
		require.NoError(t, hub.RemoveConnection(ctx, "a"))
		require.NoError(t, hub.RemoveConnection(ctx, "a"))

		assert.Equal(t, 0, hub.Count())
		assert.Eventually(t, func() bool {
			_, closed := conn.snapshot()
			return closed
		}, time.Second, 10*time.Millisecond)
	})
}

func TestMessageTypeFor(t *testing.T) {
	assert.Equal(t, MessageTypeTokenUpdate, MessageTypeFor(events.Event{Type: events.TypeTokenRemoved}))
	assert.Equal(t, MessageTypeWalletUpdate, MessageTypeFor(events.Event{Type: events.TypeWalletDeposited}))
	assert.Equal(t, MessageTypeTradeUpdate, MessageTypeFor(events.Event{Type: events.TypeTradeDisputed}))
}
