package websockets

import "github.com/chris/trade-sphere/pkg/events"

// MessageType defines the type of a WebSocket message.
type MessageType string

const (
	// MessageTypeTradeUpdate is for messages that report a trade lifecycle change.
	MessageTypeTradeUpdate MessageType = "tradeUpdate"
	// MessageTypeTokenUpdate is for registry membership changes.
	MessageTypeTokenUpdate MessageType = "tokenUpdate"
	// MessageTypeWalletUpdate is for deposits.
	MessageTypeWalletUpdate MessageType = "walletUpdate"
)

// Message represents a generic WebSocket message.
type Message struct {
	Type    MessageType `json:"type"`
	Payload interface{} `json:"payload"`
}

// MessageTypeFor picks the message type an event is broadcast under.
func MessageTypeFor(evt events.Event) MessageType {
	switch evt.Type {
	case events.TypeTokenAdded, events.TypeTokenRemoved:
		return MessageTypeTokenUpdate
	case events.TypeWalletDeposited:
		return MessageTypeWalletUpdate
	default:
		return MessageTypeTradeUpdate
	}
}
