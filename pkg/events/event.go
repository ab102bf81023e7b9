// Package events publishes trade lifecycle notifications after a change has
// been committed.
package events

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Type names a lifecycle notification.
type Type string

const (
	TypeTokenAdded         Type = "token.added"
	TypeTokenRemoved       Type = "token.removed"
	TypeTradeCreated       Type = "trade.created"
	TypeEscrowFunded       Type = "escrow.funded"
	TypeEscrowReleased     Type = "escrow.released"
	TypeEscrowRefunded     Type = "escrow.refunded"
	TypeTradeStatusUpdated Type = "trade.status_updated"
	TypeTradeDisputed      Type = "trade.disputed"
	TypeTradeResolved      Type = "trade.resolved"
	TypeWalletDeposited    Type = "wallet.deposited"
	TypeCustodyImbalanced  Type = "custody.imbalanced"
)

// Event is the JSON document sent to every sink.
type Event struct {
	ID         string            `json:"id"`
	Type       Type              `json:"type"`
	TradeID    *uint64           `json:"trade_id,omitempty"`
	Attributes map[string]string `json:"attributes"`
	At         time.Time         `json:"at"`
}

// New stamps an event with a fresh ID.
func New(typ Type, tradeID *uint64, attrs map[string]string, at time.Time) Event {
	if attrs == nil {
		attrs = map[string]string{}
	}
	var id *uint64
	if tradeID != nil {
		v := *tradeID
		id = &v
	}
	return Event{
		ID:         uuid.New().String(),
		Type:       typ,
		TradeID:    id,
		Attributes: attrs,
		At:         at.UTC(),
	}
}

// Emitter delivers events to a sink.
type Emitter interface {
	Emit(ctx context.Context, evt Event) error
}

// NoopEmitter discards every event.
type NoopEmitter struct{}

// Emit does nothing.
func (NoopEmitter) Emit(ctx context.Context, evt Event) error { return nil }

// Multi fans an event out to several emitters. Every emitter is attempted and
// the failures are joined.
type Multi []Emitter

// Emit implements Emitter.
func (m Multi) Emit(ctx context.Context, evt Event) error {
	var errs []error
	for _, e := range m {
		if e == nil {
			continue
		}
		if err := e.Emit(ctx, evt); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
