package storage

import (
	"context"
	"time"

	"github.com/chris/trade-sphere/pkg/models"
)

// Transfer moves Amount of Asset between two principals.
type Transfer struct {
	From        string
	To          string
	Asset       string
	Amount      uint64
	Description string
}

// Transition is a conditional status change of one trade, optionally paired
// with a transfer. Implementations apply both or neither.
type Transition struct {
	TradeID  uint64
	From     models.TradeStatus
	To       models.TradeStatus
	Escrowed uint64
	Transfer *Transfer
	At       time.Time
}

// SettlementStore defines the highly-privileged interface for moving trade state and funds.
// It should only be exposed to the escrow engine and dispute resolver.
type SettlementStore interface {
	// ApplyTransition commits t atomically. It returns ErrTradeNotFound,
	// ErrTransitionConflict when the trade is not in t.From, or
	// ErrInsufficientFunds when the transfer source cannot cover it.
	ApplyTransition(ctx context.Context, t Transition) (*models.Trade, error)
}
