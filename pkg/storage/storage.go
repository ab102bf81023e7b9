// Package storage declares the persistence boundary of the engine. The
// memory and dynamodb subpackages implement it.
package storage

import (
	"context"

	"github.com/chris/trade-sphere/pkg/models"
)

// LedgerReader lists the audit trail, newest first. A non-positive limit
// returns every entry.
type LedgerReader interface {
	ListLedgerEntries(ctx context.Context, limit int32) ([]models.LedgerEntry, error)
}

// ApiStore is everything the request path reads or writes outside of
// settlement.
type ApiStore interface {
	TokenStore
	TradeStore
	WalletStore
	LedgerReader
}

// Storage is a complete backend. Components take the narrowest interface
// they need.
type Storage interface {
	ApiStore
	SettlementStore
}
