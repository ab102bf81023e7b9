package storage

import (
	"context"

	"github.com/chris/trade-sphere/pkg/models"
)

// TradeReader defines the interface for reading trade data.
type TradeReader interface {
	// GetTrade retrieves a trade by its ID. It returns ErrTradeNotFound if absent.
	GetTrade(ctx context.Context, id uint64) (*models.Trade, error)

	// ListTradesByParty retrieves all trades where principal is buyer or seller.
	ListTradesByParty(ctx context.Context, principal string) ([]models.Trade, error)

	// ListTrades retrieves every trade.
	ListTrades(ctx context.Context) ([]models.Trade, error)
}

// TradeManager defines the interface for creating trades and annotating them.
type TradeManager interface {
	// CreateTrade assigns the next sequential ID and stores the trade in one
	// atomic write. The stored trade is returned.
	CreateTrade(ctx context.Context, trade *models.Trade) (*models.Trade, error)

	// AppendStatusLabel appends an audit label to an existing trade.
	AppendStatusLabel(ctx context.Context, id uint64, label models.StatusLabel) error
}

// TradeStore combines the reader and manager interfaces.
type TradeStore interface {
	TradeReader
	TradeManager
}
