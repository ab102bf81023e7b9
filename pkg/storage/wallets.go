package storage

import (
	"context"

	"github.com/chris/trade-sphere/pkg/models"
)

// WalletStore defines the interface for managing balances.
type WalletStore interface {
	// GetWallet retrieves the balance of principal in asset. A principal that
	// never held the asset has a zero-balance wallet.
	GetWallet(ctx context.Context, principal, asset string) (*models.Wallet, error)

	// Deposit credits amount to the wallet and records a ledger entry.
	Deposit(ctx context.Context, principal, asset string, amount uint64) (*models.Wallet, error)

	// ListWallets retrieves every wallet held by principal.
	ListWallets(ctx context.Context, principal string) ([]models.Wallet, error)
}
