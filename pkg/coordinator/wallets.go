package coordinator

import (
	"context"
	"errors"
	"strconv"

	"github.com/chris/trade-sphere/pkg/events"
	"github.com/chris/trade-sphere/pkg/models"
	"github.com/chris/trade-sphere/pkg/storage"
)

// DefaultLedgerLimit applies when a ledger listing does not name a limit.
const DefaultLedgerLimit = 50

// MaxLedgerLimit caps a single ledger listing.
const MaxLedgerLimit = 500

// Deposit credits amount of asset to principal. Only the administrator may
// mint balances.
func (c *Coordinator) Deposit(ctx context.Context, caller, principal, asset string, amount uint64) (*models.Wallet, error) {
	var wallet *models.Wallet
	err := c.write(EntryDeposit, func() error {
		who, err := normalizeCaller(caller)
		if err != nil {
			return err
		}
		if !models.RolesOf(who, nil, c.principals.Admin, "").Has(models.RoleAdmin) {
			return models.Errorf(models.CodeUnauthorized, "only the administrator may deposit")
		}
		owner, err := models.NormalizePrincipal(principal)
		if err != nil {
			return err
		}
		if owner == c.principals.Contract {
			return models.Errorf(models.CodeInvalidParty, "deposits into the custody vault are not allowed")
		}
		a, err := models.NormalizeAsset(asset)
		if err != nil {
			return err
		}
		if amount == 0 {
			return models.Errorf(models.CodeInvalidInput, "amount must be positive")
		}
		if wallet, err = c.store.Deposit(ctx, owner, a, amount); err != nil {
			if errors.Is(err, storage.ErrBalanceOverflow) {
				return models.Wrap(models.CodeInvalidInput, err, "deposit would overflow the balance")
			}
			return models.Wrap(models.CodeInternal, err, "failed to deposit")
		}
		c.emit(ctx, events.TypeWalletDeposited, nil, map[string]string{
			"principal": owner,
			"asset":     a,
			"amount":    strconv.FormatUint(amount, 10),
			"balance":   strconv.FormatUint(wallet.Balance, 10),
		})
		return nil
	})
	return wallet, err
}

// GetWallet returns the balance of principal in asset.
func (c *Coordinator) GetWallet(ctx context.Context, principal, asset string) (*models.Wallet, error) {
	var wallet *models.Wallet
	err := c.read(EntryGetWallet, func() error {
		owner, err := models.NormalizePrincipal(principal)
		if err != nil {
			return err
		}
		a, err := models.NormalizeAsset(asset)
		if err != nil {
			return err
		}
		if wallet, err = c.store.GetWallet(ctx, owner, a); err != nil {
			return models.Wrap(models.CodeInternal, err, "failed to get wallet")
		}
		return nil
	})
	return wallet, err
}

// ListWallets returns every balance held by principal.
func (c *Coordinator) ListWallets(ctx context.Context, principal string) ([]models.Wallet, error) {
	var out []models.Wallet
	err := c.read(EntryListWallets, func() error {
		owner, err := models.NormalizePrincipal(principal)
		if err != nil {
			return err
		}
		if out, err = c.store.ListWallets(ctx, owner); err != nil {
			return models.Wrap(models.CodeInternal, err, "failed to list wallets")
		}
		return nil
	})
	return out, err
}

// ListLedgerEntries returns the most recent ledger entries, newest first.
func (c *Coordinator) ListLedgerEntries(ctx context.Context, limit int32) ([]models.LedgerEntry, error) {
	var out []models.LedgerEntry
	err := c.read(EntryListLedger, func() error {
		switch {
		case limit < 0:
			return models.Errorf(models.CodeInvalidInput, "limit must not be negative")
		case limit == 0:
			limit = DefaultLedgerLimit
		case limit > MaxLedgerLimit:
			limit = MaxLedgerLimit
		}
		var err error
		if out, err = c.store.ListLedgerEntries(ctx, limit); err != nil {
			return models.Wrap(models.CodeInternal, err, "failed to list ledger entries")
		}
		return nil
	})
	return out, err
}
