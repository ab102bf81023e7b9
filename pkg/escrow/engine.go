// Package escrow holds trade funds in custody between funding and settlement.
package escrow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chris/trade-sphere/pkg/models"
	"github.com/chris/trade-sphere/pkg/storage"
)

// Store is the slice of the data layer the engine needs.
type Store interface {
	storage.TradeReader
	storage.SettlementStore
	storage.WalletStore
}

// Engine moves funds between trade parties and the custody vault. Every
// movement is committed in the same conditional write as the status change.
type Engine struct {
	store Store
	vault string
	nowFn func() time.Time
}

// NewEngine creates an engine whose custody vault is the given principal.
func NewEngine(store Store, vault string) *Engine {
	return &Engine{store: store, vault: vault, nowFn: time.Now}
}

// Vault returns the custody principal.
func (e *Engine) Vault() string { return e.vault }

// SetNowFunc overrides the time source. Passing nil restores time.Now.
func (e *Engine) SetNowFunc(now func() time.Time) {
	if now == nil {
		e.nowFn = time.Now
		return
	}
	e.nowFn = now
}

func (e *Engine) load(ctx context.Context, id uint64) (*models.Trade, error) {
	trade, err := e.store.GetTrade(ctx, id)
	if err != nil {
		return nil, mapStoreError(err, id)
	}
	return trade, nil
}

// Fund locks the trade amount from the buyer into custody.
func (e *Engine) Fund(ctx context.Context, id uint64, caller string) (*models.Trade, error) {
	trade, err := e.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if trade.Status != models.CREATED {
		return nil, models.Errorf(models.CodeInvalidState, "cannot fund trade %d in status %s", id, trade.Status)
	}
	if !models.RolesOf(caller, trade, "", "").Has(models.RoleBuyer) {
		return nil, models.Errorf(models.CodeUnauthorized, "only the buyer may fund trade %d", id)
	}
	return e.Apply(ctx, trade, models.ActionFund)
}

// Release pays the escrowed amount to the seller on the buyer's instruction.
func (e *Engine) Release(ctx context.Context, id uint64, caller string) (*models.Trade, error) {
	trade, err := e.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if trade.Status != models.FUNDED {
		return nil, models.Errorf(models.CodeInvalidState, "cannot release trade %d in status %s", id, trade.Status)
	}
	if !models.RolesOf(caller, trade, "", "").Has(models.RoleBuyer) {
		return nil, models.Errorf(models.CodeUnauthorized, "only the buyer may release trade %d", id)
	}
	return e.Apply(ctx, trade, models.ActionRelease)
}

// Refund returns the escrowed amount to the buyer on the seller's instruction.
func (e *Engine) Refund(ctx context.Context, id uint64, caller string) (*models.Trade, error) {
	trade, err := e.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if trade.Status != models.FUNDED {
		return nil, models.Errorf(models.CodeInvalidState, "cannot refund trade %d in status %s", id, trade.Status)
	}
	if !models.RolesOf(caller, trade, "", "").Has(models.RoleSeller) {
		return nil, models.Errorf(models.CodeUnauthorized, "only the seller may refund trade %d", id)
	}
	return e.Apply(ctx, trade, models.ActionRefund)
}

// Payout settles a disputed trade in favour of the winner. Authorisation is
// the caller's responsibility.
func (e *Engine) Payout(ctx context.Context, trade *models.Trade, action models.Action) (*models.Trade, error) {
	if action != models.ActionResolveBuyer && action != models.ActionResolveSeller {
		return nil, models.Errorf(models.CodeInvalidInput, "%s is not a dispute outcome", action)
	}
	return e.Apply(ctx, trade, action)
}

// Apply looks up the transition for action and commits it together with the
// asset movement its effect requires.
func (e *Engine) Apply(ctx context.Context, trade *models.Trade, action models.Action) (*models.Trade, error) {
	rule, err := models.Next(trade.Status, action)
	if err != nil {
		return nil, err
	}

	asset := trade.Asset()
	t := storage.Transition{
		TradeID:  trade.Id,
		From:     rule.From,
		To:       rule.To,
		Escrowed: trade.EscrowedAmount,
		At:       e.nowFn(),
	}
	switch rule.Effect {
	case models.EffectLockFunds:
		t.Escrowed = trade.Amount
		t.Transfer = &storage.Transfer{
			From:        trade.Buyer,
			To:          e.vault,
			Asset:       asset,
			Amount:      trade.Amount,
			Description: fmt.Sprintf("Escrow funding for trade %d", trade.Id),
		}
	case models.EffectPayoutSeller:
		t.Escrowed = 0
		if trade.EscrowedAmount > 0 {
			t.Transfer = &storage.Transfer{
				From:        e.vault,
				To:          trade.Seller,
				Asset:       asset,
				Amount:      trade.EscrowedAmount,
				Description: fmt.Sprintf("Escrow payout to seller for trade %d", trade.Id),
			}
		}
	case models.EffectRefundBuyer:
		t.Escrowed = 0
		if trade.EscrowedAmount > 0 {
			t.Transfer = &storage.Transfer{
				From:        e.vault,
				To:          trade.Buyer,
				Asset:       asset,
				Amount:      trade.EscrowedAmount,
				Description: fmt.Sprintf("Escrow refund to buyer for trade %d", trade.Id),
			}
		}
	}

	updated, err := e.store.ApplyTransition(ctx, t)
	if err != nil {
		return nil, mapStoreError(err, trade.Id)
	}
	return updated, nil
}

// CustodyReport compares the vault balance of one asset with the escrow owed.
type CustodyReport struct {
	Asset        string `json:"asset"`
	VaultBalance uint64 `json:"vault_balance"`
	Escrowed     uint64 `json:"escrowed"`
	Trades       int    `json:"trades"`
	Balanced     bool   `json:"balanced"`
}

// Custody audits every asset the vault holds or owes.
func (e *Engine) Custody(ctx context.Context) ([]CustodyReport, error) {
	trades, err := e.store.ListTrades(ctx)
	if err != nil {
		return nil, models.Wrap(models.CodeInternal, err, "failed to list trades")
	}
	wallets, err := e.store.ListWallets(ctx, e.vault)
	if err != nil {
		return nil, models.Wrap(models.CodeInternal, err, "failed to list vault wallets")
	}

	byAsset := make(map[string]*CustodyReport)
	var order []string
	report := func(asset string) *CustodyReport {
		r, ok := byAsset[asset]
		if !ok {
			r = &CustodyReport{Asset: asset}
			byAsset[asset] = r
			order = append(order, asset)
		}
		return r
	}
	for _, w := range wallets {
		report(w.Asset).VaultBalance = w.Balance
	}
	for i := range trades {
		if trades[i].EscrowedAmount == 0 {
			continue
		}
		r := report(trades[i].Asset())
		r.Escrowed += trades[i].EscrowedAmount
		r.Trades++
	}

	out := make([]CustodyReport, 0, len(order))
	for _, asset := range order {
		r := byAsset[asset]
		r.Balanced = r.VaultBalance == r.Escrowed
		out = append(out, *r)
	}
	return out, nil
}

func mapStoreError(err error, id uint64) error {
	switch {
	case errors.Is(err, storage.ErrTradeNotFound):
		return models.Wrap(models.CodeNotFound, err, fmt.Sprintf("trade %d does not exist", id))
	case errors.Is(err, storage.ErrTransitionConflict):
		return models.Wrap(models.CodeInvalidState, err, fmt.Sprintf("trade %d changed status concurrently", id))
	case errors.Is(err, storage.ErrInsufficientFunds), errors.Is(err, storage.ErrBalanceOverflow):
		return models.Wrap(models.CodeTransferFailed, err, fmt.Sprintf("transfer for trade %d failed", id))
	default:
		return models.Wrap(models.CodeInternal, err, "failed to settle trade")
	}
}
