package coordinator

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/chris/trade-sphere/pkg/dispute"
	"github.com/chris/trade-sphere/pkg/escrow"
	"github.com/chris/trade-sphere/pkg/events"
	"github.com/chris/trade-sphere/pkg/models"
	"github.com/chris/trade-sphere/pkg/trades"
)

// CreateTradeInput is the caller-supplied terms of a new trade. The caller
// becomes the buyer.
type CreateTradeInput struct {
	Seller       string
	Amount       uint64
	Token        *string
	ShippingInfo string
}

// CreateTrade records a new trade in CREATED and returns its ID.
func (c *Coordinator) CreateTrade(ctx context.Context, caller string, in CreateTradeInput) (uint64, error) {
	var id uint64
	err := c.write(EntryCreateTrade, func() error {
		buyer, err := normalizeCaller(caller)
		if err != nil {
			return err
		}
		seller, err := models.NormalizePrincipal(in.Seller)
		if err != nil {
			return err
		}
		var token *string
		if in.Token != nil {
			tok, err := models.NormalizePrincipal(*in.Token)
			if err != nil {
				return err
			}
			token = &tok
		}

		id, err = c.trades.Create(ctx, trades.NewTrade{
			Buyer:        buyer,
			Seller:       seller,
			Amount:       in.Amount,
			Token:        token,
			ShippingInfo: in.ShippingInfo,
		})
		if err != nil {
			return err
		}

		trade, err := c.trades.Get(ctx, id)
		if err != nil {
			c.logger.Error("failed to read back created trade",
				slog.Uint64("trade_id", id),
				slog.String("caller", buyer),
				slog.String("error", err.Error()))
			return nil
		}
		c.logTransition(EntryCreateTrade, trade, buyer)
		c.emit(ctx, events.TypeTradeCreated, &id, tradeAttrs(trade, buyer))
		return nil
	})
	return id, err
}

// GetTrade returns a snapshot of a trade.
func (c *Coordinator) GetTrade(ctx context.Context, id uint64) (*models.Trade, error) {
	var trade *models.Trade
	err := c.read(EntryGetTrade, func() error {
		var err error
		trade, err = c.trades.Get(ctx, id)
		return err
	})
	return trade, err
}

// ListTrades returns every trade the principal is buyer or seller of.
func (c *Coordinator) ListTrades(ctx context.Context, party string) ([]models.Trade, error) {
	var out []models.Trade
	err := c.read(EntryListTrades, func() error {
		who, err := models.NormalizePrincipal(party)
		if err != nil {
			return err
		}
		out, err = c.trades.ListByParty(ctx, who)
		return err
	})
	return out, err
}

// FundEscrow locks the trade amount from the buyer into custody.
func (c *Coordinator) FundEscrow(ctx context.Context, caller string, id uint64) (bool, error) {
	return c.settle(ctx, EntryFundEscrow, events.TypeEscrowFunded, caller, id, func(who string) (*models.Trade, error) {
		return c.escrow.Fund(ctx, id, who)
	})
}

// ReleaseEscrow pays the seller on the buyer's instruction.
func (c *Coordinator) ReleaseEscrow(ctx context.Context, caller string, id uint64) (bool, error) {
	return c.settle(ctx, EntryReleaseEscrow, events.TypeEscrowReleased, caller, id, func(who string) (*models.Trade, error) {
		return c.escrow.Release(ctx, id, who)
	})
}

// RefundEscrow returns the escrow to the buyer on the seller's instruction.
func (c *Coordinator) RefundEscrow(ctx context.Context, caller string, id uint64) (bool, error) {
	return c.settle(ctx, EntryRefundEscrow, events.TypeEscrowRefunded, caller, id, func(who string) (*models.Trade, error) {
		return c.escrow.Refund(ctx, id, who)
	})
}

// RaiseDispute escalates a CREATED or FUNDED trade to the arbiter.
func (c *Coordinator) RaiseDispute(ctx context.Context, caller string, id uint64) (bool, error) {
	return c.settle(ctx, EntryRaiseDispute, events.TypeTradeDisputed, caller, id, func(who string) (*models.Trade, error) {
		return c.disputes.Raise(ctx, id, who)
	})
}

// ResolveDispute settles a DISPUTED trade in favour of winner.
func (c *Coordinator) ResolveDispute(ctx context.Context, caller string, id uint64, winner string) (bool, error) {
	return c.settle(ctx, EntryResolveDispute, events.TypeTradeResolved, caller, id, func(who string) (*models.Trade, error) {
		return c.disputes.Resolve(ctx, id, who, dispute.Winner(winner))
	})
}

// settle runs a status-changing operation and publishes its outcome.
func (c *Coordinator) settle(ctx context.Context, entryPoint string, typ events.Type, caller string, id uint64, op func(who string) (*models.Trade, error)) (bool, error) {
	err := c.write(entryPoint, func() error {
		who, err := normalizeCaller(caller)
		if err != nil {
			return err
		}
		before, err := c.trades.Get(ctx, id)
		if err != nil {
			return err
		}
		after, err := op(who)
		if err != nil {
			return err
		}

		c.observeCustody(before, after)
		c.logTransition(entryPoint, after, who)
		attrs := tradeAttrs(after, who)
		attrs["from_status"] = string(before.Status)
		c.emit(ctx, typ, &id, attrs)
		return nil
	})
	return err == nil, err
}

func (c *Coordinator) observeCustody(before, after *models.Trade) {
	asset := after.Asset()
	switch {
	case after.EscrowedAmount > before.EscrowedAmount:
		c.metrics.ObserveTransfer(asset, "in", after.EscrowedAmount-before.EscrowedAmount)
	case after.EscrowedAmount < before.EscrowedAmount:
		c.metrics.ObserveTransfer(asset, "out", before.EscrowedAmount-after.EscrowedAmount)
	}
}

// UpdateStatus attaches an audit label to a trade without changing its status.
func (c *Coordinator) UpdateStatus(ctx context.Context, caller string, id uint64, label string) (bool, error) {
	var ok bool
	err := c.write(EntryUpdateStatus, func() error {
		who, err := normalizeCaller(caller)
		if err != nil {
			return err
		}
		if ok, err = c.trades.UpdateStatus(ctx, id, who, label); err != nil {
			return err
		}
		trade, err := c.trades.Get(ctx, id)
		if err != nil {
			return err
		}
		attrs := tradeAttrs(trade, who)
		attrs["label"] = trade.Labels[len(trade.Labels)-1].Label
		attrs["labels"] = strconv.Itoa(len(trade.Labels))
		c.emit(ctx, events.TypeTradeStatusUpdated, &id, attrs)
		return nil
	})
	return ok, err
}

// Custody audits the vault against the escrow owed per asset.
func (c *Coordinator) Custody(ctx context.Context) ([]escrow.CustodyReport, error) {
	var out []escrow.CustodyReport
	err := c.read(EntryCustody, func() error {
		var err error
		if out, err = c.escrow.Custody(ctx); err != nil {
			return err
		}
		for _, r := range out {
			c.metrics.SetEscrowed(r.Asset, r.Escrowed)
			if !r.Balanced {
				c.logger.Error("custody imbalance",
					slog.String("asset", r.Asset),
					slog.Uint64("vault_balance", r.VaultBalance),
					slog.Uint64("escrowed", r.Escrowed))
			}
		}
		return nil
	})
	return out, err
}
