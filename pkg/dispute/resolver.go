// Package dispute lets trade parties escalate a trade to the arbiter and lets
// the arbiter settle it.
package dispute

import (
	"context"
	"strings"

	"github.com/chris/trade-sphere/pkg/models"
)

// Winner names the party a dispute is settled in favour of.
type Winner string

const (
	WinnerBuyer  Winner = "buyer"
	WinnerSeller Winner = "seller"
)

// ParseWinner accepts "buyer" or "seller" in any case.
func ParseWinner(raw string) (Winner, error) {
	switch w := Winner(strings.ToLower(strings.TrimSpace(raw))); w {
	case WinnerBuyer, WinnerSeller:
		return w, nil
	default:
		return "", models.Errorf(models.CodeInvalidInput, "winner must be buyer or seller, got %q", raw)
	}
}

// Settler commits dispute transitions and payouts.
type Settler interface {
	Apply(ctx context.Context, trade *models.Trade, action models.Action) (*models.Trade, error)
	Payout(ctx context.Context, trade *models.Trade, action models.Action) (*models.Trade, error)
}

// TradeGetter loads trades with taxonomy-tagged errors.
type TradeGetter interface {
	Get(ctx context.Context, id uint64) (*models.Trade, error)
}

// Resolver implements raising and resolving disputes.
type Resolver struct {
	trades  TradeGetter
	settler Settler
	arbiter string
}

// NewResolver creates a Resolver whose only authorised arbiter is arbiter.
func NewResolver(trades TradeGetter, settler Settler, arbiter string) *Resolver {
	return &Resolver{trades: trades, settler: settler, arbiter: arbiter}
}

// Raise moves a CREATED or FUNDED trade to DISPUTED. Escrow stays in custody.
func (r *Resolver) Raise(ctx context.Context, id uint64, caller string) (*models.Trade, error) {
	trade, err := r.trades.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !models.RolesOf(caller, trade, "", "").Has(models.RoleBuyer, models.RoleSeller) {
		return nil, models.Errorf(models.CodeUnauthorized, "only the buyer or seller may dispute trade %d", id)
	}
	return r.settler.Apply(ctx, trade, models.ActionDispute)
}

// Resolve settles a DISPUTED trade, paying any escrow to the winner. The
// winner is matched case-insensitively.
func (r *Resolver) Resolve(ctx context.Context, id uint64, caller string, winner Winner) (*models.Trade, error) {
	trade, err := r.trades.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !models.RolesOf(caller, trade, "", r.arbiter).Has(models.RoleArbiter) {
		return nil, models.Errorf(models.CodeUnauthorized, "only the arbiter may resolve trade %d", id)
	}
	if trade.Status != models.DISPUTED {
		return nil, models.Errorf(models.CodeInvalidState, "cannot resolve trade %d in status %s", id, trade.Status)
	}
	w, err := ParseWinner(string(winner))
	if err != nil {
		return nil, err
	}
	action := models.ActionResolveSeller
	if w == WinnerBuyer {
		action = models.ActionResolveBuyer
	}
	return r.settler.Payout(ctx, trade, action)
}
