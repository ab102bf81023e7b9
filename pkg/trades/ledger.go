// Package trades is the authoritative store of trade records, keyed by
// sequential identifiers.
package trades

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/chris/trade-sphere/pkg/models"
	"github.com/chris/trade-sphere/pkg/storage"
)

// TokenChecker reports registry membership at trade creation time.
type TokenChecker interface {
	IsSupported(ctx context.Context, token string) (bool, error)
}

// Ledger creates, reads and annotates trades.
type Ledger struct {
	Store  storage.TradeStore
	Tokens TokenChecker
	// Vault is the custody principal; it may never be a trade party.
	Vault string
	now   func() time.Time
}

// New creates a Ledger.
func New(store storage.TradeStore, tokens TokenChecker, vault string) *Ledger {
	return &Ledger{Store: store, Tokens: tokens, Vault: vault, now: time.Now}
}

// NewTrade holds the caller-supplied terms of a trade.
type NewTrade struct {
	Buyer        string
	Seller       string
	Amount       uint64
	Token        *string
	ShippingInfo string
}

// Create validates the terms and stores the trade with status CREATED,
// returning the assigned ID.
func (l *Ledger) Create(ctx context.Context, nt NewTrade) (uint64, error) {
	if nt.Amount == 0 {
		return 0, models.Errorf(models.CodeInvalidInput, "amount must be positive")
	}
	if n := utf8.RuneCountInString(nt.ShippingInfo); n > models.MaxShippingInfoLength {
		return 0, models.Errorf(models.CodeInvalidInput, "shipping info is %d characters, limit is %d", n, models.MaxShippingInfoLength)
	}
	if nt.Token != nil {
		ok, err := l.Tokens.IsSupported(ctx, *nt.Token)
		if err != nil {
			return 0, err
		}
		if !ok {
			return 0, models.Errorf(models.CodeUnsupportedToken, "token %s is not supported", *nt.Token)
		}
	}
	if nt.Seller == nt.Buyer {
		return 0, models.Errorf(models.CodeInvalidParty, "buyer and seller must differ")
	}
	if l.Vault != "" && (nt.Seller == l.Vault || nt.Buyer == l.Vault) {
		return 0, models.Errorf(models.CodeInvalidParty, "the custody vault cannot be a trade party")
	}

	now := l.now()
	trade := &models.Trade{
		Buyer:        nt.Buyer,
		Seller:       nt.Seller,
		Amount:       nt.Amount,
		Token:        nt.Token,
		ShippingInfo: nt.ShippingInfo,
		Status:       models.CREATED,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	created, err := l.Store.CreateTrade(ctx, trade)
	if err != nil {
		return 0, models.Wrap(models.CodeInternal, err, "failed to create trade")
	}
	return created.Id, nil
}

// Get looks up a trade by ID.
func (l *Ledger) Get(ctx context.Context, id uint64) (*models.Trade, error) {
	trade, err := l.Store.GetTrade(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrTradeNotFound) {
			return nil, models.Wrap(models.CodeNotFound, err, fmt.Sprintf("trade %d does not exist", id))
		}
		return nil, models.Wrap(models.CodeInternal, err, "failed to get trade")
	}
	return trade, nil
}

// ListByParty lists every trade the principal is buyer or seller of.
func (l *Ledger) ListByParty(ctx context.Context, principal string) ([]models.Trade, error) {
	out, err := l.Store.ListTradesByParty(ctx, principal)
	if err != nil {
		return nil, models.Wrap(models.CodeInternal, err, "failed to list trades")
	}
	return out, nil
}

// UpdateStatus attaches label as an audit annotation. It never changes the
// trade's status.
func (l *Ledger) UpdateStatus(ctx context.Context, id uint64, caller, label string) (bool, error) {
	trade, err := l.Get(ctx, id)
	if err != nil {
		return false, err
	}
	if !models.RolesOf(caller, trade, "", "").Has(models.RoleBuyer, models.RoleSeller) {
		return false, models.Errorf(models.CodeUnauthorized, "only the buyer or seller may update trade %d", id)
	}
	label = strings.TrimSpace(label)
	if n := utf8.RuneCountInString(label); n == 0 || n > models.MaxLabelLength {
		return false, models.Errorf(models.CodeInvalidInput, "label must be 1 to %d characters", models.MaxLabelLength)
	}
	entry := models.StatusLabel{Label: label, Author: caller, At: l.now()}
	if err := l.Store.AppendStatusLabel(ctx, id, entry); err != nil {
		return false, models.Wrap(models.CodeInternal, err, "failed to append status label")
	}
	return true, nil
}
