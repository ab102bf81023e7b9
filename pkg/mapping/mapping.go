package mapping

import (
	"github.com/chris/trade-sphere/pkg/api"
	"github.com/chris/trade-sphere/pkg/coordinator"
	"github.com/chris/trade-sphere/pkg/escrow"
	"github.com/chris/trade-sphere/pkg/models"
)

// ToApiTrade converts a domain Trade model to an API Trade model.
func ToApiTrade(trade *models.Trade) *api.Trade {
	labels := make([]api.StatusLabel, len(trade.Labels))
	for i, l := range trade.Labels {
		labels[i] = api.StatusLabel{Label: l.Label, Author: l.Author, At: l.At}
	}
	return &api.Trade{
		Id:             trade.Id,
		Buyer:          trade.Buyer,
		Seller:         trade.Seller,
		Amount:         trade.Amount,
		Token:          trade.Token,
		Asset:          trade.Asset(),
		ShippingInfo:   trade.ShippingInfo,
		Status:         api.TradeStatus(trade.Status),
		EscrowedAmount: trade.EscrowedAmount,
		Labels:         labels,
		CreatedAt:      trade.CreatedAt,
		UpdatedAt:      trade.UpdatedAt,
	}
}

// ToApiTrades converts a slice of domain trades.
func ToApiTrades(trades []models.Trade) []*api.Trade {
	out := make([]*api.Trade, len(trades))
	for i := range trades {
		out[i] = ToApiTrade(&trades[i])
	}
	return out
}

// ToApiSupportedToken converts a registry entry.
func ToApiSupportedToken(token *models.SupportedToken) *api.SupportedToken {
	return &api.SupportedToken{
		Token:   token.Token,
		AddedBy: token.AddedBy,
		AddedAt: token.AddedAt,
	}
}

// ToApiWallet converts a domain Wallet model to an API Wallet model.
func ToApiWallet(wallet *models.Wallet) *api.Wallet {
	return &api.Wallet{
		Principal: wallet.Principal,
		Asset:     wallet.Asset,
		Balance:   wallet.Balance,
		Version:   wallet.Version,
		UpdatedAt: wallet.UpdatedAt,
	}
}

// ToApiLedgerEntry converts a domain LedgerEntry. Zero debit or credit sides
// are omitted.
func ToApiLedgerEntry(entry *models.LedgerEntry) *api.LedgerEntry {
	out := &api.LedgerEntry{
		TradeId:     entry.TradeID,
		AccountId:   entry.AccountID,
		Asset:       entry.Asset,
		Description: entry.Description,
		Timestamp:   entry.Timestamp,
	}
	if entry.EntryID != "" {
		id := entry.EntryID
		out.EntryId = &id
	}
	if entry.Debit > 0 {
		debit := entry.Debit
		out.Debit = &debit
	}
	if entry.Credit > 0 {
		credit := entry.Credit
		out.Credit = &credit
	}
	return out
}

// ToApiCustodyReport converts an escrow audit row.
func ToApiCustodyReport(r *escrow.CustodyReport) *api.CustodyReport {
	return &api.CustodyReport{
		Asset:        r.Asset,
		VaultBalance: r.VaultBalance,
		Escrowed:     r.Escrowed,
		Trades:       r.Trades,
		Balanced:     r.Balanced,
	}
}

// ToDomainNewTrade converts an API NewTrade model to coordinator input.
func ToDomainNewTrade(newTrade *api.NewTrade) coordinator.CreateTradeInput {
	return coordinator.CreateTradeInput{
		Seller:       newTrade.Seller,
		Amount:       newTrade.Amount,
		Token:        newTrade.Token,
		ShippingInfo: newTrade.ShippingInfo,
	}
}
