// Package api defines the JSON documents exchanged over HTTP.
package api

import "time"

// Envelope wraps every response.
type Envelope struct {
	Ok    bool        `json:"ok"`
	Value interface{} `json:"value,omitempty"`
	Error *Error      `json:"error,omitempty"`
}

// Error is the failure half of an Envelope.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewToken is the body of POST /tokens.
type NewToken struct {
	Token string `json:"token"`
}

// SupportedToken is a registry entry.
type SupportedToken struct {
	Token   string    `json:"token"`
	AddedBy string    `json:"added_by"`
	AddedAt time.Time `json:"added_at"`
}

// NewTrade is the body of POST /trades. The caller becomes the buyer.
type NewTrade struct {
	Seller       string  `json:"seller"`
	Amount       uint64  `json:"amount"`
	Token        *string `json:"token,omitempty"`
	ShippingInfo string  `json:"shipping_info"`
}

// TradeCreated is returned by POST /trades.
type TradeCreated struct {
	Id uint64 `json:"id"`
}

// TradeStatus is the lifecycle state of a trade.
type TradeStatus string

// StatusLabel is an audit annotation.
type StatusLabel struct {
	Label  string    `json:"label"`
	Author string    `json:"author"`
	At     time.Time `json:"at"`
}

// Trade is the public view of a trade.
type Trade struct {
	Id             uint64        `json:"id"`
	Buyer          string        `json:"buyer"`
	Seller         string        `json:"seller"`
	Amount         uint64        `json:"amount"`
	Token          *string       `json:"token,omitempty"`
	Asset          string        `json:"asset"`
	ShippingInfo   string        `json:"shipping_info"`
	Status         TradeStatus   `json:"status"`
	EscrowedAmount uint64        `json:"escrowed_amount"`
	Labels         []StatusLabel `json:"labels"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

// NewStatusLabel is the body of POST /trades/{tradeId}/status.
type NewStatusLabel struct {
	Label string `json:"label"`
}

// Resolution is the body of POST /trades/{tradeId}/resolve.
type Resolution struct {
	Winner string `json:"winner"`
}

// Wallet is the balance of one principal in one asset.
type Wallet struct {
	Principal string    `json:"principal"`
	Asset     string    `json:"asset"`
	Balance   uint64    `json:"balance"`
	Version   int64     `json:"version"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

// NewDeposit is the body of POST /wallets/{principal}/deposits.
type NewDeposit struct {
	Asset  string `json:"asset"`
	Amount uint64 `json:"amount"`
}

// LedgerEntry is one side of a recorded movement.
type LedgerEntry struct {
	EntryId     *string   `json:"entry_id,omitempty"`
	TradeId     *uint64   `json:"trade_id,omitempty"`
	AccountId   string    `json:"account_id"`
	Asset       string    `json:"asset"`
	Debit       *uint64   `json:"debit,omitempty"`
	Credit      *uint64   `json:"credit,omitempty"`
	Description string    `json:"description"`
	Timestamp   time.Time `json:"timestamp"`
}

// ListLedgerEntriesParams are the query parameters of GET /ledger.
type ListLedgerEntriesParams struct {
	Limit *int32 `form:"limit,omitempty" json:"limit,omitempty"`
}

// CustodyReport compares the vault balance of an asset with the escrow owed.
type CustodyReport struct {
	Asset        string `json:"asset"`
	VaultBalance uint64 `json:"vault_balance"`
	Escrowed     uint64 `json:"escrowed"`
	Trades       int    `json:"trades"`
	Balanced     bool   `json:"balanced"`
}
