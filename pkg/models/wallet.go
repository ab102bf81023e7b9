package models

import (
	"time"
)

// Wallet holds the balance of one principal in one asset.
type Wallet struct {
	WalletId  string    `json:"wallet_id" dynamodbav:"wallet_id"`
	Principal string    `json:"principal" dynamodbav:"principal"`
	Asset     string    `json:"asset" dynamodbav:"asset"`
	Balance   uint64    `json:"balance" dynamodbav:"balance"`
	Version   int64     `json:"version" dynamodbav:"version"`
	UpdatedAt time.Time `json:"updated_at" dynamodbav:"updated_at"`
}

// WalletID is the storage key of a (principal, asset) balance.
func WalletID(principal, asset string) string {
	return principal + "#" + asset
}

// LedgerEntry represents a single entry in the double-entry ledger.
type LedgerEntry struct {
	EntryID     string    `dynamodbav:"entry_id"`
	TradeID     *uint64   `dynamodbav:"trade_id,omitempty"`
	AccountID   string    `dynamodbav:"account_id"`
	Asset       string    `dynamodbav:"asset"`
	Debit       uint64    `dynamodbav:"debit,omitempty"`
	Credit      uint64    `dynamodbav:"credit,omitempty"`
	Description string    `dynamodbav:"description"`
	Timestamp   time.Time `dynamodbav:"timestamp"`
	GSI1PK      string    `dynamodbav:"gsi1pk"`
}

// LedgerPartition groups all ledger entries under one GSI partition so
// they can be listed newest first.
const LedgerPartition = "LEDGER_ENTRIES"
