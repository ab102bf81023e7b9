package storage

import "errors"

// ErrInsufficientFunds is returned when a wallet has an insufficient balance for a transfer.
var ErrInsufficientFunds = errors.New("insufficient funds")

// ErrTradeNotFound is returned when no trade exists with the requested ID.
var ErrTradeNotFound = errors.New("trade not found")

// ErrTransitionConflict is returned when a conditional write finds the trade
// in a different status than the caller expected.
var ErrTransitionConflict = errors.New("trade not in the expected status")

// ErrCounterConflict is returned when another writer advanced the trade ID
// counter between the read and the write.
var ErrCounterConflict = errors.New("trade id counter changed concurrently")

// ErrBalanceOverflow is returned when a credit would push a wallet balance
// past the largest representable amount.
var ErrBalanceOverflow = errors.New("balance overflow")
