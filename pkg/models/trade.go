package models

import (
	"time"
)

// TradeStatus defines the possible states of a trade.
type TradeStatus string

const (
	CREATED  TradeStatus = "CREATED"
	FUNDED   TradeStatus = "FUNDED"
	RELEASED TradeStatus = "RELEASED"
	REFUNDED TradeStatus = "REFUNDED"
	DISPUTED TradeStatus = "DISPUTED"
	RESOLVED TradeStatus = "RESOLVED"
)

// Terminal reports whether no transition leaves the status.
func (s TradeStatus) Terminal() bool {
	return s == RELEASED || s == REFUNDED || s == RESOLVED
}

// NativeAsset is the settlement asset of trades created without a token.
const NativeAsset = "native"

const (
	MaxShippingInfoLength = 256
	MaxLabelLength        = 50
)

// Trade represents the internal domain model for a trade.
// It includes dynamodbav tags for marshalling.
type Trade struct {
	Id             uint64        `dynamodbav:"id"`
	Buyer          string        `dynamodbav:"buyer"`
	Seller         string        `dynamodbav:"seller"`
	Amount         uint64        `dynamodbav:"amount"`
	Token          *string       `dynamodbav:"token,omitempty"`
	ShippingInfo   string        `dynamodbav:"shipping_info"`
	Status         TradeStatus   `dynamodbav:"status"`
	EscrowedAmount uint64        `dynamodbav:"escrowed_amount"`
	Labels         []StatusLabel `dynamodbav:"labels,omitempty"`
	CreatedAt      time.Time     `dynamodbav:"created_at"`
	UpdatedAt      time.Time     `dynamodbav:"updated_at"`
}

// StatusLabel is a free-text audit annotation attached by update-status.
type StatusLabel struct {
	Label  string    `dynamodbav:"label"`
	Author string    `dynamodbav:"author"`
	At     time.Time `dynamodbav:"at"`
}

// Asset returns the settlement asset of the trade.
func (t *Trade) Asset() string {
	if t.Token == nil {
		return NativeAsset
	}
	return *t.Token
}

// Clone returns a deep copy so callers can mutate the result without
// touching the stored record.
func (t *Trade) Clone() *Trade {
	if t == nil {
		return nil
	}
	clone := *t
	if t.Token != nil {
		token := *t.Token
		clone.Token = &token
	}
	if t.Labels != nil {
		clone.Labels = append([]StatusLabel(nil), t.Labels...)
	}
	return &clone
}

// SupportedToken is a registry entry.
type SupportedToken struct {
	Token   string    `dynamodbav:"token"`
	AddedBy string    `dynamodbav:"added_by"`
	AddedAt time.Time `dynamodbav:"added_at"`
}
