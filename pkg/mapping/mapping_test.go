package mapping

import (
	"testing"
	"time"

	"github.com/chris/trade-sphere/pkg/api"
	"github.com/chris/trade-sphere/pkg/models"
	"github.com/stretchr/testify/assert"
)

func TestToApiTrade(t *testing.T) {
	at := time.Unix(1700000000, 0)
	trade := &models.Trade{
		Id:             3,
		Buyer:          "0x1111111111111111111111111111111111111111",
		Seller:         "0x2222222222222222222222222222222222222222",
		Amount:         40,
		Status:         models.DISPUTED,
		EscrowedAmount: 40,
		Labels:         []models.StatusLabel{{Label: "Shipped", Author: "0x2222222222222222222222222222222222222222", At: at}},
	}

	got := ToApiTrade(trade)

	assert.Equal(t, uint64(3), got.Id)
	assert.Equal(t, api.TradeStatus("DISPUTED"), got.Status)
	assert.Equal(t, models.NativeAsset, got.Asset)
	assert.Nil(t, got.Token)
	assert.Equal(t, []api.StatusLabel{{Label: "Shipped", Author: trade.Seller, At: at}}, got.Labels)
}

func TestToApiTradeWithoutLabels(t *testing.T) {
	got := ToApiTrade(&models.Trade{})
	assert.NotNil(t, got.Labels, "labels encode as an empty array")
	assert.Empty(t, got.Labels)
}

func TestToApiLedgerEntry(t *testing.T) {
	id := uint64(2)
	got := ToApiLedgerEntry(&models.LedgerEntry{EntryID: "e1", TradeID: &id, AccountID: "a", Debit: 5})

	assert.Equal(t, "e1", *got.EntryId)
	assert.Equal(t, uint64(5), *got.Debit)
	assert.Nil(t, got.Credit)
	assert.Equal(t, &id, got.TradeId)
}

func TestToDomainNewTrade(t *testing.T) {
	token := "0x6666666666666666666666666666666666666666"
	in := ToDomainNewTrade(&api.NewTrade{Seller: "s", Amount: 9, Token: &token, ShippingInfo: "dock"})

	assert.Equal(t, "s", in.Seller)
	assert.Equal(t, uint64(9), in.Amount)
	assert.Equal(t, &token, in.Token)
	assert.Equal(t, "dock", in.ShippingInfo)
}
