package memory

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/chris/trade-sphere/pkg/models"
	"github.com/chris/trade-sphere/pkg/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	buyer  = "0x1111111111111111111111111111111111111111"
	seller = "0x2222222222222222222222222222222222222222"
	vault  = "0x5555555555555555555555555555555555555555"
)

func newTrade() *models.Trade {
	return &models.Trade{Buyer: buyer, Seller: seller, Amount: 100, Status: models.CREATED}
}

func TestCreateTrade(t *testing.T) {
	ctx := context.Background()
	store := New()

	first, err := store.CreateTrade(ctx, newTrade())
	require.NoError(t, err)
	second, err := store.CreateTrade(ctx, newTrade())
	require.NoError(t, err)

	assert.Equal(t, uint64(0), first.Id)
	assert.Equal(t, uint64(1), second.Id)

	first.Status = models.RELEASED
	stored, err := store.GetTrade(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, models.CREATED, stored.Status, "returned trades are copies")

	_, err = store.GetTrade(ctx, 9)
	assert.ErrorIs(t, err, storage.ErrTradeNotFound)

	byParty, err := store.ListTradesByParty(ctx, seller)
	require.NoError(t, err)
	assert.Len(t, byParty, 2)
	none, err := store.ListTradesByParty(ctx, vault)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestApplyTransition(t *testing.T) {
	ctx := context.Background()
	at := time.Unix(1700000000, 0)

	fund := storage.Transition{
		TradeID:  0,
		From:     models.CREATED,
		To:       models.FUNDED,
		Escrowed: 100,
		Transfer: &storage.Transfer{From: buyer, To: vault, Asset: models.NativeAsset, Amount: 100, Description: "fund"},
		At:       at,
	}

	t.Run("Success", func(t *testing.T) {
		store := New()
		_, err := store.CreateTrade(ctx, newTrade())
		require.NoError(t, err)
		_, err = store.Deposit(ctx, buyer, models.NativeAsset, 150)
		require.NoError(t, err)

		trade, err := store.ApplyTransition(ctx, fund)
		require.NoError(t, err)
		assert.Equal(t, models.FUNDED, trade.Status)
		assert.Equal(t, uint64(100), trade.EscrowedAmount)
		assert.Equal(t, at, trade.UpdatedAt)

		b, _ := store.GetWallet(ctx, buyer, models.NativeAsset)
		v, _ := store.GetWallet(ctx, vault, models.NativeAsset)
		assert.Equal(t, uint64(50), b.Balance)
		assert.Equal(t, uint64(100), v.Balance)

		entries, err := store.ListLedgerEntries(ctx, 10)
		require.NoError(t, err)
		require.Len(t, entries, 3)
		assert.Equal(t, vault, entries[0].AccountID)
		assert.Equal(t, uint64(100), entries[0].Credit)
		assert.Equal(t, buyer, entries[1].AccountID)
		assert.Equal(t, uint64(100), entries[1].Debit)
	})

	t.Run("Insufficient Funds Leaves Nothing Behind", func(t *testing.T) {
		store := New()
		_, err := store.CreateTrade(ctx, newTrade())
		require.NoError(t, err)
		_, err = store.Deposit(ctx, buyer, models.NativeAsset, 99)
		require.NoError(t, err)

		_, err = store.ApplyTransition(ctx, fund)
		assert.ErrorIs(t, err, storage.ErrInsufficientFunds)

		trade, _ := store.GetTrade(ctx, 0)
		assert.Equal(t, models.CREATED, trade.Status)
		assert.Zero(t, trade.EscrowedAmount)
		b, _ := store.GetWallet(ctx, buyer, models.NativeAsset)
		assert.Equal(t, uint64(99), b.Balance)
		entries, _ := store.ListLedgerEntries(ctx, 0)
		assert.Len(t, entries, 1)
	})

	t.Run("Credit Overflow Leaves Nothing Behind", func(t *testing.T) {
		store := New()
		_, err := store.CreateTrade(ctx, newTrade())
		require.NoError(t, err)
		_, err = store.Deposit(ctx, buyer, models.NativeAsset, 100)
		require.NoError(t, err)
		_, err = store.Deposit(ctx, vault, models.NativeAsset, math.MaxUint64-50)
		require.NoError(t, err)

		_, err = store.ApplyTransition(ctx, fund)
		assert.ErrorIs(t, err, storage.ErrBalanceOverflow)

		trade, _ := store.GetTrade(ctx, 0)
		assert.Equal(t, models.CREATED, trade.Status)
		b, _ := store.GetWallet(ctx, buyer, models.NativeAsset)
		assert.Equal(t, uint64(100), b.Balance)
		v, _ := store.GetWallet(ctx, vault, models.NativeAsset)
		assert.Equal(t, uint64(math.MaxUint64-50), v.Balance)
		entries, _ := store.ListLedgerEntries(ctx, 0)
		assert.Len(t, entries, 2)
	})

	t.Run("Status Conflict", func(t *testing.T) {
		store := New()
		_, err := store.CreateTrade(ctx, newTrade())
		require.NoError(t, err)

		stale := fund
		stale.From = models.FUNDED
		_, err = store.ApplyTransition(ctx, stale)
		assert.ErrorIs(t, err, storage.ErrTransitionConflict)
	})

	t.Run("Not Found", func(t *testing.T) {
		_, err := New().ApplyTransition(ctx, fund)
		assert.ErrorIs(t, err, storage.ErrTradeNotFound)
	})
}

func TestTokensAndLabels(t *testing.T) {
	ctx := context.Background()
	store := New()
	token := models.SupportedToken{Token: "0x6666666666666666666666666666666666666666", AddedBy: buyer}

	require.NoError(t, store.PutSupportedToken(ctx, token))
	require.NoError(t, store.PutSupportedToken(ctx, token))
	ok, err := store.IsSupportedToken(ctx, token.Token)
	require.NoError(t, err)
	assert.True(t, ok)
	list, _ := store.ListSupportedTokens(ctx)
	assert.Len(t, list, 1)

	require.NoError(t, store.DeleteSupportedToken(ctx, token.Token))
	require.NoError(t, store.DeleteSupportedToken(ctx, token.Token))
	ok, _ = store.IsSupportedToken(ctx, token.Token)
	assert.False(t, ok)

	_, err = store.CreateTrade(ctx, newTrade())
	require.NoError(t, err)
	require.NoError(t, store.AppendStatusLabel(ctx, 0, models.StatusLabel{Label: "Shipped", Author: seller}))
	trade, _ := store.GetTrade(ctx, 0)
	require.Len(t, trade.Labels, 1)
	assert.Equal(t, models.CREATED, trade.Status)
	assert.ErrorIs(t, store.AppendStatusLabel(ctx, 5, models.StatusLabel{Label: "x"}), storage.ErrTradeNotFound)
}

func TestWallets(t *testing.T) {
	ctx := context.Background()
	store := New()

	empty, err := store.GetWallet(ctx, buyer, models.NativeAsset)
	require.NoError(t, err)
	assert.Zero(t, empty.Balance)
	assert.Equal(t, models.WalletID(buyer, models.NativeAsset), empty.WalletId)

	_, _ = store.Deposit(ctx, buyer, models.NativeAsset, 10)
	w, err := store.Deposit(ctx, buyer, "0x6666666666666666666666666666666666666666", 5)
	require.NoError(t, err)
	assert.Equal(t, uint64(5), w.Balance)
	assert.Equal(t, int64(1), w.Version)

	wallets, err := store.ListWallets(ctx, buyer)
	require.NoError(t, err)
	require.Len(t, wallets, 2)
	assert.Equal(t, "0x6666666666666666666666666666666666666666", wallets[0].Asset)
	assert.Equal(t, models.NativeAsset, wallets[1].Asset)

	entries, _ := store.ListLedgerEntries(ctx, 1)
	require.Len(t, entries, 1)
	assert.Equal(t, uint64(5), entries[0].Credit)

	t.Run("Deposit Overflow", func(t *testing.T) {
		_, err := store.Deposit(ctx, buyer, models.NativeAsset, math.MaxUint64-10)
		require.NoError(t, err)

		_, err = store.Deposit(ctx, buyer, models.NativeAsset, 1)
		assert.ErrorIs(t, err, storage.ErrBalanceOverflow)

		w, _ := store.GetWallet(ctx, buyer, models.NativeAsset)
		assert.Equal(t, uint64(math.MaxUint64), w.Balance)
		all, _ := store.ListLedgerEntries(ctx, 0)
		assert.Len(t, all, 3)
	})
}
