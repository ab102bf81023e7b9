package ledger_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/chris/trade-sphere/pkg/api"
	"github.com/chris/trade-sphere/pkg/escrow"
	"github.com/chris/trade-sphere/pkg/handlers/ledger"
	"github.com/chris/trade-sphere/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockAuditor struct {
	mock.Mock
}

func (m *mockAuditor) ListLedgerEntries(ctx context.Context, limit int32) ([]models.LedgerEntry, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.LedgerEntry), args.Error(1)
}

func (m *mockAuditor) Custody(ctx context.Context) ([]escrow.CustodyReport, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]escrow.CustodyReport), args.Error(1)
}

func TestListLedgerEntries(t *testing.T) {
	t.Run("Default Limit", func(t *testing.T) {
		mockA := new(mockAuditor)
		mockA.On("ListLedgerEntries", mock.Anything, int32(20)).Return([]models.LedgerEntry{{EntryID: "e-1", AccountID: "a", Asset: "native", Credit: 5}}, nil)

		h := ledger.NewLedgerHandler(mockA)
		rr := httptest.NewRecorder()

		h.ListLedgerEntries(rr, httptest.NewRequest(http.MethodGet, "/ledger", nil), api.ListLedgerEntriesParams{})

		assert.Equal(t, http.StatusOK, rr.Code)
		var entries []api.LedgerEntry
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &api.Envelope{Value: &entries}))
		require.Len(t, entries, 1)
		assert.Nil(t, entries[0].Debit)
		require.NotNil(t, entries[0].Credit)
		assert.Equal(t, uint64(5), *entries[0].Credit)
		mockA.AssertExpectations(t)
	})

	t.Run("Invalid Limit", func(t *testing.T) {
		limit := int32(-1)
		mockA := new(mockAuditor)
		mockA.On("ListLedgerEntries", mock.Anything, limit).Return(nil, models.Errorf(models.CodeInvalidInput, "limit must not be negative"))

		h := ledger.NewLedgerHandler(mockA)
		rr := httptest.NewRecorder()

		h.ListLedgerEntries(rr, httptest.NewRequest(http.MethodGet, "/ledger?limit=-1", nil), api.ListLedgerEntriesParams{Limit: &limit})

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		mockA.AssertExpectations(t)
	})
}

func TestGetCustody(t *testing.T) {
	mockA := new(mockAuditor)
	mockA.On("Custody", mock.Anything).Return([]escrow.CustodyReport{{Asset: "native", VaultBalance: 7, Escrowed: 9, Trades: 2}}, nil)

	h := ledger.NewLedgerHandler(mockA)
	rr := httptest.NewRecorder()

	h.GetCustody(rr, httptest.NewRequest(http.MethodGet, "/custody", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	var reports []api.CustodyReport
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &api.Envelope{Value: &reports}))
	require.Len(t, reports, 1)
	assert.False(t, reports[0].Balanced)
	assert.Equal(t, uint64(9), reports[0].Escrowed)
	mockA.AssertExpectations(t)
}
