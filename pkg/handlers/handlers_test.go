package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/chris/trade-sphere/pkg/api"
	"github.com/chris/trade-sphere/pkg/coordinator"
	"github.com/chris/trade-sphere/pkg/handlers"
	"github.com/chris/trade-sphere/pkg/middleware"
	"github.com/chris/trade-sphere/pkg/storage/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	buyer   = "0x1111111111111111111111111111111111111111"
	seller  = "0x2222222222222222222222222222222222222222"
	admin   = "0x3333333333333333333333333333333333333333"
	arbiter = "0x4444444444444444444444444444444444444444"
	vault   = "0x5555555555555555555555555555555555555555"
)

type testServer struct {
	t      *testing.T
	server *httptest.Server
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	c := coordinator.New(memory.New(), coordinator.Principals{Admin: admin, Arbiter: arbiter, Contract: vault})
	router := handlers.NewRouter(handlers.NewApiHandler(c), handlers.Options{})
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return &testServer{t: t, server: server}
}

// do sends a request as caller and decodes the envelope, filling value on success.
func (s *testServer) do(method, path, caller, body string, value interface{}) (int, api.Envelope) {
	s.t.Helper()
	req, err := http.NewRequest(method, s.server.URL+path, strings.NewReader(body))
	require.NoError(s.t, err)
	if caller != "" {
		req.Header.Set(middleware.PrincipalHeader, caller)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(s.t, err)
	defer resp.Body.Close()

	env := api.Envelope{Value: value}
	require.NoError(s.t, json.NewDecoder(resp.Body).Decode(&env))
	return resp.StatusCode, env
}

func TestRouter_TradeLifecycle(t *testing.T) {
	s := newTestServer(t)

	status, _ := s.do(http.MethodPost, "/wallets/"+buyer+"/deposits", admin, `{"asset":"native","amount":500}`, nil)
	require.Equal(t, http.StatusCreated, status)

	var created api.TradeCreated
	status, env := s.do(http.MethodPost, "/trades", buyer, `{"seller":"`+seller+`","amount":200,"shipping_info":"Warehouse 9"}`, &created)
	require.Equal(t, http.StatusCreated, status)
	require.True(t, env.Ok)
	assert.Equal(t, uint64(0), created.Id)

	status, _ = s.do(http.MethodPost, "/trades/0/fund", buyer, "", nil)
	require.Equal(t, http.StatusOK, status)

	status, _ = s.do(http.MethodPost, "/trades/0/status", seller, `{"label":"Shipped"}`, nil)
	require.Equal(t, http.StatusOK, status)

	var funded api.Trade
	status, _ = s.do(http.MethodGet, "/trades/0", "", "", &funded)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, api.TradeStatus("FUNDED"), funded.Status)
	assert.Equal(t, uint64(200), funded.EscrowedAmount)
	require.Len(t, funded.Labels, 1)
	assert.Equal(t, "Shipped", funded.Labels[0].Label)

	var reports []api.CustodyReport
	status, _ = s.do(http.MethodGet, "/custody", "", "", &reports)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, reports, 1)
	assert.True(t, reports[0].Balanced)
	assert.Equal(t, uint64(200), reports[0].VaultBalance)

	status, _ = s.do(http.MethodPost, "/trades/0/release", buyer, "", nil)
	require.Equal(t, http.StatusOK, status)

	var wallet api.Wallet
	status, _ = s.do(http.MethodGet, "/wallets/"+seller+"?asset=native", "", "", &wallet)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, uint64(200), wallet.Balance)

	var entries []api.LedgerEntry
	status, _ = s.do(http.MethodGet, "/ledger?limit=2", "", "", &entries)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, entries, 2)

	var list []api.Trade
	status, _ = s.do(http.MethodGet, "/trades?party="+seller, "", "", &list)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, list, 1)
	assert.Equal(t, api.TradeStatus("RELEASED"), list[0].Status)
}

func TestRouter_Errors(t *testing.T) {
	s := newTestServer(t)

	t.Run("Missing Principal", func(t *testing.T) {
		status, env := s.do(http.MethodPost, "/trades", "", `{"seller":"`+seller+`","amount":1}`, nil)
		assert.Equal(t, http.StatusUnauthorized, status)
		assert.False(t, env.Ok)
		require.NotNil(t, env.Error)
		assert.Equal(t, "Unauthorized", env.Error.Code)
	})

	t.Run("Bad Trade ID", func(t *testing.T) {
		status, env := s.do(http.MethodGet, "/trades/abc", "", "", nil)
		assert.Equal(t, http.StatusBadRequest, status)
		require.NotNil(t, env.Error)
		assert.Equal(t, "InvalidInput", env.Error.Code)
	})

	t.Run("Missing Party", func(t *testing.T) {
		status, _ := s.do(http.MethodGet, "/trades", "", "", nil)
		assert.Equal(t, http.StatusBadRequest, status)
	})

	t.Run("Unknown Trade", func(t *testing.T) {
		status, env := s.do(http.MethodGet, "/trades/42", "", "", nil)
		assert.Equal(t, http.StatusNotFound, status)
		assert.Equal(t, "NotFound", env.Error.Code)
	})

	t.Run("Unsupported Token", func(t *testing.T) {
		status, env := s.do(http.MethodPost, "/trades", buyer,
			`{"seller":"`+seller+`","amount":1,"token":"0x6666666666666666666666666666666666666666"}`, nil)
		assert.Equal(t, http.StatusUnprocessableEntity, status)
		assert.Equal(t, "UnsupportedToken", env.Error.Code)
	})

	t.Run("Non Admin Adds Token", func(t *testing.T) {
		status, env := s.do(http.MethodPost, "/tokens", buyer, `{"token":"0x6666666666666666666666666666666666666666"}`, nil)
		assert.Equal(t, http.StatusForbidden, status)
		assert.Equal(t, "Unauthorized", env.Error.Code)
	})

	t.Run("Fund Without Balance", func(t *testing.T) {
		var created api.TradeCreated
		status, _ := s.do(http.MethodPost, "/trades", buyer, `{"seller":"`+seller+`","amount":10}`, &created)
		require.Equal(t, http.StatusCreated, status)

		status, env := s.do(http.MethodPost, "/trades/0/fund", buyer, "", nil)
		assert.Equal(t, http.StatusUnprocessableEntity, status)
		assert.Equal(t, "TransferFailed", env.Error.Code)
	})
}

func TestRouter_DisputeFlow(t *testing.T) {
	s := newTestServer(t)

	s.do(http.MethodPost, "/wallets/"+buyer+"/deposits", admin, `{"asset":"native","amount":50}`, nil)
	s.do(http.MethodPost, "/trades", buyer, `{"seller":"`+seller+`","amount":50}`, nil)
	status, _ := s.do(http.MethodPost, "/trades/0/fund", buyer, "", nil)
	require.Equal(t, http.StatusOK, status)

	status, _ = s.do(http.MethodPost, "/trades/0/dispute", seller, "", nil)
	require.Equal(t, http.StatusOK, status)

	status, _ = s.do(http.MethodPost, "/trades/0/resolve", buyer, `{"winner":"buyer"}`, nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = s.do(http.MethodPost, "/trades/0/resolve", arbiter, `{"winner":"buyer"}`, nil)
	require.Equal(t, http.StatusOK, status)

	var wallets []api.Wallet
	status, _ = s.do(http.MethodGet, "/wallets/"+buyer, "", "", &wallets)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, wallets, 1)
	assert.Equal(t, uint64(50), wallets[0].Balance)
}

func TestRouter_OptionalRoutes(t *testing.T) {
	c := coordinator.New(memory.New(), coordinator.Principals{Admin: admin, Arbiter: arbiter, Contract: vault})
	metricsCalled := false
	router := handlers.NewRouter(handlers.NewApiHandler(c), handlers.Options{
		Metrics: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			metricsCalled = true
			w.WriteHeader(http.StatusOK)
		}),
	})

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, metricsCalled)

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/ws", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}
