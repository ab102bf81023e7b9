package handlers

import (
	"log/slog"
	"net/http"

	"github.com/chris/trade-sphere/pkg/api"
	"github.com/chris/trade-sphere/pkg/handlers/ledger"
	"github.com/chris/trade-sphere/pkg/handlers/response"
	"github.com/chris/trade-sphere/pkg/handlers/tokens"
	"github.com/chris/trade-sphere/pkg/handlers/trades"
	"github.com/chris/trade-sphere/pkg/handlers/wallets"
	"github.com/chris/trade-sphere/pkg/middleware"
	"github.com/chris/trade-sphere/pkg/models"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/oapi-codegen/runtime"
)

// Coordinator is everything the HTTP API calls.
type Coordinator interface {
	tokens.Registry
	trades.Coordinator
	wallets.Wallets
	ledger.Auditor
}

// ApiHandler groups the per-resource handlers.
type ApiHandler struct {
	Tokens  *tokens.TokensHandler
	Trades  *trades.TradesHandler
	Wallets *wallets.WalletsHandler
	Ledger  *ledger.LedgerHandler
}

// NewApiHandler creates a new ApiHandler backed by c.
func NewApiHandler(c Coordinator) *ApiHandler {
	return &ApiHandler{
		Tokens:  tokens.NewTokensHandler(c),
		Trades:  trades.NewTradesHandler(c),
		Wallets: wallets.NewWalletsHandler(c),
		Ledger:  ledger.NewLedgerHandler(c),
	}
}

// Options holds the optional collaborators of the router.
type Options struct {
	Logger    *slog.Logger
	Metrics   http.Handler
	WebSocket http.Handler
}

// NewRouter mounts every route on a chi router.
func NewRouter(h *ApiHandler, opts Options) chi.Router {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(middleware.NewStructuredLogger(logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.Principal)

	r.Get("/tokens", h.Tokens.ListSupportedTokens)
	r.Get("/tokens/{token}", func(w http.ResponseWriter, r *http.Request) {
		h.Tokens.IsSupportedToken(w, r, chi.URLParam(r, "token"))
	})
	r.Get("/trades", func(w http.ResponseWriter, r *http.Request) {
		var party string
		if err := runtime.BindQueryParameter("form", true, true, "party", r.URL.Query(), &party); err != nil {
			invalidParam(w, "party", err)
			return
		}
		h.Trades.ListTrades(w, r, party)
	})
	r.Get("/trades/{tradeId}", withTradeID(h.Trades.GetTradeById))
	r.Get("/wallets/{principal}", func(w http.ResponseWriter, r *http.Request) {
		var asset *string
		if err := runtime.BindQueryParameter("form", true, false, "asset", r.URL.Query(), &asset); err != nil {
			invalidParam(w, "asset", err)
			return
		}
		h.Wallets.GetWallets(w, r, chi.URLParam(r, "principal"), asset)
	})
	r.Get("/ledger", func(w http.ResponseWriter, r *http.Request) {
		var params api.ListLedgerEntriesParams
		if err := runtime.BindQueryParameter("form", true, false, "limit", r.URL.Query(), &params.Limit); err != nil {
			invalidParam(w, "limit", err)
			return
		}
		h.Ledger.ListLedgerEntries(w, r, params)
	})
	r.Get("/custody", h.Ledger.GetCustody)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequirePrincipal)

		r.Post("/tokens", h.Tokens.AddSupportedToken)
		r.Delete("/tokens/{token}", func(w http.ResponseWriter, r *http.Request) {
			h.Tokens.RemoveSupportedToken(w, r, chi.URLParam(r, "token"))
		})
		r.Post("/trades", h.Trades.CreateTrade)
		r.Post("/trades/{tradeId}/fund", withTradeID(h.Trades.FundEscrow))
		r.Post("/trades/{tradeId}/release", withTradeID(h.Trades.ReleaseEscrow))
		r.Post("/trades/{tradeId}/refund", withTradeID(h.Trades.RefundEscrow))
		r.Post("/trades/{tradeId}/status", withTradeID(h.Trades.UpdateStatus))
		r.Post("/trades/{tradeId}/dispute", withTradeID(h.Trades.RaiseDispute))
		r.Post("/trades/{tradeId}/resolve", withTradeID(h.Trades.ResolveDispute))
		r.Post("/wallets/{principal}/deposits", func(w http.ResponseWriter, r *http.Request) {
			h.Wallets.Deposit(w, r, chi.URLParam(r, "principal"))
		})
	})

	if opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", opts.Metrics)
	}
	if opts.WebSocket != nil {
		r.Method(http.MethodGet, "/ws", opts.WebSocket)
	}
	return r
}

// withTradeID binds the tradeId path parameter.
func withTradeID(fn func(w http.ResponseWriter, r *http.Request, tradeId uint64)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var tradeId uint64
		err := runtime.BindStyledParameterWithOptions("simple", "tradeId", chi.URLParam(r, "tradeId"), &tradeId,
			runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
		if err != nil {
			invalidParam(w, "tradeId", err)
			return
		}
		fn(w, r, tradeId)
	}
}

func invalidParam(w http.ResponseWriter, name string, err error) {
	response.Fail(w, http.StatusBadRequest, models.CodeInvalidInput, "Invalid format for parameter %s: %v", name, err)
}
