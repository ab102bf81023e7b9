package trades

import (
	"context"
	"net/http"

	"github.com/chris/trade-sphere/pkg/api"
	"github.com/chris/trade-sphere/pkg/coordinator"
	"github.com/chris/trade-sphere/pkg/handlers/response"
	"github.com/chris/trade-sphere/pkg/mapping"
	"github.com/chris/trade-sphere/pkg/middleware"
	"github.com/chris/trade-sphere/pkg/models"
)

// Coordinator is the trade side of the coordinator.
type Coordinator interface {
	CreateTrade(ctx context.Context, caller string, in coordinator.CreateTradeInput) (uint64, error)
	GetTrade(ctx context.Context, id uint64) (*models.Trade, error)
	ListTrades(ctx context.Context, party string) ([]models.Trade, error)
	FundEscrow(ctx context.Context, caller string, id uint64) (bool, error)
	ReleaseEscrow(ctx context.Context, caller string, id uint64) (bool, error)
	RefundEscrow(ctx context.Context, caller string, id uint64) (bool, error)
	UpdateStatus(ctx context.Context, caller string, id uint64, label string) (bool, error)
	RaiseDispute(ctx context.Context, caller string, id uint64) (bool, error)
	ResolveDispute(ctx context.Context, caller string, id uint64, winner string) (bool, error)
}

// TradesHandler holds the dependencies for trade-related handlers.
type TradesHandler struct {
	Coordinator Coordinator
}

// NewTradesHandler creates a new TradesHandler.
func NewTradesHandler(c Coordinator) *TradesHandler {
	return &TradesHandler{Coordinator: c}
}

// CreateTrade handles POST /trades. The caller becomes the buyer.
func (h *TradesHandler) CreateTrade(w http.ResponseWriter, r *http.Request) {
	var newTrade api.NewTrade
	if !response.Decode(w, r, &newTrade) {
		return
	}

	id, err := h.Coordinator.CreateTrade(r.Context(), middleware.PrincipalFromContext(r.Context()), mapping.ToDomainNewTrade(&newTrade))
	if err != nil {
		response.Error(w, err)
		return
	}
	response.JSON(w, http.StatusCreated, api.TradeCreated{Id: id})
}

// GetTradeById handles GET /trades/{tradeId}.
func (h *TradesHandler) GetTradeById(w http.ResponseWriter, r *http.Request, tradeId uint64) {
	trade, err := h.Coordinator.GetTrade(r.Context(), tradeId)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.JSON(w, http.StatusOK, mapping.ToApiTrade(trade))
}

// ListTrades handles GET /trades?party=.
func (h *TradesHandler) ListTrades(w http.ResponseWriter, r *http.Request, party string) {
	domainTrades, err := h.Coordinator.ListTrades(r.Context(), party)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.JSON(w, http.StatusOK, mapping.ToApiTrades(domainTrades))
}

// FundEscrow handles POST /trades/{tradeId}/fund.
func (h *TradesHandler) FundEscrow(w http.ResponseWriter, r *http.Request, tradeId uint64) {
	h.respond(w, r, tradeId, h.Coordinator.FundEscrow)
}

// ReleaseEscrow handles POST /trades/{tradeId}/release.
func (h *TradesHandler) ReleaseEscrow(w http.ResponseWriter, r *http.Request, tradeId uint64) {
	h.respond(w, r, tradeId, h.Coordinator.ReleaseEscrow)
}

// RefundEscrow handles POST /trades/{tradeId}/refund.
func (h *TradesHandler) RefundEscrow(w http.ResponseWriter, r *http.Request, tradeId uint64) {
	h.respond(w, r, tradeId, h.Coordinator.RefundEscrow)
}

// RaiseDispute handles POST /trades/{tradeId}/dispute.
func (h *TradesHandler) RaiseDispute(w http.ResponseWriter, r *http.Request, tradeId uint64) {
	h.respond(w, r, tradeId, h.Coordinator.RaiseDispute)
}

// UpdateStatus handles POST /trades/{tradeId}/status.
func (h *TradesHandler) UpdateStatus(w http.ResponseWriter, r *http.Request, tradeId uint64) {
	var body api.NewStatusLabel
	if !response.Decode(w, r, &body) {
		return
	}
	h.respond(w, r, tradeId, func(ctx context.Context, caller string, id uint64) (bool, error) {
		return h.Coordinator.UpdateStatus(ctx, caller, id, body.Label)
	})
}

// ResolveDispute handles POST /trades/{tradeId}/resolve.
func (h *TradesHandler) ResolveDispute(w http.ResponseWriter, r *http.Request, tradeId uint64) {
	var body api.Resolution
	if !response.Decode(w, r, &body) {
		return
	}
	h.respond(w, r, tradeId, func(ctx context.Context, caller string, id uint64) (bool, error) {
		return h.Coordinator.ResolveDispute(ctx, caller, id, body.Winner)
	})
}

func (h *TradesHandler) respond(w http.ResponseWriter, r *http.Request, tradeId uint64, op func(ctx context.Context, caller string, id uint64) (bool, error)) {
	ok, err := op(r.Context(), middleware.PrincipalFromContext(r.Context()), tradeId)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.JSON(w, http.StatusOK, ok)
}
