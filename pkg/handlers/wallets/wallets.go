package wallets

import (
	"context"
	"net/http"

	"github.com/chris/trade-sphere/pkg/api"
	"github.com/chris/trade-sphere/pkg/handlers/response"
	"github.com/chris/trade-sphere/pkg/mapping"
	"github.com/chris/trade-sphere/pkg/middleware"
	"github.com/chris/trade-sphere/pkg/models"
)

// Wallets is the balance side of the coordinator.
type Wallets interface {
	GetWallet(ctx context.Context, principal, asset string) (*models.Wallet, error)
	ListWallets(ctx context.Context, principal string) ([]models.Wallet, error)
	Deposit(ctx context.Context, caller, principal, asset string, amount uint64) (*models.Wallet, error)
}

// WalletsHandler holds the dependencies for wallet-related handlers.
type WalletsHandler struct {
	Wallets Wallets
}

// NewWalletsHandler creates a new WalletsHandler.
func NewWalletsHandler(wallets Wallets) *WalletsHandler {
	return &WalletsHandler{Wallets: wallets}
}

// GetWallets handles GET /wallets/{principal}. With ?asset= it returns that
// single balance, otherwise every balance the principal holds.
func (h *WalletsHandler) GetWallets(w http.ResponseWriter, r *http.Request, principal string, asset *string) {
	if asset != nil {
		domainWallet, err := h.Wallets.GetWallet(r.Context(), principal, *asset)
		if err != nil {
			response.Error(w, err)
			return
		}
		response.JSON(w, http.StatusOK, mapping.ToApiWallet(domainWallet))
		return
	}

	domainWallets, err := h.Wallets.ListWallets(r.Context(), principal)
	if err != nil {
		response.Error(w, err)
		return
	}
	apiWallets := make([]*api.Wallet, len(domainWallets))
	for i := range domainWallets {
		apiWallets[i] = mapping.ToApiWallet(&domainWallets[i])
	}
	response.JSON(w, http.StatusOK, apiWallets)
}

// Deposit handles POST /wallets/{principal}/deposits.
func (h *WalletsHandler) Deposit(w http.ResponseWriter, r *http.Request, principal string) {
	var body api.NewDeposit
	if !response.Decode(w, r, &body) {
		return
	}
	updated, err := h.Wallets.Deposit(r.Context(), middleware.PrincipalFromContext(r.Context()), principal, body.Asset, body.Amount)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.JSON(w, http.StatusCreated, mapping.ToApiWallet(updated))
}
