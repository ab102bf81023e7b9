package tokens

import (
	"context"
	"net/http"

	"github.com/chris/trade-sphere/pkg/api"
	"github.com/chris/trade-sphere/pkg/handlers/response"
	"github.com/chris/trade-sphere/pkg/mapping"
	"github.com/chris/trade-sphere/pkg/middleware"
	"github.com/chris/trade-sphere/pkg/models"
)

// Registry is the token side of the coordinator.
type Registry interface {
	AddSupportedToken(ctx context.Context, caller, token string) (bool, error)
	RemoveSupportedToken(ctx context.Context, caller, token string) (bool, error)
	IsSupportedToken(ctx context.Context, token string) (bool, error)
	ListSupportedTokens(ctx context.Context) ([]models.SupportedToken, error)
}

// TokensHandler holds the dependencies for token-registry handlers.
type TokensHandler struct {
	Registry Registry
}

// NewTokensHandler creates a new TokensHandler.
func NewTokensHandler(registry Registry) *TokensHandler {
	return &TokensHandler{Registry: registry}
}

// AddSupportedToken handles POST /tokens.
func (h *TokensHandler) AddSupportedToken(w http.ResponseWriter, r *http.Request) {
	var body api.NewToken
	if !response.Decode(w, r, &body) {
		return
	}
	ok, err := h.Registry.AddSupportedToken(r.Context(), middleware.PrincipalFromContext(r.Context()), body.Token)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.JSON(w, http.StatusCreated, ok)
}

// RemoveSupportedToken handles DELETE /tokens/{token}.
func (h *TokensHandler) RemoveSupportedToken(w http.ResponseWriter, r *http.Request, token string) {
	ok, err := h.Registry.RemoveSupportedToken(r.Context(), middleware.PrincipalFromContext(r.Context()), token)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.JSON(w, http.StatusOK, ok)
}

// IsSupportedToken handles GET /tokens/{token}.
func (h *TokensHandler) IsSupportedToken(w http.ResponseWriter, r *http.Request, token string) {
	ok, err := h.Registry.IsSupportedToken(r.Context(), token)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.JSON(w, http.StatusOK, ok)
}

// ListSupportedTokens handles GET /tokens.
func (h *TokensHandler) ListSupportedTokens(w http.ResponseWriter, r *http.Request) {
	domainTokens, err := h.Registry.ListSupportedTokens(r.Context())
	if err != nil {
		response.Error(w, err)
		return
	}

	apiTokens := make([]*api.SupportedToken, len(domainTokens))
	for i := range domainTokens {
		apiTokens[i] = mapping.ToApiSupportedToken(&domainTokens[i])
	}
	response.JSON(w, http.StatusOK, apiTokens)
}
