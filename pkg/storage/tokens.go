package storage

import (
	"context"

	"github.com/chris/trade-sphere/pkg/models"
)

// TokenStore defines the interface for the supported-token registry.
// Put and Delete are idempotent.
type TokenStore interface {
	PutSupportedToken(ctx context.Context, token models.SupportedToken) error
	DeleteSupportedToken(ctx context.Context, token string) error
	IsSupportedToken(ctx context.Context, token string) (bool, error)
	ListSupportedTokens(ctx context.Context) ([]models.SupportedToken, error)
}
