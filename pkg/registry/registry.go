// Package registry tracks which fungible-asset contracts are accepted as trade
// settlement currency.
package registry

import (
	"context"
	"time"

	"github.com/chris/trade-sphere/pkg/models"
	"github.com/chris/trade-sphere/pkg/storage"
)

// Registry gates token membership changes behind the administrator.
type Registry struct {
	Store storage.TokenStore
	Admin string
	now   func() time.Time
}

// New creates a Registry administered by admin, which must already be normalised.
func New(store storage.TokenStore, admin string) *Registry {
	return &Registry{Store: store, Admin: admin, now: time.Now}
}

// Add marks token as supported. Adding a member again is a successful no-op.
func (r *Registry) Add(ctx context.Context, caller, token string) (bool, error) {
	if !models.RolesOf(caller, nil, r.Admin, "").Has(models.RoleAdmin) {
		return false, models.Errorf(models.CodeUnauthorized, "only the administrator may add tokens")
	}
	entry := models.SupportedToken{Token: token, AddedBy: caller, AddedAt: r.now()}
	if err := r.Store.PutSupportedToken(ctx, entry); err != nil {
		return false, models.Wrap(models.CodeInternal, err, "failed to store supported token")
	}
	return true, nil
}

// Remove drops token from the registry. Removing a non-member succeeds.
func (r *Registry) Remove(ctx context.Context, caller, token string) (bool, error) {
	if !models.RolesOf(caller, nil, r.Admin, "").Has(models.RoleAdmin) {
		return false, models.Errorf(models.CodeUnauthorized, "only the administrator may remove tokens")
	}
	if err := r.Store.DeleteSupportedToken(ctx, token); err != nil {
		return false, models.Wrap(models.CodeInternal, err, "failed to delete supported token")
	}
	return true, nil
}

// IsSupported is a pure lookup.
func (r *Registry) IsSupported(ctx context.Context, token string) (bool, error) {
	ok, err := r.Store.IsSupportedToken(ctx, token)
	if err != nil {
		return false, models.Wrap(models.CodeInternal, err, "failed to look up token")
	}
	return ok, nil
}

// List returns every supported token.
func (r *Registry) List(ctx context.Context) ([]models.SupportedToken, error) {
	tokens, err := r.Store.ListSupportedTokens(ctx)
	if err != nil {
		return nil, models.Wrap(models.CodeInternal, err, "failed to list tokens")
	}
	return tokens, nil
}
