package coordinator

import (
	"context"

	"github.com/chris/trade-sphere/pkg/events"
	"github.com/chris/trade-sphere/pkg/models"
)

// AddSupportedToken lets the administrator accept token for settlement.
func (c *Coordinator) AddSupportedToken(ctx context.Context, caller, token string) (bool, error) {
	var ok bool
	err := c.write(EntryAddSupportedToken, func() error {
		who, err := normalizeCaller(caller)
		if err != nil {
			return err
		}
		tok, err := models.NormalizePrincipal(token)
		if err != nil {
			return err
		}
		if ok, err = c.registry.Add(ctx, who, tok); err != nil {
			return err
		}
		c.emit(ctx, events.TypeTokenAdded, nil, map[string]string{"token": tok, "caller": who})
		return nil
	})
	return ok, err
}

// RemoveSupportedToken lets the administrator withdraw token. Existing trades
// in the token are unaffected.
func (c *Coordinator) RemoveSupportedToken(ctx context.Context, caller, token string) (bool, error) {
	var ok bool
	err := c.write(EntryRemoveSupportedToken, func() error {
		who, err := normalizeCaller(caller)
		if err != nil {
			return err
		}
		tok, err := models.NormalizePrincipal(token)
		if err != nil {
			return err
		}
		if ok, err = c.registry.Remove(ctx, who, tok); err != nil {
			return err
		}
		c.emit(ctx, events.TypeTokenRemoved, nil, map[string]string{"token": tok, "caller": who})
		return nil
	})
	return ok, err
}

// IsSupportedToken reports registry membership.
func (c *Coordinator) IsSupportedToken(ctx context.Context, token string) (bool, error) {
	var ok bool
	err := c.read(EntryIsSupportedToken, func() error {
		tok, err := models.NormalizePrincipal(token)
		if err != nil {
			return err
		}
		ok, err = c.registry.IsSupported(ctx, tok)
		return err
	})
	return ok, err
}

// ListSupportedTokens returns the registry contents.
func (c *Coordinator) ListSupportedTokens(ctx context.Context) ([]models.SupportedToken, error) {
	var out []models.SupportedToken
	err := c.read(EntryListSupportedTokens, func() error {
		var err error
		out, err = c.registry.List(ctx)
		return err
	})
	return out, err
}
