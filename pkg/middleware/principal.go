package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/chris/trade-sphere/pkg/handlers/response"
	"github.com/chris/trade-sphere/pkg/models"
)

// PrincipalHeader carries the caller identity.
const PrincipalHeader = "X-Principal"

type principalKey struct{}

// WithPrincipal returns a copy of ctx carrying the caller principal.
func WithPrincipal(ctx context.Context, principal string) context.Context {
	return context.WithValue(ctx, principalKey{}, principal)
}

// PrincipalFromContext returns the caller principal, or "" if none was sent.
func PrincipalFromContext(ctx context.Context) string {
	p, _ := ctx.Value(principalKey{}).(string)
	return p
}

// Principal copies the X-Principal header into the request context.
func Principal(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if p := strings.TrimSpace(r.Header.Get(PrincipalHeader)); p != "" {
			r = r.WithContext(WithPrincipal(r.Context(), p))
		}
		next.ServeHTTP(w, r)
	})
}

// RequirePrincipal rejects requests that did not identify a caller.
func RequirePrincipal(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if PrincipalFromContext(r.Context()) == "" {
			response.Fail(w, http.StatusUnauthorized, models.CodeUnauthorized, "%s header is required", PrincipalHeader)
			return
		}
		next.ServeHTTP(w, r)
	})
}
