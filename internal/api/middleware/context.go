package middleware

import (
	"context"

	"github.com/stockroom/inventory-api/internal/core/domain"
)

type claimsKey struct{}

// WithClaims returns a copy of ctx carrying the verified session claims.
func WithClaims(ctx context.Context, claims *domain.Claims) context.Context {
	return context.WithValue(ctx, claimsKey{}, claims)
}

// ClaimsFrom returns the claims stored by Auth, or nil for anonymous requests.
func ClaimsFrom(ctx context.Context) *domain.Claims {
	claims, _ := ctx.Value(claimsKey{}).(*domain.Claims)
	return claims
}
