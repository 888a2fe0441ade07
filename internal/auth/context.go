package auth

import (
	"context"
	"strings"
)

type claimsKey struct{}

// WithClaims attaches the caller's verified claims to ctx. Nil claims leave ctx unchanged.
func WithClaims(ctx context.Context, claims *Claims) context.Context {
	if claims == nil {
		return ctx
	}
	return context.WithValue(ctx, claimsKey{}, claims)
}

// FromContext returns the claims of the calling device-sync user. It reports false unless the
// claims name both a tenant and a subject, since every store lookup is keyed by the pair.
func FromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(claimsKey{}).(*Claims)
	if !ok || claims == nil {
		return nil, false
	}
	if strings.TrimSpace(claims.TenantID) == "" || strings.TrimSpace(claims.Subject) == "" {
		return nil, false
	}
	return claims, true
}
