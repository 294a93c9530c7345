package auth

import "context"

type principalContextKey struct{}

// WithPrincipal attaches the authenticated principal to a request context.
// Only the gate should call this.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, p)
}

// PrincipalFromContext returns the principal the gate admitted, if any.
// Handlers must use this instead of reading the Authorization header.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalContextKey{}).(Principal)
	return p, ok
}
