package httpx

import (
	"context"

	"license-desk/backend/internal/security"
)

type ctxKey int

const (
	ctxKeyRequestID ctxKey = iota
	ctxKeyIdentity
)

// WithRequestID stores the request id in ctx.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKeyRequestID, id)
}

// RequestIDFromContext returns the request id, or "" when unset.
func RequestIDFromContext(ctx context.Context) string {
	if s, ok := ctx.Value(ctxKeyRequestID).(string); ok {
		return s
	}
	return ""
}

// WithIdentity stores the authenticated caller in ctx.
func WithIdentity(ctx context.Context, ident *security.Identity) context.Context {
	return context.WithValue(ctx, ctxKeyIdentity, ident)
}

// IdentityFromContext returns the authenticated caller set by the auth
// middleware.
func IdentityFromContext(ctx context.Context) (*security.Identity, bool) {
	ident, ok := ctx.Value(ctxKeyIdentity).(*security.Identity)
	return ident, ok
}
