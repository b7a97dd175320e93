package handlers

import "context"

// contextKey is the type of request context keys set by this package.
type contextKey string

// IdentityKey stores the Identity resolved from a verified session token.
const IdentityKey contextKey = "identity"

// Identity is the authenticated caller of a protected request.
type Identity struct {
	AccountID string
	Username  string
}

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, IdentityKey, id)
}

// GetIdentity extracts the Identity from ctx.
func GetIdentity(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(IdentityKey).(Identity)
	return id, ok && id.AccountID != ""
}
