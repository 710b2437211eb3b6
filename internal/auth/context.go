package auth

import "context"

type ctxKey struct{}

var identityKey = ctxKey{}

// WithIdentity returns a copy of ctx carrying the acting identity id.
func WithIdentity(ctx context.Context, identityID string) context.Context {
	return context.WithValue(ctx, identityKey, identityID)
}

// IdentityFrom returns the acting identity id set by the gate, if any.
func IdentityFrom(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(identityKey).(string)
	return id, ok && id != ""
}
