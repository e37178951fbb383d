package domain

import "context"

// Identity is the authenticated caller decoded from a token.
// It is rebuilt on every request and never persisted.
type Identity struct {
	Subject  string `json:"sub"`
	Username string `json:"username"`
}

type identityKey struct{}

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFrom returns the identity stored in ctx, if any.
func IdentityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok
}
