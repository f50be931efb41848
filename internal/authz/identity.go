package authz

import "context"

// Identity is the caller identity asserted by a verified bearer token.
type Identity struct {
	UserID   string
	Username string
}

// IsZero reports whether no identity was asserted.
func (i Identity) IsZero() bool {
	return i.UserID == ""
}

type identityKey struct{}

// WithIdentity stores the decoded identity in the context.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFromContext returns the identity set by the auth middleware, or a zero Identity.
func IdentityFromContext(ctx context.Context) Identity {
	if id, ok := ctx.Value(identityKey{}).(Identity); ok {
		return id
	}
	return Identity{}
}
