package auth

import "context"

type identityContextKey string

const identityKey identityContextKey = "auth_identity"

// Identity carries the opaque user id issued by the external identity
// provider. This service only verifies tokens; it never issues sessions.
type Identity struct {
	UserID string
}

func WithIdentity(ctx context.Context, identity Identity) context.Context {
	return context.WithValue(ctx, identityKey, identity)
}

func IdentityFromContext(ctx context.Context) (Identity, bool) {
	identity, ok := ctx.Value(identityKey).(Identity)
	return identity, ok
}
