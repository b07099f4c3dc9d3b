package http

import (
	"context"

	"github.com/opencourse/tarpaulin/internal/tarpaulin/domain"
)

type ctxKey int

const identityKey ctxKey = iota

// WithIdentity attaches the authenticated caller to the request context.
func WithIdentity(ctx context.Context, id domain.Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFrom extracts the authenticated caller, if any.
func IdentityFrom(ctx context.Context) (domain.Identity, bool) {
	id, ok := ctx.Value(identityKey).(domain.Identity)
	return id, ok
}
