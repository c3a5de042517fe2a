package auth

import (
	"context"

	"github.com/sweedalp/smart-bookmark-app/internal/domain"
)

type ctxKey struct{}

// WithIdentity attaches the signed-in identity to ctx.
func WithIdentity(ctx context.Context, id domain.Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// IdentityFrom returns the identity attached by the session gate.
func IdentityFrom(ctx context.Context) (domain.Identity, bool) {
	id, ok := ctx.Value(ctxKey{}).(domain.Identity)
	if !ok || id.UserID == "" {
		return domain.Identity{}, false
	}
	return id, true
}
