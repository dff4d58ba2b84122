package context

import (
	"context"

	"github.com/mkrupp/shopzone/internal/domain"
)

const contextKeyUser = contextKey("user")

// UserFromContext extracts the authenticated user placed there by the
// authorizing middleware.
func UserFromContext(ctx context.Context) (domain.User, bool) {
	user, ok := ctx.Value(contextKeyUser).(domain.User)

	return user, ok
}

// WithUser returns a copy of ctx carrying the authenticated user.
func WithUser(ctx context.Context, user domain.User) context.Context {
	return context.WithValue(ctx, contextKeyUser, user)
}
