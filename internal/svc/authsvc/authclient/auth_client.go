package authclient

import (
	"context"

	"github.com/mkrupp/shopzone/internal/domain"
)

// Client talks to the remote auth API.
type Client interface {
	// Register creates an account and returns its token and user.
	Register(ctx context.Context, req domain.RegisterRequest) (string, domain.User, error)
	// Login exchanges credentials for a token.
	Login(ctx context.Context, req domain.LoginRequest) (string, domain.User, error)
	// Me returns the user the token was issued for.
	Me(ctx context.Context, token string) (domain.User, error)
	// Logout notifies the server that the token is no longer used.
	Logout(ctx context.Context, token string) error
}
