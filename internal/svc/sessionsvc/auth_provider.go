package sessionsvc

import (
	"context"
	"errors"
	"fmt"

	"github.com/mkrupp/shopzone/internal/domain"
	"github.com/mkrupp/shopzone/internal/svc/authsvc/authclient"
)

const (
	ModeDemo   = "demo"
	ModeRemote = "remote"
)

var ErrUnknownMode = errors.New("unknown auth mode")

// AuthProvider issues and resolves session tokens.
type AuthProvider interface {
	Register(ctx context.Context, req domain.RegisterRequest) (domain.Session, error)
	Login(ctx context.Context, req domain.LoginRequest) (domain.Session, error)
	// Me returns the user token belongs to, or domain.ErrInvalidAuthToken.
	Me(ctx context.Context, token string) (domain.User, error)
	Logout(ctx context.Context, token string) error
}

// NewAuthProvider returns the provider selected by cfg.Mode.
func NewAuthProvider(cfg Config) (AuthProvider, error) {
	switch cfg.Mode {
	case ModeDemo:
		return NewInMemoryAuthProvider(), nil
	case ModeRemote:
		return NewRemoteAuthProvider(authclient.NewHTTPClient(cfg.Remote, nil)), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMode, cfg.Mode)
	}
}

// RemoteAuthProvider delegates to the auth API.
type RemoteAuthProvider struct {
	client authclient.Client
}

var _ AuthProvider = (*RemoteAuthProvider)(nil)

func NewRemoteAuthProvider(client authclient.Client) *RemoteAuthProvider {
	return &RemoteAuthProvider{client: client}
}

func (p *RemoteAuthProvider) Register(ctx context.Context, req domain.RegisterRequest) (domain.Session, error) {
	token, user, err := p.client.Register(ctx, req)
	if err != nil {
		return domain.Session{}, fmt.Errorf("register: %w", err)
	}

	return domain.Session{Token: token, User: user}, nil
}

func (p *RemoteAuthProvider) Login(ctx context.Context, req domain.LoginRequest) (domain.Session, error) {
	token, user, err := p.client.Login(ctx, req)
	if err != nil {
		return domain.Session{}, fmt.Errorf("login: %w", err)
	}

	return domain.Session{Token: token, User: user}, nil
}

func (p *RemoteAuthProvider) Me(ctx context.Context, token string) (domain.User, error) {
	user, err := p.client.Me(ctx, token)
	if err != nil {
		return domain.User{}, fmt.Errorf("me: %w", err)
	}

	return user, nil
}

func (p *RemoteAuthProvider) Logout(ctx context.Context, token string) error {
	if err := p.client.Logout(ctx, token); err != nil {
		return fmt.Errorf("logout: %w", err)
	}

	return nil
}
