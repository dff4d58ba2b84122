package sessionsvc

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/mkrupp/shopzone/internal/domain"
	"github.com/mkrupp/shopzone/internal/util/encoding"
)

type demoAccount struct {
	password string
	user     domain.User
}

// InMemoryAuthProvider is the offline demo provider. Accounts and tokens
// live only as long as the provider.
//
// Logging in with an email it has never seen, or with a password that does
// not match, provisions a fresh account for that email. This is a demo
// convenience and accepts any password.
type InMemoryAuthProvider struct {
	mu       sync.Mutex
	accounts map[string]demoAccount // by email
	tokens   map[string]string      // token -> email
}

var _ AuthProvider = (*InMemoryAuthProvider)(nil)

func NewInMemoryAuthProvider() *InMemoryAuthProvider {
	return &InMemoryAuthProvider{
		accounts: make(map[string]demoAccount),
		tokens:   make(map[string]string),
	}
}

func (p *InMemoryAuthProvider) Register(_ context.Context, req domain.RegisterRequest) (domain.Session, error) {
	email := strings.TrimSpace(req.Email)

	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.accounts[email]; ok {
		return domain.Session{}, domain.ErrDuplicateAccount
	}

	return p.provision(email, req.Password, strings.TrimSpace(req.Name))
}

func (p *InMemoryAuthProvider) Login(_ context.Context, req domain.LoginRequest) (domain.Session, error) {
	if err := domain.ValidateLogin(req.Email, req.Password); err != nil {
		return domain.Session{}, err
	}

	email := strings.TrimSpace(req.Email)

	p.mu.Lock()
	defer p.mu.Unlock()

	account, ok := p.accounts[email]
	if !ok || account.password != req.Password {
		return p.provision(email, req.Password, domain.EmailLocalPart(email))
	}

	return p.issue(account.user)
}

// provision must be called with p.mu held.
func (p *InMemoryAuthProvider) provision(email, password, name string) (domain.Session, error) {
	id, err := encoding.NewID("demo-")
	if err != nil {
		return domain.Session{}, fmt.Errorf("new user id: %w", err)
	}

	user := domain.User{ID: id, Email: email, Name: name, Role: domain.RoleUser}
	p.accounts[email] = demoAccount{password: password, user: user}

	return p.issue(user)
}

// issue must be called with p.mu held.
func (p *InMemoryAuthProvider) issue(user domain.User) (domain.Session, error) {
	token, err := encoding.NewID("demo_")
	if err != nil {
		return domain.Session{}, fmt.Errorf("new token: %w", err)
	}

	p.tokens[token] = user.Email

	return domain.Session{Token: token, User: user}, nil
}

func (p *InMemoryAuthProvider) Me(_ context.Context, token string) (domain.User, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	email, ok := p.tokens[token]
	if !ok {
		return domain.User{}, domain.ErrInvalidAuthToken
	}

	account, ok := p.accounts[email]
	if !ok {
		return domain.User{}, domain.ErrAccountNotFound
	}

	return account.user, nil
}

func (p *InMemoryAuthProvider) Logout(_ context.Context, token string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	delete(p.tokens, token)

	return nil
}
