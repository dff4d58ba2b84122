// Package sessionsvc holds the client side authentication session.
package sessionsvc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/mkrupp/shopzone/internal/domain"
	"github.com/mkrupp/shopzone/internal/infra/logging"
	"github.com/mkrupp/shopzone/internal/repo/kv"
	"github.com/mkrupp/shopzone/internal/svc/authsvc/authclient"
)

// Config contains configuration parameters for the session store.
type Config struct {
	// Mode is "demo" for the offline provider or "remote" for the auth API.
	Mode              string `env:"MODE" default:"demo"`
	MinNameLength     int    `env:"MIN_NAME_LENGTH" default:"2"`
	MinPasswordLength int    `env:"MIN_PASSWORD_LENGTH" default:"3"`

	Remote authclient.HTTPClientConfig `envPrefix:"REMOTE_"`
}

// ErrIncompleteSession is returned when a provider answers without a token
// or without an identified user.
var ErrIncompleteSession = errors.New("incomplete session")

// Store is either unauthenticated or holds a token and the user it belongs
// to. Token and user are persisted and erased together.
type Store struct {
	cfg      Config
	provider AuthProvider
	storage  kv.Storage
	log      logging.Logger

	mu      sync.Mutex
	session domain.Session

	refresh singleflight.Group
}

// NewStore restores the session persisted in storage. A half-present or
// unreadable session is erased.
func NewStore(ctx context.Context, provider AuthProvider, storage kv.Storage, cfg Config) *Store {
	s := &Store{
		cfg:      cfg,
		provider: provider,
		storage:  storage,
		log:      logging.GetLogger("svc.sessionsvc.store"),
	}

	s.session = s.load(ctx)

	return s
}

func (s *Store) load(ctx context.Context) domain.Session {
	token, hasToken, err := s.storage.Get(ctx, kv.KeyAuthToken)
	if err != nil {
		s.log.WarnContext(ctx, "read session token failed", "error", err)

		return domain.Session{}
	}

	rawUser, hasUser, err := s.storage.Get(ctx, kv.KeyAuthUser)
	if err != nil {
		s.log.WarnContext(ctx, "read session user failed", "error", err)

		return domain.Session{}
	}

	if !hasToken && !hasUser {
		return domain.Session{}
	}

	var session domain.Session

	if hasToken && hasUser {
		session.Token = token

		if err := json.Unmarshal([]byte(rawUser), &session.User); err != nil {
			s.log.WarnContext(ctx, "stored session user is corrupted", "error", err)
		}
	}

	if !session.Valid() {
		s.log.WarnContext(ctx, "discarding incomplete stored session",
			"token", hasToken, "user", hasUser)
		s.erase(ctx)

		return domain.Session{}
	}

	return session
}

func (s *Store) persist(ctx context.Context, session domain.Session) {
	userEntry, err := kv.JSONEntry(kv.KeyAuthUser, session.User)
	if err == nil {
		err = s.storage.Put(ctx, kv.Entry{Key: kv.KeyAuthToken, Value: session.Token}, userEntry)
	}

	if err != nil {
		s.log.WarnContext(ctx, "persist session failed", "error", err)
	}
}

func (s *Store) erase(ctx context.Context) {
	if err := s.storage.Delete(ctx, kv.KeyAuthToken, kv.KeyAuthUser); err != nil {
		s.log.WarnContext(ctx, "erase session failed", "error", err)
	}
}

// adopt makes session the current one. An incomplete session is refused
// and leaves the store unchanged.
func (s *Store) adopt(ctx context.Context, session domain.Session) error {
	if !session.Valid() {
		return ErrIncompleteSession
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.session = session
	s.persist(ctx, session)

	return nil
}

// clear drops the session. With a non-empty onlyToken it only does so while
// that token is still the current one.
func (s *Store) clear(ctx context.Context, onlyToken string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if onlyToken != "" && s.session.Token != onlyToken {
		return
	}

	s.session = domain.Session{}
	s.erase(ctx)
}

func (s *Store) rules() domain.CredentialRules {
	return domain.CredentialRules{
		MinNameLength:     s.cfg.MinNameLength,
		MinPasswordLength: s.cfg.MinPasswordLength,
	}
}

// Register validates the input, creates the account and signs it in.
// It fails with *domain.ValidationError or domain.ErrDuplicateAccount.
func (s *Store) Register(ctx context.Context, name, email, password string) (_ domain.User, err error) {
	email = strings.TrimSpace(email)
	log := s.log.With(logging.Group("user", "email", email))

	defer func() {
		if err != nil {
			log.DebugContext(ctx, "register failed", "error", err)
		} else {
			log.InfoContext(ctx, "registered")
		}
	}()

	if err := s.rules().ValidateRegistration(name, email, password); err != nil {
		return domain.User{}, err
	}

	session, err := s.provider.Register(ctx, domain.RegisterRequest{
		Name:     strings.TrimSpace(name),
		Email:    email,
		Password: password,
	})
	if err != nil {
		return domain.User{}, err
	}

	if err := s.adopt(ctx, session); err != nil {
		return domain.User{}, err
	}

	return session.User, nil
}

// Login signs in with email and password. It fails with
// *domain.ValidationError, domain.ErrInvalidCredentials or domain.ErrNetwork.
func (s *Store) Login(ctx context.Context, email, password string) (_ domain.User, err error) {
	email = strings.TrimSpace(email)
	log := s.log.With(logging.Group("user", "email", email))

	defer func() {
		if err != nil {
			log.DebugContext(ctx, "login failed", "error", err)
		} else {
			log.InfoContext(ctx, "logged in")
		}
	}()

	if err := domain.ValidateLogin(email, password); err != nil {
		return domain.User{}, err
	}

	session, err := s.provider.Login(ctx, domain.LoginRequest{Email: email, Password: password})
	if err != nil {
		return domain.User{}, err
	}

	if err := s.adopt(ctx, session); err != nil {
		return domain.User{}, err
	}

	return session.User, nil
}

// RefreshSession asks the provider who the held token belongs to. Any
// failure signs the session out and is returned. Concurrent calls share one
// request.
func (s *Store) RefreshSession(ctx context.Context) (domain.User, error) {
	token := s.Token()
	if token == "" {
		return domain.User{}, domain.ErrNotAuthenticated
	}

	v, err, _ := s.refresh.Do(token, func() (any, error) {
		user, err := s.provider.Me(ctx, token)
		if err == nil && user.ID == "" {
			err = ErrIncompleteSession
		}

		if err != nil {
			s.log.InfoContext(ctx, "session refresh failed, signing out", "error", err)
			s.clear(ctx, token)

			return domain.User{}, fmt.Errorf("refresh session: %w", err)
		}

		s.mu.Lock()
		defer s.mu.Unlock()

		if s.session.Token == token {
			s.session.User = user
			s.persist(ctx, s.session)
		}

		return user, nil
	})
	if err != nil {
		return domain.User{}, err //nolint:wrapcheck
	}

	return v.(domain.User), nil //nolint:forcetypeassert
}

// Logout notifies the provider and then always clears the session.
func (s *Store) Logout(ctx context.Context) {
	if token := s.Token(); token != "" {
		if err := s.provider.Logout(ctx, token); err != nil {
			s.log.WarnContext(ctx, "logout notification failed", "error", err)
		}
	}

	s.clear(ctx, "")
	s.log.DebugContext(ctx, "logged out")
}

// Session returns a copy of the current session.
func (s *Store) Session() domain.Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.session
}

func (s *Store) IsAuthenticated() bool {
	return s.Session().Valid()
}

// User returns the signed in user and whether there is one.
func (s *Store) User() (domain.User, bool) {
	session := s.Session()

	return session.User, session.Valid()
}

func (s *Store) Token() string {
	return s.Session().Token
}

// HasRole reports whether the signed in user carries role.
func (s *Store) HasRole(role string) bool {
	user, ok := s.User()

	return ok && user.Role == role
}

// DisplayName is the user's name, falling back to the email, "User", or
// "Guest" when nobody is signed in.
func (s *Store) DisplayName() string {
	user, ok := s.User()

	switch {
	case !ok:
		return "Guest"
	case user.Name != "":
		return user.Name
	case user.Email != "":
		return user.Email
	default:
		return "User"
	}
}
