package authsvc

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/mkrupp/shopzone/internal/domain"
	"github.com/mkrupp/shopzone/internal/infra/logging"
	"github.com/mkrupp/shopzone/internal/repo/user"
)

// AuthConfig contains configuration parameters for the authentication service.
type AuthConfig struct {
	SigningKeyFile string        `env:"SIGNING_KEY_FILE" default:"var/storage/authsvc.key"`
	TokenDuration  time.Duration `env:"TOKEN_DURATION" default:"168h"`
	TokenIssuer    string        `env:"TOKEN_ISSUER" default:"shopzone"`
	BcryptCost     int           `env:"BCRYPT_COST" default:"10"`

	MinNameLength     int `env:"MIN_NAME_LENGTH" default:"2"`
	MinPasswordLength int `env:"MIN_PASSWORD_LENGTH" default:"6"`
}

// Rules returns the registration input rules of the service.
func (cfg AuthConfig) Rules() domain.CredentialRules {
	return domain.CredentialRules{
		MinNameLength:     cfg.MinNameLength,
		MinPasswordLength: cfg.MinPasswordLength,
	}
}

// AuthService registers accounts, logs them in and resolves access tokens.
type AuthService struct {
	Config   AuthConfig
	UserRepo user.Repository
	Tokens   *TokenSigner
	Log      logging.Logger
}

// NewAuthService opens the user repository and loads (or creates) the
// token signing key.
func NewAuthService(ctx context.Context, repoFactory user.RepositoryFactory, cfg AuthConfig) (*AuthService, error) {
	signingKey, err := GetPrivateKey(cfg.SigningKeyFile)
	if err != nil {
		return nil, fmt.Errorf("get private key: %w", err)
	}

	tokens, err := NewTokenSigner(signingKey, cfg.TokenIssuer, cfg.TokenDuration)
	if err != nil {
		return nil, err
	}

	userRepo, err := repoFactory(ctx)
	if err != nil {
		return nil, fmt.Errorf("new user repo: %w", err)
	}

	return &AuthService{
		Config:   cfg,
		UserRepo: userRepo,
		Tokens:   tokens,
		Log:      logging.GetLogger("svc.authsvc.auth_service"),
	}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register validates the input, creates the account and logs it in.
func (s *AuthService) Register(ctx context.Context, req domain.RegisterRequest) (_ string, _ domain.User, err error) {
	email := normalizeEmail(req.Email)
	log := s.Log.With(logging.Group("user", "email", email))

	defer func() {
		if err != nil {
			log.WarnContext(ctx, "register failed", "error", err)
		} else {
			log.InfoContext(ctx, "account registered")
		}
	}()

	if err := s.Config.Rules().ValidateRegistration(req.Name, email, req.Password); err != nil {
		return "", domain.User{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.Config.BcryptCost)
	if err != nil {
		return "", domain.User{}, fmt.Errorf("hash password: %w", err)
	}

	account := &domain.Account{
		Name:         strings.TrimSpace(req.Name),
		Email:        email,
		PasswordHash: hash,
		Role:         domain.RoleUser,
	}

	if err := s.UserRepo.CreateAccount(ctx, account); err != nil {
		return "", domain.User{}, fmt.Errorf("create account: %w", err)
	}

	token, _, err := s.Tokens.Issue(account)
	if err != nil {
		return "", domain.User{}, err
	}

	return token, account.User(), nil
}

// Login checks the credentials and returns a fresh token. Unknown emails
// and wrong passwords both fail with domain.ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, req domain.LoginRequest) (_ string, _ domain.User, err error) {
	email := normalizeEmail(req.Email)
	log := s.Log.With(logging.Group("user", "email", email))

	defer func() {
		if err != nil {
			log.WarnContext(ctx, "login failed", "error", err)
		} else {
			log.DebugContext(ctx, "login successful")
		}
	}()

	account, err := s.UserRepo.GetAccountByEmail(ctx, email)
	if errors.Is(err, domain.ErrAccountNotFound) {
		return "", domain.User{}, domain.ErrInvalidCredentials
	} else if err != nil {
		return "", domain.User{}, fmt.Errorf("get account: %w", err)
	}

	if len(account.PasswordHash) == 0 {
		return "", domain.User{}, domain.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword(account.PasswordHash, []byte(req.Password)); err != nil {
		return "", domain.User{}, domain.ErrInvalidCredentials
	}

	token, claims, err := s.Tokens.Issue(account)
	if err != nil {
		return "", domain.User{}, err
	}

	log = log.With(logging.Group("token",
		"sub", claims.Subject,
		"exp", claims.Expiry.Time().UTC().Format(time.RFC3339),
	))

	return token, account.User(), nil
}

// Me resolves token to the user it was issued for. It fails with
// domain.ErrInvalidAuthToken for bad tokens and domain.ErrAccountNotFound
// when the account no longer exists.
func (s *AuthService) Me(ctx context.Context, token string) (_ domain.User, err error) {
	defer func() {
		if err != nil {
			s.Log.DebugContext(ctx, "token rejected", "error", err)
		}
	}()

	claims, err := s.Tokens.Verify(token)
	if err != nil {
		return domain.User{}, err
	}

	account, err := s.UserRepo.GetAccountByID(ctx, claims.Subject)
	if err != nil {
		return domain.User{}, fmt.Errorf("get account: %w", err)
	}

	return account.User(), nil
}

// Close releases the user repository.
func (s *AuthService) Close() error {
	if err := s.UserRepo.Close(); err != nil {
		return fmt.Errorf("close user repo: %w", err)
	}

	return nil
}
