package authsvc

import (
	"crypto/rsa"
	"errors"
	"fmt"
	"time"

	"github.com/go-jose/go-jose/v4"
	"github.com/go-jose/go-jose/v4/jwt"

	"github.com/mkrupp/shopzone/internal/domain"
)

// TokenClaims are the claims carried by an access token.
type TokenClaims struct {
	jwt.Claims

	Email string `json:"email,omitempty"`
}

// TokenSigner issues and verifies RS256 JWT access tokens.
type TokenSigner struct {
	key      *rsa.PrivateKey
	signer   jose.Signer
	issuer   string
	lifetime time.Duration
	now      func() time.Time
}

// NewTokenSigner creates a signer issuing tokens valid for lifetime.
func NewTokenSigner(key *rsa.PrivateKey, issuer string, lifetime time.Duration) (*TokenSigner, error) {
	signer, err := jose.NewSigner(
		jose.SigningKey{Algorithm: jose.RS256, Key: key},
		(&jose.SignerOptions{}).WithType("JWT"),
	)
	if err != nil {
		return nil, fmt.Errorf("new signer: %w", err)
	}

	return &TokenSigner{
		key:      key,
		signer:   signer,
		issuer:   issuer,
		lifetime: lifetime,
		now:      time.Now,
	}, nil
}

// Issue returns a signed token for the account.
func (ts *TokenSigner) Issue(account *domain.Account) (string, TokenClaims, error) {
	now := ts.now()

	claims := TokenClaims{
		Claims: jwt.Claims{
			Issuer:   ts.issuer,
			Subject:  account.ID,
			IssuedAt: jwt.NewNumericDate(now),
			Expiry:   jwt.NewNumericDate(now.Add(ts.lifetime)),
		},
		Email: account.Email,
	}

	token, err := jwt.Signed(ts.signer).Claims(claims).Serialize()
	if err != nil {
		return "", TokenClaims{}, fmt.Errorf("sign token: %w", err)
	}

	return token, claims, nil
}

// Verify checks the signature, issuer and expiry of token. Every failure
// matches domain.ErrInvalidAuthToken.
func (ts *TokenSigner) Verify(token string) (TokenClaims, error) {
	parsed, err := jwt.ParseSigned(token, []jose.SignatureAlgorithm{jose.RS256})
	if err != nil {
		return TokenClaims{}, errors.Join(domain.ErrInvalidAuthToken, fmt.Errorf("parse token: %w", err))
	}

	var claims TokenClaims
	if err := parsed.Claims(&ts.key.PublicKey, &claims); err != nil {
		return TokenClaims{}, errors.Join(domain.ErrInvalidAuthToken, fmt.Errorf("verify signature: %w", err))
	}

	if err := claims.ValidateWithLeeway(jwt.Expected{Issuer: ts.issuer, Time: ts.now()}, 0); err != nil {
		return TokenClaims{}, errors.Join(domain.ErrInvalidAuthToken, fmt.Errorf("validate claims: %w", err))
	}

	if claims.Subject == "" {
		return TokenClaims{}, fmt.Errorf("%w: missing subject", domain.ErrInvalidAuthToken)
	}

	return claims, nil
}
