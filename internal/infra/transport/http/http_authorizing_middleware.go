package http

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/mkrupp/shopzone/internal/domain"
	context_ "github.com/mkrupp/shopzone/internal/infra/context"
	"github.com/mkrupp/shopzone/internal/infra/logging"
)

const AuthorizationHeader = "Authorization"

// Authenticator resolves a bearer token to the user it was issued for.
type Authenticator interface {
	Me(ctx context.Context, token string) (domain.User, error)
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" header.
func BearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get(AuthorizationHeader)
	if header == "" {
		return "", false
	}

	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return "", false
	}

	token = strings.TrimSpace(token)

	return token, token != ""
}

// AuthorizingMiddleware rejects requests without a valid bearer token.
// The resolved user is stored in the request context.
func AuthorizingMiddleware(
	next http.Handler,
	auth Authenticator,
	log logging.Logger,
) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := BearerToken(r)
		if !ok {
			log.WarnContext(r.Context(), "no token provided")
			RespondError(w, http.StatusUnauthorized, "Access token required")

			return
		}

		user, err := auth.Me(r.Context(), token)
		if err != nil {
			log.WarnContext(r.Context(), "resolve token failed", "error", err)

			if errors.Is(err, domain.ErrNetwork) {
				RespondError(w, http.StatusBadGateway, err.Error())
			} else {
				RespondError(w, http.StatusUnauthorized, "Invalid or expired token")
			}

			return
		}

		next.ServeHTTP(w, r.WithContext(context_.WithUser(r.Context(), user)))
	})
}
