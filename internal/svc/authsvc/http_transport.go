package authsvc

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mkrupp/shopzone/internal/domain"
	"github.com/mkrupp/shopzone/internal/infra/logging"
	http_ "github.com/mkrupp/shopzone/internal/infra/transport/http"
)

const maxRequestBytes = 1 << 16

// HTTPTransportConfig contains configuration parameters for the HTTP transport layer.
type HTTPTransportConfig struct {
	http_.HTTPTransportConfig
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Success   bool      `json:"success"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// HTTPTransport exposes the AuthService as a JSON API.
type HTTPTransport struct {
	authSvc *AuthService
	router  chi.Router
	log     logging.Logger
	cfg     HTTPTransportConfig
	now     func() time.Time
}

var _ http_.HTTPTransport = (*HTTPTransport)(nil)

// NewHTTPTransport creates a new HTTPTransport with the routes:
// - POST /auth/register
// - POST /auth/login
// - GET /auth/me
// - POST /auth/logout
// - GET /health.
func NewHTTPTransport(authSvc *AuthService, cfg HTTPTransportConfig) *HTTPTransport {
	ht := &HTTPTransport{
		authSvc: authSvc,
		router:  chi.NewRouter(),
		log:     logging.GetLogger("svc.authsvc.http_transport"),
		cfg:     cfg,
		now:     time.Now,
	}

	ht.router.Post("/auth/register", ht.HandleRegister)
	ht.router.Post("/auth/login", ht.HandleLogin)
	ht.router.Get("/auth/me", ht.HandleMe)
	ht.router.Post("/auth/logout", ht.HandleLogout)
	ht.router.Get("/health", ht.HandleHealth)

	return ht
}

func (ht *HTTPTransport) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ht.router.ServeHTTP(w, r)
}

func (ht *HTTPTransport) requestLog(r *http.Request) logging.Logger {
	return ht.log.With(logging.Group("http", "method", r.Method, "url", r.URL.String()))
}

// HandleRegister creates an account from a JSON {name,email,password} body.
func (ht *HTTPTransport) HandleRegister(w http.ResponseWriter, r *http.Request) {
	_ = ht.handleRegister(w, r)
}

func (ht *HTTPTransport) handleRegister(w http.ResponseWriter, r *http.Request) (err error) {
	log := ht.requestLog(r)

	defer func(ctx context.Context) {
		if err != nil {
			log.DebugContext(ctx, "register request rejected", "error", err)
		}
	}(r.Context())

	var req domain.RegisterRequest
	if err := http_.DecodeJSON(w, r, &req, maxRequestBytes); err != nil {
		http_.RespondError(w, http.StatusBadRequest, "Invalid request body")

		return err
	}

	if req.Name == "" || req.Email == "" || req.Password == "" {
		http_.RespondError(w, http.StatusBadRequest, "Please provide name, email, and password")

		return domain.ErrValidation
	}

	token, user, err := ht.authSvc.Register(r.Context(), req)

	var verr *domain.ValidationError

	switch {
	case errors.As(err, &verr):
		return ht.respond(w, http.StatusBadRequest, domain.AuthResponse{
			Message: verr.Fields[0].Message,
			Errors:  verr.Fields,
		})
	case errors.Is(err, domain.ErrDuplicateAccount):
		http_.RespondError(w, http.StatusConflict, "User already exists with this email")

		return err
	case err != nil:
		http_.RespondError(w, http.StatusInternalServerError, "Server error during registration")

		return err
	}

	return ht.respond(w, http.StatusCreated, domain.AuthResponse{
		Success: true,
		Message: "Account created successfully!",
		Token:   token,
		User:    &user,
	})
}

// HandleLogin exchanges a JSON {email,password} body for a token.
func (ht *HTTPTransport) HandleLogin(w http.ResponseWriter, r *http.Request) {
	_ = ht.handleLogin(w, r)
}

func (ht *HTTPTransport) handleLogin(w http.ResponseWriter, r *http.Request) (err error) {
	log := ht.requestLog(r)

	defer func(ctx context.Context) {
		if err != nil {
			log.DebugContext(ctx, "login request rejected", "error", err)
		}
	}(r.Context())

	var req domain.LoginRequest
	if err := http_.DecodeJSON(w, r, &req, maxRequestBytes); err != nil {
		http_.RespondError(w, http.StatusBadRequest, "Invalid request body")

		return err
	}

	if req.Email == "" || req.Password == "" {
		http_.RespondError(w, http.StatusBadRequest, "Please provide email and password")

		return domain.ErrValidation
	}

	token, user, err := ht.authSvc.Login(r.Context(), req)

	switch {
	case errors.Is(err, domain.ErrInvalidCredentials):
		http_.RespondError(w, http.StatusUnauthorized, "Invalid email or password")

		return err
	case err != nil:
		http_.RespondError(w, http.StatusInternalServerError, "Server error during login")

		return err
	}

	return ht.respond(w, http.StatusOK, domain.AuthResponse{
		Success: true,
		Message: "Login successful!",
		Token:   token,
		User:    &user,
	})
}

// HandleMe returns the user the bearer token was issued for.
func (ht *HTTPTransport) HandleMe(w http.ResponseWriter, r *http.Request) {
	_ = ht.handleMe(w, r)
}

func (ht *HTTPTransport) handleMe(w http.ResponseWriter, r *http.Request) (err error) {
	log := ht.requestLog(r)

	defer func(ctx context.Context) {
		if err != nil {
			log.DebugContext(ctx, "me request rejected", "error", err)
		}
	}(r.Context())

	token, ok := http_.BearerToken(r)
	if !ok {
		http_.RespondError(w, http.StatusUnauthorized, "No token provided")

		return domain.ErrNoAuthToken
	}

	user, err := ht.authSvc.Me(r.Context(), token)

	switch {
	case errors.Is(err, domain.ErrInvalidAuthToken):
		http_.RespondError(w, http.StatusUnauthorized, "Invalid token")

		return err
	case errors.Is(err, domain.ErrAccountNotFound):
		http_.RespondError(w, http.StatusNotFound, "User not found")

		return err
	case err != nil:
		http_.RespondError(w, http.StatusInternalServerError, "Server error")

		return err
	}

	return ht.respond(w, http.StatusOK, domain.AuthResponse{Success: true, User: &user})
}

// HandleLogout acknowledges a logout. Tokens are stateless, so nothing is revoked.
func (ht *HTTPTransport) HandleLogout(w http.ResponseWriter, _ *http.Request) {
	_ = ht.respond(w, http.StatusOK, domain.AuthResponse{
		Success: true,
		Message: "Logged out successfully",
	})
}

// HandleHealth reports that the service is up.
func (ht *HTTPTransport) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	_ = ht.respond(w, http.StatusOK, HealthResponse{
		Success:   true,
		Message:   "ShopZone API is running",
		Timestamp: ht.now().UTC(),
	})
}

func (ht *HTTPTransport) respond(w http.ResponseWriter, status int, body any) error {
	if err := http_.RespondJSON(w, status, body); err != nil {
		return fmt.Errorf("respond: %w", err)
	}

	return nil
}
