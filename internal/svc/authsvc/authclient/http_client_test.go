package authclient_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkrupp/shopzone/internal/domain"
	context_ "github.com/mkrupp/shopzone/internal/infra/context"
	http_ "github.com/mkrupp/shopzone/internal/infra/transport/http"
	. "github.com/mkrupp/shopzone/internal/svc/authsvc/authclient"
)

var jane = domain.User{ID: "1", Email: "jane@example.com", Name: "Jane", Role: domain.RoleUser}

func fakeAuthAPI(t *testing.T) *httptest.Server {
	t.Helper()

	router := chi.NewRouter()

	router.Post("/api/auth/register", func(w http.ResponseWriter, r *http.Request) {
		var req domain.RegisterRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		switch req.Email {
		case "taken@example.com":
			http_.RespondError(w, http.StatusConflict, "User already exists with this email")
		case "bad":
			_ = http_.RespondJSON(w, http.StatusBadRequest, domain.AuthResponse{
				Message: "Please enter a valid email address",
				Errors:  []domain.FieldError{{Field: "email", Message: "Please enter a valid email address"}},
			})
		default:
			_ = http_.RespondJSON(w, http.StatusCreated, domain.AuthResponse{
				Success: true, Token: "tok-1", User: &jane,
			})
		}
	})

	router.Post("/api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var req domain.LoginRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		if req.Email == "anonymous@example.com" {
			_ = http_.RespondJSON(w, http.StatusOK, domain.AuthResponse{
				Success: true, Token: "tok-2", User: &domain.User{Email: req.Email},
			})

			return
		}

		if req.Password != "secret1" {
			http_.RespondError(w, http.StatusUnauthorized, "Invalid email or password")

			return
		}

		_ = http_.RespondJSON(w, http.StatusOK, domain.AuthResponse{Success: true, Token: "tok-1", User: &jane})
	})

	router.Get("/api/auth/me", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "trace-123", r.Header.Get(http_.TraceIDHeader))

		switch token, _ := http_.BearerToken(r); token {
		case "tok-1":
			_ = http_.RespondJSON(w, http.StatusOK, domain.AuthResponse{Success: true, User: &jane})
		case "orphan":
			http_.RespondError(w, http.StatusNotFound, "User not found")
		case "boom":
			http_.RespondError(w, http.StatusInternalServerError, "Server error")
		default:
			http_.RespondError(w, http.StatusUnauthorized, "Invalid token")
		}
	})

	router.Post("/api/auth/logout", func(w http.ResponseWriter, _ *http.Request) {
		_ = http_.RespondJSON(w, http.StatusOK, domain.AuthResponse{Success: true, Message: "Logged out successfully"})
	})

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	return srv
}

func newClient(baseURL string) *HTTPClient {
	return NewHTTPClient(HTTPClientConfig{
		BaseURL:            baseURL + "/api/",
		Timeout:            time.Second,
		BreakerFailures:    3,
		BreakerOpenTimeout: time.Minute,
	}, nil)
}

func TestHTTPClient_Register(t *testing.T) {
	t.Parallel()

	client := newClient(fakeAuthAPI(t).URL)

	token, user, err := client.Register(t.Context(), domain.RegisterRequest{
		Name: "Jane", Email: "jane@example.com", Password: "secret1",
	})
	require.NoError(t, err)
	assert.Equal(t, "tok-1", token)
	assert.Equal(t, jane, user)

	_, _, err = client.Register(t.Context(), domain.RegisterRequest{
		Name: "Jane", Email: "taken@example.com", Password: "secret1",
	})
	require.ErrorIs(t, err, domain.ErrDuplicateAccount)

	_, _, err = client.Register(t.Context(), domain.RegisterRequest{Name: "Jane", Email: "bad", Password: "secret1"})
	require.ErrorIs(t, err, domain.ErrValidation)

	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.True(t, verr.Has("email"))
}

func TestHTTPClient_Login(t *testing.T) {
	t.Parallel()

	client := newClient(fakeAuthAPI(t).URL)

	token, user, err := client.Login(t.Context(), domain.LoginRequest{Email: "jane@example.com", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, "tok-1", token)
	assert.Equal(t, jane, user)

	_, _, err = client.Login(t.Context(), domain.LoginRequest{Email: "jane@example.com", Password: "nope"})
	require.ErrorIs(t, err, domain.ErrInvalidCredentials)

	_, _, err = client.Login(t.Context(), domain.LoginRequest{Email: "anonymous@example.com", Password: "secret1"})

	var remote *domain.RemoteError
	require.ErrorAs(t, err, &remote)
	assert.Equal(t, http.StatusOK, remote.StatusCode)
}

func TestHTTPClient_MeAndLogout(t *testing.T) {
	t.Parallel()

	client := newClient(fakeAuthAPI(t).URL)
	ctx := context_.WithTraceID(t.Context(), "trace-123")

	user, err := client.Me(ctx, "tok-1")
	require.NoError(t, err)
	assert.Equal(t, jane, user)

	_, err = client.Me(ctx, "expired")
	require.ErrorIs(t, err, domain.ErrInvalidAuthToken)

	_, err = client.Me(ctx, "orphan")
	require.ErrorIs(t, err, domain.ErrAccountNotFound)

	_, err = client.Me(ctx, "boom")

	var remote *domain.RemoteError
	require.ErrorAs(t, err, &remote)
	assert.Equal(t, http.StatusInternalServerError, remote.StatusCode)
	assert.Equal(t, "Server error", remote.Message)

	require.NoError(t, client.Logout(ctx, "tok-1"))
}

func TestHTTPClient_Unreachable(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	client := newClient(url)

	for range 3 {
		_, _, err := client.Login(t.Context(), domain.LoginRequest{Email: "jane@example.com", Password: "secret1"})
		require.ErrorIs(t, err, domain.ErrNetwork)
		assert.False(t, errors.Is(err, gobreaker.ErrOpenState))
	}

	// three consecutive failures open the breaker
	_, err := client.Me(t.Context(), "tok-1")
	require.ErrorIs(t, err, domain.ErrNetwork)
	require.ErrorIs(t, err, gobreaker.ErrOpenState)
}

func TestHTTPClient_RejectionsKeepBreakerClosed(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		http_.RespondError(w, http.StatusUnauthorized, "Invalid email or password")
	}))
	t.Cleanup(srv.Close)

	client := newClient(srv.URL)

	for range 5 {
		_, _, err := client.Login(t.Context(), domain.LoginRequest{Email: "jane@example.com", Password: "nope"})
		require.ErrorIs(t, err, domain.ErrInvalidCredentials)
	}

	assert.Equal(t, int32(5), calls.Load())
}
