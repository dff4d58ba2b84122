package authclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/mkrupp/shopzone/internal/domain"
	context_ "github.com/mkrupp/shopzone/internal/infra/context"
	"github.com/mkrupp/shopzone/internal/infra/logging"
	http_ "github.com/mkrupp/shopzone/internal/infra/transport/http"
)

const maxResponseBytes = 1 << 20

// HTTPClientConfig holds configuration for the HTTP auth client.
type HTTPClientConfig struct {
	// BaseURL is where the auth API routes are mounted.
	BaseURL string        `env:"BASE_URL" default:"http://localhost:8080/api"`
	Timeout time.Duration `env:"TIMEOUT" default:"10s"`

	// The breaker opens after BreakerFailures consecutive connection
	// failures and stays open for BreakerOpenTimeout.
	BreakerFailures    uint32        `env:"BREAKER_FAILURES" default:"5"`
	BreakerOpenTimeout time.Duration `env:"BREAKER_OPEN_TIMEOUT" default:"30s"`
}

// HTTPClient implements Client over the JSON auth API.
type HTTPClient struct {
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[*response]
	log        logging.Logger
	cfg        HTTPClientConfig
}

var _ Client = (*HTTPClient)(nil)

type response struct {
	status int
	body   domain.AuthResponse
}

// NewHTTPClient creates a new HTTPClient with the given configuration.
// If httpClient is nil, a client with cfg.Timeout is used.
func NewHTTPClient(cfg HTTPClientConfig, httpClient *http.Client) *HTTPClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout} //nolint:exhaustruct
	}

	log := logging.GetLogger("svc.authsvc.http_client")

	failures := cfg.BreakerFailures
	if failures == 0 {
		failures = 1
	}

	//nolint:exhaustruct
	breaker := gobreaker.NewCircuitBreaker[*response](gobreaker.Settings{
		Name:        "authclient",
		MaxRequests: 1,
		Timeout:     cfg.BreakerOpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		IsSuccessful: func(err error) bool {
			return err == nil || !isServerFailure(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("circuit breaker state changed", "name", name, "from", from.String(), "to", to.String())
		},
	})

	return &HTTPClient{
		httpClient: httpClient,
		breaker:    breaker,
		log:        log,
		cfg:        cfg,
	}
}

// isServerFailure reports whether err means the server is unreachable or broken,
// as opposed to rejecting the request.
func isServerFailure(err error) bool {
	var remote *domain.RemoteError
	if errors.As(err, &remote) {
		return remote.StatusCode >= http.StatusInternalServerError
	}

	return errors.Is(err, domain.ErrNetwork)
}

func (hc *HTTPClient) do(ctx context.Context, method, path, token string, body any) (resp *response, err error) {
	log := hc.log.With(logging.Group("http", "method", method, "path", path))

	defer func() {
		if err != nil {
			log.WarnContext(ctx, "auth api call failed", "error", err)
		} else {
			log.DebugContext(ctx, "auth api call", "status", resp.status)
		}
	}()

	resp, err = hc.breaker.Execute(func() (*response, error) {
		return hc.roundTrip(ctx, method, path, token, body)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, errors.Join(domain.ErrNetwork, err)
	} else if err != nil {
		return nil, err
	}

	return resp, nil
}

func (hc *HTTPClient) roundTrip(ctx context.Context, method, path, token string, body any) (*response, error) {
	var reqBody io.Reader

	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}

		reqBody = bytes.NewReader(buf)
	}

	url := strings.TrimSuffix(hc.cfg.BaseURL, "/") + path

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}

	req.Header.Set("Accept", "application/json")

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if token != "" {
		req.Header.Set(http_.AuthorizationHeader, "Bearer "+token)
	}

	if traceID, ok := context_.TraceIDFromContext(ctx); ok {
		req.Header.Set(http_.TraceIDHeader, traceID)
	}

	httpResp, err := hc.httpClient.Do(req)
	if err != nil {
		return nil, errors.Join(domain.ErrNetwork, fmt.Errorf("%s %s: %w", method, path, err))
	}
	defer httpResp.Body.Close()

	resp := &response{status: httpResp.StatusCode}

	decodeErr := json.NewDecoder(io.LimitReader(httpResp.Body, maxResponseBytes)).Decode(&resp.body)

	if httpResp.StatusCode >= http.StatusInternalServerError {
		return nil, &domain.RemoteError{StatusCode: httpResp.StatusCode, Message: resp.body.Message}
	}

	if decodeErr != nil {
		return nil, &domain.RemoteError{
			StatusCode: httpResp.StatusCode,
			Message:    fmt.Sprintf("decode response: %v", decodeErr),
		}
	}

	return resp, nil
}

// rejection maps a non-2xx response to an error.
func rejection(resp *response, byStatus map[int]error) error {
	if err, ok := byStatus[resp.status]; ok {
		return err
	}

	if resp.status == http.StatusBadRequest {
		if len(resp.body.Errors) > 0 {
			return &domain.ValidationError{Fields: resp.body.Errors}
		}

		return &domain.ValidationError{Fields: []domain.FieldError{{Field: "request", Message: resp.body.Message}}}
	}

	return &domain.RemoteError{StatusCode: resp.status, Message: resp.body.Message}
}

func authenticated(resp *response) (string, domain.User, error) {
	if resp.body.Token == "" || resp.body.User == nil || resp.body.User.ID == "" {
		return "", domain.User{}, &domain.RemoteError{StatusCode: resp.status, Message: "response without token or user"}
	}

	return resp.body.Token, *resp.body.User, nil
}

// Register implements Client.Register. A 409 maps to domain.ErrDuplicateAccount.
func (hc *HTTPClient) Register(ctx context.Context, req domain.RegisterRequest) (string, domain.User, error) {
	resp, err := hc.do(ctx, http.MethodPost, "/auth/register", "", req)
	if err != nil {
		return "", domain.User{}, err
	}

	if resp.status != http.StatusCreated && resp.status != http.StatusOK {
		return "", domain.User{}, rejection(resp, map[int]error{
			http.StatusConflict: domain.ErrDuplicateAccount,
		})
	}

	return authenticated(resp)
}

// Login implements Client.Login. A 401 maps to domain.ErrInvalidCredentials.
func (hc *HTTPClient) Login(ctx context.Context, req domain.LoginRequest) (string, domain.User, error) {
	resp, err := hc.do(ctx, http.MethodPost, "/auth/login", "", req)
	if err != nil {
		return "", domain.User{}, err
	}

	if resp.status != http.StatusOK {
		return "", domain.User{}, rejection(resp, map[int]error{
			http.StatusUnauthorized: domain.ErrInvalidCredentials,
		})
	}

	return authenticated(resp)
}

// Me implements Client.Me. A 401 maps to domain.ErrInvalidAuthToken and a
// 404 to domain.ErrAccountNotFound.
func (hc *HTTPClient) Me(ctx context.Context, token string) (domain.User, error) {
	resp, err := hc.do(ctx, http.MethodGet, "/auth/me", token, nil)
	if err != nil {
		return domain.User{}, err
	}

	if resp.status != http.StatusOK {
		return domain.User{}, rejection(resp, map[int]error{
			http.StatusUnauthorized: domain.ErrInvalidAuthToken,
			http.StatusNotFound:     domain.ErrAccountNotFound,
		})
	}

	if resp.body.User == nil {
		return domain.User{}, &domain.RemoteError{StatusCode: resp.status, Message: "response without user"}
	}

	return *resp.body.User, nil
}

// Logout implements Client.Logout.
func (hc *HTTPClient) Logout(ctx context.Context, token string) error {
	resp, err := hc.do(ctx, http.MethodPost, "/auth/logout", token, nil)
	if err != nil {
		return err
	}

	if resp.status != http.StatusOK {
		return rejection(resp, nil)
	}

	return nil
}
