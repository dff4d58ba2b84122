package http

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mkrupp/shopzone/internal/infra/logging"
)

// HTTPTransportConfig contains configuration parameters for HTTP servers.
type HTTPTransportConfig struct {
	ServerAddr        string        `env:"SERVER_ADDR" default:":8080"`
	ReadHeaderTimeout time.Duration `env:"READ_HEADER_TIMEOUT" default:"5s"`
	ReadTimeout       time.Duration `env:"READ_TIMEOUT" default:"10s"`
	WriteTimeout      time.Duration `env:"WRITE_TIMEOUT" default:"10s"`
	ShutdownTimeout   time.Duration `env:"SHUTDOWN_TIMEOUT" default:"10s"`
	// PathPrefix is where the service routes are mounted.
	PathPrefix string `env:"PATH_PREFIX" default:"/api"`
}

// HTTPTransport is a service's set of HTTP routes.
type HTTPTransport interface {
	http.Handler
}

// Mount returns a chi router with transport mounted under prefix. An empty
// prefix or "/" mounts at the root.
func Mount(prefix string, transport HTTPTransport) chi.Router {
	router := chi.NewRouter()

	if prefix == "" || prefix == "/" {
		router.Mount("/", transport)
	} else {
		router.Mount(prefix, transport)
	}

	return router
}

// WithMiddleware wraps handler in tracing, logging and panic recovery.
func WithMiddleware(handler http.Handler, log logging.Logger) http.Handler {
	handler = RescueingMiddleware(handler, log)
	handler = LoggingMiddleware(handler, log)
	handler = TracingMiddleware(handler)

	return handler
}

// ListenAndServe serves handler until ctx is cancelled, then shuts down,
// waiting up to ShutdownTimeout for in-flight requests.
func ListenAndServe(ctx context.Context, handler HTTPTransport, cfg HTTPTransportConfig) error {
	log := logging.GetLogger("infra.transport.http")

	sock, err := net.Listen("tcp", cfg.ServerAddr)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	return Serve(ctx, sock, Mount(cfg.PathPrefix, handler), cfg, log)
}

// Serve is ListenAndServe on an existing listener.
func Serve(ctx context.Context, sock net.Listener, handler http.Handler, cfg HTTPTransportConfig, log logging.Logger) error {
	//nolint:exhaustruct
	server := &http.Server{
		Handler:           WithMiddleware(handler, log),
		ErrorLog:          logging.GetLogLogger(log, logging.LevelError),
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		ReadTimeout:       cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		BaseContext:       func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}

	serveErr := make(chan error, 1)

	go func() {
		log.InfoContext(ctx, "listening", "addr", sock.Addr().String())
		serveErr <- server.Serve(sock)
	}()

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}

		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	log.InfoContext(ctx, "shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		_ = server.Close()

		return fmt.Errorf("shutdown: %w", err)
	}

	if err := <-serveErr; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve: %w", err)
	}

	return nil
}
