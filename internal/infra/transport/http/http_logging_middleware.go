package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/mkrupp/shopzone/internal/infra/logging"
)

// LoggingResponseWriter records the status and size of a response.
type LoggingResponseWriter struct {
	http.ResponseWriter
	StatusCode int
	BytesSent  int
}

func (w *LoggingResponseWriter) WriteHeader(code int) {
	w.StatusCode = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *LoggingResponseWriter) Write(b []byte) (int, error) {
	n, err := w.ResponseWriter.Write(b)
	w.BytesSent += n

	if err != nil {
		return n, fmt.Errorf("write: %w", err)
	}

	return n, nil
}

// LoggingMiddleware logs each request at debug level and its response at a
// level picked from the status code: error for 5xx, warn for 4xx, info otherwise.
func LoggingMiddleware(next http.Handler, log logging.Logger) http.Handler {
	//nolint:varnamelen
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		log.DebugContext(r.Context(), "request", slog.Group("http",
			"uri", r.RequestURI,
			"method", r.Method,
		))

		lw := &LoggingResponseWriter{ResponseWriter: w, StatusCode: http.StatusOK}

		next.ServeHTTP(lw, r)

		level := logging.LevelInfo

		switch {
		case lw.StatusCode >= http.StatusInternalServerError:
			level = logging.LevelError
		case lw.StatusCode >= http.StatusBadRequest:
			level = logging.LevelWarn
		}

		log.Log(r.Context(), level, "response", slog.Group("http",
			"uri", r.RequestURI,
			"method", r.Method,
			"status", lw.StatusCode,
			"bytes_sent", lw.BytesSent,
			"duration", time.Since(start),
		))
	})
}
