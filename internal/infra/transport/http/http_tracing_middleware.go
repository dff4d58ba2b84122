package http

import (
	"net/http"

	"github.com/google/uuid"

	context_ "github.com/mkrupp/shopzone/internal/infra/context"
	"github.com/mkrupp/shopzone/internal/util/encoding"
)

const TraceIDHeader = "X-Request-ID"

// TracingMiddleware stores a trace id in the request context and echoes it
// in the response. An incoming X-Request-ID is reused.
func TracingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID := getTraceID(r)
		if traceID != "" {
			w.Header().Set(TraceIDHeader, traceID)
		}

		next.ServeHTTP(w, r.WithContext(context_.WithTraceID(r.Context(), traceID)))
	})
}

// NewTraceID returns a time-ordered id in lowercase Crockford base32.
func NewTraceID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return ""
	}

	return encoding.EncodeCrockfordB32LC(id[:])
}

func getTraceID(r *http.Request) string {
	if traceID := r.Header.Get(TraceIDHeader); traceID != "" {
		return traceID
	}

	return NewTraceID()
}
