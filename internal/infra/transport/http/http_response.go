package http

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// ErrorResponse is the body of every failed JSON response.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// RespondJSON writes data as a JSON body with the given status.
func RespondJSON(w http.ResponseWriter, status int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		return fmt.Errorf("encode response: %w", err)
	}

	return nil
}

// RespondError writes {"success":false,"message":...}.
func RespondError(w http.ResponseWriter, status int, message string) {
	_ = RespondJSON(w, status, ErrorResponse{Success: false, Message: message})
}

// DecodeJSON reads a JSON request body into v, rejecting unknown fields and
// bodies larger than maxBytes.
func DecodeJSON(w http.ResponseWriter, r *http.Request, v any, maxBytes int64) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("decode request: %w", err)
	}

	return nil
}
