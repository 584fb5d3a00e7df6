// Package httpapi holds the JSON response helpers shared by every HTTP service.
package httpapi

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"
)

// MaxBodySize caps request bodies read by DecodeJSON.
const MaxBodySize = 1 << 20 // 1MB

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

func RespondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		zap.L().Warn("failed to encode response", zap.Error(err))
	}
}

func RespondError(w http.ResponseWriter, status int, code, message string) {
	RespondJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}

// RespondErrorDetails is RespondError with a details field, used to pass an
// upstream payload through.
func RespondErrorDetails(w http.ResponseWriter, status int, code, message, details string) {
	RespondJSON(w, status, ErrorResponse{
		Error:   message,
		Code:    code,
		Details: details,
	})
}

// DecodeJSON reads a JSON body into v. Unknown fields are allowed.
func DecodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodySize)
	return json.NewDecoder(r.Body).Decode(v)
}

// Health is the plain HTTP health endpoint.
func Health(w http.ResponseWriter, _ *http.Request) {
	RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
