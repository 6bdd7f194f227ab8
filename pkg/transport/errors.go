package transport

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/rhuss/letsplay/pkg/api"
)

// serverErrorMessage replaces the message of every 5xx response.
const serverErrorMessage = "An unexpected error occurred"

// now is the envelope timestamp source.
var now = time.Now

// HTTPStatusFromError maps an APIError type to the corresponding HTTP status code.
func HTTPStatusFromError(err *api.APIError) int {
	switch err.Type {
	case api.ErrorTypeInvalidRequest:
		return http.StatusBadRequest
	case api.ErrorTypeUnauthorized:
		return http.StatusUnauthorized
	case api.ErrorTypeForbidden:
		return http.StatusForbidden
	case api.ErrorTypeNotFound:
		return http.StatusNotFound
	case api.ErrorTypeConflict:
		return http.StatusConflict
	case api.ErrorTypeTooManyRequests:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// WriteError writes the JSON error envelope for status. For 5xx statuses
// the message is replaced by a generic one.
func WriteError(w http.ResponseWriter, r *http.Request, status int, message string) {
	if status >= http.StatusInternalServerError {
		message = serverErrorMessage
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(api.ErrorResponse{
		Timestamp: now().UTC(),
		Status:    status,
		Error:     http.StatusText(status),
		Message:   message,
		Path:      r.URL.Path,
	})
}

// WriteAPIError writes an APIError, deriving the HTTP status code from its type.
func WriteAPIError(w http.ResponseWriter, r *http.Request, apiErr *api.APIError) {
	WriteError(w, r, HTTPStatusFromError(apiErr), apiErr.Message)
}
