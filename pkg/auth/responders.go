package auth

import (
	"net/http"
	"strconv"

	"github.com/rhuss/letsplay/pkg/observability"
	"github.com/rhuss/letsplay/pkg/transport"
)

// UnauthorizedMessage is the single client-facing message for every
// authentication failure, whatever its cause.
const UnauthorizedMessage = "Full authentication is required to access this resource"

// WriteUnauthorized writes the 401 envelope.
func WriteUnauthorized(w http.ResponseWriter, r *http.Request) {
	observability.AuthDeniedTotal.WithLabelValues(strconv.Itoa(http.StatusUnauthorized)).Inc()
	transport.WriteError(w, r, http.StatusUnauthorized, UnauthorizedMessage)
}

// WriteForbidden writes the 403 envelope with message.
func WriteForbidden(w http.ResponseWriter, r *http.Request, message string) {
	if message == "" {
		message = "Access denied"
	}
	observability.AuthDeniedTotal.WithLabelValues(strconv.Itoa(http.StatusForbidden)).Inc()
	transport.WriteError(w, r, http.StatusForbidden, message)
}
