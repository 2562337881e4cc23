package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/dom/session-auth/internal/domain"
)

type ErrorResponse struct {
	Description string            `json:"description"`
	Details     map[string]string `json:"details,omitempty"`
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidField):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrAuthenticationFailed),
		errors.Is(err, domain.ErrAlreadyAuthenticated),
		errors.Is(err, domain.ErrSessionExpired):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrAuthorizationFailed):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrAccountNotFound),
		errors.Is(err, domain.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrUsernameTaken):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// writeError maps err onto a status and a {"description"} body. Server errors
// are logged in full and answered with a generic description.
func writeError(w http.ResponseWriter, op string, err error) {
	status := statusFor(err)
	resp := ErrorResponse{Description: err.Error()}

	var fieldErr *domain.FieldError
	if errors.As(err, &fieldErr) {
		resp.Details = fieldErr.Fields
	}

	if status >= http.StatusInternalServerError {
		log.Printf("ERROR [%s] %v", op, err)
		resp = ErrorResponse{Description: "Internal server error."}
	} else {
		log.Printf("WARN [%s] %v", op, err)
	}

	writeJSON(w, status, resp)
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("ERROR [handlers.writeJSON] encode response: %v", err)
	}
}

func invalidBody(err error) error {
	return &domain.FieldError{Fields: map[string]string{"body": err.Error()}}
}
