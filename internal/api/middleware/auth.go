package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/dom/session-auth/internal/domain"
	"github.com/dom/session-auth/internal/service"
)

type contextKey string

const (
	IdentityKey contextKey = "identity"
)

// Auth resolves the caller from the request's access token, renewing the session
// when it is close to expiring, and stores the Identity in the request context.
func Auth(authService *service.AuthService, cookies CookieOptions) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			carrier := NewCookieCarrier(w, r, cookies)

			identity, err := authService.CurrentIdentity(r.Context(), carrier)
			if err != nil {
				if errors.Is(err, domain.ErrAuthenticationFailed) {
					writeError(w, http.StatusUnauthorized, domain.ErrAuthenticationFailed.Error())
					return
				}
				log.Printf("ERROR [middleware.Auth] resolve identity: %v", err)
				writeError(w, http.StatusInternalServerError, "Internal server error.")
				return
			}

			ctx := context.WithValue(r.Context(), IdentityKey, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func GetIdentity(ctx context.Context) (*service.Identity, bool) {
	identity, ok := ctx.Value(IdentityKey).(*service.Identity)
	return identity, ok
}

func writeError(w http.ResponseWriter, status int, description string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"description": description})
}
