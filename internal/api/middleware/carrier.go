package middleware

import (
	"net/http"
	"strings"

	"github.com/dom/session-auth/internal/config"
	"github.com/dom/session-auth/internal/domain"
)

const AccessTokenCookie = "access_token"

type CookieOptions struct {
	Secure   bool
	SameSite http.SameSite
}

func CookieOptionsFromConfig(cfg *config.Config) CookieOptions {
	opts := CookieOptions{Secure: cfg.CookieSecure, SameSite: http.SameSiteStrictMode}
	switch cfg.CookieSameSite {
	case "lax":
		opts.SameSite = http.SameSiteLaxMode
	case "none":
		opts.SameSite = http.SameSiteNoneMode
	}
	return opts
}

// CookieCarrier reads the access token from the access_token cookie, falling back
// to an Authorization bearer header, and writes issue/clear signals as Set-Cookie
// headers. Signals must be given before the response status is written.
type CookieCarrier struct {
	w    http.ResponseWriter
	r    *http.Request
	opts CookieOptions
}

func NewCookieCarrier(w http.ResponseWriter, r *http.Request, opts CookieOptions) *CookieCarrier {
	return &CookieCarrier{w: w, r: r, opts: opts}
}

func (c *CookieCarrier) Token() (string, error) {
	if cookie, err := c.r.Cookie(AccessTokenCookie); err == nil && cookie.Value != "" {
		return cookie.Value, nil
	}

	scheme, token, ok := strings.Cut(c.r.Header.Get("Authorization"), " ")
	if ok && strings.EqualFold(scheme, "Bearer") && strings.TrimSpace(token) != "" {
		return strings.TrimSpace(token), nil
	}

	return "", domain.ErrTokenMissing
}

func (c *CookieCarrier) SetToken(token string) {
	http.SetCookie(c.w, &http.Cookie{
		Name:     AccessTokenCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   c.opts.Secure,
		SameSite: c.opts.SameSite,
	})
}

func (c *CookieCarrier) ClearToken() {
	http.SetCookie(c.w, &http.Cookie{
		Name:     AccessTokenCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.opts.Secure,
		SameSite: c.opts.SameSite,
	})
}
