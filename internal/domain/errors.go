package domain

import "errors"

// Validation errors
var (
	ErrInvalidField = errors.New("invalid field")
)

// Authentication and authorization errors
var (
	ErrAuthenticationFailed = errors.New("not authenticated")
	ErrAlreadyAuthenticated = errors.New("you are already authenticated, consider logging out")
	ErrAuthorizationFailed  = errors.New("authorization failed")
)

// Account errors
var (
	ErrAccountNotFound = errors.New("account not found")
	ErrUsernameTaken   = errors.New("username already exists")
)

// Session errors
var (
	ErrSessionNotFound       = errors.New("session not found")
	ErrSessionExpired        = errors.New("session is expired or revoked")
	ErrSessionDeletionFailed = errors.New("session deletion failed")
)

// Token errors
var (
	ErrTokenMissing = errors.New("no access token in request")
	ErrInvalidToken = errors.New("token is invalid or expired")
)

// ErrDataGateway is the single opaque kind for persistence failures.
var ErrDataGateway = errors.New("data gateway failure")
