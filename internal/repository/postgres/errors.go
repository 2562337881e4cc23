package postgres

import (
	"errors"
	"fmt"
	"log"

	"github.com/dom/session-auth/internal/domain"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const (
	uniqueViolation          = "23505"
	usernameUniqueConstraint = "uq_accounts_username"
)

// gatewayError labels a backend failure with the opaque data gateway kind while
// keeping the cause for server-side logs.
func gatewayError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", domain.ErrDataGateway, op, err)
}

// translateWriteError maps the username uniqueness constraint to
// domain.ErrUsernameTaken. The driver error is logged, never returned, so
// callers can show the message as is.
func translateWriteError(op, username string, err error) error {
	if isUsernameViolation(err) {
		log.Printf("WARN [postgres.translateWriteError] %s: %v", op, err)
		if username == "" {
			return domain.ErrUsernameTaken
		}
		return fmt.Errorf("%w: %s", domain.ErrUsernameTaken, username)
	}
	return gatewayError(op, err)
}

func isUsernameViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == uniqueViolation && pgErr.ConstraintName == usernameUniqueConstraint
	}
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
