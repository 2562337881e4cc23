package repository

import (
	"context"

	"github.com/dom/session-auth/internal/domain"
	"github.com/google/uuid"
)

// Every method fails with an error matching domain.ErrDataGateway on backend
// failure. Lookups return (nil, nil) when no row matches.

type AccountRepository interface {
	// Save inserts or updates. A username collision fails with domain.ErrUsernameTaken.
	Save(ctx context.Context, account *domain.Account) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Account, error)
	GetByUsername(ctx context.Context, username domain.Username, forUpdate bool) (*domain.Account, error)
	IsUsernameUnique(ctx context.Context, username domain.Username) (bool, error)
	List(ctx context.Context, limit, offset int) ([]*domain.Account, error)
}

type SessionRepository interface {
	// Save upserts by id.
	Save(ctx context.Context, session *domain.Session) error
	// Get holds a row lock until the enclosing transaction ends when forUpdate is set.
	Get(ctx context.Context, id string, forUpdate bool) (*domain.Session, error)
	// Delete reports whether a row existed.
	Delete(ctx context.Context, id string) (bool, error)
	DeleteByAccountID(ctx context.Context, accountID uuid.UUID) error
}

// Tx is a request-scoped unit of work. Nothing written through its repositories
// is durable until Commit; Rollback after Commit is a no-op.
type Tx interface {
	Accounts() AccountRepository
	Sessions() SessionRepository
	Commit() error
	Rollback() error
}

// TxManager opens units of work. Cancelling ctx before Commit rolls the transaction back.
type TxManager interface {
	Begin(ctx context.Context) (Tx, error)
}
