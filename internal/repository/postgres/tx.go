package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/dom/session-auth/internal/repository"
	"gorm.io/gorm"
)

type TxManager struct {
	db *gorm.DB
}

func NewTxManager(db *gorm.DB) *TxManager {
	return &TxManager{db: db}
}

// Begin starts a transaction bound to ctx; database/sql rolls it back if ctx is
// cancelled before Commit.
func (m *TxManager) Begin(ctx context.Context) (repository.Tx, error) {
	tx := m.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, gatewayError("begin transaction", tx.Error)
	}
	return &gormTx{
		db:       tx,
		accounts: NewAccountRepository(tx),
		sessions: NewSessionRepository(tx),
	}, nil
}

type gormTx struct {
	db       *gorm.DB
	accounts *accountRepository
	sessions *sessionRepository
	done     bool
}

func (t *gormTx) Accounts() repository.AccountRepository {
	return t.accounts
}

func (t *gormTx) Sessions() repository.SessionRepository {
	return t.sessions
}

func (t *gormTx) Commit() error {
	t.done = true
	if err := t.db.Commit().Error; err != nil {
		return translateWriteError("commit", "", err)
	}
	return nil
}

func (t *gormTx) Rollback() error {
	if t.done {
		return nil
	}
	t.done = true
	if err := t.db.Rollback().Error; err != nil && !errors.Is(err, sql.ErrTxDone) {
		return gatewayError("rollback", err)
	}
	return nil
}
