package postgres

import (
	"context"
	"errors"

	"github.com/dom/session-auth/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type accountRepository struct {
	db *gorm.DB
}

func NewAccountRepository(db *gorm.DB) *accountRepository {
	return &accountRepository{db: db}
}

func (r *accountRepository) Save(ctx context.Context, account *domain.Account) error {
	if err := r.db.WithContext(ctx).Save(account).Error; err != nil {
		return translateWriteError("save account", account.Username, err)
	}
	return nil
}

func (r *accountRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	var account domain.Account
	err := r.db.WithContext(ctx).Take(&account, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, gatewayError("read account by id", err)
	}
	return &account, nil
}

func (r *accountRepository) GetByUsername(ctx context.Context, username domain.Username, forUpdate bool) (*domain.Account, error) {
	q := r.db.WithContext(ctx)
	if forUpdate {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var account domain.Account
	err := q.Take(&account, "username = ?", username.String()).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, gatewayError("read account by username", err)
	}
	return &account, nil
}

func (r *accountRepository) IsUsernameUnique(ctx context.Context, username domain.Username) (bool, error) {
	var exists bool
	err := r.db.WithContext(ctx).
		Raw("SELECT EXISTS (SELECT 1 FROM accounts WHERE username = ?)", username.String()).
		Scan(&exists).Error
	if err != nil {
		return false, gatewayError("check username uniqueness", err)
	}
	return !exists, nil
}

func (r *accountRepository) List(ctx context.Context, limit, offset int) ([]*domain.Account, error) {
	var accounts []*domain.Account
	err := r.db.WithContext(ctx).
		Order("username ASC").
		Limit(limit).
		Offset(offset).
		Find(&accounts).Error
	if err != nil {
		return nil, gatewayError("list accounts", err)
	}
	return accounts, nil
}
