package postgres

import (
	"context"
	"errors"

	"github.com/dom/session-auth/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type sessionRepository struct {
	db *gorm.DB
}

func NewSessionRepository(db *gorm.DB) *sessionRepository {
	return &sessionRepository{db: db}
}

func (r *sessionRepository) Save(ctx context.Context, session *domain.Session) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"account_id", "expiration"}),
	}).Create(session).Error
	if err != nil {
		return gatewayError("save session", err)
	}
	return nil
}

func (r *sessionRepository) Get(ctx context.Context, id string, forUpdate bool) (*domain.Session, error) {
	q := r.db.WithContext(ctx)
	if forUpdate {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var session domain.Session
	err := q.Take(&session, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, gatewayError("read session", err)
	}
	return &session, nil
}

func (r *sessionRepository) Delete(ctx context.Context, id string) (bool, error) {
	res := r.db.WithContext(ctx).Delete(&domain.Session{}, "id = ?", id)
	if res.Error != nil {
		return false, gatewayError("delete session", res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *sessionRepository) DeleteByAccountID(ctx context.Context, accountID uuid.UUID) error {
	err := r.db.WithContext(ctx).Delete(&domain.Session{}, "account_id = ?", accountID).Error
	if err != nil {
		return gatewayError("delete account sessions", err)
	}
	return nil
}
