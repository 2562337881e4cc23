package session

import (
	"context"
	"fmt"

	"github.com/dom/session-auth/internal/domain"
	"github.com/dom/session-auth/internal/repository"
	"github.com/google/uuid"
)

// Manager drives the session lifecycle against a transaction-scoped store.
//
// From the manager's point of view a session is Absent (no row), Active
// (expiration > now), NearExpiry (Active with less than the refresh trigger
// interval left) or Expired (expiration <= now, possibly still stored).
type Manager struct {
	store repository.SessionRepository
	timer *Timer
	newID IDGenerator
}

func NewManager(store repository.SessionRepository, timer *Timer, newID IDGenerator) *Manager {
	if newID == nil {
		newID = NewID
	}
	return &Manager{store: store, timer: timer, newID: newID}
}

// Create builds a new session for accountID. It is not persisted.
func (m *Manager) Create(accountID uuid.UUID) (*domain.Session, error) {
	id, err := m.newID()
	if err != nil {
		return nil, err
	}
	return &domain.Session{
		ID:         id,
		AccountID:  accountID,
		Expiration: m.timer.AccessExpiration(),
	}, nil
}

func (m *Manager) Save(ctx context.Context, s *domain.Session) error {
	return m.store.Save(ctx, s)
}

// Get fails with domain.ErrSessionNotFound when the session is Absent.
func (m *Manager) Get(ctx context.Context, id string, forUpdate bool) (*domain.Session, error) {
	s, err := m.store.Get(ctx, id, forUpdate)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrSessionNotFound, id)
	}
	return s, nil
}

// CheckNotExpired fails with domain.ErrSessionExpired when the session is Expired.
func (m *Manager) CheckNotExpired(s *domain.Session) error {
	if s.IsExpired(m.timer.Now()) {
		return fmt.Errorf("%w: %s", domain.ErrSessionExpired, s.ID)
	}
	return nil
}

func (m *Manager) IsNearExpiry(s *domain.Session) bool {
	remaining := s.Expiration.Sub(m.timer.Now())
	return remaining > 0 && remaining < m.timer.RefreshTriggerInterval()
}

// Renew extends the session to a fresh expiration and persists it. Callers must
// hold the locked read of s obtained in the same transaction.
func (m *Manager) Renew(ctx context.Context, s *domain.Session) error {
	s.Expiration = m.timer.AccessExpiration()
	return m.store.Save(ctx, s)
}

// Delete fails with domain.ErrSessionNotFound when no row was removed.
func (m *Manager) Delete(ctx context.Context, id string) error {
	found, err := m.store.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("%w: %s", domain.ErrSessionNotFound, id)
	}
	return nil
}

func (m *Manager) DeleteAllForAccount(ctx context.Context, accountID uuid.UUID) error {
	return m.store.DeleteByAccountID(ctx, accountID)
}
