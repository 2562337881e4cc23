package domain

import (
	"time"

	"github.com/google/uuid"
)

// Session is a server-side authorization grant. Expiration is always computed
// by the session timer, never supplied by a client.
type Session struct {
	ID         string    `json:"id" gorm:"primaryKey"`
	AccountID  uuid.UUID `json:"accountId" gorm:"type:uuid;not null"`
	Expiration time.Time `json:"expiration" gorm:"not null"`
}

func (Session) TableName() string {
	return "sessions"
}

// Equal reports whether both values refer to the same session.
func (s *Session) Equal(other *Session) bool {
	if s == nil || other == nil {
		return s == other
	}
	return s.ID == other.ID
}

// IsExpired reports whether the session is logically invalid at now.
func (s *Session) IsExpired(now time.Time) bool {
	return !s.Expiration.After(now)
}
