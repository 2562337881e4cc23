package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Account is compared by ID only; the service layer is its sole mutator.
type Account struct {
	ID           uuid.UUID                 `json:"id" gorm:"type:uuid;primaryKey"`
	Username     string                    `json:"username" gorm:"size:20;not null"`
	PasswordHash []byte                    `json:"-" gorm:"type:bytea;not null"`
	Roles        datatypes.JSONSlice[Role] `json:"roles" gorm:"not null"`
	IsActive     bool                      `json:"isActive" gorm:"not null"`
	CreatedAt    time.Time                 `json:"createdAt"`
	UpdatedAt    time.Time                 `json:"updatedAt"`
}

func (Account) TableName() string {
	return "accounts"
}

// NewAccount builds an active account holding only the base role.
func NewAccount(id uuid.UUID, username Username, passwordHash []byte) *Account {
	return &Account{
		ID:           id,
		Username:     username.String(),
		PasswordHash: passwordHash,
		Roles:        datatypes.JSONSlice[Role]{BaseRole},
		IsActive:     true,
	}
}

// Equal reports whether both values refer to the same account.
func (a *Account) Equal(other *Account) bool {
	if a == nil || other == nil {
		return a == other
	}
	return a.ID == other.ID
}

func (a *Account) HasRole(role Role) bool {
	for _, r := range a.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// RoleSet returns the account's roles without duplicates.
func (a *Account) RoleSet() []Role {
	seen := make(map[Role]struct{}, len(a.Roles))
	roles := make([]Role, 0, len(a.Roles))
	for _, r := range a.Roles {
		if _, ok := seen[r]; ok {
			continue
		}
		seen[r] = struct{}{}
		roles = append(roles, r)
	}
	return roles
}
