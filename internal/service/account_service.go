package service

import (
	"context"
	"fmt"

	"github.com/dom/session-auth/internal/domain"
	"github.com/dom/session-auth/internal/repository"
	"github.com/google/uuid"
)

type PasswordHasher interface {
	Hash(raw domain.RawPassword) ([]byte, error)
	Verify(raw domain.RawPassword, hash []byte) bool
}

// AccountService holds the account rules that sit above the repository.
type AccountService struct {
	accounts repository.AccountRepository
	hasher   PasswordHasher
	newID    func() uuid.UUID
}

func NewAccountService(accounts repository.AccountRepository, hasher PasswordHasher) *AccountService {
	return &AccountService{
		accounts: accounts,
		hasher:   hasher,
		newID:    uuid.New,
	}
}

// CreateAccount builds an unsaved account with the base role. The uniqueness
// check is advisory; the unique constraint on save is authoritative.
func (s *AccountService) CreateAccount(ctx context.Context, username domain.Username, password domain.RawPassword) (*domain.Account, error) {
	unique, err := s.accounts.IsUsernameUnique(ctx, username)
	if err != nil {
		return nil, err
	}
	if !unique {
		return nil, fmt.Errorf("%w: %s", domain.ErrUsernameTaken, username)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}

	return domain.NewAccount(s.newID(), username, hash), nil
}

func (s *AccountService) VerifyCredentials(account *domain.Account, password domain.RawPassword) bool {
	return s.hasher.Verify(password, account.PasswordHash)
}

func (s *AccountService) IsActive(account *domain.Account) bool {
	return account.IsActive
}
