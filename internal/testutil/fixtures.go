package testutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/dom/session-auth/internal/domain"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// AccountBuilder creates test accounts with a builder pattern
type AccountBuilder struct {
	username string
	password string
	roles    []domain.Role
	inactive bool
}

// NewAccountBuilder creates a new AccountBuilder with default values
func NewAccountBuilder() *AccountBuilder {
	return &AccountBuilder{
		username: fmt.Sprintf("user%s", uuid.New().String()[:8]),
		password: "testpassword123",
		roles:    []domain.Role{domain.BaseRole},
	}
}

// WithUsername sets the username
func (b *AccountBuilder) WithUsername(username string) *AccountBuilder {
	b.username = username
	return b
}

// WithPassword sets the password
func (b *AccountBuilder) WithPassword(password string) *AccountBuilder {
	b.password = password
	return b
}

// WithRoles replaces the roles
func (b *AccountBuilder) WithRoles(roles ...domain.Role) *AccountBuilder {
	b.roles = roles
	return b
}

// Inactive marks the account as deactivated
func (b *AccountBuilder) Inactive() *AccountBuilder {
	b.inactive = true
	return b
}

// New returns the account without storing it, along with the raw password
func (b *AccountBuilder) New(t *testing.T) (*domain.Account, string) {
	t.Helper()

	hash, err := TestHasher().Hash(domain.RawPassword(b.password))
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	now := time.Now().UTC()
	return &domain.Account{
		ID:           uuid.New(),
		Username:     b.username,
		PasswordHash: hash,
		Roles:        datatypes.JSONSlice[domain.Role](b.roles),
		IsActive:     !b.inactive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, b.password
}

// Build creates the account in the database and returns it with the raw password
func (b *AccountBuilder) Build(t *testing.T, db *gorm.DB) (*domain.Account, string) {
	t.Helper()

	account, password := b.New(t)
	// Select keeps gorm from substituting column defaults for false/empty values
	if err := db.Select("*").Create(account).Error; err != nil {
		t.Fatalf("failed to create account: %v", err)
	}
	return account, password
}

// BuildInMemory stores the account in an in-memory store
func (b *AccountBuilder) BuildInMemory(t *testing.T, store *MemoryStore) (*domain.Account, string) {
	t.Helper()

	account, password := b.New(t)
	store.AddAccount(account)
	return account, password
}

// SignUpAndLogIn creates the account through the API and logs client in
func (b *AccountBuilder) SignUpAndLogIn(t *testing.T, ts *TestServer, client *http.Client) {
	t.Helper()

	body, _ := json.Marshal(map[string]string{
		"username": b.username,
		"password": b.password,
	})

	resp, err := client.Post(ts.APIURL("/account/signup"), "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("signup request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("signup failed with status %d", resp.StatusCode)
	}

	resp, err = client.Post(ts.APIURL("/account/login"), "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("login request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login failed with status %d", resp.StatusCode)
	}
}

// Clock is a settable time source for timers and codecs
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

func NewClock(now time.Time) *Clock {
	return &Clock{now: now}
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
