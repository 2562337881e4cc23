package testutil

import (
	"sync"

	"github.com/dom/session-auth/internal/domain"
)

// MemoryCarrier is a TokenCarrier that records every signal it receives.
type MemoryCarrier struct {
	mu      sync.Mutex
	token   string
	issued  []string
	cleared int
}

func NewMemoryCarrier(token string) *MemoryCarrier {
	return &MemoryCarrier{token: token}
}

func (c *MemoryCarrier) Token() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token == "" {
		return "", domain.ErrTokenMissing
	}
	return c.token, nil
}

func (c *MemoryCarrier) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
	c.issued = append(c.issued, token)
}

func (c *MemoryCarrier) ClearToken() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = ""
	c.cleared++
}

// Issued returns every token handed to SetToken, oldest first.
func (c *MemoryCarrier) Issued() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.issued...)
}

func (c *MemoryCarrier) Cleared() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cleared
}
