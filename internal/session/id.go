package session

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// IDEntropyBytes is the number of random bytes behind every session id.
const IDEntropyBytes = 32

// IDGenerator returns a new unguessable session id.
type IDGenerator func() (string, error)

// NewID returns 32 bytes from crypto/rand, URL-safe base64 encoded without padding.
func NewID() (string, error) {
	b := make([]byte, IDEntropyBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate session id: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
