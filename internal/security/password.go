package security

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"

	"github.com/dom/session-auth/internal/domain"
	"golang.org/x/crypto/bcrypt"
)

// PasswordHasher hashes passwords with bcrypt after mixing in a server-side pepper.
//
// The pepper is applied as HMAC-SHA256(pepper, password) and base64 encoded, which
// keeps the bcrypt input at 44 bytes regardless of password length.
type PasswordHasher struct {
	pepper []byte
	cost   int
}

func NewPasswordHasher(pepper string, cost int) *PasswordHasher {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &PasswordHasher{pepper: []byte(pepper), cost: cost}
}

func (h *PasswordHasher) Hash(raw domain.RawPassword) ([]byte, error) {
	hash, err := bcrypt.GenerateFromPassword(h.peppered(raw), h.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	return hash, nil
}

// Verify compares in constant time via bcrypt.
func (h *PasswordHasher) Verify(raw domain.RawPassword, hash []byte) bool {
	return bcrypt.CompareHashAndPassword(hash, h.peppered(raw)) == nil
}

func (h *PasswordHasher) peppered(raw domain.RawPassword) []byte {
	mac := hmac.New(sha256.New, h.pepper)
	mac.Write([]byte(raw))
	sum := mac.Sum(nil)
	out := make([]byte, base64.StdEncoding.EncodedLen(len(sum)))
	base64.StdEncoding.Encode(out, sum)
	return out
}
