package session

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dom/session-auth/internal/domain"
	"github.com/golang-jwt/jwt/v5"
)

type claims struct {
	SessionID string `json:"session_id"`
	jwt.RegisteredClaims
}

// Codec signs and verifies the bearer tokens that carry session ids.
type Codec struct {
	method    jwt.SigningMethod
	signKey   interface{}
	verifyKey interface{}
	now       func() time.Time
}

// NewCodec builds a codec for algorithm. For HS* the secret is the HMAC key; for
// RS* and ES* it is a PEM private key, inline or as a file path.
func NewCodec(algorithm, secret string) (*Codec, error) {
	method := jwt.GetSigningMethod(algorithm)
	if method == nil {
		return nil, fmt.Errorf("unsupported jwt algorithm %q", algorithm)
	}
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("jwt secret is required")
	}

	c := &Codec{method: method, now: time.Now}

	switch method.(type) {
	case *jwt.SigningMethodHMAC:
		c.signKey = []byte(secret)
		c.verifyKey = []byte(secret)
	case *jwt.SigningMethodRSA:
		pemBytes, err := loadPEM(secret)
		if err != nil {
			return nil, err
		}
		key, err := jwt.ParseRSAPrivateKeyFromPEM(pemBytes)
		if err != nil {
			return nil, fmt.Errorf("parse rsa private key: %w", err)
		}
		c.signKey = key
		c.verifyKey = &key.PublicKey
	case *jwt.SigningMethodECDSA:
		pemBytes, err := loadPEM(secret)
		if err != nil {
			return nil, err
		}
		key, err := jwt.ParseECPrivateKeyFromPEM(pemBytes)
		if err != nil {
			return nil, fmt.Errorf("parse ecdsa private key: %w", err)
		}
		c.signKey = key
		c.verifyKey = &key.PublicKey
	default:
		return nil, fmt.Errorf("unsupported jwt algorithm %q", algorithm)
	}

	return c, nil
}

// WithClock returns a copy of the codec validating expiration against now.
func (c *Codec) WithClock(now func() time.Time) *Codec {
	cp := *c
	cp.now = now
	return &cp
}

// Algorithm returns the configured signing algorithm name.
func (c *Codec) Algorithm() string {
	return c.method.Alg()
}

// Issue signs a token carrying sessionID with an exp claim of expiresAt.
func (c *Codec) Issue(sessionID string, expiresAt time.Time) (string, error) {
	token := jwt.NewWithClaims(c.method, claims{
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	})
	signed, err := token.SignedString(c.signKey)
	if err != nil {
		return "", fmt.Errorf("sign access token: %w", err)
	}
	return signed, nil
}

// ExtractSessionID verifies signature, algorithm and exp, then returns the session id.
// Every failure matches domain.ErrInvalidToken.
func (c *Codec) ExtractSessionID(token string) (string, error) {
	var parsed claims
	_, err := jwt.ParseWithClaims(token, &parsed,
		func(*jwt.Token) (interface{}, error) { return c.verifyKey, nil },
		jwt.WithValidMethods([]string{c.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrInvalidToken, err)
	}
	if parsed.SessionID == "" {
		return "", fmt.Errorf("%w: token has no session id", domain.ErrInvalidToken)
	}
	return parsed.SessionID, nil
}

func loadPEM(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "-----BEGIN") {
		return []byte(s), nil
	}
	b, err := os.ReadFile(s)
	if err != nil {
		return nil, fmt.Errorf("read jwt key: %w", err)
	}
	return b, nil
}
