package service

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/dom/session-auth/internal/domain"
	"github.com/dom/session-auth/internal/repository"
	"github.com/dom/session-auth/internal/session"
	"github.com/google/uuid"
)

// TokenCarrier is the transport side of the access token: where it is read from
// on the way in and where issue/clear signals go on the way out.
type TokenCarrier interface {
	// Token fails with domain.ErrTokenMissing when the request carries none.
	Token() (string, error)
	SetToken(token string)
	ClearToken()
}

type TokenCodec interface {
	Issue(sessionID string, expiresAt time.Time) (string, error)
	ExtractSessionID(token string) (string, error)
}

// Identity is the authenticated principal behind a request.
type Identity struct {
	AccountID uuid.UUID
	Roles     []domain.Role
	SessionID string
}

func (i *Identity) HasRole(role domain.Role) bool {
	for _, r := range i.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// IdentityResolver turns the token on a carrier into an Identity, renewing the
// session when it is close to expiring.
type IdentityResolver struct {
	carrier  TokenCarrier
	codec    TokenCodec
	sessions *session.Manager
	accounts repository.AccountRepository
}

func NewIdentityResolver(carrier TokenCarrier, codec TokenCodec, sessions *session.Manager, accounts repository.AccountRepository) *IdentityResolver {
	return &IdentityResolver{
		carrier:  carrier,
		codec:    codec,
		sessions: sessions,
		accounts: accounts,
	}
}

// ResolveCurrentIdentity fails with the bare domain.ErrAuthenticationFailed
// whatever the cause. The cause is logged, never returned.
func (r *IdentityResolver) ResolveCurrentIdentity(ctx context.Context) (*Identity, error) {
	return r.resolve(ctx, true)
}

// IsAuthenticated probes the carrier without renewing the session.
func (r *IdentityResolver) IsAuthenticated(ctx context.Context) bool {
	_, err := r.resolve(ctx, false)
	return err == nil
}

func (r *IdentityResolver) resolve(ctx context.Context, renew bool) (*Identity, error) {
	token, err := r.carrier.Token()
	if err != nil {
		return nil, r.reject("read token", err)
	}

	sessionID, err := r.codec.ExtractSessionID(token)
	if err != nil {
		return nil, r.reject("decode token", err)
	}

	// The row lock is held until the enclosing transaction ends, so renewal
	// and a concurrent logout of the same session are serialized.
	s, err := r.sessions.Get(ctx, sessionID, true)
	if err != nil {
		return nil, r.reject("load session", err)
	}
	if err := r.sessions.CheckNotExpired(s); err != nil {
		return nil, r.reject("check session", err)
	}

	var reissued string
	if renew && r.sessions.IsNearExpiry(s) {
		if err := r.sessions.Renew(ctx, s); err != nil {
			return nil, r.reject("renew session", err)
		}
		if reissued, err = r.codec.Issue(s.ID, s.Expiration); err != nil {
			return nil, r.reject("reissue token", err)
		}
	}

	account, err := r.accounts.GetByID(ctx, s.AccountID)
	if err != nil {
		return nil, r.reject("load account", err)
	}
	if account == nil {
		return nil, r.reject("load account", domain.ErrAccountNotFound)
	}

	if reissued != "" {
		r.carrier.SetToken(reissued)
	}

	return &Identity{
		AccountID: account.ID,
		Roles:     account.RoleSet(),
		SessionID: s.ID,
	}, nil
}

func (r *IdentityResolver) reject(stage string, cause error) error {
	switch {
	case errors.Is(cause, domain.ErrDataGateway):
		log.Printf("ERROR [service.IdentityResolver] %s: %v", stage, cause)
	case errors.Is(cause, domain.ErrTokenMissing):
		// Anonymous requests are the common case.
	default:
		log.Printf("WARN [service.IdentityResolver] %s: %v", stage, cause)
	}
	return domain.ErrAuthenticationFailed
}
