package service

import (
	"context"
	"fmt"

	"github.com/dom/session-auth/internal/domain"
)

// AuthorizationService gates operations on the roles of the current identity.
type AuthorizationService struct {
	identities *IdentityResolver
}

func NewAuthorizationService(identities *IdentityResolver) *AuthorizationService {
	return &AuthorizationService{identities: identities}
}

// CheckAuthorization resolves the current identity and requires it to hold role.
// Resolution failures surface as domain.ErrAuthenticationFailed.
func (s *AuthorizationService) CheckAuthorization(ctx context.Context, role domain.Role) (*Identity, error) {
	identity, err := s.identities.ResolveCurrentIdentity(ctx)
	if err != nil {
		return nil, err
	}
	if !identity.HasRole(role) {
		return nil, fmt.Errorf("%w: role %s required", domain.ErrAuthorizationFailed, role)
	}
	return identity, nil
}
