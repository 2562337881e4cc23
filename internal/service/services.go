package service

import (
	"fmt"

	"github.com/dom/session-auth/internal/config"
	"github.com/dom/session-auth/internal/repository"
	"github.com/dom/session-auth/internal/security"
	"github.com/dom/session-auth/internal/session"
)

type Services struct {
	Auth *AuthService
}

func NewServices(txm repository.TxManager, cfg *config.Config) (*Services, error) {
	codec, err := session.NewCodec(cfg.JWTAlgorithm, cfg.JWTSecret)
	if err != nil {
		return nil, fmt.Errorf("token codec: %w", err)
	}
	timer, err := session.NewTimer(cfg.SessionTTL(), cfg.SessionRefreshThreshold)
	if err != nil {
		return nil, fmt.Errorf("session timer: %w", err)
	}
	hasher := security.NewPasswordHasher(cfg.PasswordPepper, cfg.BcryptCost)

	return &Services{
		Auth: NewAuthService(txm, codec, timer, hasher),
	}, nil
}
