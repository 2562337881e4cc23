package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/dom/session-auth/internal/domain"
	"github.com/dom/session-auth/internal/repository"
	"github.com/dom/session-auth/internal/session"
	"github.com/google/uuid"
)

const (
	StatusCreated = "CREATED"

	MessageLoggedIn            = "Logged in: successful."
	MessageLoggedOut           = "Logged out: successful."
	MessageLoggedOutEverywhere = "Logged out from all sessions: successful."
)

// AuthService runs the sign-up, log-in and log-out scenarios. Each call is one
// unit of work: it commits on success and rolls back on any error.
type AuthService struct {
	txm    repository.TxManager
	codec  TokenCodec
	timer  *session.Timer
	hasher PasswordHasher
	newID  session.IDGenerator
}

func NewAuthService(txm repository.TxManager, codec TokenCodec, timer *session.Timer, hasher PasswordHasher) *AuthService {
	return &AuthService{
		txm:    txm,
		codec:  codec,
		timer:  timer,
		hasher: hasher,
		newID:  session.NewID,
	}
}

// WithIDGenerator returns a copy of the service that mints session ids with newID.
func (s *AuthService) WithIDGenerator(newID session.IDGenerator) *AuthService {
	cp := *s
	cp.newID = newID
	return &cp
}

type SignUpResult struct {
	Username string `json:"username"`
	Status   string `json:"status"`
}

type MessageResult struct {
	Message string `json:"message"`
}

// unitOfWork wires the per-transaction collaborators of one scenario.
type unitOfWork struct {
	tx         repository.Tx
	sessions   *session.Manager
	accounts   *AccountService
	identities *IdentityResolver
}

func (s *AuthService) begin(ctx context.Context, carrier TokenCarrier) (*unitOfWork, error) {
	tx, err := s.txm.Begin(ctx)
	if err != nil {
		return nil, err
	}
	sessions := session.NewManager(tx.Sessions(), s.timer, s.newID)
	return &unitOfWork{
		tx:         tx,
		sessions:   sessions,
		accounts:   NewAccountService(tx.Accounts(), s.hasher),
		identities: NewIdentityResolver(carrier, s.codec, sessions, tx.Accounts()),
	}, nil
}

func (u *unitOfWork) rollback(op string) {
	if err := u.tx.Rollback(); err != nil {
		log.Printf("ERROR [service.%s] rollback: %v", op, err)
	}
}

func (s *AuthService) SignUp(ctx context.Context, carrier TokenCarrier, creds domain.Credentials) (*SignUpResult, error) {
	uow, err := s.begin(ctx, carrier)
	if err != nil {
		return nil, err
	}
	defer uow.rollback("SignUp")

	if uow.identities.IsAuthenticated(ctx) {
		return nil, domain.ErrAlreadyAuthenticated
	}

	username, password, err := creds.Parse()
	if err != nil {
		return nil, err
	}

	account, err := uow.accounts.CreateAccount(ctx, username, password)
	if err != nil {
		return nil, err
	}
	if err := uow.tx.Accounts().Save(ctx, account); err != nil {
		return nil, err
	}
	if err := uow.tx.Commit(); err != nil {
		return nil, err
	}

	log.Printf("INFO [service.SignUp] account %s created", account.ID)
	return &SignUpResult{Username: account.Username, Status: StatusCreated}, nil
}

func (s *AuthService) LogIn(ctx context.Context, carrier TokenCarrier, creds domain.Credentials) (*MessageResult, error) {
	uow, err := s.begin(ctx, carrier)
	if err != nil {
		return nil, err
	}
	defer uow.rollback("LogIn")

	if uow.identities.IsAuthenticated(ctx) {
		return nil, domain.ErrAlreadyAuthenticated
	}

	username, password, err := creds.Parse()
	if err != nil {
		return nil, err
	}

	account, err := uow.tx.Accounts().GetByUsername(ctx, username, false)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrAccountNotFound, username)
	}
	if !uow.accounts.VerifyCredentials(account, password) {
		return nil, fmt.Errorf("%w: invalid password", domain.ErrAuthenticationFailed)
	}
	if !uow.accounts.IsActive(account) {
		return nil, fmt.Errorf("%w: account is inactive, please contact support", domain.ErrAuthenticationFailed)
	}

	sess, err := uow.sessions.Create(account.ID)
	if err != nil {
		return nil, err
	}
	if err := uow.sessions.Save(ctx, sess); err != nil {
		return nil, err
	}
	if err := uow.tx.Commit(); err != nil {
		return nil, err
	}

	token, err := s.codec.Issue(sess.ID, sess.Expiration)
	if err != nil {
		return nil, err
	}
	carrier.SetToken(token)

	return &MessageResult{Message: MessageLoggedIn}, nil
}

// LogOut clears the carrier and deletes the current session. A session that is
// gone by the time it is deleted fails with domain.ErrSessionDeletionFailed.
func (s *AuthService) LogOut(ctx context.Context, carrier TokenCarrier) (*MessageResult, error) {
	uow, err := s.begin(ctx, carrier)
	if err != nil {
		return nil, err
	}
	defer uow.rollback("LogOut")

	identity, err := uow.identities.resolve(ctx, false)
	if err != nil {
		return nil, err
	}

	carrier.ClearToken()

	if err := uow.sessions.Delete(ctx, identity.SessionID); err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			return nil, fmt.Errorf("%w: %w", domain.ErrSessionDeletionFailed, err)
		}
		return nil, err
	}
	if err := uow.tx.Commit(); err != nil {
		return nil, err
	}

	return &MessageResult{Message: MessageLoggedOut}, nil
}

// LogOutEverywhere clears the carrier and deletes every session of the current account.
func (s *AuthService) LogOutEverywhere(ctx context.Context, carrier TokenCarrier) (*MessageResult, error) {
	uow, err := s.begin(ctx, carrier)
	if err != nil {
		return nil, err
	}
	defer uow.rollback("LogOutEverywhere")

	identity, err := uow.identities.resolve(ctx, false)
	if err != nil {
		return nil, err
	}

	carrier.ClearToken()

	if err := uow.sessions.DeleteAllForAccount(ctx, identity.AccountID); err != nil {
		return nil, err
	}
	if err := uow.tx.Commit(); err != nil {
		return nil, err
	}

	return &MessageResult{Message: MessageLoggedOutEverywhere}, nil
}

// CurrentIdentity resolves the caller and commits any renewal it caused.
func (s *AuthService) CurrentIdentity(ctx context.Context, carrier TokenCarrier) (*Identity, error) {
	uow, err := s.begin(ctx, carrier)
	if err != nil {
		return nil, err
	}
	defer uow.rollback("CurrentIdentity")

	identity, err := uow.identities.ResolveCurrentIdentity(ctx)
	if err != nil {
		return nil, err
	}
	if err := uow.tx.Commit(); err != nil {
		return nil, err
	}
	return identity, nil
}

func (s *AuthService) GetAccount(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	uow, err := s.begin(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer uow.rollback("GetAccount")

	account, err := uow.tx.Accounts().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrAccountNotFound, id)
	}
	return account, nil
}

// ListAccounts pages through accounts ordered by username. Admin only.
func (s *AuthService) ListAccounts(ctx context.Context, carrier TokenCarrier, page domain.Pagination) ([]*domain.Account, error) {
	uow, err := s.begin(ctx, carrier)
	if err != nil {
		return nil, err
	}
	defer uow.rollback("ListAccounts")

	if err := page.Validate(); err != nil {
		return nil, err
	}
	if _, err := NewAuthorizationService(uow.identities).CheckAuthorization(ctx, domain.RoleAdmin); err != nil {
		return nil, err
	}

	accounts, err := uow.tx.Accounts().List(ctx, page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	if err := uow.tx.Commit(); err != nil {
		return nil, err
	}
	return accounts, nil
}
