package testutil

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/dom/session-auth/internal/domain"
	"github.com/dom/session-auth/internal/repository"
	"github.com/google/uuid"
)

// MemoryStore is an in-memory repository.TxManager. Transactions are fully
// serialized: Begin blocks until the previous transaction commits or rolls back,
// which is a coarse stand-in for row locks.
type MemoryStore struct {
	sem chan struct{}

	mu       sync.Mutex
	accounts map[uuid.UUID]*domain.Account
	sessions map[string]*domain.Session
	faults   map[string]error
	vanish   bool
	commits  int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sem:      make(chan struct{}, 1),
		accounts: map[uuid.UUID]*domain.Account{},
		sessions: map[string]*domain.Session{},
		faults:   map[string]error{},
	}
}

var _ repository.TxManager = (*MemoryStore)(nil)

// FailOn makes every call to op ("accounts.Save", "sessions.Get", "commit", ...)
// fail with err wrapped as a data gateway error. A nil err clears the fault.
func (m *MemoryStore) FailOn(op string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.faults, op)
		return
	}
	m.faults[op] = fmt.Errorf("%w: %s: %w", domain.ErrDataGateway, op, err)
}

// VanishOnDelete makes the next session delete find no row, as if another
// writer removed it first.
func (m *MemoryStore) VanishOnDelete() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.vanish = true
}

func (m *MemoryStore) Commits() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.commits
}

// AddAccount stores a committed copy of a.
func (m *MemoryStore) AddAccount(a *domain.Account) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts[a.ID] = copyAccount(a)
}

// AddSession stores a committed copy of s.
func (m *MemoryStore) AddSession(s *domain.Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *s
	m.sessions[s.ID] = &cp
}

func (m *MemoryStore) Account(id uuid.UUID) *domain.Account {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a, ok := m.accounts[id]; ok {
		return copyAccount(a)
	}
	return nil
}

func (m *MemoryStore) Session(id string) *domain.Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[id]; ok {
		cp := *s
		return &cp
	}
	return nil
}

// Sessions returns the committed sessions of accountID.
func (m *MemoryStore) Sessions(accountID uuid.UUID) []*domain.Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Session
	for _, s := range m.sessions {
		if s.AccountID == accountID {
			cp := *s
			out = append(out, &cp)
		}
	}
	return out
}

func (m *MemoryStore) Begin(ctx context.Context) (repository.Tx, error) {
	select {
	case m.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: begin: %w", domain.ErrDataGateway, ctx.Err())
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.faults["begin"]; err != nil {
		<-m.sem
		return nil, err
	}

	tx := &memoryTx{
		store:    m,
		accounts: make(map[uuid.UUID]*domain.Account, len(m.accounts)),
		sessions: make(map[string]*domain.Session, len(m.sessions)),
	}
	for id, a := range m.accounts {
		tx.accounts[id] = copyAccount(a)
	}
	for id, s := range m.sessions {
		cp := *s
		tx.sessions[id] = &cp
	}
	return tx, nil
}

func (m *MemoryStore) fault(op string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.faults[op]
}

// memoryTx works on a private snapshot that replaces the committed state on Commit.
type memoryTx struct {
	store    *MemoryStore
	accounts map[uuid.UUID]*domain.Account
	sessions map[string]*domain.Session
	done     bool
}

func (tx *memoryTx) Accounts() repository.AccountRepository { return memoryAccounts{tx} }
func (tx *memoryTx) Sessions() repository.SessionRepository { return memorySessions{tx} }

func (tx *memoryTx) Commit() error {
	if tx.done {
		return fmt.Errorf("%w: commit: transaction already finished", domain.ErrDataGateway)
	}
	if err := tx.store.fault("commit"); err != nil {
		return err
	}
	tx.store.mu.Lock()
	tx.store.accounts = tx.accounts
	tx.store.sessions = tx.sessions
	tx.store.commits++
	tx.store.mu.Unlock()
	tx.finish()
	return nil
}

func (tx *memoryTx) Rollback() error {
	if !tx.done {
		tx.finish()
	}
	return nil
}

func (tx *memoryTx) finish() {
	tx.done = true
	<-tx.store.sem
}

type memoryAccounts struct{ tx *memoryTx }

func (r memoryAccounts) Save(ctx context.Context, account *domain.Account) error {
	if err := r.tx.store.fault("accounts.Save"); err != nil {
		return err
	}
	for id, a := range r.tx.accounts {
		if id != account.ID && a.Username == account.Username {
			return fmt.Errorf("%w: %s", domain.ErrUsernameTaken, account.Username)
		}
	}
	r.tx.accounts[account.ID] = copyAccount(account)
	return nil
}

func (r memoryAccounts) GetByID(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	if err := r.tx.store.fault("accounts.GetByID"); err != nil {
		return nil, err
	}
	if a, ok := r.tx.accounts[id]; ok {
		return copyAccount(a), nil
	}
	return nil, nil
}

func (r memoryAccounts) GetByUsername(ctx context.Context, username domain.Username, forUpdate bool) (*domain.Account, error) {
	if err := r.tx.store.fault("accounts.GetByUsername"); err != nil {
		return nil, err
	}
	for _, a := range r.tx.accounts {
		if a.Username == username.String() {
			return copyAccount(a), nil
		}
	}
	return nil, nil
}

func (r memoryAccounts) IsUsernameUnique(ctx context.Context, username domain.Username) (bool, error) {
	a, err := r.GetByUsername(ctx, username, false)
	if err != nil {
		return false, err
	}
	return a == nil, nil
}

func (r memoryAccounts) List(ctx context.Context, limit, offset int) ([]*domain.Account, error) {
	if err := r.tx.store.fault("accounts.List"); err != nil {
		return nil, err
	}
	all := make([]*domain.Account, 0, len(r.tx.accounts))
	for _, a := range r.tx.accounts {
		all = append(all, copyAccount(a))
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Username < all[j].Username })
	if offset >= len(all) {
		return []*domain.Account{}, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

type memorySessions struct{ tx *memoryTx }

func (r memorySessions) Save(ctx context.Context, session *domain.Session) error {
	if err := r.tx.store.fault("sessions.Save"); err != nil {
		return err
	}
	cp := *session
	r.tx.sessions[session.ID] = &cp
	return nil
}

func (r memorySessions) Get(ctx context.Context, id string, forUpdate bool) (*domain.Session, error) {
	if err := r.tx.store.fault("sessions.Get"); err != nil {
		return nil, err
	}
	if s, ok := r.tx.sessions[id]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, nil
}

func (r memorySessions) Delete(ctx context.Context, id string) (bool, error) {
	if err := r.tx.store.fault("sessions.Delete"); err != nil {
		return false, err
	}
	r.tx.store.mu.Lock()
	vanish := r.tx.store.vanish
	r.tx.store.vanish = false
	r.tx.store.mu.Unlock()
	if vanish {
		delete(r.tx.sessions, id)
		return false, nil
	}

	_, ok := r.tx.sessions[id]
	delete(r.tx.sessions, id)
	return ok, nil
}

func (r memorySessions) DeleteByAccountID(ctx context.Context, accountID uuid.UUID) error {
	if err := r.tx.store.fault("sessions.DeleteByAccountID"); err != nil {
		return err
	}
	for id, s := range r.tx.sessions {
		if s.AccountID == accountID {
			delete(r.tx.sessions, id)
		}
	}
	return nil
}

func copyAccount(a *domain.Account) *domain.Account {
	cp := *a
	cp.PasswordHash = append([]byte(nil), a.PasswordHash...)
	cp.Roles = append(cp.Roles[:0:0], a.Roles...)
	return &cp
}
