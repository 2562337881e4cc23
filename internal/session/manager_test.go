package session_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dom/session-auth/internal/domain"
	"github.com/dom/session-auth/internal/repository"
	"github.com/dom/session-auth/internal/session"
	"github.com/dom/session-auth/internal/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type managerFixture struct {
	store   *testutil.MemoryStore
	clock   *testutil.Clock
	timer   *session.Timer
	tx      repository.Tx
	manager *session.Manager
}

func newManagerFixture(t *testing.T) *managerFixture {
	t.Helper()

	clock := testutil.NewClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	timer, err := session.NewTimer(5*time.Minute, 0.2)
	require.NoError(t, err)
	timer = timer.WithClock(clock.Now)

	store := testutil.NewMemoryStore()
	tx, err := store.Begin(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { tx.Rollback() })

	return &managerFixture{
		store:   store,
		clock:   clock,
		timer:   timer,
		tx:      tx,
		manager: session.NewManager(tx.Sessions(), timer, nil),
	}
}

func TestManager_Create(t *testing.T) {
	f := newManagerFixture(t)
	accountID := uuid.New()

	s, err := f.manager.Create(accountID)
	require.NoError(t, err)

	assert.Equal(t, accountID, s.AccountID)
	assert.True(t, s.Expiration.Equal(f.clock.Now().Add(5*time.Minute)))
	assert.Len(t, s.ID, 43) // 32 bytes, unpadded base64url

	// Not persisted until saved
	_, err = f.manager.Get(context.Background(), s.ID, false)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestManager_CreateUsesGenerator(t *testing.T) {
	f := newManagerFixture(t)

	manager := session.NewManager(f.tx.Sessions(), f.timer, func() (string, error) { return "fixed-id", nil })
	s, err := manager.Create(uuid.New())
	require.NoError(t, err)
	assert.Equal(t, "fixed-id", s.ID)

	failing := session.NewManager(f.tx.Sessions(), f.timer, func() (string, error) { return "", errors.New("entropy exhausted") })
	_, err = failing.Create(uuid.New())
	assert.Error(t, err)
}

func TestNewID_Unique(t *testing.T) {
	seen := make(map[string]struct{}, 1000)
	for i := 0; i < 1000; i++ {
		id, err := session.NewID()
		require.NoError(t, err)
		_, dup := seen[id]
		require.False(t, dup, "duplicate session id %s", id)
		seen[id] = struct{}{}
	}
}

func TestManager_SaveAndGet(t *testing.T) {
	f := newManagerFixture(t)
	ctx := context.Background()

	s, err := f.manager.Create(uuid.New())
	require.NoError(t, err)
	require.NoError(t, f.manager.Save(ctx, s))

	got, err := f.manager.Get(ctx, s.ID, true)
	require.NoError(t, err)
	assert.True(t, s.Equal(got))
	assert.True(t, s.Expiration.Equal(got.Expiration))
}

func TestManager_CheckNotExpired(t *testing.T) {
	f := newManagerFixture(t)
	now := f.clock.Now()

	tests := []struct {
		name       string
		expiration time.Time
		wantErr    bool
	}{
		{name: "future", expiration: now.Add(time.Second)},
		{name: "exactly now", expiration: now, wantErr: true},
		{name: "past", expiration: now.Add(-time.Second), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := f.manager.CheckNotExpired(&domain.Session{ID: "s", Expiration: tt.expiration})
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrSessionExpired)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestManager_IsNearExpiry(t *testing.T) {
	f := newManagerFixture(t)
	now := f.clock.Now()

	tests := []struct {
		name      string
		remaining time.Duration
		want      bool
	}{
		{name: "fresh", remaining: 5 * time.Minute, want: false},
		{name: "exactly at trigger", remaining: time.Minute, want: false},
		{name: "inside trigger", remaining: 59 * time.Second, want: true},
		{name: "one second left", remaining: time.Second, want: true},
		{name: "expired", remaining: 0, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &domain.Session{ID: "s", Expiration: now.Add(tt.remaining)}
			assert.Equal(t, tt.want, f.manager.IsNearExpiry(s))
		})
	}
}

func TestManager_Renew(t *testing.T) {
	f := newManagerFixture(t)
	ctx := context.Background()

	s, err := f.manager.Create(uuid.New())
	require.NoError(t, err)
	require.NoError(t, f.manager.Save(ctx, s))

	f.clock.Advance(4*time.Minute + 30*time.Second)
	require.True(t, f.manager.IsNearExpiry(s))

	require.NoError(t, f.manager.Renew(ctx, s))
	assert.True(t, s.Expiration.Equal(f.clock.Now().Add(5*time.Minute)))

	stored, err := f.manager.Get(ctx, s.ID, false)
	require.NoError(t, err)
	assert.True(t, stored.Expiration.Equal(s.Expiration))
	assert.False(t, f.manager.IsNearExpiry(stored))
}

func TestManager_Delete(t *testing.T) {
	f := newManagerFixture(t)
	ctx := context.Background()

	s, err := f.manager.Create(uuid.New())
	require.NoError(t, err)
	require.NoError(t, f.manager.Save(ctx, s))

	require.NoError(t, f.manager.Delete(ctx, s.ID))
	assert.ErrorIs(t, f.manager.Delete(ctx, s.ID), domain.ErrSessionNotFound)
}

func TestManager_DeleteAllForAccount(t *testing.T) {
	f := newManagerFixture(t)
	ctx := context.Background()
	alice, bob := uuid.New(), uuid.New()

	var aliceIDs []string
	for i := 0; i < 3; i++ {
		s, err := f.manager.Create(alice)
		require.NoError(t, err)
		require.NoError(t, f.manager.Save(ctx, s))
		aliceIDs = append(aliceIDs, s.ID)
	}
	bobSession, err := f.manager.Create(bob)
	require.NoError(t, err)
	require.NoError(t, f.manager.Save(ctx, bobSession))

	require.NoError(t, f.manager.DeleteAllForAccount(ctx, alice))

	for _, id := range aliceIDs {
		_, err := f.manager.Get(ctx, id, false)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	}
	_, err = f.manager.Get(ctx, bobSession.ID, false)
	assert.NoError(t, err)
}

func TestManager_StoreFailure(t *testing.T) {
	f := newManagerFixture(t)
	f.store.FailOn("sessions.Get", errors.New("connection reset"))

	_, err := f.manager.Get(context.Background(), "any", false)
	assert.ErrorIs(t, err, domain.ErrDataGateway)
	assert.NotErrorIs(t, err, domain.ErrSessionNotFound)
}
