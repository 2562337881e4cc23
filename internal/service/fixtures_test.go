package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/dom/session-auth/internal/domain"
	"github.com/dom/session-auth/internal/service"
	"github.com/dom/session-auth/internal/session"
	"github.com/dom/session-auth/internal/testutil"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

type authFixture struct {
	store *testutil.MemoryStore
	clock *testutil.Clock
	codec *session.Codec
	timer *session.Timer
	auth  *service.AuthService
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()

	cfg := testutil.TestConfig()
	clock := testutil.NewClock(epoch)

	codec, err := session.NewCodec(cfg.JWTAlgorithm, cfg.JWTSecret)
	require.NoError(t, err)
	codec = codec.WithClock(clock.Now)

	timer, err := session.NewTimer(cfg.SessionTTL(), cfg.SessionRefreshThreshold)
	require.NoError(t, err)
	timer = timer.WithClock(clock.Now)

	store := testutil.NewMemoryStore()

	return &authFixture{
		store: store,
		clock: clock,
		codec: codec,
		timer: timer,
		auth:  service.NewAuthService(store, codec, timer, testutil.TestHasher()),
	}
}

func creds(username, password string) domain.Credentials {
	return domain.Credentials{Username: username, Password: password}
}

// seedSession stores a session for account and returns a token for it.
func (f *authFixture) seedSession(t *testing.T, account *domain.Account, id string, expiration time.Time) string {
	t.Helper()

	f.store.AddSession(&domain.Session{ID: id, AccountID: account.ID, Expiration: expiration})
	token, err := f.codec.Issue(id, expiration)
	require.NoError(t, err)
	return token
}

// loggedIn creates an account and logs it in, returning the carrier holding its token.
func (f *authFixture) loggedIn(t *testing.T, builder *testutil.AccountBuilder) (*domain.Account, *testutil.MemoryCarrier) {
	t.Helper()

	account, password := builder.BuildInMemory(t, f.store)
	carrier := testutil.NewMemoryCarrier("")
	_, err := f.auth.LogIn(context.Background(), carrier, creds(account.Username, password))
	require.NoError(t, err)
	return account, carrier
}
