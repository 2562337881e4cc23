package testutil

import (
	"context"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dom/session-auth/internal/api"
	"github.com/dom/session-auth/internal/config"
	"github.com/dom/session-auth/internal/db/migrate"
	"github.com/dom/session-auth/internal/repository/postgres"
	"github.com/dom/session-auth/internal/security"
	"github.com/dom/session-auth/internal/service"
	"github.com/testcontainers/testcontainers-go"
	tcPostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// TestDB manages a testcontainers PostgreSQL instance
type TestDB struct {
	Container testcontainers.Container
	DB        *gorm.DB
	DSN       string
}

// NewTestDB starts a PostgreSQL testcontainer and applies the embedded migrations
func NewTestDB(t *testing.T) *TestDB {
	t.Helper()

	ctx := context.Background()

	container, err := tcPostgres.Run(ctx,
		"postgres:15-alpine",
		tcPostgres.WithDatabase("test_session_auth"),
		tcPostgres.WithUsername("test"),
		tcPostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	testDB := &TestDB{Container: container}
	t.Cleanup(func() {
		testDB.Cleanup()
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get connection string: %v", err)
	}
	testDB.DSN = dsn

	if err := migrate.Run(dsn, "up"); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	db, err := postgres.NewConnection(dsn, "silent")
	if err != nil {
		t.Fatalf("failed to connect to database: %v", err)
	}
	testDB.DB = db

	return testDB
}

// Cleanup closes the pool and terminates the container
func (tdb *TestDB) Cleanup() {
	if tdb.DB != nil {
		if sqlDB, err := tdb.DB.DB(); err == nil {
			sqlDB.Close()
		}
	}
	if tdb.Container != nil {
		ctx := context.Background()
		tdb.Container.Terminate(ctx)
	}
}

// Truncate clears all tables for test isolation
func (tdb *TestDB) Truncate(t *testing.T) {
	t.Helper()

	if err := tdb.DB.Exec("TRUNCATE TABLE sessions, accounts").Error; err != nil {
		t.Fatalf("failed to truncate tables: %v", err)
	}
}

// TxManager returns a transaction manager over the test database
func (tdb *TestDB) TxManager() *postgres.TxManager {
	return postgres.NewTxManager(tdb.DB)
}

// TestConfig returns a configuration suitable for testing
func TestConfig() *config.Config {
	return &config.Config{
		Port:                    "0", // Random port
		Environment:             "test",
		DBLogLevel:              "silent",
		JWTSecret:               "test-jwt-secret-key-for-testing-only",
		JWTAlgorithm:            "HS256",
		SessionTTLMinutes:       5,
		SessionRefreshThreshold: 0.2,
		PasswordPepper:          "test-pepper",
		BcryptCost:              bcrypt.MinCost, // Fast hashing for tests
		CookieSecure:            false,
		CookieSameSite:          "lax",
	}
}

// TestHasher returns the password hasher matching TestConfig
func TestHasher() *security.PasswordHasher {
	cfg := TestConfig()
	return security.NewPasswordHasher(cfg.PasswordPepper, cfg.BcryptCost)
}

// TestServer holds all components for integration testing
type TestServer struct {
	Server   *httptest.Server
	DB       *TestDB
	Services *service.Services
	Config   *config.Config
}

// NewTestServer creates a complete test server with all dependencies
func NewTestServer(t *testing.T) *TestServer {
	t.Helper()

	testDB := NewTestDB(t)
	cfg := TestConfig()
	cfg.DatabaseURL = testDB.DSN

	services, err := service.NewServices(testDB.TxManager(), cfg)
	if err != nil {
		t.Fatalf("failed to create services: %v", err)
	}
	router := api.NewRouter(services, cfg)

	server := httptest.NewServer(router)

	ts := &TestServer{
		Server:   server,
		DB:       testDB,
		Services: services,
		Config:   cfg,
	}

	t.Cleanup(func() {
		server.Close()
	})

	return ts
}

// BaseURL returns the test server's base URL
func (ts *TestServer) BaseURL() string {
	return ts.Server.URL
}

// APIURL returns the full API URL for a given path
func (ts *TestServer) APIURL(path string) string {
	return fmt.Sprintf("%s/api/v1%s", ts.Server.URL, path)
}

// NewClient returns an HTTP client with its own cookie jar, i.e. one browser
func (ts *TestServer) NewClient(t *testing.T) *http.Client {
	t.Helper()

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("failed to create cookie jar: %v", err)
	}
	return &http.Client{Jar: jar, Timeout: 10 * time.Second}
}
