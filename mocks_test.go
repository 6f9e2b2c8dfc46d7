package campus_test

import (
	"context"
	"testing"
	"time"

	"github.com/goliatone/go-campus"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testSigningKey = "unit-test-signing-key-with-enough-bytes"

// MockUserTracker implements campus.UserTracker
type MockUserTracker struct {
	mock.Mock
}

func (m *MockUserTracker) GetByIdentifier(ctx context.Context, identifier string) (*campus.User, error) {
	args := m.Called(ctx, identifier)
	user, _ := args.Get(0).(*campus.User)
	return user, args.Error(1)
}

func (m *MockUserTracker) TrackAttemptedLogin(ctx context.Context, user *campus.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserTracker) TrackSucccessfulLogin(ctx context.Context, user *campus.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

// MockUserLoader implements campus.UserLoader
type MockUserLoader struct {
	mock.Mock
}

func (m *MockUserLoader) GetByID(ctx context.Context, id uuid.UUID) (*campus.User, error) {
	args := m.Called(ctx, id)
	user, _ := args.Get(0).(*campus.User)
	return user, args.Error(1)
}

// MockIdentityProvider implements campus.IdentityProvider
type MockIdentityProvider struct {
	mock.Mock
}

func (m *MockIdentityProvider) VerifyIdentity(ctx context.Context, identifier, password string) (*campus.User, error) {
	args := m.Called(ctx, identifier, password)
	user, _ := args.Get(0).(*campus.User)
	return user, args.Error(1)
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

// testConfig implements campus.Config with fields tests can tweak.
type testConfig struct {
	key          string
	ttl          time.Duration
	leeway       time.Duration
	issuer       string
	audience     []string
	autoActivate bool
}

func newTestConfig() *testConfig {
	return &testConfig{
		key:      testSigningKey,
		ttl:      time.Hour,
		issuer:   "go-campus",
		audience: []string{"campus-api"},
	}
}

func (c *testConfig) GetSigningKey() string           { return c.key }
func (c *testConfig) GetTokenTTL() time.Duration      { return c.ttl }
func (c *testConfig) GetTokenLeeway() time.Duration   { return c.leeway }
func (c *testConfig) GetIssuer() string               { return c.issuer }
func (c *testConfig) GetAudience() []string           { return c.audience }
func (c *testConfig) GetAutoActivateSignups() bool    { return c.autoActivate }
func (c *testConfig) GetRequireActiveAccount() bool   { return true }
func (c *testConfig) GetBcryptCost() int              { return bcrypt.MinCost }
func (c *testConfig) GetMaxLoginAttempts() int        { return campus.DefaultMaxLoginAttempts }
func (c *testConfig) GetLockoutPeriod() time.Duration { return campus.DefaultLockoutPeriod }
func (c *testConfig) GetDefaultPhoneRegion() string   { return campus.DefaultPhoneRegion }

func newTestHasher() *campus.Hasher {
	return campus.NewHasher(bcrypt.MinCost)
}

// newTestRepo opens a private in-memory SQLite database with the
// migrations applied.
func newTestRepo(t *testing.T) campus.RepositoryManager {
	t.Helper()
	ctx := context.Background()

	db, err := campus.OpenDB(ctx, campus.DBOptions{
		Driver: campus.DriverSQLite,
		DSN:    "file:" + uuid.NewString() + "?mode=memory&cache=shared",
	})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = campus.Migrate(ctx, db)
	require.NoError(t, err)

	return campus.NewRepositoryManager(db)
}

// seedUser stores an active user directly through the repository.
func seedUser(t *testing.T, repo campus.RepositoryManager, username string, admin bool) *campus.User {
	t.Helper()

	hash, err := newTestHasher().HashPassword("password-" + username)
	require.NoError(t, err)

	user, err := repo.Users().Create(context.Background(), &campus.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: hash,
		IsAdmin:      admin,
		IsActive:     true,
	})
	require.NoError(t, err)
	return user
}

func intPtr(v int) *int { return &v }

func strPtr(v string) *string { return &v }

func timePtr(v time.Time) *time.Time { return &v }
