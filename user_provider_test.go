package campus_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/goliatone/go-campus"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestUserProviderVerifyIdentity(t *testing.T) {
	ctx := context.Background()
	hasher := newTestHasher()
	passwordHash, err := hasher.HashPassword("password123")
	require.NoError(t, err)

	newUser := func(attempts int, at *time.Time) *campus.User {
		return &campus.User{
			ID:             uuid.New(),
			Username:       "testuser",
			Email:          "test@example.com",
			PasswordHash:   passwordHash,
			IsActive:       true,
			LoginAttempts:  attempts,
			LoginAttemptAt: at,
		}
	}

	t.Run("Successful verification", func(t *testing.T) {
		mockTracker := new(MockUserTracker)
		provider := campus.NewUserProvider(mockTracker, hasher).WithLogger(nopLogger{})
		user := newUser(0, nil)

		mockTracker.On("GetByIdentifier", ctx, "testuser").Return(user, nil).Once()
		mockTracker.On("TrackSucccessfulLogin", ctx, user).Return(nil).Once()

		identity, err := provider.VerifyIdentity(ctx, "testuser", "password123")

		require.NoError(t, err)
		assert.Equal(t, user.ID, identity.ID)
		mockTracker.AssertExpectations(t)
	})

	t.Run("Invalid password", func(t *testing.T) {
		mockTracker := new(MockUserTracker)
		provider := campus.NewUserProvider(mockTracker, hasher).WithLogger(nopLogger{})
		user := newUser(0, nil)

		mockTracker.On("GetByIdentifier", ctx, "testuser").Return(user, nil).Once()
		mockTracker.On("TrackAttemptedLogin", ctx, user).Return(nil).Once()

		identity, err := provider.VerifyIdentity(ctx, "testuser", "wrong_password")

		require.Error(t, err)
		assert.Nil(t, identity)
		assert.True(t, campus.HasTextCode(err, campus.TextCodeInvalidCredentials))
		mockTracker.AssertExpectations(t)
	})

	t.Run("Unknown handle looks like a wrong password", func(t *testing.T) {
		mockTracker := new(MockUserTracker)
		provider := campus.NewUserProvider(mockTracker, hasher).WithLogger(nopLogger{})

		mockTracker.On("GetByIdentifier", ctx, "ghost").Return(nil, campus.ErrUserNotFound).Once()

		identity, err := provider.VerifyIdentity(ctx, "ghost", "password123")

		require.Error(t, err)
		assert.Nil(t, identity)
		assert.True(t, campus.HasTextCode(err, campus.TextCodeInvalidCredentials))
		mockTracker.AssertNotCalled(t, "TrackAttemptedLogin", mock.Anything, mock.Anything)
		mockTracker.AssertExpectations(t)
	})

	t.Run("Store failure", func(t *testing.T) {
		mockTracker := new(MockUserTracker)
		provider := campus.NewUserProvider(mockTracker, hasher).WithLogger(nopLogger{})

		mockTracker.On("GetByIdentifier", ctx, "testuser").Return(nil, errors.New("connection reset")).Once()

		_, err := provider.VerifyIdentity(ctx, "testuser", "password123")

		require.Error(t, err)
		assert.False(t, campus.HasTextCode(err, campus.TextCodeInvalidCredentials))
		mockTracker.AssertExpectations(t)
	})

	t.Run("Too many login attempts", func(t *testing.T) {
		mockTracker := new(MockUserTracker)
		provider := campus.NewUserProvider(mockTracker, hasher).
			WithLockout(3, time.Hour).
			WithLogger(nopLogger{})
		now := time.Now()
		user := newUser(3, &now)

		mockTracker.On("GetByIdentifier", ctx, "testuser").Return(user, nil).Once()

		identity, err := provider.VerifyIdentity(ctx, "testuser", "password123")

		require.Error(t, err)
		assert.Nil(t, identity)
		assert.True(t, campus.HasTextCode(err, campus.TextCodeTooManyLoginAttempts))
		mockTracker.AssertExpectations(t)
	})

	t.Run("Login attempts cooldown expired", func(t *testing.T) {
		mockTracker := new(MockUserTracker)
		provider := campus.NewUserProvider(mockTracker, hasher).
			WithLockout(3, time.Hour).
			WithLogger(nopLogger{})
		oldAttempt := time.Now().Add(-2 * time.Hour)
		user := newUser(5, &oldAttempt)

		mockTracker.On("GetByIdentifier", ctx, "testuser").Return(user, nil).Once()
		mockTracker.On("TrackSucccessfulLogin", ctx, mock.MatchedBy(func(u *campus.User) bool {
			return u.ID == user.ID && u.LoginAttempts == 0
		})).Return(nil).Once()

		identity, err := provider.VerifyIdentity(ctx, "testuser", "password123")

		require.NoError(t, err)
		assert.NotNil(t, identity)
		mockTracker.AssertExpectations(t)
	})

	t.Run("Tracking failure on success is not fatal", func(t *testing.T) {
		mockTracker := new(MockUserTracker)
		provider := campus.NewUserProvider(mockTracker, hasher).WithLogger(nopLogger{})
		user := newUser(0, nil)

		mockTracker.On("GetByIdentifier", ctx, "testuser").Return(user, nil).Once()
		mockTracker.On("TrackSucccessfulLogin", ctx, user).Return(errors.New("disk full")).Once()

		identity, err := provider.VerifyIdentity(ctx, "testuser", "password123")

		require.NoError(t, err)
		assert.NotNil(t, identity)
		mockTracker.AssertExpectations(t)
	})
}

func TestUserProvider_LockoutAgainstStore(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	seedUser(t, repo, "meera", false)

	provider := campus.NewUserProvider(repo.Users(), newTestHasher()).
		WithLockout(2, time.Hour).
		WithLogger(nopLogger{})

	for i := 0; i < 2; i++ {
		_, err := provider.VerifyIdentity(ctx, "meera", "wrong")
		require.True(t, campus.HasTextCode(err, campus.TextCodeInvalidCredentials), "attempt %d: %v", i, err)
	}

	_, err := provider.VerifyIdentity(ctx, "meera", "password-meera")
	assert.True(t, campus.HasTextCode(err, campus.TextCodeTooManyLoginAttempts), "got %v", err)
}

func TestUserProvider_SuccessResetsAttempts(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	seedUser(t, repo, "ravi", false)

	provider := campus.NewUserProvider(repo.Users(), newTestHasher()).
		WithLockout(2, time.Hour).
		WithLogger(nopLogger{})

	_, err := provider.VerifyIdentity(ctx, "ravi", "wrong")
	require.Error(t, err)

	user, err := provider.VerifyIdentity(ctx, "ravi", "password-ravi")
	require.NoError(t, err)
	assert.NotNil(t, user)

	stored, err := repo.Users().GetByIdentifier(ctx, "ravi")
	require.NoError(t, err)
	assert.Equal(t, 0, stored.LoginAttempts)
	assert.NotNil(t, stored.LoggedInAt)

	_, err = provider.VerifyIdentity(ctx, "ravi", "wrong")
	require.Error(t, err)
	_, err = provider.VerifyIdentity(ctx, "ravi", "password-ravi")
	assert.NoError(t, err, "a single failure after a reset must not lock the account")
}

func TestUsers_TrackAttemptedLoginCountsInStore(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	seedUser(t, repo, "kiran", false)

	load := func() *campus.User {
		u, err := repo.Users().GetByIdentifier(ctx, "kiran")
		require.NoError(t, err)
		return u
	}

	require.NoError(t, repo.Users().TrackAttemptedLogin(ctx, load()))

	// both copies were read before either failure was written
	first, second := load(), load()
	require.Equal(t, 1, first.LoginAttempts)
	require.NoError(t, repo.Users().TrackAttemptedLogin(ctx, first))
	require.NoError(t, repo.Users().TrackAttemptedLogin(ctx, second))

	stored := load()
	assert.Equal(t, 3, stored.LoginAttempts)
	assert.NotNil(t, stored.LoginAttemptAt)

	t.Run("expired window starts over", func(t *testing.T) {
		expired := load()
		expired.LoginAttempts = 0
		require.NoError(t, repo.Users().TrackAttemptedLogin(ctx, expired))
		assert.Equal(t, 1, expired.LoginAttempts)
		assert.Equal(t, 1, load().LoginAttempts)
	})
}

func TestUserProvider_RejectsUserIDAsHandle(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	user := seedUser(t, repo, "sana", false)

	provider := campus.NewUserProvider(repo.Users(), newTestHasher()).WithLogger(nopLogger{})

	_, err := provider.VerifyIdentity(ctx, user.ID.String(), "password-sana")
	assert.True(t, campus.HasTextCode(err, campus.TextCodeInvalidCredentials), "got %v", err)

	_, err = repo.Users().GetByIdentifier(ctx, user.ID.String())
	assert.True(t, campus.IsNotFound(err))
}
