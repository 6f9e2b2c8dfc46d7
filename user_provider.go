package campus

import (
	"context"
	"time"

	"github.com/goliatone/go-errors"
)

// UserTracker is a store we can use to retrieve users
type UserTracker interface {
	GetByIdentifier(ctx context.Context, identifier string) (*User, error)
	TrackAttemptedLogin(ctx context.Context, user *User) error
	TrackSucccessfulLogin(ctx context.Context, user *User) error
}

// UserProvider verifies credentials against stored users.
type UserProvider struct {
	store            UserTracker
	hasher           *Hasher
	maxLoginAttempts int
	lockoutPeriod    time.Duration
	logger           Logger
}

// DefaultMaxLoginAttempts is the number of failures allowed per lockout period.
const DefaultMaxLoginAttempts = 5

// DefaultLockoutPeriod is how long an account stays locked.
const DefaultLockoutPeriod = 15 * time.Minute

// NewUserProvider will create a new UserProvider
func NewUserProvider(store UserTracker, hasher *Hasher) *UserProvider {
	return &UserProvider{
		store:            store,
		hasher:           hasher,
		maxLoginAttempts: DefaultMaxLoginAttempts,
		lockoutPeriod:    DefaultLockoutPeriod,
		logger:           defLogger{},
	}
}

// WithLockout sets the lockout policy. Non positive values keep the defaults.
func (u *UserProvider) WithLockout(maxAttempts int, period time.Duration) *UserProvider {
	if maxAttempts > 0 {
		u.maxLoginAttempts = maxAttempts
	}
	if period > 0 {
		u.lockoutPeriod = period
	}
	return u
}

func (u *UserProvider) WithLogger(l Logger) *UserProvider {
	u.logger = resolveLogger(l)
	return u
}

// VerifyIdentity will find the user, compare to the password, and return it.
// Unknown handles and wrong passwords are indistinguishable to the caller.
func (u *UserProvider) VerifyIdentity(ctx context.Context, identifier, password string) (*User, error) {
	user, err := u.store.GetByIdentifier(ctx, identifier)
	if err != nil {
		if IsNotFound(err) || errors.IsNotFound(err) {
			return nil, ErrMismatchedHashAndPassword
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to retrieve user during verification")
	}

	if user.LoginAttemptAt != nil && IsOutsideThresholdPeriod(*user.LoginAttemptAt, u.lockoutPeriod) {
		user.LoginAttempts = 0
	}

	//if we have too many attempts in the given window, cool off!
	if user.LoginAttempts >= u.maxLoginAttempts {
		return nil, ErrTooManyLoginAttempts.Clone().WithMetadata(map[string]any{
			"retry_after": u.retryAfter(user).String(),
		})
	}

	if err := u.hasher.ComparePassword(password, user.PasswordHash); err != nil {
		if !HasTextCode(err, TextCodeInvalidCredentials) {
			u.logger.Error("password verification failed", "user_id", user.ID.String(), "error", err)
			return nil, err
		}

		if err2 := u.store.TrackAttemptedLogin(ctx, user); err2 != nil {
			return nil, errors.Wrap(err2, errors.CategoryInternal, "failed to track login attempt")
		}

		return nil, ErrMismatchedHashAndPassword
	}

	if err := u.store.TrackSucccessfulLogin(ctx, user); err != nil {
		u.logger.Error("failed to track successful login", "error", err)
	}

	return user, nil
}

func (u *UserProvider) retryAfter(user *User) time.Duration {
	if user.LoginAttemptAt == nil {
		return u.lockoutPeriod
	}
	left := time.Until(user.LoginAttemptAt.Add(u.lockoutPeriod))
	if left < 0 {
		return 0
	}
	return left.Round(time.Second)
}
