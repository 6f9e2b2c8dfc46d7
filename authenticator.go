package campus

import (
	"context"
	"time"
)

// IdentityProvider verifies a handle and password pair.
type IdentityProvider interface {
	VerifyIdentity(ctx context.Context, identifier, password string) (*User, error)
}

// LoginResult is returned by a successful Login.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	User      *User
}

// Auther exchanges credentials for bearer tokens.
type Auther struct {
	provider      IdentityProvider
	tokens        TokenService
	requireActive bool
	logger        Logger
	activitySink  ActivitySink
}

// NewAuthenticator returns a new Authenticator
func NewAuthenticator(provider IdentityProvider, tokens TokenService, requireActive bool) *Auther {
	return &Auther{
		provider:      provider,
		tokens:        tokens,
		requireActive: requireActive,
		logger:        defLogger{},
		activitySink:  noopActivitySink{},
	}
}

func (s *Auther) WithLogger(logger Logger) *Auther {
	s.logger = resolveLogger(logger)
	return s
}

// WithActivitySink configures an ActivitySink for emitting auth events.
func (s *Auther) WithActivitySink(sink ActivitySink) *Auther {
	s.activitySink = normalizeActivitySink(sink)
	return s
}

// TokenService returns the TokenService instance used by this Authenticator
func (s *Auther) TokenService() TokenService {
	return s.tokens
}

// Login verifies the credentials and issues a token. Inactive accounts get
// ErrInactiveAccount after a successful password check.
func (s *Auther) Login(ctx context.Context, identifier, password string) (*LoginResult, error) {
	user, err := s.provider.VerifyIdentity(ctx, identifier, password)
	if err != nil {
		s.logger.Info("Login verify identity error", "identifier", identifier, "error", err)
		s.emit(ctx, ActivityEventLoginFailure, ActorRef{Type: "unknown"}, "", map[string]any{
			"identifier": identifier,
			"error":      err.Error(),
		})
		return nil, err
	}

	if s.requireActive && !user.IsActive {
		s.logger.Warn("Login blocked for inactive account", "user_id", user.ID.String())
		s.emit(ctx, ActivityEventLoginFailure, ActorFromUser(user), user.ID.String(), map[string]any{
			"identifier": identifier,
			"error":      ErrInactiveAccount.Error(),
		})
		return nil, ErrInactiveAccount
	}

	token, expiresAt, err := s.tokens.IssueFor(user)
	if err != nil {
		s.logger.Error("Login failed to issue token", "user_id", user.ID.String(), "error", err)
		s.emit(ctx, ActivityEventLoginFailure, ActorFromUser(user), user.ID.String(), map[string]any{
			"identifier": identifier,
			"error":      err.Error(),
		})
		return nil, err
	}

	s.emit(ctx, ActivityEventLoginSuccess, ActorFromUser(user), user.ID.String(), map[string]any{
		"must_change_password": user.MustChangePassword,
	})

	return &LoginResult{
		Token:     token,
		ExpiresAt: expiresAt,
		User:      user,
	}, nil
}

func (s *Auther) emit(ctx context.Context, eventType ActivityEventType, actor ActorRef, userID string, metadata map[string]any) {
	newActivityEmitter(s.activitySink, s.logger).emit(ctx, eventType, actor, userID, userID, metadata)
}
