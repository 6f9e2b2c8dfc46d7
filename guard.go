package campus

import (
	"context"
	"strings"

	"github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// UserLoader resolves users by id.
type UserLoader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
}

// Guard resolves bearer tokens to users and runs the access checks.
// Every check is a read; nothing is mutated.
type Guard struct {
	tokens        TokenValidator
	users         UserLoader
	requireActive bool
	logger        Logger
}

// NewGuard returns a Guard. When requireActive is set, inactive accounts
// fail RequireActive with ErrInactiveAccount.
func NewGuard(tokens TokenValidator, users UserLoader, requireActive bool) *Guard {
	return &Guard{
		tokens:        tokens,
		users:         users,
		requireActive: requireActive,
		logger:        defLogger{},
	}
}

// WithLogger sets the logger.
func (g *Guard) WithLogger(logger Logger) *Guard {
	g.logger = resolveLogger(logger)
	return g
}

// Authenticate verifies token, extracts the subject and loads the user.
// Any failure is reported as ErrUnauthenticated with the cause attached.
func (g *Guard) Authenticate(ctx context.Context, token string) (*User, *Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, nil, unauthenticated(nil, "missing_token")
	}

	claims, err := g.tokens.Verify(token)
	if err != nil {
		reason := "invalid_token"
		var richErr *errors.Error
		if errors.As(err, &richErr) && richErr.TextCode != "" {
			reason = strings.ToLower(richErr.TextCode)
		}
		return nil, nil, unauthenticated(err, reason)
	}

	id, err := uuid.Parse(claims.UserID())
	if err != nil {
		return nil, nil, unauthenticated(err, "invalid_subject")
	}

	user, err := g.users.GetByID(ctx, id)
	if err != nil {
		if !IsNotFound(err) {
			g.logger.Error("guard failed to load user", "user_id", id.String(), "error", err)
		}
		return nil, nil, unauthenticated(err, "unknown_user")
	}

	return user, claims, nil
}

// RequireActive fails with ErrInactiveAccount when the guard enforces
// activation and user is not active.
func (g *Guard) RequireActive(user *User) error {
	if user == nil {
		return ErrUnauthenticated
	}
	if g.requireActive && !user.IsActive {
		return ErrInactiveAccount
	}
	return nil
}

// Authorize runs the checks every authenticated route shares: the account
// must be active and must not have a pending password rotation.
func (g *Guard) Authorize(user *User) error {
	if err := g.RequireActive(user); err != nil {
		return err
	}
	return RequirePasswordRotated(user)
}

// RequireAdmin fails with ErrForbidden unless user is an admin.
func RequireAdmin(user *User) error {
	if user == nil {
		return ErrUnauthenticated
	}
	if !user.IsAdmin {
		return ErrForbidden
	}
	return nil
}

// RequireOwnerOrAdmin fails with ErrForbidden unless user is an admin or
// owns the resource.
func RequireOwnerOrAdmin(user *User, ownerID uuid.UUID) error {
	if user == nil {
		return ErrUnauthenticated
	}
	if user.IsAdmin || user.ID == ownerID {
		return nil
	}
	return ErrForbidden
}

// RequirePasswordRotated blocks accounts still using a generated password.
func RequirePasswordRotated(user *User) error {
	if user == nil {
		return ErrUnauthenticated
	}
	if user.MustChangePassword {
		return ErrPasswordRotationRequired
	}
	return nil
}

func unauthenticated(cause error, reason string) error {
	if cause == nil {
		return ErrUnauthenticated.Clone().WithMetadata(map[string]any{"reason": reason})
	}

	var richErr *errors.Error
	if errors.As(cause, &richErr) {
		return ErrUnauthenticated.Clone().WithMetadata(map[string]any{
			"reason": reason,
			"cause":  richErr.TextCode,
		})
	}

	return errors.Wrap(cause, ErrUnauthenticated.Category, ErrUnauthenticated.Message).
		WithTextCode(ErrUnauthenticated.TextCode).
		WithCode(errors.CodeUnauthorized).
		WithMetadata(map[string]any{"reason": reason})
}
