package campus

import (
	"context"

	"github.com/uptrace/bun"
)

// SeedAdminMessage describes the bootstrap administrator.
type SeedAdminMessage struct {
	Username string
	Password string
	Email    string
}

func (e SeedAdminMessage) Type() string { return "user.seed_admin" }

// SeedAdmin creates the bootstrap administrator when it does not exist yet.
// It reports whether an account was created.
func SeedAdmin(ctx context.Context, repo RepositoryManager, hasher *Hasher, msg SeedAdminMessage) (*User, bool, error) {
	username := NormalizeHandle(msg.Username)
	if username == "" {
		return nil, false, validationError("username", "bootstrap admin username is required")
	}

	var (
		user    *User
		created bool
	)

	hash, err := hasher.HashPassword(msg.Password)
	if err != nil {
		return nil, false, err
	}

	err = repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		existing, err := repo.Users().GetByIdentifierTx(ctx, tx, username)
		if err == nil {
			user = existing
			return nil
		}
		if !IsNotFound(err) {
			return err
		}

		user, err = repo.Users().CreateTx(ctx, tx, &User{
			Username:     username,
			Email:        msg.Email,
			FirstName:    "Super",
			LastName:     "Admin",
			PasswordHash: hash,
			IsAdmin:      true,
			IsActive:     true,
		})
		created = err == nil
		return err
	})
	if err != nil {
		return nil, false, wrapTxError(err, "admin seed transaction failed")
	}

	return user, created, nil
}
