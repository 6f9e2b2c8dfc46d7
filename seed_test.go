package campus_test

import (
	"context"
	"testing"

	"github.com/goliatone/go-campus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeedAdmin(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	hasher := newTestHasher()

	msg := campus.SeedAdminMessage{Username: " Root ", Password: "root-password", Email: "root@example.com"}

	user, created, err := campus.SeedAdmin(ctx, repo, hasher, msg)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "root", user.Username)
	assert.True(t, user.IsAdmin)
	assert.True(t, user.IsActive)
	assert.True(t, hasher.VerifyPassword("root-password", user.PasswordHash))

	again, created, err := campus.SeedAdmin(ctx, repo, hasher, campus.SeedAdminMessage{Username: "root", Password: "different"})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, user.ID, again.ID)
	assert.True(t, hasher.VerifyPassword("root-password", again.PasswordHash), "seeding must not reset the password")

	_, _, err = campus.SeedAdmin(ctx, repo, hasher, campus.SeedAdminMessage{Password: "x"})
	assert.True(t, campus.HasTextCode(err, campus.TextCodeValidation))

	_, _, err = campus.SeedAdmin(ctx, repo, hasher, campus.SeedAdminMessage{Username: "other"})
	assert.True(t, campus.HasTextCode(err, campus.TextCodeEmptyPassword))
}
