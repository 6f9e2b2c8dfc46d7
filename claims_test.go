package campus_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-campus"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestClaims_UserID(t *testing.T) {
	t.Run("returns UID when present", func(t *testing.T) {
		claims := &campus.Claims{
			RegisteredClaims: jwt.RegisteredClaims{Subject: "user123"},
			UID:              "uid456",
		}
		assert.Equal(t, "uid456", claims.UserID())
	})

	t.Run("falls back to subject", func(t *testing.T) {
		claims := &campus.Claims{
			RegisteredClaims: jwt.RegisteredClaims{Subject: "user123"},
		}
		assert.Equal(t, "user123", claims.UserID())
	})
}

func TestClaims_Expires(t *testing.T) {
	assert.True(t, (&campus.Claims{}).Expires().IsZero())

	exp := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	claims := &campus.Claims{
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(exp)},
	}
	assert.True(t, exp.Equal(claims.Expires()))
}

func TestClaimsFor(t *testing.T) {
	user := &campus.User{ID: uuid.New(), IsAdmin: true}

	claims := campus.ClaimsFor(user)

	assert.Equal(t, user.ID.String(), claims.Subject)
	assert.Equal(t, user.ID.String(), claims.UserID())
	assert.True(t, claims.IsAdmin())
	assert.False(t, claims.PasswordRotation)
}
