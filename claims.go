package campus

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the payload carried by session tokens.
type Claims struct {
	jwt.RegisteredClaims
	UID              string `json:"uid,omitempty"`
	Admin            bool   `json:"adm"`
	PasswordRotation bool   `json:"pwd,omitempty"`
}

// UserID returns the user id, falling back to the subject.
func (c *Claims) UserID() string {
	if c.UID != "" {
		return c.UID
	}
	return c.Subject
}

// IsAdmin reports the admin privilege embedded at issue time.
func (c *Claims) IsAdmin() bool {
	return c.Admin
}

// Expires returns the expiry or the zero time.
func (c *Claims) Expires() time.Time {
	if c.ExpiresAt == nil {
		return time.Time{}
	}
	return c.ExpiresAt.Time
}

// ClaimsFor builds the claims describing user.
func ClaimsFor(user *User) *Claims {
	id := user.ID.String()
	return &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject: id,
		},
		UID:              id,
		Admin:            user.IsAdmin,
		PasswordRotation: user.MustChangePassword,
	}
}
