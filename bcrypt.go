package campus

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"

	"github.com/goliatone/go-errors"
	"golang.org/x/crypto/bcrypt"
)

// bcryptMaxInput is the number of bytes bcrypt reads from a password.
const bcryptMaxInput = 72

// Hasher hashes and verifies passwords with bcrypt.
type Hasher struct {
	cost int
}

// NewHasher returns a Hasher using cost, or the build default when cost
// is outside the bcrypt range.
func NewHasher(cost int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = passwordHashCost()
	}
	return &Hasher{cost: cost}
}

// HashPassword will generate a password hash
func (h *Hasher) HashPassword(password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}

	hash, err := bcrypt.GenerateFromPassword(reducePassword(password), h.cost)
	if err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to hash password")
	}
	return string(hash), nil
}

// ComparePassword validates that the cleartext password matches hash.
// A wrong password yields ErrMismatchedHashAndPassword, an unreadable
// hash yields ErrCorruptPasswordHash.
func (h *Hasher) ComparePassword(password, hash string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), reducePassword(password))
	if err == nil {
		return nil
	}

	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return ErrMismatchedHashAndPassword
	}

	return errors.Wrap(err, ErrCorruptPasswordHash.Category, ErrCorruptPasswordHash.Message).
		WithTextCode(ErrCorruptPasswordHash.TextCode).
		WithCode(errors.CodeInternal)
}

// VerifyPassword is the boolean form of ComparePassword.
func (h *Hasher) VerifyPassword(password, hash string) bool {
	return h.ComparePassword(password, hash) == nil
}

// RandomPassword returns a URL safe secret suitable as a one time password.
func RandomPassword() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to generate password")
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// reducePassword replaces inputs bcrypt would truncate with their hex
// encoded SHA-256 digest. Both hash and compare paths go through here.
func reducePassword(password string) []byte {
	raw := []byte(password)
	if len(raw) <= bcryptMaxInput {
		return raw
	}
	sum := sha256.Sum256(raw)
	return []byte(hex.EncodeToString(sum[:]))
}
