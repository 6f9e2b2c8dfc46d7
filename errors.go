package campus

import (
	"net/http"
	"strings"

	"github.com/goliatone/go-errors"
)

const (
	TextCodeValidation            = "VALIDATION_ERROR"
	TextCodeEmptyPassword         = "EMPTY_PASSWORD"
	TextCodeInvalidCredentials    = "INVALID_CREDENTIALS"
	TextCodeCorruptPasswordHash   = "CORRUPT_PASSWORD_HASH"
	TextCodeTooManyLoginAttempts  = "TOO_MANY_LOGIN_ATTEMPTS"
	TextCodeTokenMalformed        = "TOKEN_MALFORMED"
	TextCodeTokenSignatureInvalid = "TOKEN_SIGNATURE_INVALID"
	TextCodeTokenExpired          = "TOKEN_EXPIRED"
	TextCodeUnauthenticated       = "UNAUTHENTICATED"
	TextCodeForbidden             = "FORBIDDEN"
	TextCodeInactiveAccount       = "INACTIVE_ACCOUNT"
	TextCodePasswordRotation      = "PASSWORD_ROTATION_REQUIRED"
	TextCodeUserNotFound          = "USER_NOT_FOUND"
	TextCodeCollegeNotFound       = "COLLEGE_NOT_FOUND"
	TextCodeStudentNotFound       = "STUDENT_NOT_FOUND"
	TextCodeEventNotFound         = "EVENT_NOT_FOUND"
	TextCodeRegistrationNotFound  = "REGISTRATION_NOT_FOUND"
	TextCodeHandleTaken           = "HANDLE_TAKEN"
	TextCodeDuplicateCollegeCode  = "DUPLICATE_COLLEGE_CODE"
	TextCodeAlreadyRegistered     = "ALREADY_REGISTERED"
	TextCodeEventFull             = "EVENT_FULL"
	TextCodeInvalidTimeRange      = "INVALID_TIME_RANGE"
	TextCodeSelfAction            = "SELF_ACTION_NOT_ALLOWED"
	TextCodeInvalidPhoneNumber    = "INVALID_PHONE_NUMBER"
	TextCodeInsecureSigningKey    = "INSECURE_SIGNING_KEY"
)

// ErrValidation is the base error for malformed or out of range input.
var ErrValidation = errors.New("invalid input", errors.CategoryValidation).
	WithTextCode(TextCodeValidation).
	WithCode(errors.CodeBadRequest)

// ErrEmptyPassword is returned when hashing an empty password.
var ErrEmptyPassword = errors.New("password must not be empty", errors.CategoryValidation).
	WithTextCode(TextCodeEmptyPassword).
	WithCode(errors.CodeBadRequest)

// ErrMismatchedHashAndPassword is returned for a wrong password or unknown handle.
var ErrMismatchedHashAndPassword = errors.New("incorrect username or password", errors.CategoryAuth).
	WithTextCode(TextCodeInvalidCredentials).
	WithCode(errors.CodeUnauthorized)

// ErrCorruptPasswordHash signals a stored hash that bcrypt cannot read.
var ErrCorruptPasswordHash = errors.New("stored password hash is corrupt", errors.CategoryInternal).
	WithTextCode(TextCodeCorruptPasswordHash).
	WithCode(errors.CodeInternal)

// ErrTooManyLoginAttempts is returned while an account is locked out.
var ErrTooManyLoginAttempts = errors.New("too many login attempts, try again later", errors.CategoryRateLimit).
	WithTextCode(TextCodeTooManyLoginAttempts).
	WithCode(http.StatusTooManyRequests)

// ErrTokenMalformed is returned for tokens that cannot be parsed.
var ErrTokenMalformed = errors.New("token is malformed", errors.CategoryAuth).
	WithTextCode(TextCodeTokenMalformed).
	WithCode(errors.CodeUnauthorized)

// ErrTokenSignatureInvalid is returned when the signature does not verify.
var ErrTokenSignatureInvalid = errors.New("token signature is invalid", errors.CategoryAuth).
	WithTextCode(TextCodeTokenSignatureInvalid).
	WithCode(errors.CodeUnauthorized)

// ErrTokenExpired is returned for tokens past their expiry.
var ErrTokenExpired = errors.New("token is expired", errors.CategoryAuth).
	WithTextCode(TextCodeTokenExpired).
	WithCode(errors.CodeUnauthorized)

// ErrUnauthenticated is returned when a request cannot be tied to a user.
var ErrUnauthenticated = errors.New("could not validate credentials", errors.CategoryAuth).
	WithTextCode(TextCodeUnauthenticated).
	WithCode(errors.CodeUnauthorized)

// ErrForbidden is returned when the caller lacks privileges.
var ErrForbidden = errors.New("not enough permissions", errors.CategoryAuthz).
	WithTextCode(TextCodeForbidden).
	WithCode(errors.CodeForbidden)

// ErrInactiveAccount is returned for authenticated but inactive accounts.
var ErrInactiveAccount = errors.New("account is not active", errors.CategoryAuthz).
	WithTextCode(TextCodeInactiveAccount).
	WithCode(errors.CodeForbidden)

// ErrPasswordRotationRequired blocks accounts with a generated password.
var ErrPasswordRotationRequired = errors.New("password must be changed before continuing", errors.CategoryAuthz).
	WithTextCode(TextCodePasswordRotation).
	WithCode(errors.CodeForbidden)

var ErrUserNotFound = errors.New("user not found", errors.CategoryNotFound).
	WithTextCode(TextCodeUserNotFound).
	WithCode(errors.CodeNotFound)

var ErrCollegeNotFound = errors.New("college not found", errors.CategoryNotFound).
	WithTextCode(TextCodeCollegeNotFound).
	WithCode(errors.CodeNotFound)

var ErrStudentNotFound = errors.New("student profile not found", errors.CategoryNotFound).
	WithTextCode(TextCodeStudentNotFound).
	WithCode(errors.CodeNotFound)

var ErrEventNotFound = errors.New("event not found", errors.CategoryNotFound).
	WithTextCode(TextCodeEventNotFound).
	WithCode(errors.CodeNotFound)

var ErrRegistrationNotFound = errors.New("registration not found", errors.CategoryNotFound).
	WithTextCode(TextCodeRegistrationNotFound).
	WithCode(errors.CodeNotFound)

// Conflicts are reported as 400 to keep the public API stable.

var ErrHandleTaken = errors.New("username already registered", errors.CategoryConflict).
	WithTextCode(TextCodeHandleTaken).
	WithCode(errors.CodeBadRequest)

var ErrDuplicateCollegeCode = errors.New("college code already registered", errors.CategoryConflict).
	WithTextCode(TextCodeDuplicateCollegeCode).
	WithCode(errors.CodeBadRequest)

var ErrAlreadyRegistered = errors.New("already registered for this event", errors.CategoryConflict).
	WithTextCode(TextCodeAlreadyRegistered).
	WithCode(errors.CodeBadRequest)

// ErrEventFull is the capacity exceeded condition.
var ErrEventFull = errors.New("event is full", errors.CategoryConflict).
	WithTextCode(TextCodeEventFull).
	WithCode(errors.CodeBadRequest)

var ErrInvalidTimeRange = errors.New("end time must be after start time", errors.CategoryValidation).
	WithTextCode(TextCodeInvalidTimeRange).
	WithCode(errors.CodeBadRequest)

var ErrSelfAction = errors.New("cannot perform this action on your own account", errors.CategoryValidation).
	WithTextCode(TextCodeSelfAction).
	WithCode(errors.CodeBadRequest)

var ErrInvalidPhoneNumber = errors.New("invalid phone number", errors.CategoryValidation).
	WithTextCode(TextCodeInvalidPhoneNumber).
	WithCode(errors.CodeBadRequest)

// ErrInsecureSigningKey is a startup failure.
var ErrInsecureSigningKey = errors.New("signing key is missing or too short", errors.CategoryInternal).
	WithTextCode(TextCodeInsecureSigningKey).
	WithCode(errors.CodeInternal)

// HasTextCode reports whether err carries the given text code.
func HasTextCode(err error, code string) bool {
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		return false
	}
	return richErr.TextCode == code
}

// IsConflict reports uniqueness or duplicate state violations.
func IsConflict(err error) bool {
	return sameCategory(err, ErrHandleTaken)
}

// IsForbidden reports authorization failures, inactive accounts included.
func IsForbidden(err error) bool {
	return sameCategory(err, ErrForbidden)
}

// IsUnauthenticated reports authentication failures.
func IsUnauthenticated(err error) bool {
	return sameCategory(err, ErrUnauthenticated)
}

// IsNotFound reports missing entities.
func IsNotFound(err error) bool {
	return sameCategory(err, ErrUserNotFound)
}

func sameCategory(err error, target *errors.Error) bool {
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		return false
	}
	return richErr.Category == target.Category
}

func validationError(field, message string) *errors.Error {
	return ErrValidation.Clone().WithMetadata(map[string]any{
		"field":  field,
		"reason": message,
	})
}

// isUniqueViolation matches the unique constraint errors raised by SQLite
// and PostgreSQL drivers.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "duplicate key value") ||
		strings.Contains(msg, "sqlstate 23505")
}
