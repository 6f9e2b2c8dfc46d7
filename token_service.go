package campus

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// MinSigningKeyLength is the shortest HS256 key accepted at startup.
const MinSigningKeyLength = 32

// TokenService mints and verifies bearer tokens.
type TokenService interface {
	TokenValidator
	Issue(claims *Claims, ttl time.Duration) (string, time.Time, error)
	IssueFor(user *User) (string, time.Time, error)
}

// TokenServiceImpl implements TokenService with HS256 JWTs.
type TokenServiceImpl struct {
	signingKey []byte
	ttl        time.Duration
	leeway     time.Duration
	issuer     string
	audience   jwt.ClaimStrings
	logger     Logger
	now        func() time.Time
}

// TokenOption customizes a TokenServiceImpl.
type TokenOption func(*TokenServiceImpl)

// WithTokenClock overrides the time source used to issue and verify tokens.
func WithTokenClock(now func() time.Time) TokenOption {
	return func(ts *TokenServiceImpl) {
		if now != nil {
			ts.now = now
		}
	}
}

// WithTokenLogger sets the logger.
func WithTokenLogger(logger Logger) TokenOption {
	return func(ts *TokenServiceImpl) {
		ts.logger = resolveLogger(logger)
	}
}

// NewTokenService creates a new TokenService instance from cfg.
func NewTokenService(cfg Config, opts ...TokenOption) (*TokenServiceImpl, error) {
	key := []byte(cfg.GetSigningKey())
	if len(key) == 0 {
		return nil, ErrInsecureSigningKey
	}

	ts := &TokenServiceImpl{
		signingKey: key,
		ttl:        cfg.GetTokenTTL(),
		leeway:     cfg.GetTokenLeeway(),
		issuer:     cfg.GetIssuer(),
		audience:   jwt.ClaimStrings(cfg.GetAudience()),
		logger:     defLogger{},
		now:        time.Now,
	}

	if ts.ttl <= 0 {
		ts.ttl = 8 * time.Hour
	}

	for _, opt := range opts {
		if opt != nil {
			opt(ts)
		}
	}

	return ts, nil
}

// IssueFor mints a token for user with the configured TTL.
func (ts *TokenServiceImpl) IssueFor(user *User) (string, time.Time, error) {
	if user == nil {
		return "", time.Time{}, errors.New("user must not be nil", errors.CategoryInternal)
	}
	return ts.Issue(ClaimsFor(user), ts.ttl)
}

// Issue signs claims, stamping the registered claims. A non positive ttl
// uses the configured default.
func (ts *TokenServiceImpl) Issue(claims *Claims, ttl time.Duration) (string, time.Time, error) {
	if claims == nil {
		return "", time.Time{}, errors.New("claims must not be nil", errors.CategoryInternal)
	}

	if claims.Subject == "" {
		claims.Subject = claims.UID
	}

	if claims.Subject == "" {
		return "", time.Time{}, errors.New("claims must carry a subject", errors.CategoryInternal)
	}

	if ttl <= 0 {
		ttl = ts.ttl
	}

	now := ts.now()
	expiresAt := now.Add(ttl)

	claims.Issuer = ts.issuer
	claims.Audience = ts.audience
	claims.IssuedAt = jwt.NewNumericDate(now)
	claims.NotBefore = jwt.NewNumericDate(now)
	claims.ExpiresAt = jwt.NewNumericDate(expiresAt)
	if claims.ID == "" {
		claims.ID = uuid.NewString()
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := token.SignedString(ts.signingKey)
	if err != nil {
		return "", time.Time{}, errors.Wrap(err, errors.CategoryInternal, "failed to sign JWT")
	}

	return signed, expiresAt, nil
}

// Verify parses and validates a token string, returning its claims.
func (ts *TokenServiceImpl) Verify(tokenString string) (*Claims, error) {
	parserOptions := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(ts.leeway),
		jwt.WithTimeFunc(ts.now),
		jwt.WithExpirationRequired(),
	}
	if ts.issuer != "" {
		parserOptions = append(parserOptions, jwt.WithIssuer(ts.issuer))
	}
	if len(ts.audience) > 0 {
		parserOptions = append(parserOptions, jwt.WithAudience(ts.audience[0]))
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			ts.logger.Error("TokenService verify encountered unexpected signing method", "alg", t.Header["alg"])
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return ts.signingKey, nil
	}, parserOptions...)

	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, ErrTokenSignatureInvalid
		}
		return nil, errors.Wrap(err, ErrTokenMalformed.Category, ErrTokenMalformed.Message).
			WithTextCode(ErrTokenMalformed.TextCode).
			WithCode(errors.CodeUnauthorized)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Subject == "" {
		ts.logger.Error("TokenService verify could not decode claims")
		return nil, ErrTokenMalformed
	}

	return claims, nil
}

// ValidateSigningKey enforces the minimum key length unless insecure keys
// are explicitly allowed.
func ValidateSigningKey(key string, allowInsecure bool) error {
	if key == "" {
		return ErrInsecureSigningKey
	}
	if len(key) < MinSigningKeyLength && !allowInsecure {
		return ErrInsecureSigningKey.Clone().WithMetadata(map[string]any{
			"min_length": MinSigningKeyLength,
			"length":     len(key),
		})
	}
	return nil
}
