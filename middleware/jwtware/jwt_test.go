package jwtware_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-campus"
	"github.com/goliatone/go-campus/middleware/jwtware"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubAuthenticator accepts a single token.
type stubAuthenticator struct {
	token string
	user  *campus.User
	calls int
}

func (s *stubAuthenticator) Authenticate(_ context.Context, token string) (*campus.User, *campus.Claims, error) {
	s.calls++
	if token != s.token {
		return nil, nil, campus.ErrUnauthenticated
	}
	return s.user, campus.ClaimsFor(s.user), nil
}

func newApp(cfg jwtware.Config) *fiber.App {
	app := fiber.New()
	app.Use(jwtware.New(cfg))
	app.Get("/me/:token?", func(c *fiber.Ctx) error {
		user, ok := jwtware.UserFromLocals(c, cfg.ContextKey)
		if !ok {
			return c.SendStatus(http.StatusInternalServerError)
		}
		fromCtx, ok := campus.FromContext(c.UserContext())
		if !ok || fromCtx.ID != user.ID {
			return c.SendStatus(http.StatusInternalServerError)
		}
		return c.SendString(user.Username)
	})
	return app
}

func TestJWTWare_HeaderExtraction(t *testing.T) {
	auth := &stubAuthenticator{
		token: "good-token",
		user:  &campus.User{ID: uuid.New(), Username: "asha"},
	}
	app := newApp(jwtware.Config{Authenticator: auth})

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantBody   string
	}{
		{name: "valid bearer", header: "Bearer good-token", wantStatus: http.StatusOK, wantBody: "asha"},
		{name: "scheme is case insensitive", header: "bearer good-token", wantStatus: http.StatusOK, wantBody: "asha"},
		{name: "wrong token", header: "Bearer bad-token", wantStatus: http.StatusUnauthorized},
		{name: "missing header", header: "", wantStatus: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic good-token", wantStatus: http.StatusUnauthorized},
		{name: "scheme only", header: "Bearer", wantStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set(fiber.HeaderAuthorization, tt.header)
			}

			resp, err := app.Test(req, -1)
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			if tt.wantBody != "" {
				body, err := io.ReadAll(resp.Body)
				require.NoError(t, err)
				assert.Equal(t, tt.wantBody, string(body))
			}
		})
	}
}

func TestJWTWare_MissingTokenSkipsAuthenticator(t *testing.T) {
	auth := &stubAuthenticator{token: "good-token", user: &campus.User{ID: uuid.New()}}

	var got error
	app := newApp(jwtware.Config{
		Authenticator: auth,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			got = err
			return c.SendStatus(http.StatusUnauthorized)
		},
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/me", nil), -1)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, 0, auth.calls)
	assert.True(t, campus.HasTextCode(got, "MISSING_TOKEN"))
}

func TestJWTWare_AlternateLookups(t *testing.T) {
	auth := &stubAuthenticator{
		token: "good-token",
		user:  &campus.User{ID: uuid.New(), Username: "ravi"},
	}
	app := newApp(jwtware.Config{
		Authenticator: auth,
		TokenLookup:   "header:Authorization,query:auth_token,cookie:jwt,param:token",
	})

	t.Run("query", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/me?auth_token=good-token", nil), -1)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("cookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.AddCookie(&http.Cookie{Name: "jwt", Value: "good-token"})
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})
}

func TestJWTWare_ValidationListeners(t *testing.T) {
	user := &campus.User{ID: uuid.New(), Username: "dev", IsActive: false}
	auth := &stubAuthenticator{token: "good-token", user: user}

	var order []string
	app := newApp(jwtware.Config{
		Authenticator: auth,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if campus.HasTextCode(err, campus.TextCodeInactiveAccount) {
				return c.SendStatus(http.StatusForbidden)
			}
			return c.SendStatus(http.StatusUnauthorized)
		},
		ValidationListeners: []jwtware.ValidationListener{
			func(c *fiber.Ctx, u *campus.User, claims *campus.Claims) error {
				order = append(order, "first")
				assert.Equal(t, u.ID.String(), claims.UserID())
				return nil
			},
			nil,
			func(c *fiber.Ctx, u *campus.User, _ *campus.Claims) error {
				order = append(order, "second")
				return campus.NewGuard(nil, nil, true).RequireActive(u)
			},
			func(*fiber.Ctx, *campus.User, *campus.Claims) error {
				order = append(order, "never")
				return nil
			},
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer good-token")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, []string{"first", "second"}, order)
}

func TestJWTWare_Filter(t *testing.T) {
	auth := &stubAuthenticator{token: "good-token", user: &campus.User{ID: uuid.New()}}

	app := fiber.New()
	app.Use(jwtware.New(jwtware.Config{
		Authenticator: auth,
		Filter: func(c *fiber.Ctx) bool {
			return c.Path() == "/public"
		},
	}))
	app.Get("/public", func(c *fiber.Ctx) error { return c.SendString("ok") })

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/public", nil), -1)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 0, auth.calls)
}

func TestJWTWare_RequiresAuthenticator(t *testing.T) {
	assert.Panics(t, func() {
		jwtware.New(jwtware.Config{})
	})
}
