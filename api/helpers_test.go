package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-campus"
	"github.com/goliatone/go-campus/config"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const (
	testSigningKey    = "test-signing-key-that-is-long-enough-for-hs256"
	testAdminUsername = "root"
	testAdminPassword = "root-password-1"
)

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

type testEnv struct {
	app        *fiber.App
	svc        *Services
	repo       campus.RepositoryManager
	cfg        *config.Config
	admin      *campus.User
	adminToken string
}

func newTestEnv(t *testing.T, mutate ...func(*config.Config)) *testEnv {
	t.Helper()
	ctx := context.Background()

	cfg := config.Defaults()
	cfg.SigningKey = testSigningKey
	cfg.BcryptCost = bcrypt.MinCost
	for _, fn := range mutate {
		fn(cfg)
	}
	require.NoError(t, cfg.Validate())

	db, err := campus.OpenDB(ctx, campus.DBOptions{
		Driver: campus.DriverSQLite,
		DSN:    "file:" + uuid.NewString() + "?mode=memory&cache=shared",
	})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = campus.Migrate(ctx, db)
	require.NoError(t, err)

	repo := campus.NewRepositoryManager(db)
	svc, err := NewServices(cfg, repo, nopLogger{}, nil)
	require.NoError(t, err)

	admin, created, err := campus.SeedAdmin(ctx, repo, svc.Hasher, campus.SeedAdminMessage{
		Username: testAdminUsername,
		Password: testAdminPassword,
	})
	require.NoError(t, err)
	require.True(t, created)

	token, _, err := svc.Tokens.IssueFor(admin)
	require.NoError(t, err)

	app := NewApp(svc, Options{
		Prefix:          cfg.APIPrefix,
		ProjectName:     cfg.ProjectName,
		Version:         "test",
		LoginRateLimit:  cfg.LoginRateLimit,
		LoginRateWindow: cfg.LoginRateWindow,
		Logger:          nopLogger{},
	})

	return &testEnv{
		app:        app,
		svc:        svc,
		repo:       repo,
		cfg:        cfg,
		admin:      admin,
		adminToken: token,
	}
}

// do sends a JSON request and decodes the JSON response into out when out
// is not nil.
func (e *testEnv) do(t *testing.T, method, path, token string, body any, out any) int {
	t.Helper()

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(buf)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}

	res, err := e.app.Test(req, -1)
	require.NoError(t, err)
	defer res.Body.Close()

	if out != nil {
		raw, err := io.ReadAll(res.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(raw, out), "body: %s", string(raw))
	}

	return res.StatusCode
}

type apiError struct {
	Error struct {
		Category string         `json:"category"`
		TextCode string         `json:"text_code"`
		Message  string         `json:"message"`
		Metadata map[string]any `json:"metadata"`
	} `json:"error"`
}

func (e *testEnv) expectError(t *testing.T, method, path, token string, body any, status int, textCode string) {
	t.Helper()
	var res apiError
	got := e.do(t, method, path, token, body, &res)
	require.Equal(t, status, got, "text_code: %s", res.Error.TextCode)
	require.Equal(t, textCode, res.Error.TextCode)
}

// createActiveUser signs up a user, activates it as admin and returns a
// bearer token for it.
func (e *testEnv) createActiveUser(t *testing.T, username string) (*campus.User, string) {
	t.Helper()

	var created campus.User
	status := e.do(t, http.MethodPost, "/api/users", e.adminToken, map[string]any{
		"username":  username,
		"email":     username + "@example.com",
		"password":  "password-" + username,
		"is_active": true,
	}, &created)
	require.Equal(t, http.StatusCreated, status)

	var tok tokenResponse
	status = e.do(t, http.MethodPost, "/api/auth/login", "", map[string]any{
		"username": username,
		"password": "password-" + username,
	}, &tok)
	require.Equal(t, http.StatusOK, status)
	require.NotEmpty(t, tok.AccessToken)

	return &created, tok.AccessToken
}
