package serverutils

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"financebot-be/internal/pkg/apperror"
	"financebot-be/internal/pkg/logger"
	"financebot-be/internal/repository/memory"
	"financebot-be/pkg/identity"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubProvider resolves a fixed set of tokens and counts lookups.
type stubProvider struct {
	users map[string]string
	calls int
}

func (p *stubProvider) SignUp(context.Context, identity.Credentials) (*identity.AuthResult, error) {
	return nil, errors.New("not implemented")
}

func (p *stubProvider) SignIn(context.Context, string, string) (*identity.AuthResult, error) {
	return nil, errors.New("not implemented")
}

func (p *stubProvider) SignOut(context.Context, string) error { return nil }

func (p *stubProvider) GetUser(_ context.Context, token string) (string, error) {
	p.calls++
	if id, ok := p.users[token]; ok {
		return id, nil
	}
	return "", &identity.ProviderError{StatusCode: http.StatusUnauthorized, Message: "invalid JWT"}
}

func get(t *testing.T, app *fiber.App, target string, headers map[string]string) (int, string) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, string(body)
}

func TestErrorHandler(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(logger.NewNopLogger())})
	app.Get("/validation", func(c *fiber.Ctx) error { return apperror.Validation("bad request") })
	app.Get("/internal", func(c *fiber.Ctx) error { return errors.New("db exploded") })
	app.Get("/fiber", func(c *fiber.Ctx) error { return fiber.ErrUpgradeRequired })

	tests := []struct {
		path       string
		wantStatus int
		wantError  string
	}{
		{"/validation", http.StatusBadRequest, "bad request"},
		{"/internal", http.StatusInternalServerError, "Error interno del servidor"},
		{"/fiber", http.StatusUpgradeRequired, "Upgrade Required"},
		{"/missing", http.StatusNotFound, "Cannot GET /missing"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			status, body := get(t, app, tt.path, nil)
			assert.Equal(t, tt.wantStatus, status)

			var out map[string]string
			require.NoError(t, json.Unmarshal([]byte(body), &out))
			assert.Equal(t, tt.wantError, out["error"])
		})
	}
}

func TestBearerToken(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error { return c.SendString(BearerToken(c)) })

	_, body := get(t, app, "/", map[string]string{"Authorization": "Bearer abc"})
	assert.Equal(t, "abc", body)

	_, body = get(t, app, "/", map[string]string{"Authorization": "bearer  xyz "})
	assert.Equal(t, "xyz", body)

	_, body = get(t, app, "/?token=from-query", nil)
	assert.Equal(t, "from-query", body)

	_, body = get(t, app, "/", map[string]string{"Authorization": "Basic Zm9v"})
	assert.Equal(t, "", body)
}

func TestIdentityResolver_Optional(t *testing.T) {
	provider := &stubProvider{users: map[string]string{"good": "user-1"}}
	resolver := NewIdentityResolver(provider, memory.NewIdentityRepository(time.Minute), logger.NewNopLogger())

	app := fiber.New()
	app.Use(resolver.Optional())
	app.Get("/", func(c *fiber.Ctx) error { return c.SendString(UserID(c)) })

	status, body := get(t, app, "/", map[string]string{"Authorization": "Bearer good"})
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "user-1", body)

	// Second hit is served from the cache.
	_, body = get(t, app, "/", map[string]string{"Authorization": "Bearer good"})
	assert.Equal(t, "user-1", body)
	assert.Equal(t, 1, provider.calls)

	status, body = get(t, app, "/", map[string]string{"Authorization": "Bearer bad"})
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "", body)

	status, body = get(t, app, "/", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "", body)

	resolver.Forget("good")
	_, _ = get(t, app, "/", map[string]string{"Authorization": "Bearer good"})
	assert.Equal(t, 3, provider.calls)
}
