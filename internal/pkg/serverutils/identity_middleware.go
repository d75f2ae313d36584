package serverutils

import (
	"context"
	"strings"

	"financebot-be/internal/pkg/logger"
	"financebot-be/internal/repository/memory"
	"financebot-be/pkg/identity"

	"github.com/gofiber/fiber/v2"
)

const LocalsUserID = "user_id"

// BearerToken reads the token from the Authorization header, then from ?token=
// (browsers cannot set headers on a websocket handshake).
func BearerToken(c *fiber.Ctx) string {
	authHeader := c.Get("Authorization")
	if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "Bearer ") {
		return strings.TrimSpace(authHeader[7:])
	}
	return c.Query("token")
}

// UserID returns the identity set by IdentityResolver.Optional, or "".
func UserID(c *fiber.Ctx) string {
	if id, ok := c.Locals(LocalsUserID).(string); ok {
		return id
	}
	return ""
}

type IdentityResolver struct {
	provider identity.Provider
	cache    *memory.IdentityRepository
	logger   logger.ILogger
}

func NewIdentityResolver(provider identity.Provider, cache *memory.IdentityRepository, log logger.ILogger) *IdentityResolver {
	return &IdentityResolver{provider: provider, cache: cache, logger: log}
}

// Resolve maps a bearer token to a user id, hitting the provider at most
// once per cache TTL.
func (r *IdentityResolver) Resolve(ctx context.Context, token string) (string, error) {
	if userID, ok := r.cache.Get(token); ok {
		return userID, nil
	}
	userID, err := r.provider.GetUser(ctx, token)
	if err != nil {
		return "", err
	}
	r.cache.Save(token, userID)
	return userID, nil
}

// Forget drops a token from the cache, e.g. on logout.
func (r *IdentityResolver) Forget(token string) {
	r.cache.Delete(token)
}

// Optional sets the caller's user id when a valid bearer token is present.
// Requests without one pass through untouched.
func (r *IdentityResolver) Optional() fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := BearerToken(c)
		if token == "" {
			return c.Next()
		}
		userID, err := r.Resolve(c.UserContext(), token)
		if err != nil {
			r.logger.Debug("IdentityResolver", "Bearer token not resolved", map[string]interface{}{"error": err.Error()})
			return c.Next()
		}
		c.Locals(LocalsUserID, userID)
		return c.Next()
	}
}
