package handler

import (
	"financebot-be/internal/pkg/logger"
	"financebot-be/internal/pkg/serverutils"
	internalWS "financebot-be/internal/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// TurnFeedHandler streams the caller's recorded chat turns over a websocket,
// so every open tab sees turns written by the others.
type TurnFeedHandler struct {
	hub      *internalWS.Hub
	resolver *serverutils.IdentityResolver
	logger   logger.ILogger
}

func NewTurnFeedHandler(hub *internalWS.Hub, resolver *serverutils.IdentityResolver, log logger.ILogger) *TurnFeedHandler {
	return &TurnFeedHandler{
		hub:      hub,
		resolver: resolver,
		logger:   log,
	}
}

func (h *TurnFeedHandler) RegisterRoutes(r fiber.Router) {
	r.Get("/ws/turns", h.ServeWs)
}

// ServeWs authenticates the handshake (header or ?token=) and upgrades.
func (h *TurnFeedHandler) ServeWs(c *fiber.Ctx) error {
	tokenStr := serverutils.BearerToken(c)
	if tokenStr == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Missing token (Query 'token' or Header 'Authorization')"})
	}

	userID, err := h.resolver.Resolve(c.UserContext(), tokenStr)
	if err != nil {
		h.logger.Warn("TurnFeedHandler", "Invalid token in WS handshake", map[string]interface{}{"error": err.Error()})
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}
	return websocket.New(func(conn *websocket.Conn) {
		h.logger.Info("TurnFeedHandler", "Starting WebSocket session", map[string]interface{}{"user_id": userID})
		internalWS.ServeWs(h.hub, conn, userID)
		h.logger.Info("TurnFeedHandler", "WebSocket session ended", map[string]interface{}{"user_id": userID})
	})(c)
}
