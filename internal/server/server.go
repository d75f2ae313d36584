package server

import (
	"context"
	"strings"

	"financebot-be/internal/bootstrap"
	"financebot-be/internal/config"
	"financebot-be/internal/pkg/metrics"
	"financebot-be/internal/pkg/serverutils"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

type Server struct {
	app       *fiber.App
	cfg       *config.Config
	container *bootstrap.Container
}

func New(cfg *config.Config, container *bootstrap.Container) *Server {
	app := fiber.New(fiber.Config{
		BodyLimit:    1 * 1024 * 1024,
		ErrorHandler: serverutils.ErrorHandler(container.Logger),
	})

	// Middleware
	allowCredentials := !allowsAnyOrigin(cfg.App.CorsAllowedOrigins)
	if !allowCredentials {
		container.Logger.Warn("Server", "CORS allows any origin, credentials disabled", map[string]interface{}{"origins": cfg.App.CorsAllowedOrigins})
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.App.CorsAllowedOrigins,
		AllowCredentials: allowCredentials,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowMethods:     "GET, POST, OPTIONS",
		ExposeHeaders:    "Content-Length, Content-Type",
	}))

	// OpenTelemetry tracing middleware (traces all HTTP requests)
	app.Use(otelfiber.Middleware())
	app.Use(metrics.Middleware())

	// Attaches the caller's user id when a valid bearer token is present.
	app.Use(container.IdentityResolver.Optional())

	registerRoutes(app, container)

	return &Server{
		app:       app,
		cfg:       cfg,
		container: container,
	}
}

func (s *Server) GetApp() *fiber.App {
	return s.app
}

func (s *Server) Run() error {
	s.container.Logger.Info("Server", "Server is running", map[string]interface{}{"port": s.cfg.App.Port})
	return s.app.Listen(":" + s.cfg.App.Port)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

// allowsAnyOrigin reports whether the comma separated origin list contains the wildcard.
// fiber's cors refuses a wildcard together with credentials.
func allowsAnyOrigin(origins string) bool {
	for _, origin := range strings.Split(origins, ",") {
		if strings.TrimSpace(origin) == "*" {
			return true
		}
	}
	return false
}

func registerRoutes(app *fiber.App, c *bootstrap.Container) {
	c.HealthController.RegisterRoutes(app)

	c.AuthController.RegisterRoutes(app)
	c.ChatController.RegisterRoutes(app)
	c.AdvisorController.RegisterRoutes(app)

	c.TurnFeedHandler.RegisterRoutes(app)
}
