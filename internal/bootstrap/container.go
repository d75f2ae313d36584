package bootstrap

import (
	"context"
	"time"

	"financebot-be/internal/config"
	"financebot-be/internal/constant"
	"financebot-be/internal/controller"
	"financebot-be/internal/handler"
	"financebot-be/internal/pkg/logger"
	"financebot-be/internal/pkg/mailer"
	"financebot-be/internal/pkg/serverutils"
	"financebot-be/internal/repository/memory"
	"financebot-be/internal/repository/unitofwork"
	"financebot-be/internal/service"
	"financebot-be/internal/websocket"
	"financebot-be/pkg/advisor"
	"financebot-be/pkg/events"
	"financebot-be/pkg/identity"
	"financebot-be/pkg/identity/gotrue"
	"financebot-be/pkg/llm"
	"financebot-be/pkg/llm/factory"
	pktNats "financebot-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const welcomeDurable = "financebot-welcome-mailer"

type Container struct {
	// Controllers
	AuthController    controller.IAuthController
	ChatController    controller.IChatController
	AdvisorController controller.IAdvisorController
	HealthController  controller.IHealthController

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService
	WelcomeService  *service.WelcomeService

	// WebSockets & turn feed
	TurnFeedHandler *handler.TurnFeedHandler
	WebSocketHub    *websocket.Hub

	IdentityResolver *serverutils.IdentityResolver
	Logger           logger.ILogger

	natsPub *pktNats.Publisher
	natsSub *pktNats.Subscriber
	rdb     *redis.Client
}

func NewContainer(db *gorm.DB, cfg *config.Config) (*Container, error) {
	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	// 2. Event Bus
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermill.NewStdLogger(false, false),
	)

	// 3. Infrastructure
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		sysLogger.Warn("Bootstrap", "Failed to connect to NATS Publisher", map[string]interface{}{"error": err.Error()})
	}
	natsSub, err := pktNats.NewSubscriber(cfg.App.NatsURL)
	if err != nil {
		sysLogger.Warn("Bootstrap", "Failed to connect to NATS Subscriber", map[string]interface{}{"error": err.Error()})
	}
	var eventPublisher events.Publisher
	if natsPub != nil {
		eventPublisher = natsPub
	}

	opt, err := redis.ParseURL(cfg.App.RedisURL)
	if err != nil {
		sysLogger.Warn("Bootstrap", "Failed to parse Redis URL, using direct Addr", map[string]interface{}{"error": err.Error()})
		opt = &redis.Options{Addr: cfg.App.RedisURL}
	}
	rdb := redis.NewClient(opt)
	pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		sysLogger.Warn("Bootstrap", "Failed to connect to Redis, turn feed stays local", map[string]interface{}{"error": err.Error()})
	}
	cancel()

	feedLogger := logger.NewIsolatedLogger(cfg.App.FeedLogFilePath)
	wsHub := websocket.NewHub(rdb, uuid.NewString(), feedLogger)

	// 4. Identity
	var provider identity.Provider
	if cfg.Auth.Provider == "local" {
		provider = service.NewLocalIdentityProvider(uowFactory, memory.NewTokenRepository(), cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	} else {
		provider = gotrue.NewClient(cfg.Auth.GoTrueURL, cfg.Auth.GoTrueAnonKey)
	}
	resolver := serverutils.NewIdentityResolver(provider, memory.NewIdentityRepository(cfg.Auth.IdentityTTL), sysLogger)
	sysLogger.Info("Bootstrap", "Identity provider ready", map[string]interface{}{"provider": cfg.Auth.Provider})

	// 5. Advisory
	llmProvider, err := factory.NewLLMProvider(cfg.Llm.Provider, cfg.Llm.Model, cfg.Llm.BaseURL, cfg.Llm.APIKey)
	if err != nil {
		return nil, err
	}
	sysLogger.Info("Bootstrap", "LLM provider ready", map[string]interface{}{"provider": cfg.Llm.Provider, "model": cfg.Llm.Model})

	var external service.ExternalAdvisor
	if cfg.Advisor.ExternalURL != "" {
		external = advisor.NewClient(cfg.Advisor.ExternalURL, cfg.Advisor.ExternalToken, cfg.Advisor.Timeout)
	}

	llmOpts := []llm.Option{llm.WithTemperature(cfg.Llm.Temperature)}
	if cfg.Llm.MaxTokens > 0 {
		llmOpts = append(llmOpts, llm.WithMaxTokens(cfg.Llm.MaxTokens))
	}

	// 6. Services
	authService := service.NewAuthService(provider, eventPublisher, sysLogger)
	chatService := service.NewChatService(uowFactory, pubSub, constant.TopicTurnRecorded, sysLogger)
	advisorService := service.NewAdvisorService(llmProvider, external, cfg.Advisor.MaxDuration, sysLogger, llmOpts...)

	var notifier service.TurnNotifier = wsHub
	consumerService := service.NewConsumerService(pubSub, constant.TopicTurnRecorded, notifier, eventPublisher, sysLogger)

	var welcomeService *service.WelcomeService
	if cfg.Auth.Provider == "local" && cfg.SMTP.Host != "" {
		emailService := mailer.NewEmailService(
			cfg.SMTP.Host,
			cfg.SMTP.Port,
			cfg.SMTP.Email,
			cfg.SMTP.Password,
			cfg.SMTP.SenderName,
			cfg.Auth.WelcomeSubject,
		)
		welcomeService = service.NewWelcomeService(emailService, sysLogger)
	}

	// 7. Controllers
	return &Container{
		AuthController:    controller.NewAuthController(authService, resolver),
		ChatController:    controller.NewChatController(chatService),
		AdvisorController: controller.NewAdvisorController(advisorService, sysLogger),
		HealthController:  controller.NewHealthController(dbPinger(db)),

		ConsumerService: consumerService,
		WelcomeService:  welcomeService,

		TurnFeedHandler: handler.NewTurnFeedHandler(wsHub, resolver, feedLogger),
		WebSocketHub:    wsHub,

		IdentityResolver: resolver,
		Logger:           sysLogger,

		natsPub: natsPub,
		natsSub: natsSub,
		rdb:     rdb,
	}, nil
}

// Start launches the background workers. They stop when ctx is cancelled.
func (c *Container) Start(ctx context.Context) error {
	go c.WebSocketHub.Run(ctx)

	if err := c.ConsumerService.Consume(ctx); err != nil {
		return err
	}

	if c.WelcomeService != nil && c.natsSub != nil {
		if err := c.natsSub.Subscribe(ctx, constant.EventUserRegistered, welcomeDurable, c.WelcomeService.HandleUserRegistered); err != nil {
			c.Logger.Warn("Bootstrap", "Welcome mailer subscription failed", map[string]interface{}{"error": err.Error()})
		}
	}
	return nil
}

func (c *Container) Close() {
	if c.natsSub != nil {
		c.natsSub.Close()
	}
	if c.natsPub != nil {
		c.natsPub.Close()
	}
	_ = c.rdb.Close()
	_ = c.Logger.Sync()
}

func dbPinger(db *gorm.DB) controller.Pinger {
	return func(ctx context.Context) error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	}
}
