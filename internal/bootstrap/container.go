package bootstrap

import (
	"context"
	"fmt"
	"log"

	"academic-auth-be/internal/config"
	"academic-auth-be/internal/controller"
	"academic-auth-be/internal/handler"
	"academic-auth-be/internal/pkg/logger"
	"academic-auth-be/internal/pkg/mailer"
	"academic-auth-be/internal/repository/implementation"
	"academic-auth-be/internal/repository/memory"
	"academic-auth-be/internal/repository/unitofwork"
	"academic-auth-be/internal/service"
	"academic-auth-be/internal/websocket"
	"academic-auth-be/pkg/blob"
	"academic-auth-be/pkg/capture"
	"academic-auth-be/pkg/events"
	pktNats "academic-auth-be/pkg/nats"
	"academic-auth-be/pkg/provider"
	"academic-auth-be/pkg/provider/fixture"
	"academic-auth-be/pkg/provider/gemini"
	"academic-auth-be/pkg/settings"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	AuthController         controller.IAuthController
	UserController         controller.IUserController
	SubmissionController   controller.ISubmissionController
	VerificationController controller.IVerificationController
	DashboardController    controller.IDashboardController
	InstitutionController  controller.IInstitutionController

	// Background Services (Exposed for main.go to run)
	ConsumerService     service.IConsumerService
	NotificationService *service.NotificationService

	// WebSockets & Notification
	NotificationHandler *handler.NotificationHandler
	WebSocketHub        *websocket.Hub

	Logger logger.ILogger

	closers []func()
}

func NewContainer(ctx context.Context, db *gorm.DB, cfg *config.Config) (*Container, error) {
	c := &Container{}

	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")
	c.Logger = sysLogger

	emailService := mailer.NewEmailService(
		cfg.SMTP.Host,
		cfg.SMTP.Port,
		cfg.SMTP.Email,
		cfg.SMTP.Password,
		cfg.SMTP.SenderName,
		cfg.App.ClientURL,
	)

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)
	c.closers = append(c.closers, func() { _ = pubSub.Close() })

	// NATS
	var eventPublisher events.Publisher = events.NopPublisher{}
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v. Domain events are dropped", err)
	} else {
		eventPublisher = natsPub
		c.closers = append(c.closers, natsPub.Close)
	}
	natsSub, err := pktNats.NewSubscriber(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Subscriber: %v", err)
	} else {
		c.closers = append(c.closers, natsSub.Close)
	}

	// Redis
	opt, err := redis.ParseURL(cfg.App.RedisURL)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{
			Addr: cfg.App.RedisURL,
		}
	}
	rdb := redis.NewClient(opt)
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		log.Printf("[WARN] Failed to connect to Redis: %v", err)
	}
	c.closers = append(c.closers, func() { _ = rdb.Close() })

	// WebSocket Hub
	wsLogger := logger.NewIsolatedLogger(cfg.App.SocketLogFilePath)
	wsHub := websocket.NewHub(rdb, wsLogger)
	go wsHub.Run(ctx)
	c.WebSocketHub = wsHub

	// 3. Providers
	providers, err := buildProviders(cfg, uowFactory)
	if err != nil {
		return nil, err
	}

	blobs, err := buildBlobStore(ctx, cfg.Storage)
	if err != nil {
		return nil, err
	}

	settingsCfg, err := settings.LoadConfig(cfg.Settings.DefaultsFile)
	if err != nil {
		return nil, fmt.Errorf("settings defaults: %w", err)
	}
	settingsCfg.CacheTTL = cfg.Settings.CacheTTL
	settingsStore := implementation.NewSettingsStore(db)
	settingsManager := settings.NewManager(settingsStore, settingsCfg)

	// 4. Services
	submissionRepo := memory.NewSubmissionRepository(cfg.Processing.SubmissionTTL)
	publisherService := service.NewPublisherService(pubSub, service.SubmissionCompletedTopic)
	submissionService := service.NewSubmissionService(
		submissionRepo,
		providers,
		blobs,
		publisherService,
		wsHub,
		sysLogger,
		service.SubmissionServiceConfig{
			Machine:          cfg.Processing.Machine(),
			StoreConcurrency: cfg.Processing.StoreConcurrency,
		},
	)
	c.closers = append(c.closers, submissionService.Shutdown)

	c.ConsumerService = service.NewConsumerService(
		pubSub,
		service.SubmissionCompletedTopic,
		uowFactory,
		eventPublisher,
		sysLogger,
		cfg.Provider.AutoApproveThreshold,
	)

	authService := service.NewAuthService(uowFactory, cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, sysLogger)
	userService := service.NewUserService(uowFactory, settingsManager, settingsStore, sysLogger)
	captureService := service.NewCaptureService(capture.NewManager(cfg.Processing.CaptureLeaseTTL), sysLogger)
	verificationService := service.NewVerificationService(uowFactory, settingsManager, emailService, eventPublisher, sysLogger, cfg.App.ClientURL)
	dashboardService := service.NewDashboardService(uowFactory)
	institutionService := service.NewInstitutionService(uowFactory, blobs, providers.Analytics, eventPublisher, sysLogger)

	// Notification Domain
	notifRepo := implementation.NewNotificationRepository(db)
	var subscriber service.EventSubscriber
	if natsSub != nil {
		subscriber = natsSub
	}
	c.NotificationService = service.NewNotificationService(notifRepo, subscriber, wsHub, emailService, settingsManager, wsLogger)
	c.NotificationHandler = handler.NewNotificationHandler(c.NotificationService, eventPublisher, wsHub, cfg.Auth.JWTSecret, wsLogger)

	// 5. Controllers
	secret := cfg.Auth.JWTSecret
	c.AuthController = controller.NewAuthController(authService)
	c.UserController = controller.NewUserController(userService, captureService, secret)
	c.SubmissionController = controller.NewSubmissionController(submissionService, secret)
	c.VerificationController = controller.NewVerificationController(verificationService, secret)
	c.DashboardController = controller.NewDashboardController(dashboardService, secret)
	c.InstitutionController = controller.NewInstitutionController(institutionService, secret)

	return c, nil
}

// Start runs the background consumers. The notification worker only runs
// with an event bus.
func (c *Container) Start(ctx context.Context) {
	go func() {
		c.Logger.Info("CONSUMER", "Starting submission consumer", nil)
		if err := c.ConsumerService.Consume(ctx); err != nil {
			c.Logger.Error("CONSUMER", "Submission consumer stopped", map[string]interface{}{"error": err.Error()})
		}
	}()
	if c.NotificationService.HasSubscriber() {
		go func() {
			_ = c.NotificationService.Start(ctx)
		}()
	}
}

// Close releases connections in reverse order of creation.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
}

func buildProviders(cfg *config.Config, uowFactory unitofwork.RepositoryFactory) (provider.Set, error) {
	fx, err := fixture.New(fixture.WithDelay(cfg.Provider.FixtureDelay))
	if err != nil {
		return provider.Set{}, err
	}

	registry := provider.NewRegistry()
	if err := registry.Register(provider.ModeFixture, fx.Set()); err != nil {
		return provider.Set{}, err
	}
	if cfg.Provider.GeminiAPIKey != "" {
		live := provider.Set{
			Extraction: gemini.New(cfg.Provider.GeminiAPIKey, cfg.Provider.GeminiModel, fx),
			QR:         provider.TextQRDecoder{},
			Verifier:   service.NewRecordsVerifier(uowFactory, fx),
			Analytics:  service.NewRecordsAnalytics(uowFactory),
			Catalog:    fx,
		}
		if err := registry.Register(provider.ModeLive, live); err != nil {
			return provider.Set{}, err
		}
	}

	set, err := registry.Get(cfg.Provider.Mode)
	if err != nil {
		return provider.Set{}, fmt.Errorf("provider mode %q (live mode needs GOOGLE_GEMINI_API_KEY): %w", cfg.Provider.Mode, err)
	}
	log.Printf("[INFO] Using provider mode: %s", cfg.Provider.Mode)
	return set, nil
}

func buildBlobStore(ctx context.Context, cfg config.StorageConfig) (blob.Store, error) {
	switch cfg.Driver {
	case "gcs":
		return blob.NewGCSStore(ctx, cfg.GCSBucket)
	case "local", "":
		return blob.NewLocalStore(cfg.LocalDir)
	}
	return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
}
