package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/atendesk/atendesk/internal/api/http"
	"github.com/atendesk/atendesk/internal/api/http/handlers"
	"github.com/atendesk/atendesk/internal/auth"
	"github.com/atendesk/atendesk/internal/config"
	"github.com/atendesk/atendesk/internal/events"
	"github.com/atendesk/atendesk/internal/gateway"
	"github.com/atendesk/atendesk/internal/observability"
	"github.com/atendesk/atendesk/internal/persistence"
	"github.com/atendesk/atendesk/internal/repository"
	"github.com/atendesk/atendesk/internal/service"
	"github.com/atendesk/atendesk/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	pool := pg.PoolHandle()
	userRepo := repository.NewUserRepository(pool)
	teamRepo := repository.NewTeamRepository(pool)
	contactRepo := repository.NewContactRepository(pool)
	conversationRepo := repository.NewConversationRepository(pool)
	messageRepo := repository.NewMessageRepository(pool)
	quickReplyRepo := repository.NewQuickReplyRepository(pool)
	classificationRepo := repository.NewClassificationRepository(pool)

	dispatcher := events.NewInMemoryDispatcher()
	metrics := observability.NewMetrics()
	gatewayClient := gateway.NewClient(cfg.Gateway, logger)

	authService := service.NewAuthService(*cfg, userRepo)
	chatService := service.NewChatService(service.ChatDependencies{
		ConversationRepo:   conversationRepo,
		MessageRepo:        messageRepo,
		ContactRepo:        contactRepo,
		TeamRepo:           teamRepo,
		ClassificationRepo: classificationRepo,
		Gateway:            gatewayClient,
		Cache:              redis.Handle(),
		Dispatcher:         dispatcher,
	})
	ingestService := service.NewIngestService(service.IngestDependencies{
		ConversationRepo: conversationRepo,
		MessageRepo:      messageRepo,
		ContactRepo:      contactRepo,
		Cache:            redis.Handle(),
		Dispatcher:       dispatcher,
		Logger:           logger,
	})
	contactService := service.NewContactService(contactRepo, dispatcher)
	rosterService := service.NewRosterService(teamRepo, userRepo)
	replyService := service.NewReplyService(quickReplyRepo, classificationRepo)
	notificationService := service.NewNotificationService(dispatcher, logger, cfg.Notification)

	background := worker.NewBackground(notificationService, gatewayClient, logger)
	background.Start(ctx)

	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), userRepo)

	app := fiber.New(fiber.Config{
		AppName:               cfg.App.Name,
		DisableStartupMessage: cfg.App.Env == "production",
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis, gatewayClient),
		Auth:           handlers.NewAuthHandler(authService),
		Conversations:  handlers.NewConversationsHandler(chatService, contactService),
		Contacts:       handlers.NewContactsHandler(contactService),
		Roster:         handlers.NewRosterHandler(rosterService),
		Replies:        handlers.NewRepliesHandler(replyService),
		Webhook:        handlers.NewWebhookHandler(ingestService, cfg.Gateway.APIKey, logger),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	background.Stop()
	_ = app.Shutdown()

	for _, snap := range metrics.Snapshot() {
		logger.Info("route totals",
			zap.String("path", snap.Path),
			zap.String("method", snap.Method),
			zap.Int64("hits", snap.Hits),
			zap.Int64("errors", snap.Errors),
			zap.Duration("avg_latency", snap.AvgLatency))
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
