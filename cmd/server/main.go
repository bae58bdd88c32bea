package main

import (
	"context"
	"log"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	apiHandler "github.com/synergysphere/backend/api/handler"
	"github.com/synergysphere/backend/internal/config"
	"github.com/synergysphere/backend/internal/infrastructure/monitor"
	"github.com/synergysphere/backend/internal/infrastructure/outbox"
	pgInfra "github.com/synergysphere/backend/internal/infrastructure/postgres"
	redisInfra "github.com/synergysphere/backend/internal/infrastructure/redis"
	"github.com/synergysphere/backend/internal/mail"
	"github.com/synergysphere/backend/internal/middleware"
	"github.com/synergysphere/backend/internal/realtime"
	"github.com/synergysphere/backend/internal/router"
	"github.com/synergysphere/backend/internal/services"
	"github.com/synergysphere/backend/internal/services/lifecycle"
	"github.com/synergysphere/backend/internal/storage"
	"github.com/synergysphere/backend/pkg/httpcontext"
	"github.com/synergysphere/backend/pkg/logger"
	"github.com/synergysphere/backend/pkg/token"
	"github.com/synergysphere/backend/repository/postgres"
	analyticsUC "github.com/synergysphere/backend/usecase/analytics"
	attachmentUC "github.com/synergysphere/backend/usecase/attachment"
	authUC "github.com/synergysphere/backend/usecase/auth"
	invitationUC "github.com/synergysphere/backend/usecase/invitation"
	projectUC "github.com/synergysphere/backend/usecase/project"
	taskUC "github.com/synergysphere/backend/usecase/task"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	zapLogger, err := logger.New(logger.Config{
		Level:    cfg.Logger.Level,
		Encoding: cfg.Logger.Encoding,
	})
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer zapLogger.Sync()

	appCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	manager := lifecycle.New(cfg.Context.ShutdownTimeout, zapLogger)
	manager.Listen(cancel)

	if err := pgInfra.RunMigrations(cfg, zapLogger); err != nil {
		zapLogger.Fatal("migrations failed", zap.Error(err))
	}

	pool, err := pgInfra.NewPool(appCtx, cfg.Database, zapLogger)
	if err != nil {
		zapLogger.Fatal("postgres connection failed", zap.Error(err))
	}
	manager.Register("postgres", func(ctx context.Context) error {
		pool.Close()
		return nil
	})

	redisClient, err := redisInfra.NewClient(cfg.Redis)
	if err != nil {
		zapLogger.Fatal("redis connection failed", zap.Error(err))
	}
	manager.Register("redis", func(ctx context.Context) error {
		return redisClient.Close()
	})

	outboxStore, err := outbox.Open(cfg.Outbox.Path, "outbox")
	if err != nil {
		zapLogger.Fatal("failed to open outbox store", zap.Error(err))
	}
	manager.Register("outbox", func(ctx context.Context) error {
		return outboxStore.Close()
	})

	fileStore, err := storage.NewFileStore(cfg.Uploads.Dir, cfg.Uploads.MaxFileSize)
	if err != nil {
		zapLogger.Fatal("failed to prepare upload directory", zap.Error(err))
	}

	mon := monitor.New(pool, redisClient, outboxStore, 10*time.Second, zapLogger)
	mon.Start()
	manager.Register("monitor", func(ctx context.Context) error {
		mon.Stop()
		return nil
	})

	hub := realtime.NewHub(redisClient, zapLogger)
	go hub.Run(appCtx)
	manager.Register("realtime_hub", hub.Drain)

	userRepo := postgres.NewUserRepository(pool)
	projectRepo := postgres.NewProjectRepository(pool)
	taskRepo := postgres.NewTaskRepository(pool)
	invitationRepo := postgres.NewInvitationRepository(pool)
	attachmentRepo := postgres.NewAttachmentRepository(pool)
	analyticsRepo := postgres.NewAnalyticsRepository(pool)

	mailer := mail.NewEnqueuer(outboxStore, zapLogger)
	templates := mail.NewTemplates(cfg.HTTP.ClientOrigin)
	sender := mail.NewSMTPSender(cfg.Email)

	outboxProcessor := services.NewOutboxProcessor(
		outboxStore,
		templates,
		sender,
		zapLogger,
		services.ProcessorConfig{
			Interval:   cfg.Outbox.DrainInterval,
			BatchSize:  cfg.Outbox.BatchSize,
			MaxRetries: cfg.Outbox.MaxRetry,
		},
	)
	outboxProcessor.Start()
	manager.Register("outbox_processor", func(ctx context.Context) error {
		outboxProcessor.Stop(ctx)
		return nil
	})

	reaper := services.NewInvitationReaper(invitationRepo, zapLogger, cfg.Reaper.Interval)
	reaper.Start()
	manager.Register("invitation_reaper", func(ctx context.Context) error {
		reaper.Stop(ctx)
		return nil
	})

	tokenService := token.New(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.TTL)

	authUseCase := authUC.New(userRepo, tokenService, mailer, zapLogger)
	projectUseCase := projectUC.New(projectRepo, hub, zapLogger)
	invitationUseCase := invitationUC.New(invitationRepo, projectRepo, userRepo, mailer, hub, zapLogger)
	taskUseCase := taskUC.New(taskRepo, projectRepo, hub, zapLogger)
	attachmentUseCase := attachmentUC.New(attachmentRepo, projectRepo, fileStore, hub, zapLogger)
	analyticsUseCase := analyticsUC.New(analyticsRepo, projectRepo, zapLogger)

	ctxAdapter := httpcontext.NewAdapter(cfg.Context.RequestTimeout)

	handlers := router.Handlers{
		Auth:       apiHandler.NewAuthHandler(authUseCase, ctxAdapter, zapLogger),
		Project:    apiHandler.NewProjectHandler(projectUseCase, ctxAdapter, zapLogger),
		Invitation: apiHandler.NewInvitationHandler(invitationUseCase, ctxAdapter, zapLogger),
		Task:       apiHandler.NewTaskHandler(taskUseCase, ctxAdapter, zapLogger),
		Attachment: apiHandler.NewAttachmentHandler(attachmentUseCase, ctxAdapter, zapLogger),
		Analytics:  apiHandler.NewAnalyticsHandler(analyticsUseCase, ctxAdapter, zapLogger),
		Realtime: apiHandler.NewRealtimeHandler(
			hub, tokenService, userRepo, projectRepo,
			cfg.HTTP.ClientOrigin, ctxAdapter, zapLogger,
		),
		Health: apiHandler.NewHealthHandler(mon, ctxAdapter, zapLogger),
	}

	authMiddleware := middleware.Auth(tokenService, userRepo, zapLogger)
	r := router.New(handlers, authMiddleware)

	server := &fasthttp.Server{
		Handler:            r.Handler,
		ReadTimeout:        cfg.HTTP.ReadTimeout,
		WriteTimeout:       cfg.HTTP.WriteTimeout,
		IdleTimeout:        cfg.HTTP.IdleTimeout,
		MaxRequestBodySize: cfg.HTTP.MaxBodySize,
		Name:               cfg.AppName,
	}

	go func() {
		zapLogger.Info("server started", zap.String("address", cfg.Address()))
		if err := server.ListenAndServe(cfg.Address()); err != nil {
			zapLogger.Fatal("server crashed", zap.Error(err))
		}
	}()

	manager.Register("http_server", func(ctx context.Context) error {
		return server.Shutdown()
	})

	<-appCtx.Done()

	if err := manager.Shutdown(context.Background()); err != nil {
		zapLogger.Error("graceful shutdown error", zap.Error(err))
	}
}
