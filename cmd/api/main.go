package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/gift-portal/internal/api/http"
	"github.com/spec-kit/gift-portal/internal/api/http/handlers"
	"github.com/spec-kit/gift-portal/internal/auth"
	"github.com/spec-kit/gift-portal/internal/config"
	"github.com/spec-kit/gift-portal/internal/events"
	"github.com/spec-kit/gift-portal/internal/observability"
	"github.com/spec-kit/gift-portal/internal/persistence"
	"github.com/spec-kit/gift-portal/internal/repository"
	"github.com/spec-kit/gift-portal/internal/service"
	"github.com/spec-kit/gift-portal/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger, cfg.App)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	if cfg.Auth.SessionSecretGenerated {
		logger.Warn("AUTH_SESSION_SECRET not set; using a random per-process secret, sessions will not survive a restart",
			zap.String("env", cfg.App.Env))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), cfg.Postgres.MigrationsDir, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	var submissionRepo repository.SubmissionRepository
	var historyRepo repository.SubmissionHistoryRepository
	if pool := pg.PoolHandle(); pool != nil {
		submissionRepo = repository.NewSubmissionRepository(pool)
		historyRepo = repository.NewSubmissionHistoryRepository(pool)
	} else {
		if cfg.App.IsProduction() {
			logger.Fatal("POSTGRES_DSN is required in production")
		}
		logger.Warn("using in-memory submission store; data is lost on restart")
		submissionRepo = repository.NewMemorySubmissionRepository()
		historyRepo = repository.NewMemorySubmissionHistoryRepository()
	}

	var replayGuard auth.ReplayGuard
	if cfg.Auth.ExchangeSingleUse {
		if redis.Client == nil {
			logger.Fatal("AUTH_EXCHANGE_SINGLE_USE requires REDIS_ADDR")
		}
		replayGuard = auth.NewRedisReplayGuard(redis.Client)
	}

	authService, err := service.NewAuthService(*cfg, service.AuthDependencies{
		ReplayGuard: replayGuard,
		Logger:      logger,
	})
	if err != nil {
		logger.Fatal("failed to init auth service", zap.Error(err))
	}

	dispatcher := events.NewInMemoryDispatcher(logger)
	submissionService := service.NewSubmissionService(service.SubmissionDependencies{
		SubmissionRepo: submissionRepo,
		HistoryRepo:    historyRepo,
		Dispatcher:     dispatcher,
		Logger:         logger,
	})
	notifier := worker.StartNotificationWorker(ctx, dispatcher, service.NewNotificationService(logger, cfg.Notification), logger)

	metrics := observability.NewMetrics()
	app := fiber.New(fiber.Config{
		AppName:               cfg.App.Name,
		DisableStartupMessage: cfg.App.IsProduction(),
	})
	httptransport.RegisterMiddlewares(app, httptransport.MiddlewareConfig{
		Logger:         logger,
		Metrics:        metrics,
		Timeout:        cfg.App.RequestTimeout(),
		AllowedOrigins: cfg.CORS.AllowedOrigins,
	})
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:           handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis, metrics),
		Auth:             handlers.NewAuthHandler(authService),
		Pages:            handlers.NewPagesHandler(authService),
		Submissions:      handlers.NewSubmissionsHandler(submissionService),
		AdminSubmissions: handlers.NewAdminSubmissionsHandler(submissionService),
		Gate:             auth.NewRouteGate(authService),
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil && !errors.Is(err, context.Canceled) {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Warn("shutdown", zap.Error(err))
	}
	cancel()
	notifier.Wait()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
