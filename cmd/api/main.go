package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/clearance-service/internal/api/http"
	"github.com/spec-kit/clearance-service/internal/api/http/handlers"
	"github.com/spec-kit/clearance-service/internal/auth"
	"github.com/spec-kit/clearance-service/internal/config"
	"github.com/spec-kit/clearance-service/internal/events"
	"github.com/spec-kit/clearance-service/internal/observability"
	"github.com/spec-kit/clearance-service/internal/persistence"
	"github.com/spec-kit/clearance-service/internal/repository"
	"github.com/spec-kit/clearance-service/internal/seed"
	"github.com/spec-kit/clearance-service/internal/service"
	"github.com/spec-kit/clearance-service/internal/worker"
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
	accountRepo := repository.NewAccountRepository(pool)
	departmentRepo := repository.NewDepartmentRepository(pool)
	clearanceRepo := repository.NewClearanceRepository(pool)

	if cfg.Seed.Enabled {
		if err := seed.Run(ctx, accountRepo, departmentRepo, cfg.Auth.BcryptCost, logger); err != nil {
			logger.Fatal("failed to seed data", zap.Error(err))
		}
	}

	dispatcher := events.NewInMemoryDispatcher()
	notificationService := service.NewNotificationService(dispatcher, logger, cfg.Notification)
	worker.StartNotificationWorker(notificationService)

	sessions := auth.NewSessionStore(redis.Client)
	authService := service.NewAuthService(cfg.Auth, accountRepo, sessions)
	accountService := service.NewAccountService(accountRepo, cfg.Auth.BcryptCost)
	departmentService := service.NewDepartmentService(departmentRepo, accountRepo)
	clearanceService := service.NewClearanceService(service.ClearanceDependencies{
		RequestRepo:    clearanceRepo,
		DepartmentRepo: departmentRepo,
		AccountRepo:    accountRepo,
		Dispatcher:     dispatcher,
	})

	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), sessions, accountRepo)
	metrics := observability.NewMetrics()

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Auth:           handlers.NewAuthHandler(authService),
		Accounts:       handlers.NewAccountsHandler(accountService),
		Departments:    handlers.NewDepartmentsHandler(departmentService),
		Clearance:      handlers.NewClearanceHandler(clearanceService),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
