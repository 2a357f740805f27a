package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/locate-ticket-service/internal/api/http"
	"github.com/spec-kit/locate-ticket-service/internal/api/http/handlers"
	"github.com/spec-kit/locate-ticket-service/internal/auth"
	"github.com/spec-kit/locate-ticket-service/internal/config"
	"github.com/spec-kit/locate-ticket-service/internal/events"
	"github.com/spec-kit/locate-ticket-service/internal/observability"
	"github.com/spec-kit/locate-ticket-service/internal/persistence"
	"github.com/spec-kit/locate-ticket-service/internal/repository"
	"github.com/spec-kit/locate-ticket-service/internal/service"
	"github.com/spec-kit/locate-ticket-service/internal/worker"
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

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher(logger)

	pool := pg.PoolHandle()
	userRepo := repository.NewUserRepository(pool)
	ticketRepo := repository.NewTicketRepository(pool)
	alertRepo := repository.NewAlertRepository(redis.Client)

	authService := service.NewAuthService(cfg.Auth, userRepo)
	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo: ticketRepo,
		Dispatcher: dispatcher,
	})
	alertService := service.NewAlertService(service.AlertDependencies{
		AlertRepo:  alertRepo,
		TicketRepo: ticketRepo,
		Dispatcher: dispatcher,
		Logger:     logger,
		Metrics:    metrics,
	})
	alertService.RegisterHandlers()

	sweeper := worker.NewExpirationSweeper(ticketRepo, dispatcher, logger, metrics, cfg.Sweeper.Interval())
	if cfg.Sweeper.Enabled {
		sweeper.Start(ctx)
	}

	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), userRepo)

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Users:          handlers.NewUsersHandler(authService),
		Tickets:        handlers.NewTicketsHandler(ticketService),
		Alerts:         handlers.NewAlertsHandler(alertService),
		Sweep:          handlers.NewSweepHandler(sweeper, metrics),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	cancel()
	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
