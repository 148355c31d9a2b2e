package main

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/famboard/dispatch-engine/internal/config"
	"github.com/famboard/dispatch-engine/internal/content"
	"github.com/famboard/dispatch-engine/internal/domain"
	"github.com/famboard/dispatch-engine/internal/handler"
	"github.com/famboard/dispatch-engine/internal/infra/postgresql"
	"github.com/famboard/dispatch-engine/internal/infra/postgresql/migrations"
	infraredis "github.com/famboard/dispatch-engine/internal/infra/redis"
	"github.com/famboard/dispatch-engine/internal/observability"
	"github.com/famboard/dispatch-engine/internal/provider"
	"github.com/famboard/dispatch-engine/internal/queue"
	"github.com/famboard/dispatch-engine/internal/ratelimit"
	"github.com/famboard/dispatch-engine/internal/repository"
	"github.com/famboard/dispatch-engine/internal/service"
	"github.com/famboard/dispatch-engine/internal/transport"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	db, err := postgresql.NewPostgres(cfg.DatabaseDSN)
	if err != nil {
		logger.Fatal("postgres initialization failed", zap.Error(err))
	}

	if err := migrations.Migrate(db); err != nil {
		logger.Fatal("database migrations failed", zap.Error(err))
	}

	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("postgres underlying db init failed", zap.Error(err))
	}
	defer sqlDB.Close()

	rdb, err := infraredis.NewRedis(cfg.RedisURL)
	if err != nil {
		logger.Fatal("redis initialization failed", zap.Error(err))
	}
	defer rdb.Close()

	rabbit, err := queue.NewRabbitMQ(cfg.RabbitMQURL)
	if err != nil {
		logger.Fatal("rabbitmq initialization failed", zap.Error(err))
	}
	defer rabbit.Close()

	publisher := queue.NewRabbitMQPublisher(rabbit)

	limiter, err := infraredis.NewSlidingWindowLimiter(rdb, ratelimit.DefaultPolicies(), logger)
	if err != nil {
		logger.Fatal("rate limiter initialization failed", zap.Error(err))
	}

	metrics := observability.NewMetrics()

	registry, err := buildProviderRegistry(cfg.GatewayBaseURL)
	if err != nil {
		logger.Fatal("provider registry initialization failed", zap.Error(err))
	}

	announcementRepo := repository.NewGormAnnouncementRepo(db)
	eventRepo := repository.NewGormEventRepo(db)
	reminderRepo := repository.NewGormEventReminderRepo(db)
	membershipRepo := repository.NewGormMembershipRepo(db)
	attemptRepo := repository.NewGormAttemptRepo(db)

	dispatchService, err := service.NewDispatchService(
		announcementRepo,
		eventRepo,
		reminderRepo,
		membershipRepo,
		attemptRepo,
		registry,
		content.NewTextBuilder(),
		publisher,
		cfg.FanOutConcurrency,
		logger,
	)
	if err != nil {
		logger.Fatal("dispatch service initialization failed", zap.Error(err))
	}
	dispatchService.SetMetrics(metrics)

	announcementService, err := service.NewAnnouncementService(
		announcementRepo,
		eventRepo,
		reminderRepo,
		dispatchService,
		logger,
	)
	if err != nil {
		logger.Fatal("announcement service initialization failed", zap.Error(err))
	}

	sweepService, err := service.NewSweepService(
		announcementRepo,
		reminderRepo,
		dispatchService,
		time.Duration(cfg.SweepIntervalSec)*time.Second,
		cfg.SweepLimit,
		logger,
	)
	if err != nil {
		logger.Fatal("sweep service initialization failed", zap.Error(err))
	}
	sweepService.SetMetrics(metrics)

	app := fiber.New(fiber.Config{
		ErrorHandler: transport.ErrorHandler(logger),
	})
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(metrics.HTTPMiddleware())

	dispatchGuard := handler.RateLimitMiddleware(limiter, ratelimit.ClassDispatch, metrics, logger)
	writeGuard := handler.RateLimitMiddleware(limiter, ratelimit.ClassWrite, metrics, logger)

	if err := handler.RegisterAnnouncementRoutes(app, announcementService, dispatchService, dispatchGuard, writeGuard); err != nil {
		logger.Fatal("failed to register announcement routes", zap.Error(err))
	}
	if err := handler.RegisterSweepRoutes(app, sweepService, cfg.CronSecret); err != nil {
		logger.Fatal("failed to register sweep routes", zap.Error(err))
	}
	handler.RegisterHealthRoutes(app, sqlDB, rdb)
	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, groupCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return sweepService.Start(groupCtx)
	})

	g.Go(func() error {
		logger.Info("dispatch-engine api started", zap.Int("port", cfg.APIPort))
		return app.Listen(fmt.Sprintf(":%d", cfg.APIPort))
	})

	g.Go(func() error {
		<-groupCtx.Done()
		logger.Info("shutting down")
		return app.ShutdownWithTimeout(shutdownTimeout)
	})

	if err := g.Wait(); err != nil {
		logger.Fatal("server stopped with error", zap.Error(err))
	}
}

// buildProviderRegistry mounts one gateway provider per channel, each on a
// channel-specific path under the configured base URL.
func buildProviderRegistry(baseURL string) (*provider.Registry, error) {
	registry := provider.NewRegistry()
	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")

	for _, channel := range domain.Channels() {
		endpoint := fmt.Sprintf("%s/%s", base, strings.ToLower(channel.String()))
		p, err := provider.NewGatewayProvider(channel, endpoint)
		if err != nil {
			return nil, fmt.Errorf("failed to build %s provider: %w", channel, err)
		}
		registry.Register(channel, p)
	}

	return registry, nil
}
