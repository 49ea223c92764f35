package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	httptransport "github.com/tgdesk/support-bot/internal/api/http"
	"github.com/tgdesk/support-bot/internal/api/http/handlers"
	"github.com/tgdesk/support-bot/internal/bot"
	"github.com/tgdesk/support-bot/internal/config"
	"github.com/tgdesk/support-bot/internal/events"
	"github.com/tgdesk/support-bot/internal/observability"
	"github.com/tgdesk/support-bot/internal/persistence"
	"github.com/tgdesk/support-bot/internal/repository"
	"github.com/tgdesk/support-bot/internal/service"
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

	rd := persistence.NewRedis(cfg.Redis, logger)
	defer rd.Close()

	pool := pg.PoolHandle()
	userRepo := repository.NewUserRepository(pool)
	ticketRepo := repository.NewTicketRepository(pool)
	messageRepo := repository.NewTicketMessageRepository(pool)

	dispatcher := events.NewInMemoryDispatcher()
	metrics := observability.NewMetrics()

	userService := service.NewUserService(userRepo)
	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo:  ticketRepo,
		MessageRepo: messageRepo,
		UserRepo:    userRepo,
		Dispatcher:  dispatcher,
	})

	sessions := bot.NewSessionStore(rd.Client, cfg.Redis.SessionTTL)
	limiter := bot.NewRateLimiter(rd.Client, cfg.Telegram.RateLimitPerMinute, time.Minute)

	tgBot, err := bot.New(cfg.Telegram, userService, ticketService, sessions, limiter, metrics, logger)
	if err != nil {
		logger.Fatal("failed to start telegram bot", zap.Error(err))
	}

	notifications := service.NewNotificationService(dispatcher, userRepo, ticketRepo, tgBot, logger)
	notifications.RegisterHandlers()

	reminders := service.NewReminderService(cfg.Reminder, ticketRepo, userRepo, tgBot, logger)
	if err := reminders.Start(); err != nil {
		logger.Fatal("failed to start reminder digest", zap.Error(err))
	}
	defer reminders.Stop()

	healthHandler := handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, rd)
	metricsHandler := handlers.NewMetricsHandler(metrics)
	opsApp := httptransport.NewOpsApp(logger, httptransport.RouteConfig{
		Health:  healthHandler,
		Metrics: metricsHandler,
	})

	go func() {
		if err := opsApp.Listen(cfg.Ops.Addr()); err != nil {
			logger.Fatal("ops listen", zap.Error(err))
		}
	}()

	go func() {
		if err := tgBot.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("bot stopped", zap.Error(err))
		}
	}()

	waitForShutdown(logger)
	cancel()
	_ = opsApp.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
