package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/Freeeeeet/lesson_booking/internal/app"
	"github.com/Freeeeeet/lesson_booking/internal/config"
	"github.com/Freeeeeet/lesson_booking/internal/controller"
	"github.com/Freeeeeet/lesson_booking/internal/controller/httpapi"
	"github.com/Freeeeeet/lesson_booking/internal/notify"
	"github.com/Freeeeeet/lesson_booking/internal/repository"
	"github.com/Freeeeeet/lesson_booking/internal/service"
	"github.com/Freeeeeet/lesson_booking/internal/slotgrid"
	"github.com/go-telegram/bot"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := app.NewLogger(cfg.Environment)
	defer logger.Sync()

	logger.Info("Starting lesson booking service",
		zap.String("environment", cfg.Environment),
		zap.String("http_addr", cfg.HTTPAddr),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.DBDSN)
	if err != nil {
		logger.Fatal("Failed to create database pool", zap.Error(err))
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	logger.Info("✅ Connected to database")

	migrator, err := app.NewMigrator(pool, cfg.MigrationsPath, logger)
	if err != nil {
		logger.Fatal("Failed to create migrator", zap.Error(err))
	}
	if err := migrator.Run(ctx); err != nil {
		logger.Fatal("Failed to apply migrations", zap.Error(err))
	}
	if err := migrator.Close(); err != nil {
		logger.Warn("Failed to close migrator", zap.Error(err))
	}

	grid := slotgrid.Grid{StartHour: cfg.GridStartHour, Hours: cfg.GridHours}
	if err := grid.Validate(); err != nil {
		logger.Fatal("Invalid schedule grid", zap.Error(err))
	}

	// Telegram бот опционален: без токена работает только HTTP API
	var tgBot *bot.Bot
	if cfg.TelegramToken != "" {
		tgBot, err = bot.New(cfg.TelegramToken)
		if err != nil {
			logger.Fatal("Failed to create bot", zap.Error(err))
		}
	}

	notifiers := notify.Multi{notify.NewLogNotifier(logger)}
	if cfg.RabbitMQURL != "" {
		publisher, err := notify.NewRabbitPublisher(cfg.RabbitMQURL, cfg.EventsQueue, logger)
		if err != nil {
			logger.Fatal("Failed to connect to RabbitMQ", zap.Error(err))
		}
		defer publisher.Close()
		notifiers = append(notifiers, publisher)
	}
	if tgBot != nil && cfg.TelegramAdminChatID != 0 {
		notifiers = append(notifiers, notify.NewTelegramNotifier(tgBot, cfg.TelegramAdminChatID, logger))
	}

	store := repository.NewPostgresStore(pool)

	ticketService := service.NewTicketService(store, notifiers, logger)
	appointmentService := service.NewAppointmentService(store, notifiers, logger)
	availabilityService := service.NewAvailabilityService(store, grid, logger)
	scheduleService := service.NewScheduleService(availabilityService, appointmentService, logger)

	// AUTO_COMPLETE_INTERVAL=0 отключает автозавершение
	var scheduler *app.Scheduler
	if cfg.AutoCompleteInterval > 0 {
		scheduler = app.NewScheduler(appointmentService, cfg.AutoCompleteInterval, logger)
		scheduler.Start(ctx)
	}

	rdb := app.NewRedisClient(ctx, cfg, logger)
	if rdb != nil {
		defer rdb.Close()
	}

	handler := httpapi.NewHandler(appointmentService, ticketService, availabilityService, scheduleService, logger)
	limiter := httpapi.RateLimit(cfg.RateLimit, rdb, logger)
	e := httpapi.NewRouter(handler, limiter, logger)
	e.Debug = !cfg.IsProduction()

	go func() {
		logger.Info("HTTP server listening", zap.String("addr", cfg.HTTPAddr))
		if err := e.Start(cfg.HTTPAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server stopped", zap.Error(err))
			stop()
		}
	}()

	if tgBot != nil && cfg.TelegramAdminChatID == 0 {
		logger.Warn("TELEGRAM_ADMIN_CHAT_ID is not set, bot commands are disabled")
	}
	if tgBot != nil && cfg.TelegramAdminChatID != 0 {
		botController := controller.NewBotController(
			tgBot,
			ticketService,
			appointmentService,
			scheduleService,
			cfg.TelegramAdminChatID,
			logger,
		)
		if err := botController.RegisterHandlers(ctx); err != nil {
			logger.Warn("Failed to register bot commands", zap.Error(err))
		}
		go botController.Start(ctx)
	}

	<-ctx.Done()
	logger.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown failed", zap.Error(err))
	}
	if scheduler != nil {
		scheduler.Stop()
	}

	logger.Info("Service stopped")
}
