package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"

	"github.com/casavault/reminder-engine/internal/background"
	"github.com/casavault/reminder-engine/internal/config"
	"github.com/casavault/reminder-engine/internal/domain"
	"github.com/casavault/reminder-engine/internal/handler"
	"github.com/casavault/reminder-engine/internal/health"
	"github.com/casavault/reminder-engine/internal/infra/dispatch"
	"github.com/casavault/reminder-engine/internal/infra/inventory"
	"github.com/casavault/reminder-engine/internal/infra/store"
	"github.com/casavault/reminder-engine/internal/observability"
	"github.com/casavault/reminder-engine/internal/observability/logging"
	"github.com/casavault/reminder-engine/internal/observability/metrics"
	"github.com/casavault/reminder-engine/internal/service/analytics"
	"github.com/casavault/reminder-engine/internal/service/schedule"
	"github.com/casavault/reminder-engine/internal/settings"
)

// Version is set via ldflags at build time
var Version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Missing .env is fine; environment variables win either way.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", slog.String("error", err.Error()))
		return 1
	}

	logging.Setup(cfg.LogLevel)

	if err := config.ValidateForRun(cfg); err != nil {
		slog.Error("configuration validation error", slog.String("error", err.Error()))
		return 1
	}

	obs, err := observability.Init(ctx, "reminder-engine", Version)
	if err != nil {
		slog.Error("failed to initialize observability", slog.String("error", err.Error()))
		return 1
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := obs.Shutdown(shutdownCtx); err != nil {
			slog.Warn("observability shutdown error", slog.String("error", err.Error()))
		}
	}()

	schedulerMetrics, err := metrics.NewSchedulerMetrics()
	if err != nil {
		slog.Error("failed to initialize scheduler metrics", slog.String("error", err.Error()))
		return 1
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	if err := redisotel.InstrumentMetrics(redisClient); err != nil {
		slog.Error("failed to instrument redis metrics",
			slog.String("event", "redis.otel.metrics.fail"),
			slog.String("error", err.Error()),
		)
		return 1
	}

	if err := redisClient.Ping(ctx).Err(); err != nil {
		slog.Error("failed to connect redis",
			slog.String("event", "redis.connect.fail"),
			slog.String("error", err.Error()),
		)
		return 1
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			slog.Warn("failed to close redis client", slog.String("error", err.Error()))
		}
	}()

	slog.Info("redis connected",
		slog.String("addr", cfg.Redis.Addr),
	)

	st, err := store.New(redisClient, cfg.Store.BackupPath)
	if err != nil {
		slog.Error("failed to open state store", slog.String("error", err.Error()))
		return 1
	}
	defer func() {
		if err := st.Close(); err != nil {
			slog.Warn("failed to close state store", slog.String("error", err.Error()))
		}
	}()

	prefs := settings.New()
	prefs.SeedScheduling(cfg.Scheduler.DailyCap, cfg.Scheduler.LookaheadDays, cfg.Scheduler.OptimalHour)
	if err := prefs.Load(ctx, st); err != nil {
		slog.Warn("failed to load stored settings, using defaults",
			slog.String("error", err.Error()),
		)
	}

	var dispatcher domain.Dispatcher
	if cfg.Dispatch.BridgeURL != "" {
		dispatcher = dispatch.NewBridgeClient(cfg.Dispatch.BridgeURL, cfg.Dispatch.RatePerSecond)
		slog.Info("notification bridge configured",
			slog.String("url", cfg.Dispatch.BridgeURL),
		)
	} else {
		dispatcher = dispatch.NewNoopDispatcher()
		slog.Warn("NOTIFICATION_BRIDGE_URL not set, notifications will not be delivered")
	}

	analyticsEngine := analytics.NewEngine(prefs)
	scheduleService := schedule.NewService(st, dispatcher, prefs, analyticsEngine, schedulerMetrics)

	if _, err := st.PerformRecovery(ctx); err != nil {
		slog.Warn("state recovery reported errors", slog.String("error", err.Error()))
	}
	if err := scheduleService.Load(ctx); err != nil {
		slog.Error("failed to load schedule state", slog.String("error", err.Error()))
		return 1
	}

	feed := dispatch.NewEventFeed()
	go scheduleService.ConsumeFeed(ctx, feed.Events())

	itemSource := inventory.NewClient(cfg.InventoryURL)

	coordinator := background.NewCoordinator(
		cfg.Coordinator,
		scheduleService,
		st,
		itemSource,
		analyticsEngine,
		prefs,
		dispatcher,
		schedulerMetrics,
	)
	if err := coordinator.Start(ctx); err != nil {
		slog.Error("failed to start background coordinator", slog.String("error", err.Error()))
		return 1
	}
	defer coordinator.Stop()

	scheduleHandler := handler.NewScheduleHandler(scheduleService, itemSource)
	eventHandler := handler.NewEventHandler(feed)
	analyticsHandler := handler.NewAnalyticsHandler(analyticsEngine)
	settingsHandler := handler.NewSettingsHandler(prefs, st)
	statusHandler := handler.NewStatusHandler(coordinator, scheduleService)

	r := gin.New()
	r.Use(gin.Recovery())

	healthChecker := health.NewChecker(redisClient, st, Version)
	r.GET("/health/live", healthChecker.LiveHandler())
	r.GET("/health/ready", healthChecker.ReadyHandler())
	r.GET("/health", healthChecker.ReadyHandler())

	v1 := r.Group("/api/v1")
	{
		v1.POST("/schedule/batch", scheduleHandler.HandleScheduleBatch)
		v1.GET("/schedule", scheduleHandler.HandleListActive)
		v1.DELETE("/schedule/:itemID/:type", scheduleHandler.HandleCancel)
		v1.POST("/schedule/:id/snooze", scheduleHandler.HandleSnooze)
		v1.POST("/events", eventHandler.HandleEvent)
		v1.GET("/analytics", analyticsHandler.HandleSnapshot)
		v1.GET("/analytics/effectiveness", analyticsHandler.HandleEffectiveness)
		v1.GET("/settings", settingsHandler.HandleGet)
		v1.PUT("/settings", settingsHandler.HandlePut)
		v1.GET("/status", statusHandler.HandleStatus)
	}

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("starting server",
			slog.String("port", cfg.Port),
			slog.Int("daily_cap", prefs.DailyCap()),
			slog.Int("lookahead_days", prefs.LookaheadDays()),
		)
		serverErr <- srv.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		slog.Info("shutdown signal received", slog.String("signal", sig.String()))
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("failed to shutdown server", slog.String("error", err.Error()))
			return 1
		}
		feed.Close()

		slog.Info("server exited properly")
		return 0

	case err := <-serverErr:
		if errors.Is(err, http.ErrServerClosed) {
			return 0
		}
		slog.Error("server exited with error", slog.String("error", err.Error()))
		return 1
	}
}
