package main // Entry point package

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv" // loads .env in development
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/khIbrahim/popcornon/internal/config"
	"github.com/khIbrahim/popcornon/internal/dashboard"
	"github.com/khIbrahim/popcornon/internal/database"
	"github.com/khIbrahim/popcornon/internal/handler"
	"github.com/khIbrahim/popcornon/internal/logging"
	"github.com/khIbrahim/popcornon/internal/middleware"
	"github.com/khIbrahim/popcornon/internal/notify"
	"github.com/khIbrahim/popcornon/internal/queue"
	"github.com/khIbrahim/popcornon/internal/repository"
	"github.com/khIbrahim/popcornon/internal/router"
	"github.com/khIbrahim/popcornon/internal/service"
)

func main() {
	_ = godotenv.Load() // a missing .env is fine, real env vars still apply

	cfg := config.Load()
	logger := logging.New(cfg.LogLevel, cfg.LogFormat, os.Stderr).With().Str("env", cfg.Env).Logger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Live toasts for connected dashboards.  With a broker configured,
	// handlers publish and the consumer feeds the hub; otherwise handlers
	// notify the hub directly.
	hub := notify.NewHub(logger)
	var notifier notify.Notifier = hub
	qcfg := config.LoadQueueConfig()
	if qcfg.Enabled() {
		notifier = notify.Multi(service.NewToastPublisher(qcfg.URL, logger), notify.NewLog(logger))
		go func() {
			if err := queue.StartToastConsumer(ctx, qcfg.URL, hub, qcfg.LogDir, logger); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error().Err(err).Msg("toast consumer stopped")
			}
		}()
	}

	rdb := config.NewRedisClient() // nil when disabled or unreachable
	if rdb == nil {
		logger.Warn().Msg("redis unavailable, response cache and rate limiting disabled")
	} else {
		defer rdb.Close()
	}
	cache := middleware.NewResponseCache(config.LoadCacheConfig(), rdb, logger)

	deps := router.Deps{
		JWTSecret: cfg.JWTSecret,
		Health:    map[string]handler.Check{},
		RateLimit: middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb, logger),
		Cache:     cache.Middleware(),
	}
	if rdb != nil {
		deps.Health["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	}

	if cfg.HasDB() {
		db, err := database.Open(ctx, cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
		if err != nil {
			logger.Fatal().Err(err).Str("host", cfg.DBHost).Msg("database connection failed")
		}
		defer db.Close()
		deps.Health["mysql"] = db.PingContext

		users := repository.NewUserRepo(db)
		cinemas := repository.NewCinemaRepo(db)
		requests := repository.NewPartnerRequestRepo(db)

		deps.Auth = handler.NewAuthHandler(handler.TokenSettings{
			Secret:     cfg.JWTSecret,
			AccessTTL:  cfg.AccessTTL,
			RefreshTTL: cfg.RefreshTTL,
		}, users, repository.NewTokenRepo(db))
		deps.Public = &handler.PublicHandler{
			Cinemas:  cinemas,
			Requests: requests,
			Notifier: notifier,
			Logger:   logger,
		}
		deps.Admin = &handler.AdminHandler{
			Dashboard: dashboard.NewService(repository.NewDashboardSource(cinemas, requests, users)),
			Requests:  requests,
			Cinemas:   cinemas,
			Purger:    cache,
			Notifier:  notifier,
			Live:      hub,
			Logger:    logger,
		}
	} else {
		logger.Warn().Msg("DB_HOST not set, serving the demo dashboard without authentication")
		deps.Admin = &handler.AdminHandler{
			Dashboard: dashboard.NewService(dashboard.NewMockSource()),
			Notifier:  notifier,
			Live:      hub,
			Logger:    logger,
		}
	}

	e := echo.New() // Create Echo instance
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = handler.HTTPErrorHandler(logger)
	e.Use(middleware.Recover(logger), middleware.RequestLogger(logger))
	router.RegisterRoutes(e, deps)

	addr := ":" + cfg.Port
	go func() {
		logger.Info().Str("addr", addr).Bool("database", cfg.HasDB()).Bool("queue", qcfg.Enabled()).Msg("listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	shutdown(e, hub, logger)
}

// shutdown drains in-flight requests, then disconnects websocket clients.
func shutdown(e *echo.Echo, hub *notify.Hub, logger zerolog.Logger) {
	logger.Info().Msg("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	hub.Close()
	if err := e.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}
}
