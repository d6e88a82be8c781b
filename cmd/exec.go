package cmd

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"ticketdesk/config"
	"ticketdesk/handlers"
	"ticketdesk/monitoring"
	"ticketdesk/notify"
	"ticketdesk/platform"
	"ticketdesk/security"
	"ticketdesk/services"
	"ticketdesk/store"
	"ticketdesk/utils"
)

func Start() error {
	cfg := config.LoadConfig()
	logger := newLogger(cfg)

	// Redis is needed for the redis store backend and for rate limiting.
	var redisClient *redis.Client
	if store.Backend(cfg.StoreBackend) == store.BackendRedis || cfg.RateLimitPerMinute > 0 {
		client, err := utils.NewRedisClient(cfg.RedisURL, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return err
		}
		redisClient = client
		logger.Info().Str("addr", cfg.RedisURL).Msg("connected to redis")
	}

	ticketStore, err := store.New(cfg, redisClient)
	if err != nil {
		return err
	}
	defer ticketStore.Close()
	logger.Info().Str("backend", cfg.StoreBackend).Msg("ticket store ready")

	var client platform.Client
	if cfg.PlatformBaseURL != "" {
		client = platform.NewHTTPClient(cfg.PlatformBaseURL, cfg.PlatformToken, cfg.PlatformTimeout)
	} else {
		logger.Warn().Msg("no platform gateway configured, using in-memory fake")
		client = platform.NewFakeClient()
	}

	var notifier notify.Notifier = notify.Noop{}
	if cfg.PubNubPublishKey != "" && cfg.PubNubSubscribeKey != "" {
		notifier = notify.NewPubNubNotifier(cfg.PubNubPublishKey, cfg.PubNubSubscribeKey, cfg.PubNubSecretKey)
	}

	// Assemble the coordinator.
	categories := services.NewCategoryResolver(client, logger)
	perms := services.NewPermissionController(client)
	lifecycle := services.NewLifecycleService(
		ticketStore, client, categories, perms, notifier, monitoring.NewMonitor(), cfg, logger,
	)
	ticketHandler := handlers.NewTicketHandler(lifecycle, logger)

	e := echo.New()

	rateLimiter := security.NewRateLimiter(redisClient, cfg.RateLimitPerMinute)
	e.Use(rateLimiter.TicketRateLimit())

	manageAuth := security.ManageChannelsAuth(cfg.ManageKeyHash)

	api := e.Group("/api/v1")
	api.POST("/tickets", ticketHandler.CreateTicket)
	api.GET("/tickets/:channelId", ticketHandler.GetTicket)
	api.POST("/tickets/:channelId/participants", ticketHandler.AddParticipant, manageAuth)
	api.DELETE("/tickets/:channelId/participants/:subjectId", ticketHandler.RemoveParticipant, manageAuth)
	api.POST("/tickets/:channelId/close", ticketHandler.RequestClose)
	api.POST("/tickets/:channelId/archive", ticketHandler.ConfirmArchive)
	api.POST("/tickets/:channelId/delete", ticketHandler.ConfirmDelete)

	e.GET("/health", healthHandler(redisClient, logger))

	if cfg.EnableMetrics {
		go func() {
			metricsAddr := ":" + cfg.MetricsPort
			logger.Info().Str("addr", metricsAddr).Msg("metrics server listening")
			if err := http.ListenAndServe(metricsAddr, promhttp.Handler()); err != nil {
				logger.Error().Err(err).Msg("metrics server stopped")
			}
		}()
	}

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: e}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received, cleaning up")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	return srv.Shutdown(shutdownCtx)
}

// healthHandler reports process health. The failure detail goes to the log
// only; callers just get the status word.
func healthHandler(redisClient *redis.Client, logger zerolog.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		if redisClient != nil {
			if err := utils.RedisHealthCheck(redisClient); err != nil {
				logger.Error().Err(err).Msg("redis health check failed")
				return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "unhealthy"})
			}
		}
		return c.JSON(http.StatusOK, map[string]string{"status": "healthy"})
	}
}

func newLogger(cfg *config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}

	var out = zerolog.New(os.Stdout)
	if cfg.Environment == "development" {
		out = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr})
	}
	return out.Level(level).With().Timestamp().Logger()
}
