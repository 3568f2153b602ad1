// AngelaMos | 2026
// main.go

package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/bandmate/backend/internal/admin"
	"github.com/bandmate/backend/internal/auth"
	"github.com/bandmate/backend/internal/band"
	"github.com/bandmate/backend/internal/chat"
	"github.com/bandmate/backend/internal/config"
	"github.com/bandmate/backend/internal/core"
	"github.com/bandmate/backend/internal/geo"
	"github.com/bandmate/backend/internal/health"
	"github.com/bandmate/backend/internal/mail"
	"github.com/bandmate/backend/internal/middleware"
	"github.com/bandmate/backend/internal/notification"
	"github.com/bandmate/backend/internal/server"
	"github.com/bandmate/backend/internal/user"
)

const (
	drainDelay = 5 * time.Second
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

//nolint:funlen // bootstrap code is inherently verbose
func run(configPath string) error {
	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer stop()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger := setupLogger(cfg.Log)
	slog.SetDefault(logger)

	logger.Info("starting application",
		"name", cfg.App.Name,
		"version", cfg.App.Version,
		"environment", cfg.App.Environment,
	)

	var telemetry *core.Telemetry
	if cfg.Otel.Enabled {
		tel, telErr := core.NewTelemetry(ctx, cfg.Otel, cfg.App)
		if telErr != nil {
			logger.Warn("failed to initialize telemetry", "error", telErr)
		} else {
			telemetry = tel
			logger.Info("OpenTelemetry tracer initialized",
				"endpoint", cfg.Otel.Endpoint,
			)
		}
	}

	db, err := core.NewDatabase(ctx, cfg.Database)
	if err != nil {
		return err
	}
	logger.Info("database connected",
		"max_open_conns", cfg.Database.MaxOpenConns,
		"max_idle_conns", cfg.Database.MaxIdleConns,
	)

	redis, err := core.NewRedis(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	logger.Info("redis connected",
		"pool_size", cfg.Redis.PoolSize,
	)

	jwtManager, err := auth.NewJWTManager(cfg.JWT, redis.Client)
	if err != nil {
		return err
	}
	logger.Info("JWT manager initialized", "algorithm", "ES256")

	var mailer mail.Service
	if cfg.SMTP.Enabled {
		m, mailErr := mail.NewMailer(cfg.SMTP, cfg.App.BaseURL)
		if mailErr != nil {
			return mailErr
		}
		mailer = m
		logger.Info("smtp mailer initialized", "host", cfg.SMTP.Host)
	} else {
		mailer = mail.Noop{}
		logger.Info("smtp disabled, using noop mailer")
	}

	geocoder := geo.NewGeocoder(cfg.Geocode, redis.Client)

	userRepo := user.NewRepository(db.DB)
	userSvc := user.NewService(db.DB, userRepo, geocoder, mailer)
	userHandler := user.NewHandler(userSvc)

	authSvc := auth.NewService(jwtManager, userSvc)
	authHandler := auth.NewHandler(authSvc)

	bandRepo := band.NewRepository(db.DB)
	bandSvc := band.NewService(db.DB, bandRepo, geocoder, userSvc, mailer)
	bandHandler := band.NewHandler(bandSvc)

	notificationRepo := notification.NewRepository(db.DB)
	notificationSvc := notification.NewService(
		notificationRepo, userSvc, bandRepo, mailer)
	notificationHandler := notification.NewHandler(notificationSvc)

	chatRegistry := chat.NewRegistry()
	chatRepo := chat.NewRepository(db.DB)
	chatEngine := chat.NewEngine(
		chatRepo,
		chatRegistry,
		notificationSvc,
		userSvc,
		cfg.Chat.OfflineNoticeExpiry,
	)
	chatHandler := chat.NewHandler(
		chatEngine,
		chatRegistry,
		chatRepo,
		jwtManager,
		cfg.Chat,
		originChecker(cfg.CORS.AllowedOrigins),
	)

	healthHandler := health.NewHandler(db, redis)

	adminHandler := admin.NewHandler(admin.HandlerConfig{
		DBStats:    db.Stats,
		RedisStats: redis.PoolStats,
		DBPing:     db.Ping,
		RedisPing:  redis.Ping,
		Presence:   chatRegistry,
	})

	srv := server.New(server.Config{
		ServerConfig: cfg.Server,
		Health:       healthHandler,
		Logger:       logger,
	})

	router := srv.Router()

	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(logger))
	router.Use(
		middleware.NewRateLimiter(redis.Client, middleware.RateLimitConfig{
			Limit: middleware.PerMinute(
				cfg.RateLimit.Requests,
				cfg.RateLimit.Burst,
			),
			FailOpen: true,
		}).Handler,
	)
	router.Use(middleware.SecurityHeaders(cfg.App.Environment == "production"))
	router.Use(middleware.CORS(cfg.CORS))

	healthHandler.RegisterRoutes(router)

	router.Get("/.well-known/jwks.json", jwtManager.GetJWKSHandler())

	authenticator := middleware.Authenticator(jwtManager)
	optionalAuth := middleware.OptionalAuth(jwtManager)

	router.Route("/v1", func(r chi.Router) {
		authHandler.RegisterRoutes(r, authenticator)
		userHandler.RegisterRoutes(r, authenticator)
		bandHandler.RegisterRoutes(r, authenticator, optionalAuth)
		notificationHandler.RegisterRoutes(r, authenticator)
		chatHandler.RegisterRoutes(r, authenticator)
		adminHandler.RegisterRoutes(r, authenticator)
	})

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		cfg.Server.ShutdownTimeout+drainDelay+5*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx, drainDelay); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	if telemetry != nil {
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			logger.Error("telemetry shutdown error", "error", err)
		}
	}

	if err := redis.Close(); err != nil {
		logger.Error("redis close error", "error", err)
	}

	if err := db.Close(); err != nil {
		logger.Error("database close error", "error", err)
	}

	logger.Info("application stopped")
	return nil
}

// originChecker gates websocket upgrades with the same origin allowlist as
// CORS. Requests without an Origin header (native clients) are allowed.
func originChecker(allowed []string) func(*http.Request) bool {
	allowAll := false
	origins := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		if o == "*" {
			allowAll = true
		}
		origins[o] = struct{}{}
	}

	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || allowAll {
			return true
		}
		_, ok := origins[origin]
		return ok
	}
}

func setupLogger(cfg config.LogConfig) *slog.Logger {
	var handler slog.Handler

	level := slog.LevelInfo
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}

	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
