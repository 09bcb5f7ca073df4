package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentryfiber "github.com/getsentry/sentry-go/fiber"

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/linkfro/linkfro-backend/internal/config"
	"github.com/linkfro/linkfro-backend/internal/database"
	"github.com/linkfro/linkfro-backend/internal/handlers"
	"github.com/linkfro/linkfro-backend/internal/identity"
	"github.com/linkfro/linkfro-backend/internal/locker"
	"github.com/linkfro/linkfro-backend/internal/logging"
	"github.com/linkfro/linkfro-backend/internal/middleware"
	"github.com/linkfro/linkfro-backend/internal/routes"
	"github.com/linkfro/linkfro-backend/internal/services"
)

func main() {
	cfg := config.Load()

	// Structured logging (JSON to stdout)
	stdoutHandler := logging.Setup(cfg.AppEnv)

	if cfg.AuthJWTSecret == "" && cfg.AuthJWKSURL == "" {
		slog.Error("AUTH_JWT_SECRET or AUTH_JWKS_URL environment variable is required")
		os.Exit(1)
	}
	if cfg.DBPassword == "" {
		slog.Error("DB_PASSWORD environment variable is required")
		os.Exit(1)
	}
	if cfg.IdentityAPIKey == "" {
		slog.Warn("IDENTITY_API_KEY is not set; only SUPERADMIN_USER_IDS can grant admin access")
	}

	// Database
	if err := database.Connect(cfg); err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	if err := database.Migrate(database.DB); err != nil {
		slog.Error("migration failed", "error", err)
		os.Exit(1)
	}

	// PostgreSQL log handler (ERROR+ async batch)
	pgLogHandler := logging.NewPGHandler(database.DB, 5*time.Second)
	slog.SetDefault(slog.New(logging.NewMultiHandler(stdoutHandler, pgLogHandler)))

	cleanup, err := logging.StartCleanup(database.DB, cfg.LogRetentionDays)
	if err != nil {
		slog.Error("log cleanup schedule failed", "error", err)
		os.Exit(1)
	}

	// Conflict locks are shared across instances when Redis is configured.
	var locks locker.Locker = locker.NewLocalLocker()
	if cfg.RedisURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		rdb, err := locker.NewRedisClient(ctx, cfg.RedisURL)
		cancel()
		if err != nil {
			slog.Error("redis connection failed", "error", err)
			os.Exit(1)
		}
		defer rdb.Close()
		locks = locker.NewRedisLocker(rdb)
		slog.Info("redis connected, using distributed conflict locks")
	}

	// Services
	emails := identity.NewCachedProvider(
		identity.NewClient(cfg.IdentityAPIURL, cfg.IdentityAPIKey, cfg.IdentityTimeout),
		cfg.IdentityCacheSize,
		cfg.IdentityCacheTTL,
	)
	resolver := services.NewRoleResolver(database.DB, emails, services.RoleResolverConfig{
		SuperAdminUserIDs: cfg.SuperAdminUserIDs,
		SuperAdminEmails:  cfg.SuperAdminEmails,
	})
	roleService := services.NewRoleService(database.DB)
	websiteService := services.NewWebsiteService(database.DB, services.NewContentScreener(services.BannedWords))
	conflictService := services.NewConflictService(database.DB, websiteService, locks)
	purchaseService := services.NewPurchaseService(database.DB)

	// Sentry error tracking
	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			EnableTracing:    true,
			TracesSampleRate: 0.2,
			Environment:      cfg.AppEnv,
		}); err != nil {
			slog.Error("sentry init failed", "error", err)
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	// Fiber app
	app := fiber.New(fiber.Config{
		BodyLimit:    1 * 1024 * 1024,
		ErrorHandler: customErrorHandler,
	})

	// Sentry middleware
	app.Use(sentryfiber.New(sentryfiber.Options{
		Repanic:         true,
		WaitForDelivery: false,
	}))

	// Global middleware
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "${time} | ${status} | ${latency} | ${ip} | ${method} | ${path} | ${locals:requestid}\n",
	}))
	app.Use(middleware.CORS(cfg))
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("X-XSS-Protection", "1; mode=block")
		return c.Next()
	})

	// Routes
	routes.Setup(app, cfg, resolver, routes.Handlers{
		Health:   handlers.NewHealthHandler(database.Ping),
		Roles:    handlers.NewRoleHandler(roleService),
		Websites: handlers.NewWebsiteHandler(websiteService),
		Conflict: handlers.NewConflictHandler(conflictService),
		Purchase: handlers.NewPurchaseHandler(purchaseService),
	})

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "port", cfg.Port, "env", cfg.AppEnv)
		if err := app.Listen(":" + cfg.Port); err != nil {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	<-quit
	slog.Info("shutting down server...")

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	<-cleanup.Stop().Done()
	pgLogHandler.Stop()
	sentry.Flush(2 * time.Second)

	// Close database connections
	if sqlDB, err := database.DB.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			slog.Error("database close error", "error", err)
		}
	}

	slog.Info("server stopped")
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal server error"
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		message = fe.Message
	}

	// Only expose error details for client errors (4xx), not server errors (5xx)
	if code >= 500 {
		slog.Error("unhandled server error",
			"action", c.Method()+" "+c.Path(),
			"request_id", c.Locals("requestid"),
			"error", err.Error(),
		)
		if hub := sentryfiber.GetHubFromContext(c); hub != nil {
			hub.CaptureException(err)
		}
		message = "Internal server error"
	}

	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": message,
	})
}
