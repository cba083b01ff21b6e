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
	"github.com/joho/godotenv"

	"github.com/carterperez-dev/tenant-platform/internal/admin"
	"github.com/carterperez-dev/tenant-platform/internal/audit"
	"github.com/carterperez-dev/tenant-platform/internal/auth"
	"github.com/carterperez-dev/tenant-platform/internal/branding"
	"github.com/carterperez-dev/tenant-platform/internal/config"
	"github.com/carterperez-dev/tenant-platform/internal/core"
	"github.com/carterperez-dev/tenant-platform/internal/entitlement"
	"github.com/carterperez-dev/tenant-platform/internal/health"
	"github.com/carterperez-dev/tenant-platform/internal/integration"
	"github.com/carterperez-dev/tenant-platform/internal/metrics"
	"github.com/carterperez-dev/tenant-platform/internal/middleware"
	"github.com/carterperez-dev/tenant-platform/internal/server"
	"github.com/carterperez-dev/tenant-platform/internal/storage"
	"github.com/carterperez-dev/tenant-platform/internal/tenant"
	"github.com/carterperez-dev/tenant-platform/internal/user"
	"github.com/carterperez-dev/tenant-platform/migrations"
)

const (
	drainDelay = 5 * time.Second
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	_ = godotenv.Load()

	if err := run(*configPath); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

//nolint:funlen,gocyclo // bootstrap code is inherently verbose
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

	m := metrics.NewDefault()

	telemetry, err := core.NewTelemetry(ctx, cfg.Otel, cfg.App)
	if err != nil {
		logger.Warn("tracing disabled", "error", err)
	} else if cfg.Otel.Enabled {
		logger.Info("tracing enabled", "endpoint", cfg.Otel.Endpoint)
	}

	db, err := core.NewDatabase(ctx, cfg.Database)
	if err != nil {
		return err
	}
	logger.Info("database connected",
		"max_open_conns", cfg.Database.MaxOpenConns,
		"max_idle_conns", cfg.Database.MaxIdleConns,
	)

	applied, err := core.Migrate(ctx, db.DB, migrations.Files)
	if err != nil {
		return err
	}
	if len(applied) > 0 {
		logger.Info("migrations applied", "versions", applied)
	}

	redis, err := core.NewRedis(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	logger.Info("redis connected",
		"pool_size", cfg.Redis.PoolSize,
	)

	auditRepo := audit.NewRepository(db.DB)
	recorder := audit.NewRecorder(auditRepo, cfg.Audit, logger, m)

	var files storage.FileStorage
	healthDeps := []health.Dependency{
		{Name: "database", Checker: db},
		{Name: "redis", Checker: redis},
	}
	if cfg.Storage.Enabled {
		store, storeErr := storage.NewMinIO(ctx, cfg.Storage, logger)
		if storeErr != nil {
			return storeErr
		}
		files = store
		healthDeps = append(healthDeps, health.Dependency{Name: "storage", Checker: store, Optional: true})
		logger.Info("object storage connected", "bucket", cfg.Storage.Bucket)
	}

	tenantRepo := tenant.NewRepository(db.DB)
	tenantSvc := tenant.NewService(tenantRepo, recorder, m)

	userRepo := user.NewRepository(db.DB)
	userSvc := user.NewService(userRepo, recorder)
	userHandler := user.NewHandler(userSvc)

	brandingRepo := branding.NewRepository(db.DB)
	brandingResolver := branding.NewResolver(brandingRepo)
	brandingSvc := branding.NewService(brandingRepo, files, recorder, logger)
	brandingHandler := branding.NewHandler(brandingSvc, brandingResolver, cfg.Storage.MaxUploadSize)

	entitlementRepo := entitlement.NewRepository(db.DB)
	catalog := entitlement.NewCatalogCache(redis.Client, entitlementRepo, cfg.Catalog.CacheTTL, logger, m)
	entitlementResolver := entitlement.NewResolver(entitlementRepo, catalog, m)
	subscriptionSvc := entitlement.NewSubscriptionService(
		db,
		entitlement.NewRepository,
		entitlementRepo,
		catalog,
		recorder,
	)
	entitlementHandler := entitlement.NewHandler(entitlementResolver)

	jwtManager, err := auth.NewJWTManager(cfg.JWT)
	if err != nil {
		return err
	}
	logger.Info("JWT manager initialized",
		"algorithm", "ES256",
		"key_id", jwtManager.KeyID(),
	)

	var federated auth.FederatedAuthenticator
	if cfg.Federation.Enabled {
		keys, keysErr := auth.NewRemoteKeySource(ctx, cfg.Federation.JWKSURL, cfg.Federation.JWKSRefresh, nil)
		if keysErr != nil {
			return keysErr
		}
		federated = auth.NewFederatedBridge(
			auth.NewJWKSProvider(cfg.Federation, keys),
			userRepo,
			tenantRepo,
			auth.NewTxProvisioner(db, tenant.NewRepository, user.NewRepository),
			recorder,
			m,
			logger,
		)
		logger.Info("federated login enabled", "issuer", cfg.Federation.Issuer)
	}

	authSvc := auth.NewService(auth.Deps{
		Local:        auth.NewCredentialAuthenticator(userRepo, tenantRepo, logger),
		Federated:    federated,
		Entitlements: entitlementResolver,
		Branding:     brandingResolver,
		Issuer:       auth.NewSessionIssuer(jwtManager, cfg.JWT.AccessTokenExpire, cfg.JWT.SetupTokenExpire),
		Users:        userRepo,
		Tenants:      tenantRepo,
		Registration: auth.Registration{
			Tx:      db,
			Tenants: tenant.NewRepository,
			Users:   user.NewRepository,
		},
		Audit:   recorder,
		Metrics: m,
		Logger:  logger,
	})
	authHandler := auth.NewHandler(authSvc)
	tenantHandler := tenant.NewHandler(tenantSvc, authSvc)

	var integrationHandler *integration.Handler
	if cfg.Integration.EncryptionKey != "" {
		sealer, sealErr := integration.NewSealer(cfg.Integration.EncryptionKey)
		if sealErr != nil {
			return sealErr
		}
		integrationSvc := integration.NewService(
			db,
			integration.NewRepository,
			integration.NewRepository(db.DB),
			sealer,
			recorder,
			logger,
		)
		integrationHandler = integration.NewHandler(integrationSvc)
	}

	healthHandler := health.NewHandler(healthDeps...)

	adminHandler := admin.NewHandler(admin.HandlerConfig{
		DBStats:    db.Stats,
		RedisStats: redis.PoolStats,
		DBPing:     db.Ping,
		RedisPing:  redis.Ping,
		Tenants:    tenantSvc,
		Catalog:    subscriptionSvc,
		Audit:      auditRepo,
	})

	srv := server.New(server.Config{
		ServerConfig:  cfg.Server,
		HealthHandler: healthHandler,
		Logger:        logger,
	})

	router := srv.Router()

	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(logger))
	router.Use(middleware.Metrics(m))
	router.Use(middleware.NewRateLimiter(redis.Client, middleware.Policy{
		Name:  "global",
		Limit: middleware.PerMinute(cfg.RateLimit.Requests, cfg.RateLimit.Burst),
	}, m, logger).Handler)
	router.Use(middleware.SecurityHeaders(cfg.App.Environment == "production"))
	router.Use(middleware.CORS(cfg.CORS))

	healthHandler.RegisterRoutes(router)

	if cfg.Metrics.Enabled {
		router.Handle(cfg.Metrics.Path, m.Handler())
	}

	router.Get("/.well-known/jwks.json", jwtManager.JWKSHandler())

	authLimiter := middleware.NewRateLimiter(redis.Client, middleware.Policy{
		Name:  "auth",
		Limit: middleware.PerMinute(cfg.RateLimit.AuthRequests, cfg.RateLimit.AuthBurst),
		Key:   middleware.KeyByIPAndRoute,
	}, m, logger).Handler

	authenticator := middleware.Authenticator(jwtManager)
	activeUser := middleware.RequireActiveUser(userSvc)
	activeTenant := chi.Chain(activeUser, middleware.RequireActiveTenant(tenantSvc)).Handler
	pendingAllowed := chi.Chain(activeUser, middleware.AllowPendingSetup(tenantSvc)).Handler
	adminOnly := middleware.RequireAdmin

	router.Route("/v1", func(r chi.Router) {
		authHandler.RegisterRoutes(r, authenticator, pendingAllowed, authLimiter)
		tenantHandler.RegisterRoutes(r, authenticator, pendingAllowed, adminOnly)

		userHandler.RegisterRoutes(r, authenticator, activeTenant, adminOnly)
		brandingHandler.RegisterRoutes(r, authenticator, activeTenant, adminOnly)
		entitlementHandler.RegisterRoutes(r, authenticator, activeTenant)
		if integrationHandler != nil {
			integrationHandler.RegisterRoutes(r, authenticator, activeTenant, adminOnly)
		}

		r.Group(func(r chi.Router) {
			r.Use(authLimiter)
			brandingHandler.RegisterPublicRoutes(r)
		})

		adminHandler.RegisterRoutes(r, middleware.RequireOperatorKey(cfg.Admin.OperatorKey))
	})

	router.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		core.NotFound(w, "route")
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

	if err := recorder.Close(shutdownCtx); err != nil {
		logger.Error("audit recorder close error", "error", err)
	}

	if err := telemetry.Shutdown(shutdownCtx); err != nil {
		logger.Error("telemetry shutdown error", "error", err)
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
