package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/petlife-licenser/api/controllers"
	"github.com/angelmondragon/petlife-licenser/api/routes"
	"github.com/angelmondragon/petlife-licenser/internal/auth"
	"github.com/angelmondragon/petlife-licenser/internal/licenses"
	"github.com/angelmondragon/petlife-licenser/internal/ratelimit"
	"github.com/angelmondragon/petlife-licenser/internal/users"
	"github.com/angelmondragon/petlife-licenser/pkg/auth/session"
	"github.com/angelmondragon/petlife-licenser/pkg/config"
	"github.com/angelmondragon/petlife-licenser/pkg/db"
	"github.com/angelmondragon/petlife-licenser/pkg/instance"
	"github.com/angelmondragon/petlife-licenser/pkg/logger"
	"github.com/angelmondragon/petlife-licenser/pkg/metrics"
	"github.com/angelmondragon/petlife-licenser/pkg/migrate"
	"github.com/angelmondragon/petlife-licenser/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		logg.Error(ctx, "failed to run dev migrations", err)
		os.Exit(1)
	}

	userRepo := users.NewRepository(dbClient.DB())
	if cfg.App.IsDev() && cfg.FeatureFlags.AutoMigrate {
		if err := auth.SeedAdmin(ctx, userRepo, cfg.Admin, cfg.Password, logg); err != nil {
			logg.Error(ctx, "failed to seed admin user", err)
			os.Exit(1)
		}
	}

	readiness := map[string]controllers.Pinger{"database": dbClient}
	authParams := auth.ServiceParams{
		UserRepo:       userRepo,
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
		Logger:         logg,
	}
	var sessions session.AccessSessionChecker

	var redisClient *redis.Client
	if cfg.Redis.Enabled() {
		redisClient, err = redis.New(ctx, cfg.Redis, logg)
		if err != nil {
			logg.Error(ctx, "failed to bootstrap redis", err)
			os.Exit(1)
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing redis", err)
			}
		}()

		sessionManager, err := session.NewManager(redisClient, cfg.JWT)
		if err != nil {
			logg.Error(ctx, "failed to create session manager", err)
			os.Exit(1)
		}
		authParams.SessionManager = sessionManager
		sessions = sessionManager
		readiness["redis"] = redisClient
	} else {
		logg.Warn(ctx, "redis not configured, admin sessions are not tracked")
	}

	authService, err := auth.NewService(authParams)
	if err != nil {
		logg.Error(ctx, "failed to create auth service", err)
		os.Exit(1)
	}

	licenseMetrics := metrics.NewLicenseMetrics(prometheus.DefaultRegisterer)
	licenseService, err := licenses.NewService(licenses.ServiceParams{
		Repository: licenses.NewRepository(dbClient.DB()),
		Tx:         dbClient,
		Logger:     logg,
		Metrics:    licenseMetrics,
	})
	if err != nil {
		logg.Error(ctx, "failed to create license service", err)
		os.Exit(1)
	}

	store, err := rateLimitStore(ctx, cfg, redisClient)
	if err != nil {
		logg.Error(ctx, "failed to create rate limit store", err)
		os.Exit(1)
	}
	guard, err := ratelimit.NewGuard(store, logg, licenseMetrics)
	if err != nil {
		logg.Error(ctx, "failed to create rate guard", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	logCtx := logg.WithFields(ctx, map[string]any{
		"env":                cfg.App.Env,
		"addr":               addr,
		"db_driver":          cfg.DB.Driver,
		"rate_limit_backend": cfg.RateLimit.Backend,
		"instance":           instance.GetID(),
	})
	logg.Info(logCtx, "starting api server")

	server := &http.Server{
		Addr:              addr,
		Handler:           routes.NewRouter(cfg, logg, readiness, sessions, guard, prometheus.DefaultGatherer, authService, licenseService),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(logCtx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		logg.Info(logCtx, "api server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(logCtx, "api server shutdown failed", err)
		}
	}
}

func rateLimitStore(ctx context.Context, cfg *config.Config, redisClient *redis.Client) (ratelimit.Store, error) {
	if cfg.RateLimit.UsesRedis() {
		return ratelimit.NewRedisStore(redisClient)
	}
	store := ratelimit.NewMemoryStore()
	go store.Run(ctx, cfg.RateLimit.SweepInterval)
	return store, nil
}
