package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/petlife-licenser/internal/cron"
	"github.com/angelmondragon/petlife-licenser/internal/licenses"
	"github.com/angelmondragon/petlife-licenser/pkg/config"
	"github.com/angelmondragon/petlife-licenser/pkg/db"
	"github.com/angelmondragon/petlife-licenser/pkg/instance"
	"github.com/angelmondragon/petlife-licenser/pkg/logger"
	"github.com/angelmondragon/petlife-licenser/pkg/metrics"
	"github.com/angelmondragon/petlife-licenser/pkg/migrate"
	"github.com/angelmondragon/petlife-licenser/pkg/redis"
)

const lockKeyFormat = "licenser:cron-worker:lock:%s"

func main() {
	logg := logger.New(logger.Options{ServiceName: "cron-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "cron-worker"

	logg = logger.New(logger.Options{
		ServiceName: "cron-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	var lock cron.Lock = &cron.LocalLock{}
	if cfg.Redis.Enabled() {
		redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap redis", err)
			os.Exit(1)
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing redis", err)
			}
		}()

		redisLock, err := cron.NewRedisLock(redisClient, lockKey(cfg.App.Env), 0)
		if err != nil {
			logg.Error(context.Background(), "failed to create cron lock", err)
			os.Exit(1)
		}
		lock = redisLock
	} else {
		logg.Warn(context.Background(), "redis not configured, cron lock is process-local")
	}

	cronMetrics := metrics.NewCronJobMetrics(prometheus.DefaultRegisterer)
	registry := cron.NewRegistry()
	if cfg.Retention.ValidationDays > 0 {
		job, err := cron.NewValidationRetentionJob(cron.ValidationRetentionJobParams{
			Logger:     logg,
			Repository: licenses.NewRepository(dbClient.DB()),
			Metrics:    cronMetrics,
			Days:       cfg.Retention.ValidationDays,
		})
		if err != nil {
			logg.Error(context.Background(), "failed to create validation retention job", err)
			os.Exit(1)
		}
		if err := registry.Register(job); err != nil {
			logg.Error(context.Background(), "failed to register validation retention job", err)
			os.Exit(1)
		}
	} else {
		logg.Info(context.Background(), "validation retention disabled, audit trail is kept indefinitely")
	}

	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: registry,
		Lock:     lock,
		Metrics:  cronMetrics,
		Interval: cfg.Retention.Interval,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cron service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
		"jobs":        registry.Names(),
		"instance":    instance.GetID(),
	})
	logg.Info(ctx, "starting cron worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "cron worker shutting down gracefully")
}

func lockKey(env string) string {
	if env == "" {
		env = "local"
	}
	return fmt.Sprintf(lockKeyFormat, env)
}
