package main

import (
	"context"
	"errors"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hugotzc/oasa-backend/internal/cron"
	"github.com/hugotzc/oasa-backend/internal/entitlements"
	"github.com/hugotzc/oasa-backend/pkg/config"
	"github.com/hugotzc/oasa-backend/pkg/db"
	"github.com/hugotzc/oasa-backend/pkg/logger"
	"github.com/hugotzc/oasa-backend/pkg/metrics"
	"github.com/hugotzc/oasa-backend/pkg/migrate"
	"github.com/hugotzc/oasa-backend/pkg/redis"
)

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

	repo := entitlements.NewRepository(dbClient.DB())
	legacyStore := entitlements.NewLegacyStore(dbClient.DB())
	entitlementsService, err := entitlements.NewService(entitlements.ServiceParams{
		Repo:      repo,
		Store:     entitlements.NewNormalizedStore(repo),
		Legacy:    legacyStore,
		Snapshots: redisClient,
		Metrics:   metrics.NewEntitlementMetrics(prometheus.DefaultRegisterer),
		Logger:    logg,
		DB:        dbClient,
		Cfg:       cfg.Entitlements,
		Flags:     cfg.FeatureFlags,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create entitlement service", err)
		os.Exit(1)
	}

	registry := cron.NewRegistry()
	if cfg.FeatureFlags.LegacySettingsSync {
		syncJob, err := cron.NewLegacySyncJob(cron.LegacySyncJobParams{
			Logger:   logg,
			Settings: legacyStore,
			Writer:   entitlementsService,
			ClientID: cfg.Entitlements.DefaultClientID,
		})
		if err != nil {
			logg.Error(context.Background(), "failed to create legacy sync job", err)
			os.Exit(1)
		}
		registry.Register(syncJob)
	}

	lock, err := cron.NewRedisLock(redisClient, redisClient.LockKey("cron-worker:"+envName(cfg.App.Env)), 0)
	if err != nil {
		logg.Error(context.Background(), "failed to create cron lock", err)
		os.Exit(1)
	}

	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: registry,
		Lock:     lock,
		Metrics:  metrics.NewCronJobMetrics(prometheus.DefaultRegisterer),
		Interval: cfg.Cron.Interval,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cron service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env})
	logg.Info(ctx, "starting cron worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "cron worker shutting down gracefully")
}

func envName(env string) string {
	if env == "" {
		return "local"
	}
	return env
}
