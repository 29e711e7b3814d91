package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hugotzc/oasa-backend/api/routes"
	"github.com/hugotzc/oasa-backend/internal/catalog"
	"github.com/hugotzc/oasa-backend/internal/entitlements"
	"github.com/hugotzc/oasa-backend/internal/storefront"
	"github.com/hugotzc/oasa-backend/pkg/config"
	"github.com/hugotzc/oasa-backend/pkg/db"
	"github.com/hugotzc/oasa-backend/pkg/logger"
	"github.com/hugotzc/oasa-backend/pkg/metrics"
	"github.com/hugotzc/oasa-backend/pkg/migrate"
	"github.com/hugotzc/oasa-backend/pkg/pubsub"
	"github.com/hugotzc/oasa-backend/pkg/redis"
)

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

	var publisher entitlements.EventPublisher
	var pubsubClient *pubsub.Client
	if cfg.GCP.ProjectID != "" {
		pubsubClient, err = pubsub.NewClient(context.Background(), cfg.GCP, cfg.PubSub, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap pubsub", err)
			os.Exit(1)
		}
		defer func() {
			if err := pubsubClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing pubsub", err)
			}
		}()
		publisher = entitlements.NewPubSubPublisher(pubsubClient.EntitlementsPublisher())
	}

	entitlementMetrics := metrics.NewEntitlementMetrics(prometheus.DefaultRegisterer)
	cacheMetrics := metrics.NewCacheMetrics(prometheus.DefaultRegisterer)

	repo := entitlements.NewRepository(dbClient.DB())
	entitlementsService, err := entitlements.NewService(entitlements.ServiceParams{
		Repo:      repo,
		Store:     entitlements.NewNormalizedStore(repo),
		Legacy:    entitlements.NewLegacyStore(dbClient.DB()),
		Snapshots: redisClient,
		Publisher: publisher,
		Metrics:   entitlementMetrics,
		Logger:    logg,
		DB:        dbClient,
		Cfg:       cfg.Entitlements,
		Flags:     cfg.FeatureFlags,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create entitlement service", err)
		os.Exit(1)
	}

	capabilityCache, err := storefront.NewCache(storefront.CacheParams{
		Fetcher:      entitlementsService,
		Logger:       logg,
		Metrics:      cacheMetrics,
		FetchTimeout: cfg.Entitlements.FetchTimeout,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create capability cache", err)
		os.Exit(1)
	}

	catalogService, err := catalog.NewService(catalog.ServiceParams{
		Repo:         catalog.NewRepository(dbClient.DB()),
		Capabilities: capabilityCache,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create catalog service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if pubsubClient != nil {
		listener, err := storefront.NewListener(pubsubClient.EntitlementsSubscription(), capabilityCache, logg)
		if err != nil {
			logg.Error(ctx, "failed to create entitlement listener", err)
			os.Exit(1)
		}
		go func() {
			if err := listener.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logg.Error(ctx, "entitlement listener stopped unexpectedly", err)
			}
		}()
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx = logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			entitlementsService,
			catalogService,
			capabilityCache,
			prometheus.DefaultGatherer,
		),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(shutdownCtx, "server shutdown failed", err)
		}
	}()

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "api server shutting down gracefully")
}
