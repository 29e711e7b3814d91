package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hugotzc/oasa-backend/api/controllers"
	"github.com/hugotzc/oasa-backend/api/middleware"
	"github.com/hugotzc/oasa-backend/internal/catalog"
	"github.com/hugotzc/oasa-backend/internal/entitlements"
	"github.com/hugotzc/oasa-backend/internal/storefront"
	"github.com/hugotzc/oasa-backend/pkg/config"
	"github.com/hugotzc/oasa-backend/pkg/enums"
	"github.com/hugotzc/oasa-backend/pkg/logger"
	"github.com/hugotzc/oasa-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP controllers.Pinger,
	redisClient *redis.Client,
	entitlementsService *entitlements.Service,
	catalogService *catalog.Service,
	capabilityCache *storefront.Cache,
	gatherer prometheus.Gatherer,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	readyDeps := map[string]controllers.Pinger{"database": dbP}
	if redisClient != nil {
		readyDeps["redis"] = redisClient
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, readyDeps))
	})

	if gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		// Storefront surface. Unauthenticated: site visitors render from these.
		r.Group(func(r chi.Router) {
			r.Use(middleware.ClientContext(cfg.Entitlements, logg))

			r.Get("/storefront", controllers.StorefrontCapabilities(capabilityCache, logg))
			r.Get("/settings/shopping", controllers.ShoppingSettingsGet(entitlementsService, logg))
			r.Get("/plans", controllers.PlansList(entitlementsService, logg))
			r.Route("/catalog", func(r chi.Router) {
				r.Get("/products", controllers.CatalogProducts(catalogService, logg))
				r.Get("/products/{slug}", controllers.CatalogProductGet(catalogService, logg))
			})
		})

		// Admin surface. Reads need a valid token, writes need the admin role.
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, logg))
			r.Use(middleware.ClientContext(cfg.Entitlements, logg))
			r.Use(middleware.Idempotency(redisClient, logg))

			r.Get("/features", controllers.FeaturesResolve(entitlementsService, logg))
			r.Get("/features/catalog", controllers.FeatureCatalog(entitlementsService, logg))

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(string(enums.ActorRoleAdmin), logg))

				r.Put("/features", controllers.FeatureOverrideUpsert(entitlementsService, logg))
				r.Delete("/features/{key}", controllers.FeatureOverrideDelete(entitlementsService, logg))
				r.Put("/settings/shopping", controllers.ShoppingSettingsUpdate(entitlementsService, logg))
				r.Put("/subscription/plan", controllers.SubscriptionPlanUpdate(entitlementsService, logg))
				r.Post("/storefront/refresh", controllers.StorefrontRefresh(capabilityCache, logg))
			})
		})
	})

	return r
}
