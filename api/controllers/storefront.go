package controllers

import (
	"net/http"

	"github.com/hugotzc/oasa-backend/api/middleware"
	"github.com/hugotzc/oasa-backend/api/responses"
	"github.com/hugotzc/oasa-backend/internal/storefront"
	pkgerrors "github.com/hugotzc/oasa-backend/pkg/errors"
	"github.com/hugotzc/oasa-backend/pkg/logger"
)

// StorefrontCapabilities serves the cached capability snapshot the UI renders
// from. This endpoint always answers 200: a resolver outage surfaces as a
// fail-open snapshot, never as an error page.
func StorefrontCapabilities(cache *storefront.Cache, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if cache == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "capability cache unavailable"))
			return
		}

		clientID := middleware.ClientIDFromContext(r.Context())
		snapshot := cache.Get(r.Context(), clientID)
		responses.WriteSuccess(w, snapshot)
	}
}

// StorefrontRefresh forces a re-fetch of the capability snapshot.
func StorefrontRefresh(cache *storefront.Cache, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if cache == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "capability cache unavailable"))
			return
		}

		clientID := middleware.ClientIDFromContext(r.Context())
		snapshot := cache.Refresh(r.Context(), clientID)
		responses.WriteSuccess(w, snapshot)
	}
}
