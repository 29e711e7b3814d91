package controllers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/hugotzc/oasa-backend/api/middleware"
	"github.com/hugotzc/oasa-backend/api/responses"
	"github.com/hugotzc/oasa-backend/api/validators"
	"github.com/hugotzc/oasa-backend/internal/entitlements"
	"github.com/hugotzc/oasa-backend/pkg/db/models"
	pkgerrors "github.com/hugotzc/oasa-backend/pkg/errors"
	"github.com/hugotzc/oasa-backend/pkg/logger"
)

// FeaturesResolve serves the full resolved feature set for the client.
func FeaturesResolve(svc *entitlements.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "entitlement service unavailable"))
			return
		}

		clientID := middleware.ClientIDFromContext(r.Context())
		set, err := svc.Resolve(r.Context(), clientID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newFeatureSetResponse(set))
	}
}

// FeatureOverrideUpsert writes a per-client override for one feature key.
func FeatureOverrideUpsert(svc *entitlements.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "entitlement service unavailable"))
			return
		}

		var payload overrideRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		clientID := middleware.ClientIDFromContext(r.Context())
		set, err := svc.UpdateOverride(r.Context(), clientID, entitlements.OverrideInput{
			FeatureKey: payload.FeatureKey,
			Enabled:    *payload.Enabled,
			Limit:      payload.Limit,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newFeatureSetResponse(set))
	}
}

// FeatureOverrideDelete removes a per-client override; the plan default
// applies again on the next resolve.
func FeatureOverrideDelete(svc *entitlements.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "entitlement service unavailable"))
			return
		}

		featureKey := chi.URLParam(r, "key")
		if featureKey == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "feature key is required"))
			return
		}

		clientID := middleware.ClientIDFromContext(r.Context())
		set, err := svc.RemoveOverride(r.Context(), clientID, featureKey)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newFeatureSetResponse(set))
	}
}

// FeatureCatalog lists the active feature reference rows.
func FeatureCatalog(svc *entitlements.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "entitlement service unavailable"))
			return
		}

		features, err := svc.FeatureCatalog(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := make([]featureResponse, 0, len(features))
		for _, feature := range features {
			out = append(out, newFeatureResponse(feature))
		}
		responses.WriteSuccess(w, out)
	}
}

type overrideRequest struct {
	FeatureKey string `json:"feature_key" validate:"required"`
	Enabled    *bool  `json:"enabled" validate:"required"`
	Limit      *int   `json:"limit" validate:"omitempty,min=0"`
}

type featureAccessResponse struct {
	Enabled bool `json:"enabled"`
	Limit   *int `json:"limit,omitempty"`
}

type featureSetResponse struct {
	ClientID   string                           `json:"client_id"`
	PlanKey    string                           `json:"plan_key"`
	Mode       string                           `json:"mode"`
	Source     string                           `json:"source"`
	Features   map[string]featureAccessResponse `json:"features"`
	ResolvedAt time.Time                        `json:"resolved_at"`
}

func newFeatureSetResponse(set *entitlements.ResolvedFeatureSet) featureSetResponse {
	features := make(map[string]featureAccessResponse, len(set.Features))
	for key, access := range set.Features {
		features[key] = featureAccessResponse{Enabled: access.Enabled, Limit: access.Limit}
	}
	return featureSetResponse{
		ClientID:   set.ClientID,
		PlanKey:    set.PlanKey,
		Mode:       entitlements.DeriveMode(set).String(),
		Source:     set.Source,
		Features:   features,
		ResolvedAt: set.ResolvedAt,
	}
}

type featureResponse struct {
	ID            uuid.UUID `json:"id"`
	FeatureKey    string    `json:"feature_key"`
	Label         string    `json:"label"`
	Category      string    `json:"category"`
	IsCoreFeature bool      `json:"is_core_feature"`
}

func newFeatureResponse(feature models.Feature) featureResponse {
	return featureResponse{
		ID:            feature.ID,
		FeatureKey:    feature.FeatureKey,
		Label:         feature.Label,
		Category:      string(feature.Category),
		IsCoreFeature: feature.IsCoreFeature,
	}
}
