package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/hugotzc/oasa-backend/api/middleware"
	"github.com/hugotzc/oasa-backend/api/responses"
	"github.com/hugotzc/oasa-backend/internal/catalog"
	pkgerrors "github.com/hugotzc/oasa-backend/pkg/errors"
	"github.com/hugotzc/oasa-backend/pkg/logger"
)

// CatalogProducts serves one cursor page of the storefront product listing.
func CatalogProducts(svc *catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		params, err := parseListParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		clientID := middleware.ClientIDFromContext(r.Context())
		page, err := svc.ListProducts(r.Context(), clientID, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, page)
	}
}

// CatalogProductGet serves a single product by slug.
func CatalogProductGet(svc *catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		slug := chi.URLParam(r, "slug")
		if slug == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "product slug is required"))
			return
		}

		clientID := middleware.ClientIDFromContext(r.Context())
		view, err := svc.GetProduct(r.Context(), clientID, slug)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, view)
	}
}

func parseListParams(r *http.Request) (catalog.ListParams, error) {
	query := r.URL.Query()
	params := catalog.ListParams{
		Cursor: strings.TrimSpace(query.Get("cursor")),
	}

	if category := strings.TrimSpace(query.Get("category")); category != "" {
		params.Category = &category
	}
	if raw := strings.TrimSpace(query.Get("featured")); raw != "" {
		featured, err := strconv.ParseBool(raw)
		if err != nil {
			return catalog.ListParams{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid featured filter")
		}
		params.Featured = &featured
	}
	if raw := strings.TrimSpace(query.Get("limit")); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			return catalog.ListParams{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid limit")
		}
		params.Limit = limit
	}
	return params, nil
}
