package controllers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hugotzc/oasa-backend/api/middleware"
	"github.com/hugotzc/oasa-backend/internal/entitlements"
	"github.com/hugotzc/oasa-backend/pkg/db/models"
	"github.com/hugotzc/oasa-backend/pkg/enums"
	"github.com/hugotzc/oasa-backend/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Level: logger.ParseLevel("error"), Output: io.Discard})
}

type ctrlStubStore struct {
	set *entitlements.ResolvedFeatureSet
	err error
}

func (s *ctrlStubStore) ResolveFeatureSet(ctx context.Context, clientID string) (*entitlements.ResolvedFeatureSet, error) {
	if s.err != nil {
		return nil, s.err
	}
	out := *s.set
	out.ClientID = clientID
	return &out, nil
}

func (s *ctrlStubStore) Name() string { return entitlements.SourceNormalized }

type ctrlStubRepo struct {
	features map[string]*models.Feature
	plans    map[string]*models.SubscriptionPlan
	subs     map[string]*models.ClientSubscription
}

func newCtrlStubRepo() *ctrlStubRepo {
	return &ctrlStubRepo{
		features: map[string]*models.Feature{},
		plans:    map[string]*models.SubscriptionPlan{},
		subs:     map[string]*models.ClientSubscription{},
	}
}

func (r *ctrlStubRepo) WithTx(tx *gorm.DB) entitlements.Repository { return r }

func (r *ctrlStubRepo) ListActiveFeatures(ctx context.Context) ([]models.Feature, error) {
	out := make([]models.Feature, 0, len(r.features))
	for _, f := range r.features {
		out = append(out, *f)
	}
	return out, nil
}

func (r *ctrlStubRepo) FindFeatureByKey(ctx context.Context, key string) (*models.Feature, error) {
	return r.features[key], nil
}

func (r *ctrlStubRepo) ListPlans(ctx context.Context) ([]models.SubscriptionPlan, error) {
	out := make([]models.SubscriptionPlan, 0, len(r.plans))
	for _, p := range r.plans {
		out = append(out, *p)
	}
	return out, nil
}

func (r *ctrlStubRepo) FindPlanByKey(ctx context.Context, key string) (*models.SubscriptionPlan, error) {
	return r.plans[key], nil
}

func (r *ctrlStubRepo) FindPlanByID(ctx context.Context, id uuid.UUID) (*models.SubscriptionPlan, error) {
	for _, p := range r.plans {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, nil
}

func (r *ctrlStubRepo) ListPlanFeatures(ctx context.Context, planID uuid.UUID) ([]models.PlanFeature, error) {
	return nil, nil
}

func (r *ctrlStubRepo) FindActiveSubscription(ctx context.Context, clientID string) (*models.ClientSubscription, error) {
	sub := r.subs[clientID]
	if sub == nil || sub.Status != enums.SubscriptionStatusActive {
		return nil, nil
	}
	return sub, nil
}

func (r *ctrlStubRepo) CreateSubscription(ctx context.Context, sub *models.ClientSubscription) error {
	sub.ID = uuid.New()
	r.subs[sub.ClientID] = sub
	return nil
}

func (r *ctrlStubRepo) UpdateSubscription(ctx context.Context, sub *models.ClientSubscription) error {
	return nil
}

func (r *ctrlStubRepo) ListOverrides(ctx context.Context, clientID string) ([]models.ClientFeatureOverride, error) {
	return nil, nil
}

func (r *ctrlStubRepo) UpsertOverride(ctx context.Context, override *models.ClientFeatureOverride) error {
	return nil
}

func (r *ctrlStubRepo) DeleteOverride(ctx context.Context, clientID string, featureID uuid.UUID) error {
	return nil
}

func fullCommerceSet() *entitlements.ResolvedFeatureSet {
	return &entitlements.ResolvedFeatureSet{
		PlanKey: "commerce",
		Features: map[string]entitlements.FeatureAccess{
			entitlements.FeatureShoppingCart:   {Enabled: true},
			entitlements.FeatureProductPricing: {Enabled: true},
			entitlements.FeatureCheckout:       {Enabled: true},
			entitlements.FeatureAddToCart:      {Enabled: true},
		},
		Source:     entitlements.SourceNormalized,
		ResolvedAt: time.Now().UTC(),
	}
}

func newTestEntitlementsService(t *testing.T, repo entitlements.Repository, store entitlements.Store) *entitlements.Service {
	t.Helper()
	svc, err := entitlements.NewService(entitlements.ServiceParams{
		Repo:   repo,
		Store:  store,
		Logger: testLogger(),
	})
	if err != nil {
		t.Fatalf("build service: %v", err)
	}
	return svc
}

func clientRequest(method, target string, body io.Reader) *http.Request {
	req := httptest.NewRequest(method, target, body)
	return req.WithContext(middleware.WithClientID(req.Context(), "oasa-default"))
}

func TestFeaturesResolveServesResolvedSet(t *testing.T) {
	svc := newTestEntitlementsService(t, newCtrlStubRepo(), &ctrlStubStore{set: fullCommerceSet()})

	rec := httptest.NewRecorder()
	FeaturesResolve(svc, testLogger()).ServeHTTP(rec, clientRequest(http.MethodGet, "/api/v1/features", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}

	var envelope struct {
		Data featureSetResponse `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.ClientID != "oasa-default" {
		t.Fatalf("expected client id in response, got %q", envelope.Data.ClientID)
	}
	if envelope.Data.Mode != "full" {
		t.Fatalf("expected full mode, got %q", envelope.Data.Mode)
	}
	if !envelope.Data.Features[entitlements.FeatureCheckout].Enabled {
		t.Fatalf("expected checkout enabled")
	}
}

func TestFeatureOverrideUpsertUnknownFeature(t *testing.T) {
	svc := newTestEntitlementsService(t, newCtrlStubRepo(), &ctrlStubStore{set: fullCommerceSet()})

	req := clientRequest(http.MethodPut, "/api/v1/features", strings.NewReader(`{"feature_key":"bogus","enabled":true}`))

	rec := httptest.NewRecorder()
	FeatureOverrideUpsert(svc, testLogger()).ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown feature, got %d", rec.Code)
	}
}

func TestFeatureOverrideUpsertRejectsMissingEnabled(t *testing.T) {
	svc := newTestEntitlementsService(t, newCtrlStubRepo(), &ctrlStubStore{set: fullCommerceSet()})

	req := clientRequest(http.MethodPut, "/api/v1/features", strings.NewReader(`{"feature_key":"shopping_cart","limit":5}`))

	rec := httptest.NewRecorder()
	FeatureOverrideUpsert(svc, testLogger()).ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing enabled, got %d", rec.Code)
	}
}

func TestFeatureOverrideUpsertWritesAndReturnsSet(t *testing.T) {
	repo := newCtrlStubRepo()
	repo.features["shopping_cart"] = &models.Feature{ID: uuid.New(), FeatureKey: "shopping_cart", IsActive: true}
	svc := newTestEntitlementsService(t, repo, &ctrlStubStore{set: fullCommerceSet()})

	req := clientRequest(http.MethodPut, "/api/v1/features", strings.NewReader(`{"feature_key":"shopping_cart","enabled":false}`))

	rec := httptest.NewRecorder()
	FeatureOverrideUpsert(svc, testLogger()).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
}

func deleteRequestWithKey(key string) *http.Request {
	req := clientRequest(http.MethodDelete, "/api/v1/features/"+key, nil)
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add("key", key)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))
}

func TestFeatureOverrideDeleteRestoresPlanDefault(t *testing.T) {
	repo := newCtrlStubRepo()
	repo.features["shopping_cart"] = &models.Feature{ID: uuid.New(), FeatureKey: "shopping_cart", IsActive: true}
	svc := newTestEntitlementsService(t, repo, &ctrlStubStore{set: fullCommerceSet()})

	rec := httptest.NewRecorder()
	FeatureOverrideDelete(svc, testLogger()).ServeHTTP(rec, deleteRequestWithKey("shopping_cart"))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestFeatureOverrideDeleteUnknownFeature(t *testing.T) {
	svc := newTestEntitlementsService(t, newCtrlStubRepo(), &ctrlStubStore{set: fullCommerceSet()})

	rec := httptest.NewRecorder()
	FeatureOverrideDelete(svc, testLogger()).ServeHTTP(rec, deleteRequestWithKey("bogus"))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown feature, got %d", rec.Code)
	}
}

func TestFeatureCatalogListsFeatures(t *testing.T) {
	repo := newCtrlStubRepo()
	repo.features["shopping_cart"] = &models.Feature{
		ID:            uuid.New(),
		FeatureKey:    "shopping_cart",
		Label:         "Shopping Cart",
		Category:      enums.FeatureCategoryCommerce,
		IsCoreFeature: true,
	}
	svc := newTestEntitlementsService(t, repo, &ctrlStubStore{set: fullCommerceSet()})

	rec := httptest.NewRecorder()
	FeatureCatalog(svc, testLogger()).ServeHTTP(rec, clientRequest(http.MethodGet, "/api/v1/features/catalog", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	var envelope struct {
		Data []featureResponse `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(envelope.Data) != 1 || envelope.Data[0].FeatureKey != "shopping_cart" {
		t.Fatalf("unexpected catalog payload: %+v", envelope.Data)
	}
}
