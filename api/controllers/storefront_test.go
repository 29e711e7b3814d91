package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hugotzc/oasa-backend/internal/entitlements"
	"github.com/hugotzc/oasa-backend/internal/storefront"
)

type ctrlStubFetcher struct {
	set *entitlements.ResolvedFeatureSet
	err error
}

func (f *ctrlStubFetcher) Resolve(ctx context.Context, clientID string) (*entitlements.ResolvedFeatureSet, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := *f.set
	out.ClientID = clientID
	return &out, nil
}

func newTestCache(t *testing.T, fetcher storefront.Fetcher) *storefront.Cache {
	t.Helper()
	cache, err := storefront.NewCache(storefront.CacheParams{
		Fetcher: fetcher,
		Logger:  testLogger(),
	})
	if err != nil {
		t.Fatalf("build cache: %v", err)
	}
	return cache
}

func TestStorefrontCapabilitiesServesSnapshot(t *testing.T) {
	cache := newTestCache(t, &ctrlStubFetcher{set: fullCommerceSet()})

	rec := httptest.NewRecorder()
	StorefrontCapabilities(cache, testLogger()).ServeHTTP(rec, clientRequest(http.MethodGet, "/api/v1/storefront", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	var envelope struct {
		Data storefront.Snapshot `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.Mode != entitlements.ModeFull {
		t.Fatalf("expected full mode, got %q", envelope.Data.Mode)
	}
	if envelope.Data.FailOpen {
		t.Fatalf("expected live snapshot, not fail-open")
	}
}

func TestStorefrontCapabilitiesStays200WhenResolverFails(t *testing.T) {
	cache := newTestCache(t, &ctrlStubFetcher{err: errors.New("store down")})

	rec := httptest.NewRecorder()
	StorefrontCapabilities(cache, testLogger()).ServeHTTP(rec, clientRequest(http.MethodGet, "/api/v1/storefront", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("capability endpoint must not fail closed, got %d", rec.Code)
	}
	var envelope struct {
		Data storefront.Snapshot `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !envelope.Data.FailOpen {
		t.Fatalf("expected fail-open snapshot")
	}
	if !envelope.Data.Flags.ShowCheckout {
		t.Fatalf("fail-open defaults must keep commerce on")
	}
}

func TestStorefrontRefreshForcesFetch(t *testing.T) {
	fetcher := &ctrlStubFetcher{set: fullCommerceSet()}
	cache := newTestCache(t, fetcher)

	// Prime the entry, then refresh.
	StorefrontCapabilities(cache, testLogger()).ServeHTTP(httptest.NewRecorder(), clientRequest(http.MethodGet, "/api/v1/storefront", nil))

	rec := httptest.NewRecorder()
	StorefrontRefresh(cache, testLogger()).ServeHTTP(rec, clientRequest(http.MethodPost, "/api/v1/storefront/refresh", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	var envelope struct {
		Data storefront.Snapshot `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.Generation < 2 {
		t.Fatalf("expected refreshed generation, got %d", envelope.Data.Generation)
	}
}
