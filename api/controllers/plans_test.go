package controllers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/hugotzc/oasa-backend/pkg/db/models"
	"github.com/hugotzc/oasa-backend/pkg/enums"
)

func TestPlansListServesActivePlans(t *testing.T) {
	repo := newCtrlStubRepo()
	repo.plans["commerce"] = &models.SubscriptionPlan{ID: uuid.New(), PlanKey: "commerce", Name: "Commerce", IsActive: true}
	svc := newTestEntitlementsService(t, repo, &ctrlStubStore{set: fullCommerceSet()})

	rec := httptest.NewRecorder()
	PlansList(svc, testLogger()).ServeHTTP(rec, clientRequest(http.MethodGet, "/api/v1/plans", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	var envelope struct {
		Data []planResponse `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(envelope.Data) != 1 || envelope.Data[0].PlanKey != "commerce" {
		t.Fatalf("unexpected plans payload: %+v", envelope.Data)
	}
}

func TestSubscriptionPlanUpdateCreatesSubscription(t *testing.T) {
	repo := newCtrlStubRepo()
	repo.plans["commerce"] = &models.SubscriptionPlan{ID: uuid.New(), PlanKey: "commerce", Name: "Commerce", IsActive: true}
	svc := newTestEntitlementsService(t, repo, &ctrlStubStore{set: fullCommerceSet()})

	rec := httptest.NewRecorder()
	SubscriptionPlanUpdate(svc, testLogger()).ServeHTTP(rec, clientRequest(http.MethodPut, "/api/v1/subscription/plan", strings.NewReader(`{"plan_key":"commerce"}`)))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
	var envelope struct {
		Data subscriptionResponse `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.Status != string(enums.SubscriptionStatusActive) {
		t.Fatalf("expected active subscription, got %q", envelope.Data.Status)
	}
	if envelope.Data.ClientID != "oasa-default" {
		t.Fatalf("expected client id, got %q", envelope.Data.ClientID)
	}
}

func TestSubscriptionPlanUpdateUnknownPlan(t *testing.T) {
	svc := newTestEntitlementsService(t, newCtrlStubRepo(), &ctrlStubStore{set: fullCommerceSet()})

	rec := httptest.NewRecorder()
	SubscriptionPlanUpdate(svc, testLogger()).ServeHTTP(rec, clientRequest(http.MethodPut, "/api/v1/subscription/plan", strings.NewReader(`{"plan_key":"bogus"}`)))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", rec.Code)
	}
}

func TestSubscriptionPlanUpdateRequiresPlanKey(t *testing.T) {
	svc := newTestEntitlementsService(t, newCtrlStubRepo(), &ctrlStubStore{set: fullCommerceSet()})

	rec := httptest.NewRecorder()
	SubscriptionPlanUpdate(svc, testLogger()).ServeHTTP(rec, clientRequest(http.MethodPut, "/api/v1/subscription/plan", strings.NewReader(`{}`)))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
}
