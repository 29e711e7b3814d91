package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/hugotzc/oasa-backend/api/middleware"
	"github.com/hugotzc/oasa-backend/api/responses"
	"github.com/hugotzc/oasa-backend/api/validators"
	"github.com/hugotzc/oasa-backend/internal/entitlements"
	"github.com/hugotzc/oasa-backend/pkg/db/models"
	pkgerrors "github.com/hugotzc/oasa-backend/pkg/errors"
	"github.com/hugotzc/oasa-backend/pkg/logger"
)

// PlansList serves the active subscription plans.
func PlansList(svc *entitlements.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "entitlement service unavailable"))
			return
		}

		plans, err := svc.ListPlans(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := make([]planResponse, 0, len(plans))
		for _, plan := range plans {
			out = append(out, newPlanResponse(plan))
		}
		responses.WriteSuccess(w, out)
	}
}

// SubscriptionPlanUpdate moves the client onto a different plan.
func SubscriptionPlanUpdate(svc *entitlements.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "entitlement service unavailable"))
			return
		}

		var payload changePlanRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		clientID := middleware.ClientIDFromContext(r.Context())
		subscription, err := svc.ChangePlan(r.Context(), clientID, payload.PlanKey)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newSubscriptionResponse(subscription))
	}
}

type changePlanRequest struct {
	PlanKey string `json:"plan_key" validate:"required"`
}

type planResponse struct {
	ID      uuid.UUID `json:"id"`
	PlanKey string    `json:"plan_key"`
	Name    string    `json:"name"`
}

func newPlanResponse(plan models.SubscriptionPlan) planResponse {
	return planResponse{ID: plan.ID, PlanKey: plan.PlanKey, Name: plan.Name}
}

type subscriptionResponse struct {
	ID        uuid.UUID `json:"id"`
	ClientID  string    `json:"client_id"`
	PlanID    uuid.UUID `json:"plan_id"`
	Status    string    `json:"status"`
	StartedAt time.Time `json:"started_at"`
}

func newSubscriptionResponse(sub *models.ClientSubscription) subscriptionResponse {
	return subscriptionResponse{
		ID:        sub.ID,
		ClientID:  sub.ClientID,
		PlanID:    sub.PlanID,
		Status:    string(sub.Status),
		StartedAt: sub.StartedAt,
	}
}
