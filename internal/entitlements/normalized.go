package entitlements

import (
	"context"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/hugotzc/oasa-backend/pkg/errors"
)

// normalizedStore resolves feature sets from the relational entitlement tables.
// Precedence per feature: client override, then plan default, then disabled.
type normalizedStore struct {
	repo Repository
}

// NewNormalizedStore builds the Store over the normalized tables.
func NewNormalizedStore(repo Repository) Store {
	return &normalizedStore{repo: repo}
}

func (s *normalizedStore) Name() string {
	return SourceNormalized
}

func (s *normalizedStore) ResolveFeatureSet(ctx context.Context, clientID string) (*ResolvedFeatureSet, error) {
	if clientID == "" {
		return nil, apperrors.New(apperrors.CodeValidation, "client id is required")
	}

	features, err := s.repo.ListActiveFeatures(ctx)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeDependency, err, "listing features")
	}

	planKey := ""
	planDefaults := map[uuid.UUID]FeatureAccess{}
	sub, err := s.repo.FindActiveSubscription(ctx, clientID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeDependency, err, "finding active subscription")
	}
	if sub != nil {
		plan, err := s.repo.FindPlanByID(ctx, sub.PlanID)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.CodeDependency, err, "finding subscription plan")
		}
		if plan != nil {
			planKey = plan.PlanKey
			rows, err := s.repo.ListPlanFeatures(ctx, plan.ID)
			if err != nil {
				return nil, apperrors.Wrap(apperrors.CodeDependency, err, "listing plan features")
			}
			for _, row := range rows {
				planDefaults[row.FeatureID] = FeatureAccess{Enabled: row.IsEnabled, Limit: row.FeatureLimit}
			}
		}
	}

	overrides := map[uuid.UUID]FeatureAccess{}
	rows, err := s.repo.ListOverrides(ctx, clientID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeDependency, err, "listing feature overrides")
	}
	for _, row := range rows {
		overrides[row.FeatureID] = FeatureAccess{Enabled: row.IsEnabled, Limit: row.FeatureLimit}
	}

	resolved := make(map[string]FeatureAccess, len(features))
	for _, feature := range features {
		if access, ok := overrides[feature.ID]; ok {
			resolved[feature.FeatureKey] = access
			continue
		}
		if access, ok := planDefaults[feature.ID]; ok {
			resolved[feature.FeatureKey] = access
			continue
		}
		resolved[feature.FeatureKey] = FeatureAccess{}
	}

	return &ResolvedFeatureSet{
		ClientID:   clientID,
		PlanKey:    planKey,
		Features:   resolved,
		Source:     SourceNormalized,
		ResolvedAt: time.Now().UTC(),
	}, nil
}
