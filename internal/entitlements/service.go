package entitlements

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"gorm.io/gorm"

	"github.com/hugotzc/oasa-backend/pkg/config"
	"github.com/hugotzc/oasa-backend/pkg/db"
	"github.com/hugotzc/oasa-backend/pkg/db/models"
	"github.com/hugotzc/oasa-backend/pkg/enums"
	apperrors "github.com/hugotzc/oasa-backend/pkg/errors"
	"github.com/hugotzc/oasa-backend/pkg/logger"
	"github.com/hugotzc/oasa-backend/pkg/metrics"
	rediscli "github.com/hugotzc/oasa-backend/pkg/redis"
)

const defaultFetchTimeout = 3 * time.Second

// OverrideInput is a single per-client feature override write.
type OverrideInput struct {
	FeatureKey string
	Enabled    bool
	Limit      *int
}

// ServiceParams groups dependencies for the entitlement service.
type ServiceParams struct {
	Repo      Repository
	Store     Store
	Legacy    Store
	Snapshots rediscli.SnapshotStore
	Publisher EventPublisher
	Metrics   *metrics.EntitlementMetrics
	Logger    *logger.Logger
	DB        *db.Client
	Cfg       config.EntitlementsConfig
	Flags     config.FeatureFlagsConfig
}

// Service orchestrates feature resolution and entitlement writes.
type Service struct {
	repo      Repository
	store     Store
	legacy    Store
	snapshots rediscli.SnapshotStore
	publisher EventPublisher
	metrics   *metrics.EntitlementMetrics
	logger    *logger.Logger
	db        *db.Client
	cfg       config.EntitlementsConfig
	flags     config.FeatureFlagsConfig
}

// NewService builds an entitlement service.
func NewService(params ServiceParams) (*Service, error) {
	if params.Repo == nil {
		return nil, errors.New("repo is required")
	}
	if params.Store == nil {
		return nil, errors.New("store is required")
	}
	if params.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if params.Cfg.FetchTimeout <= 0 {
		params.Cfg.FetchTimeout = defaultFetchTimeout
	}
	return &Service{
		repo:      params.Repo,
		store:     params.Store,
		legacy:    params.Legacy,
		snapshots: params.Snapshots,
		publisher: params.Publisher,
		metrics:   params.Metrics,
		logger:    params.Logger,
		db:        params.DB,
		cfg:       params.Cfg,
		flags:     params.Flags,
	}, nil
}

// Resolve computes the full feature set for a client. When the backing store
// is unavailable it falls back to the last known good snapshot before
// surfacing a dependency error.
func (s *Service) Resolve(ctx context.Context, clientID string) (*ResolvedFeatureSet, error) {
	store := s.activeStore()

	fetchCtx, cancel := context.WithTimeout(ctx, s.cfg.FetchTimeout)
	defer cancel()

	started := time.Now()
	set, err := store.ResolveFeatureSet(fetchCtx, clientID)
	s.metrics.ObserveResolve(store.Name(), time.Since(started))
	if err == nil {
		s.metrics.IncResolve("success")
		s.storeSnapshot(ctx, set)
		return set, nil
	}

	if typed := apperrors.As(err); typed != nil && typed.Code() == apperrors.CodeValidation {
		s.metrics.IncResolve("malformed")
		return nil, err
	}

	s.metrics.IncResolve("store_unavailable")
	s.logger.Error(ctx, "feature resolution failed, trying snapshot", err)

	if snapshot := s.loadSnapshot(ctx, clientID); snapshot != nil {
		s.metrics.IncSnapshotServed()
		return snapshot, nil
	}
	return nil, err
}

// IsEnabled reports whether a single feature is enabled for the client.
// Unknown feature keys read as disabled rather than erroring, so callers
// can probe for features that may not be provisioned yet.
func (s *Service) IsEnabled(ctx context.Context, clientID, featureKey string) (bool, error) {
	set, err := s.Resolve(ctx, clientID)
	if err != nil {
		return false, err
	}
	return set.Enabled(featureKey), nil
}

// UpdateOverride writes a per-client override and returns the fresh set.
func (s *Service) UpdateOverride(ctx context.Context, clientID string, input OverrideInput) (*ResolvedFeatureSet, error) {
	if clientID == "" {
		return nil, apperrors.New(apperrors.CodeValidation, "client id is required")
	}
	if err := s.applyOverride(ctx, clientID, input); err != nil {
		return nil, err
	}
	s.metrics.IncOverrideWrite()
	s.publishChange(ctx, ChangeEvent{
		Kind:       EventOverrideUpdated,
		ClientID:   clientID,
		FeatureKey: input.FeatureKey,
		OccurredAt: time.Now().UTC(),
	})
	return s.Resolve(ctx, clientID)
}

// RemoveOverride deletes a per-client override so the plan default applies
// again, and returns the fresh set.
func (s *Service) RemoveOverride(ctx context.Context, clientID, featureKey string) (*ResolvedFeatureSet, error) {
	if clientID == "" {
		return nil, apperrors.New(apperrors.CodeValidation, "client id is required")
	}
	feature, err := s.repo.FindFeatureByKey(ctx, featureKey)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeDependency, err, "finding feature")
	}
	if feature == nil {
		return nil, apperrors.New(apperrors.CodeNotFound, fmt.Sprintf("unknown feature %q", featureKey))
	}
	if err := s.repo.DeleteOverride(ctx, clientID, feature.ID); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeDependency, err, "deleting override")
	}
	s.metrics.IncOverrideWrite()
	s.publishChange(ctx, ChangeEvent{
		Kind:       EventOverrideUpdated,
		ClientID:   clientID,
		FeatureKey: featureKey,
		OccurredAt: time.Now().UTC(),
	})
	return s.Resolve(ctx, clientID)
}

// UpdateLegacySettings fans a legacy flat settings body out into per-feature
// overrides. shopping_mode is derived, never written.
func (s *Service) UpdateLegacySettings(ctx context.Context, clientID string, flags map[string]bool) (*ResolvedFeatureSet, error) {
	if clientID == "" {
		return nil, apperrors.New(apperrors.CodeValidation, "client id is required")
	}
	for settingKey, enabled := range flags {
		featureKey, ok := legacyFeatureKeys[settingKey]
		if !ok {
			return nil, apperrors.New(apperrors.CodeValidation, fmt.Sprintf("unknown setting %q", settingKey))
		}
		if err := s.applyOverride(ctx, clientID, OverrideInput{FeatureKey: featureKey, Enabled: enabled}); err != nil {
			return nil, err
		}
		s.metrics.IncOverrideWrite()
	}
	s.publishChange(ctx, ChangeEvent{
		Kind:       EventOverrideUpdated,
		ClientID:   clientID,
		OccurredAt: time.Now().UTC(),
	})
	return s.Resolve(ctx, clientID)
}

// LegacySettingsView renders the resolved set in the flat string shape the
// legacy settings endpoint serves. The historical endpoint always answered,
// so a store outage serves the commerce-on defaults instead of an error;
// only malformed input still surfaces.
func (s *Service) LegacySettingsView(ctx context.Context, clientID string) (map[string]string, error) {
	set, err := s.Resolve(ctx, clientID)
	if err != nil {
		if typed := apperrors.As(err); typed != nil && typed.Code() == apperrors.CodeValidation {
			return nil, err
		}
		s.logger.Warn(ctx, "legacy settings read failed, serving fail-open defaults")
		return FailOpenLegacyView(), nil
	}
	return FlattenLegacyView(set), nil
}

// FailOpenLegacyView is the hard-coded commerce-on answer served when the
// backing store cannot be reached and no snapshot exists.
func FailOpenLegacyView() map[string]string {
	return map[string]string{
		legacyKeyShoppingCart:   "true",
		legacyKeyProductPricing: "true",
		legacyKeyCheckout:       "true",
		legacyKeyAddToCart:      "true",
		legacyKeyShoppingMode:   ModeFull.String(),
	}
}

// FlattenLegacyView renders a resolved set as the flat string map the legacy
// settings consumers expect. shopping_mode is derived on the way out.
func FlattenLegacyView(set *ResolvedFeatureSet) map[string]string {
	return map[string]string{
		legacyKeyShoppingCart:   strconv.FormatBool(set.Enabled(FeatureShoppingCart)),
		legacyKeyProductPricing: strconv.FormatBool(set.Enabled(FeatureProductPricing)),
		legacyKeyCheckout:       strconv.FormatBool(set.Enabled(FeatureCheckout)),
		legacyKeyAddToCart:      strconv.FormatBool(set.Enabled(FeatureAddToCart)),
		legacyKeyShoppingMode:   DeriveMode(set).String(),
	}
}

// ChangePlan moves the client onto the named plan, canceling any current
// active subscription in the same transaction.
func (s *Service) ChangePlan(ctx context.Context, clientID, planKey string) (*models.ClientSubscription, error) {
	if clientID == "" {
		return nil, apperrors.New(apperrors.CodeValidation, "client id is required")
	}
	plan, err := s.repo.FindPlanByKey(ctx, planKey)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeDependency, err, "finding plan")
	}
	if plan == nil {
		return nil, apperrors.New(apperrors.CodeNotFound, fmt.Sprintf("unknown plan %q", planKey))
	}

	var created *models.ClientSubscription
	change := func(repo Repository) error {
		current, err := repo.FindActiveSubscription(ctx, clientID)
		if err != nil {
			return apperrors.Wrap(apperrors.CodeDependency, err, "finding active subscription")
		}
		if current != nil && current.PlanID == plan.ID {
			created = current
			return nil
		}
		if current != nil {
			now := time.Now().UTC()
			current.Status = enums.SubscriptionStatusCanceled
			current.CanceledAt = &now
			if err := repo.UpdateSubscription(ctx, current); err != nil {
				return apperrors.Wrap(apperrors.CodeDependency, err, "canceling subscription")
			}
		}
		next := &models.ClientSubscription{
			ClientID: clientID,
			PlanID:   plan.ID,
			Status:   enums.SubscriptionStatusActive,
		}
		if err := repo.CreateSubscription(ctx, next); err != nil {
			return apperrors.Wrap(apperrors.CodeDependency, err, "creating subscription")
		}
		created = next
		return nil
	}

	if s.db != nil {
		err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
			return change(s.repo.WithTx(tx))
		})
	} else {
		err = change(s.repo)
	}
	if err != nil {
		return nil, err
	}

	s.publishChange(ctx, ChangeEvent{
		Kind:       EventPlanChanged,
		ClientID:   clientID,
		PlanKey:    plan.PlanKey,
		OccurredAt: time.Now().UTC(),
	})
	if set, err := s.Resolve(ctx, clientID); err == nil {
		s.storeSnapshot(ctx, set)
	}
	return created, nil
}

// ListPlans returns the active subscription plans.
func (s *Service) ListPlans(ctx context.Context) ([]models.SubscriptionPlan, error) {
	plans, err := s.repo.ListPlans(ctx)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeDependency, err, "listing plans")
	}
	return plans, nil
}

// FeatureCatalog returns the active feature reference rows.
func (s *Service) FeatureCatalog(ctx context.Context) ([]models.Feature, error) {
	features, err := s.repo.ListActiveFeatures(ctx)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeDependency, err, "listing features")
	}
	return features, nil
}

func (s *Service) applyOverride(ctx context.Context, clientID string, input OverrideInput) error {
	feature, err := s.repo.FindFeatureByKey(ctx, input.FeatureKey)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeDependency, err, "finding feature")
	}
	if feature == nil {
		return apperrors.New(apperrors.CodeNotFound, fmt.Sprintf("unknown feature %q", input.FeatureKey))
	}
	override := &models.ClientFeatureOverride{
		ClientID:     clientID,
		FeatureID:    feature.ID,
		IsEnabled:    input.Enabled,
		FeatureLimit: input.Limit,
	}
	if err := s.repo.UpsertOverride(ctx, override); err != nil {
		return apperrors.Wrap(apperrors.CodeDependency, err, "writing override")
	}
	return nil
}

func (s *Service) activeStore() Store {
	if s.flags.LegacySettingsRead && s.legacy != nil {
		return s.legacy
	}
	return s.store
}

func (s *Service) storeSnapshot(ctx context.Context, set *ResolvedFeatureSet) {
	if s.snapshots == nil || set == nil {
		return
	}
	data, err := json.Marshal(set)
	if err != nil {
		s.logger.Error(ctx, "marshal snapshot", err)
		return
	}
	key := s.snapshots.SnapshotKey(set.ClientID)
	if err := s.snapshots.Set(ctx, key, string(data), s.cfg.SnapshotTTL); err != nil {
		s.logger.Warn(ctx, "storing snapshot failed")
	}
}

func (s *Service) loadSnapshot(ctx context.Context, clientID string) *ResolvedFeatureSet {
	if s.snapshots == nil {
		return nil
	}
	raw, err := s.snapshots.Get(ctx, s.snapshots.SnapshotKey(clientID))
	if err != nil {
		if err != rediscli.Nil {
			s.logger.Warn(ctx, "loading snapshot failed")
		}
		return nil
	}
	var set ResolvedFeatureSet
	if err := json.Unmarshal([]byte(raw), &set); err != nil {
		s.logger.Error(ctx, "decoding snapshot", err)
		return nil
	}
	set.Source = SourceSnapshot
	return &set
}

func (s *Service) publishChange(ctx context.Context, event ChangeEvent) {
	if s.publisher == nil || !s.flags.PublishEvents {
		return
	}
	if err := s.publisher.PublishChange(ctx, event); err != nil {
		s.logger.Error(ctx, "publishing entitlement event", err)
	}
}
