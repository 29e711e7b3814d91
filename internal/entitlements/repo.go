package entitlements

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/hugotzc/oasa-backend/pkg/db/models"
	"github.com/hugotzc/oasa-backend/pkg/enums"
)

// Repository handles entitlement persistence over the normalized tables.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	ListActiveFeatures(ctx context.Context) ([]models.Feature, error)
	FindFeatureByKey(ctx context.Context, key string) (*models.Feature, error)
	ListPlans(ctx context.Context) ([]models.SubscriptionPlan, error)
	FindPlanByKey(ctx context.Context, key string) (*models.SubscriptionPlan, error)
	FindPlanByID(ctx context.Context, id uuid.UUID) (*models.SubscriptionPlan, error)
	ListPlanFeatures(ctx context.Context, planID uuid.UUID) ([]models.PlanFeature, error)
	FindActiveSubscription(ctx context.Context, clientID string) (*models.ClientSubscription, error)
	CreateSubscription(ctx context.Context, sub *models.ClientSubscription) error
	UpdateSubscription(ctx context.Context, sub *models.ClientSubscription) error
	ListOverrides(ctx context.Context, clientID string) ([]models.ClientFeatureOverride, error)
	UpsertOverride(ctx context.Context, override *models.ClientFeatureOverride) error
	DeleteOverride(ctx context.Context, clientID string, featureID uuid.UUID) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns an entitlement repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) ListActiveFeatures(ctx context.Context) ([]models.Feature, error) {
	var features []models.Feature
	if err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("is_core_feature DESC, feature_key ASC").
		Find(&features).Error; err != nil {
		return nil, err
	}
	return features, nil
}

func (r *repository) FindFeatureByKey(ctx context.Context, key string) (*models.Feature, error) {
	if key == "" {
		return nil, nil
	}
	var feature models.Feature
	if err := r.db.WithContext(ctx).
		Where("feature_key = ?", key).
		First(&feature).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &feature, nil
}

func (r *repository) ListPlans(ctx context.Context) ([]models.SubscriptionPlan, error) {
	var plans []models.SubscriptionPlan
	if err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("plan_key ASC").
		Find(&plans).Error; err != nil {
		return nil, err
	}
	return plans, nil
}

func (r *repository) FindPlanByKey(ctx context.Context, key string) (*models.SubscriptionPlan, error) {
	if key == "" {
		return nil, nil
	}
	var plan models.SubscriptionPlan
	if err := r.db.WithContext(ctx).
		Where("plan_key = ? AND is_active = ?", key, true).
		First(&plan).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &plan, nil
}

func (r *repository) FindPlanByID(ctx context.Context, id uuid.UUID) (*models.SubscriptionPlan, error) {
	var plan models.SubscriptionPlan
	if err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&plan).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &plan, nil
}

func (r *repository) ListPlanFeatures(ctx context.Context, planID uuid.UUID) ([]models.PlanFeature, error) {
	var rows []models.PlanFeature
	if err := r.db.WithContext(ctx).
		Where("plan_id = ?", planID).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) FindActiveSubscription(ctx context.Context, clientID string) (*models.ClientSubscription, error) {
	if clientID == "" {
		return nil, nil
	}
	var sub models.ClientSubscription
	if err := r.db.WithContext(ctx).
		Where("client_id = ? AND status = ?", clientID, enums.SubscriptionStatusActive).
		Order("created_at DESC").
		First(&sub).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &sub, nil
}

func (r *repository) CreateSubscription(ctx context.Context, sub *models.ClientSubscription) error {
	return r.db.WithContext(ctx).Create(sub).Error
}

func (r *repository) UpdateSubscription(ctx context.Context, sub *models.ClientSubscription) error {
	return r.db.WithContext(ctx).Save(sub).Error
}

func (r *repository) ListOverrides(ctx context.Context, clientID string) ([]models.ClientFeatureOverride, error) {
	var overrides []models.ClientFeatureOverride
	if err := r.db.WithContext(ctx).
		Where("client_id = ?", clientID).
		Find(&overrides).Error; err != nil {
		return nil, err
	}
	return overrides, nil
}

func (r *repository) UpsertOverride(ctx context.Context, override *models.ClientFeatureOverride) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "client_id"}, {Name: "feature_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"is_enabled", "feature_limit", "updated_at"}),
		}).
		Create(override).Error
}

func (r *repository) DeleteOverride(ctx context.Context, clientID string, featureID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("client_id = ? AND feature_id = ?", clientID, featureID).
		Delete(&models.ClientFeatureOverride{}).Error
}
