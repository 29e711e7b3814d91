package models

import (
	"time"

	"github.com/google/uuid"
)

// PlanFeature maps one feature onto one plan with its default grant.
type PlanFeature struct {
	ID           uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	PlanID       uuid.UUID `gorm:"column:plan_id;type:uuid;not null;uniqueIndex:idx_plan_feature"`
	FeatureID    uuid.UUID `gorm:"column:feature_id;type:uuid;not null;uniqueIndex:idx_plan_feature"`
	IsEnabled    bool      `gorm:"column:is_enabled;not null;default:false"`
	FeatureLimit *int      `gorm:"column:feature_limit"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
