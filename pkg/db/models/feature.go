package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/hugotzc/oasa-backend/pkg/enums"
)

// Feature is immutable reference data describing one gatable capability.
// Rows are owned by system configuration, never created at runtime.
type Feature struct {
	ID            uuid.UUID             `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	FeatureKey    string                `gorm:"column:feature_key;not null;uniqueIndex"`
	Label         string                `gorm:"column:label;not null"`
	Category      enums.FeatureCategory `gorm:"column:category;not null;default:'commerce'"`
	IsCoreFeature bool                  `gorm:"column:is_core_feature;not null;default:false"`
	IsActive      bool                  `gorm:"column:is_active;not null;default:true"`
	CreatedAt     time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}
