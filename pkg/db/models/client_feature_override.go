package models

import (
	"time"

	"github.com/google/uuid"
)

// ClientFeatureOverride is a per-client exception that wins over the plan default.
// Absence of a row means the plan default applies.
type ClientFeatureOverride struct {
	ID           uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	ClientID     string    `gorm:"column:client_id;not null;uniqueIndex:idx_client_feature"`
	FeatureID    uuid.UUID `gorm:"column:feature_id;type:uuid;not null;uniqueIndex:idx_client_feature"`
	IsEnabled    bool      `gorm:"column:is_enabled;not null"`
	FeatureLimit *int      `gorm:"column:feature_limit"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
