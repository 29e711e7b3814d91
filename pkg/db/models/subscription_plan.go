package models

import (
	"time"

	"github.com/google/uuid"
)

// SubscriptionPlan is a named tier carrying default feature grants via PlanFeature rows.
type SubscriptionPlan struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	PlanKey   string    `gorm:"column:plan_key;not null;uniqueIndex"`
	Name      string    `gorm:"column:name;not null"`
	IsActive  bool      `gorm:"column:is_active;not null;default:true"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
