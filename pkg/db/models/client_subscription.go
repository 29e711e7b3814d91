package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/hugotzc/oasa-backend/pkg/enums"
)

// ClientSubscription binds a client to exactly one plan.
// At most one active row per client; enforced by a partial unique index.
type ClientSubscription struct {
	ID         uuid.UUID                `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	ClientID   string                   `gorm:"column:client_id;not null;index"`
	PlanID     uuid.UUID                `gorm:"column:plan_id;type:uuid;not null"`
	Status     enums.SubscriptionStatus `gorm:"column:status;not null;default:'active'"`
	StartedAt  time.Time                `gorm:"column:started_at;autoCreateTime"`
	CanceledAt *time.Time               `gorm:"column:canceled_at"`
	CreatedAt  time.Time                `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time                `gorm:"column:updated_at;autoUpdateTime"`
}
