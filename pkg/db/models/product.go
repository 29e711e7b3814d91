package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// Product is a storefront catalog item. Prices are redacted at the API
// boundary when the client's resolved features disallow pricing display.
type Product struct {
	ID           uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	ClientID     string          `gorm:"column:client_id;not null;index"`
	Name         string          `gorm:"column:name;not null"`
	Slug         string          `gorm:"column:slug;not null;uniqueIndex"`
	Description  string          `gorm:"column:description"`
	Category     string          `gorm:"column:category;index"`
	PriceAmount  decimal.Decimal `gorm:"column:price_amount;type:numeric(12,2);not null"`
	CurrencyCode string          `gorm:"column:currency_code;not null;default:'MXN'"`
	Tags         pq.StringArray  `gorm:"column:tags;type:text[];default:ARRAY[]::text[]"`
	IsFeatured   bool            `gorm:"column:is_featured;not null;default:false"`
	IsActive     bool            `gorm:"column:is_active;not null;default:true"`
	CreatedAt    time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
