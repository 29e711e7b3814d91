package models

import "time"

// SiteSetting is the legacy flat key/value settings row. Read-only during the
// migration window; the normalized feature tables are the source of truth.
type SiteSetting struct {
	SettingKey   string    `gorm:"column:setting_key;primaryKey"`
	SettingValue string    `gorm:"column:setting_value;not null"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName keeps the legacy table name.
func (SiteSetting) TableName() string {
	return "site_settings"
}
