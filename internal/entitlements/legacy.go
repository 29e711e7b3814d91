package entitlements

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/hugotzc/oasa-backend/pkg/db/models"
	apperrors "github.com/hugotzc/oasa-backend/pkg/errors"
)

// Legacy site_settings keys from the flat settings era.
const (
	legacyKeyShoppingCart   = "enable_shopping"
	legacyKeyProductPricing = "enable_pricing"
	legacyKeyCheckout       = "enable_checkout"
	legacyKeyAddToCart      = "enable_add_to_cart"
	legacyKeyShoppingMode   = "shopping_mode"

	legacyPlanKey = "legacy"
)

var legacyFeatureKeys = map[string]string{
	legacyKeyShoppingCart:   FeatureShoppingCart,
	legacyKeyProductPricing: FeatureProductPricing,
	legacyKeyCheckout:       FeatureCheckout,
	legacyKeyAddToCart:      FeatureAddToCart,
}

// LegacyStore resolves feature sets from the flat site_settings rows. It is
// strictly read-only; writes always target the normalized tables.
type LegacyStore struct {
	db *gorm.DB
}

// NewLegacyStore builds the read-only store over site_settings.
func NewLegacyStore(db *gorm.DB) *LegacyStore {
	return &LegacyStore{db: db}
}

func (s *LegacyStore) Name() string {
	return SourceLegacy
}

func (s *LegacyStore) ResolveFeatureSet(ctx context.Context, clientID string) (*ResolvedFeatureSet, error) {
	if clientID == "" {
		return nil, apperrors.New(apperrors.CodeValidation, "client id is required")
	}

	settings, err := s.loadSettings(ctx)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeDependency, err, "loading site settings")
	}

	features := make(map[string]FeatureAccess, len(legacyFeatureKeys))
	for settingKey, featureKey := range legacyFeatureKeys {
		raw, ok := settings[settingKey]
		if !ok {
			// A missing row means the feature was never provisioned.
			features[featureKey] = FeatureAccess{}
			continue
		}
		enabled, err := parseLegacyBool(raw)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.CodeValidation, err, fmt.Sprintf("setting %q is malformed", settingKey))
		}
		features[featureKey] = FeatureAccess{Enabled: enabled}
	}

	return &ResolvedFeatureSet{
		ClientID:   clientID,
		PlanKey:    legacyPlanKey,
		Features:   features,
		Source:     SourceLegacy,
		ResolvedAt: time.Now().UTC(),
	}, nil
}

// LegacySettings returns the raw flat rows for the legacy settings endpoint
// and the sync job.
func (s *LegacyStore) LegacySettings(ctx context.Context) (map[string]string, error) {
	settings, err := s.loadSettings(ctx)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeDependency, err, "loading site settings")
	}
	return settings, nil
}

func (s *LegacyStore) loadSettings(ctx context.Context) (map[string]string, error) {
	var rows []models.SiteSetting
	if err := s.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, err
	}
	settings := make(map[string]string, len(rows))
	for _, row := range rows {
		settings[row.SettingKey] = row.SettingValue
	}
	return settings, nil
}

func parseLegacyBool(raw string) (bool, error) {
	switch raw {
	case "true":
		return true, nil
	case "false":
		return false, nil
	default:
		return false, fmt.Errorf("expected \"true\" or \"false\", got %q", raw)
	}
}

// LegacySettingsReader is the surface the legacy endpoint and sync job use.
type LegacySettingsReader interface {
	LegacySettings(ctx context.Context) (map[string]string, error)
}
