package entitlements

import (
	"context"
	"time"
)

// Core feature keys every storefront resolution reports on.
const (
	FeatureShoppingCart   = "shopping_cart"
	FeatureProductPricing = "product_pricing"
	FeatureCheckout       = "checkout_process"
	FeatureAddToCart      = "add_to_cart"
)

// CoreFeatureKeys returns the storefront-critical feature keys in display order.
func CoreFeatureKeys() []string {
	return []string{FeatureShoppingCart, FeatureProductPricing, FeatureCheckout, FeatureAddToCart}
}

// Resolution sources reported on a ResolvedFeatureSet.
const (
	SourceNormalized = "normalized"
	SourceLegacy     = "legacy"
	SourceSnapshot   = "snapshot"
)

// FeatureAccess is the resolved access decision for a single feature.
type FeatureAccess struct {
	Enabled bool `json:"enabled"`
	Limit   *int `json:"limit,omitempty"`
}

// ResolvedFeatureSet is the full entitlement picture for one client.
type ResolvedFeatureSet struct {
	ClientID   string                   `json:"client_id"`
	PlanKey    string                   `json:"plan_key"`
	Features   map[string]FeatureAccess `json:"features"`
	Source     string                   `json:"source"`
	ResolvedAt time.Time                `json:"resolved_at"`
}

// Access returns the resolved decision for key, defaulting to disabled when
// the key was never resolved.
func (r *ResolvedFeatureSet) Access(key string) FeatureAccess {
	if r == nil || r.Features == nil {
		return FeatureAccess{}
	}
	if access, ok := r.Features[key]; ok {
		return access
	}
	return FeatureAccess{}
}

// Enabled reports whether the feature resolved to enabled.
func (r *ResolvedFeatureSet) Enabled(key string) bool {
	return r.Access(key).Enabled
}

// Store resolves the complete feature set for a client. Implementations exist
// for the normalized entitlement tables and the legacy site_settings rows.
type Store interface {
	ResolveFeatureSet(ctx context.Context, clientID string) (*ResolvedFeatureSet, error)
	Name() string
}
