package entitlements

// ShoppingMode is the storefront operating mode derived from resolved features.
type ShoppingMode string

const (
	// ModeFull enables browsing, pricing, cart and checkout.
	ModeFull ShoppingMode = "full"
	// ModeCatalog shows prices but disables cart and checkout.
	ModeCatalog ShoppingMode = "catalog"
	// ModeDisabled hides all commerce affordances.
	ModeDisabled ShoppingMode = "disabled"
)

func (m ShoppingMode) String() string {
	return string(m)
}

func (m ShoppingMode) IsValid() bool {
	switch m {
	case ModeFull, ModeCatalog, ModeDisabled:
		return true
	}
	return false
}

// CanPurchase reports whether the mode allows completing a purchase.
func (m ShoppingMode) CanPurchase() bool {
	return m == ModeFull
}

// Label returns the operator-facing description of the mode.
func (m ShoppingMode) Label() string {
	switch m {
	case ModeFull:
		return "Full E-commerce"
	case ModeCatalog:
		return "Product Catalog"
	case ModeDisabled:
		return "Information Only"
	default:
		return "Unknown"
	}
}

// ParseShoppingMode maps a stored string onto a mode, falling back to disabled.
func ParseShoppingMode(value string) ShoppingMode {
	mode := ShoppingMode(value)
	if mode.IsValid() {
		return mode
	}
	return ModeDisabled
}

// DeriveMode computes the shopping mode from a resolved feature set.
// Precedence is strict and first match wins: cart plus pricing plus checkout
// yields full; pricing alone yields catalog; anything else is disabled. A
// client with cart but no pricing therefore lands in disabled, not catalog.
func DeriveMode(set *ResolvedFeatureSet) ShoppingMode {
	hasCart := set.Enabled(FeatureShoppingCart)
	hasPricing := set.Enabled(FeatureProductPricing)
	hasCheckout := set.Enabled(FeatureCheckout)

	switch {
	case hasCart && hasPricing && hasCheckout:
		return ModeFull
	case hasPricing:
		return ModeCatalog
	default:
		return ModeDisabled
	}
}

// DisplayFlags are the double-gated UI decisions: each flag requires both the
// underlying feature and a compatible mode.
type DisplayFlags struct {
	ShowCart      bool `json:"show_cart"`
	ShowPrices    bool `json:"show_prices"`
	ShowAddToCart bool `json:"show_add_to_cart"`
	ShowCheckout  bool `json:"show_checkout"`
}

// DeriveDisplayFlags computes the display gates for a resolved set and mode.
func DeriveDisplayFlags(set *ResolvedFeatureSet, mode ShoppingMode) DisplayFlags {
	hasCart := set.Enabled(FeatureShoppingCart)
	return DisplayFlags{
		ShowCart:      hasCart && mode == ModeFull,
		ShowPrices:    set.Enabled(FeatureProductPricing) && mode != ModeDisabled,
		ShowAddToCart: set.Enabled(FeatureAddToCart) && hasCart && mode == ModeFull,
		ShowCheckout:  set.Enabled(FeatureCheckout) && hasCart && mode == ModeFull,
	}
}
