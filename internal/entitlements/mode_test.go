package entitlements

import "testing"

func featureSet(flags map[string]bool) *ResolvedFeatureSet {
	features := make(map[string]FeatureAccess, len(flags))
	for key, enabled := range flags {
		features[key] = FeatureAccess{Enabled: enabled}
	}
	return &ResolvedFeatureSet{
		ClientID: "client-a",
		PlanKey:  "commerce",
		Features: features,
	}
}

func TestDeriveMode(t *testing.T) {
	cases := []struct {
		name     string
		cart     bool
		pricing  bool
		checkout bool
		want     ShoppingMode
	}{
		{name: "all commerce features", cart: true, pricing: true, checkout: true, want: ModeFull},
		{name: "pricing only", cart: false, pricing: true, checkout: false, want: ModeCatalog},
		{name: "pricing and checkout without cart", cart: false, pricing: true, checkout: true, want: ModeCatalog},
		{name: "cart without pricing stays disabled", cart: true, pricing: false, checkout: true, want: ModeDisabled},
		{name: "nothing enabled", cart: false, pricing: false, checkout: false, want: ModeDisabled},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			set := featureSet(map[string]bool{
				FeatureShoppingCart:   tc.cart,
				FeatureProductPricing: tc.pricing,
				FeatureCheckout:       tc.checkout,
			})
			if got := DeriveMode(set); got != tc.want {
				t.Fatalf("DeriveMode() = %s, want %s", got, tc.want)
			}
		})
	}
}

func TestDeriveModeReadsStoredFeatureKeys(t *testing.T) {
	// Keys as they appear in the reference table, not via the constants.
	set := featureSet(map[string]bool{
		"shopping_cart":    true,
		"product_pricing":  true,
		"checkout_process": true,
		"add_to_cart":      true,
	})
	if got := DeriveMode(set); got != ModeFull {
		t.Fatalf("DeriveMode() = %s, want %s", got, ModeFull)
	}
	want := DisplayFlags{ShowCart: true, ShowPrices: true, ShowAddToCart: true, ShowCheckout: true}
	if got := DeriveDisplayFlags(set, ModeFull); got != want {
		t.Fatalf("DeriveDisplayFlags() = %+v, want %+v", got, want)
	}
}

func TestDeriveModeMissingKeysIsDisabled(t *testing.T) {
	set := &ResolvedFeatureSet{Features: map[string]FeatureAccess{}}
	if got := DeriveMode(set); got != ModeDisabled {
		t.Fatalf("expected disabled for empty set, got %s", got)
	}
}

func TestDeriveDisplayFlags(t *testing.T) {
	cases := []struct {
		name  string
		flags map[string]bool
		want  DisplayFlags
	}{
		{
			name: "full mode shows everything",
			flags: map[string]bool{
				FeatureShoppingCart:   true,
				FeatureProductPricing: true,
				FeatureCheckout:       true,
				FeatureAddToCart:      true,
			},
			want: DisplayFlags{ShowCart: true, ShowPrices: true, ShowAddToCart: true, ShowCheckout: true},
		},
		{
			name: "full mode without add to cart feature",
			flags: map[string]bool{
				FeatureShoppingCart:   true,
				FeatureProductPricing: true,
				FeatureCheckout:       true,
				FeatureAddToCart:      false,
			},
			want: DisplayFlags{ShowCart: true, ShowPrices: true, ShowAddToCart: false, ShowCheckout: true},
		},
		{
			name: "catalog mode only shows prices",
			flags: map[string]bool{
				FeatureShoppingCart:   false,
				FeatureProductPricing: true,
				FeatureCheckout:       false,
				FeatureAddToCart:      true,
			},
			want: DisplayFlags{ShowPrices: true},
		},
		{
			name: "cart feature without full mode is hidden",
			flags: map[string]bool{
				FeatureShoppingCart:   true,
				FeatureProductPricing: false,
				FeatureCheckout:       true,
				FeatureAddToCart:      true,
			},
			want: DisplayFlags{},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			set := featureSet(tc.flags)
			mode := DeriveMode(set)
			if got := DeriveDisplayFlags(set, mode); got != tc.want {
				t.Fatalf("DeriveDisplayFlags() = %+v, want %+v", got, tc.want)
			}
		})
	}
}

func TestModeHelpers(t *testing.T) {
	if !ModeFull.CanPurchase() {
		t.Fatal("full mode should allow purchase")
	}
	if ModeCatalog.CanPurchase() || ModeDisabled.CanPurchase() {
		t.Fatal("only full mode allows purchase")
	}
	if got := ParseShoppingMode("catalog"); got != ModeCatalog {
		t.Fatalf("ParseShoppingMode(catalog) = %s", got)
	}
	if got := ParseShoppingMode("weird"); got != ModeDisabled {
		t.Fatalf("unknown mode should fall back to disabled, got %s", got)
	}
	labels := map[ShoppingMode]string{
		ModeFull:     "Full E-commerce",
		ModeCatalog:  "Product Catalog",
		ModeDisabled: "Information Only",
	}
	for mode, want := range labels {
		if got := mode.Label(); got != want {
			t.Fatalf("%s.Label() = %q, want %q", mode, got, want)
		}
	}
}
