package enums

import "fmt"

// FeatureCategory groups features for admin display.
type FeatureCategory string

const (
	FeatureCategoryCommerce FeatureCategory = "commerce"
	FeatureCategoryContent  FeatureCategory = "content"
	FeatureCategorySystem   FeatureCategory = "system"
)

var validFeatureCategories = []FeatureCategory{
	FeatureCategoryCommerce,
	FeatureCategoryContent,
	FeatureCategorySystem,
}

// String implements fmt.Stringer.
func (f FeatureCategory) String() string {
	return string(f)
}

// IsValid reports whether the value is a known FeatureCategory.
func (f FeatureCategory) IsValid() bool {
	for _, candidate := range validFeatureCategories {
		if candidate == f {
			return true
		}
	}
	return false
}

// ParseFeatureCategory converts raw input into a FeatureCategory.
func ParseFeatureCategory(value string) (FeatureCategory, error) {
	for _, candidate := range validFeatureCategories {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid feature category %q", value)
}
