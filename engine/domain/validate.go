package domain

import "strings"

// SanitizeAnalyzed normalizes an untrusted vision-service item in place:
// unknown confidence labels collapse to low, non-positive quantities reset to
// 1, and negative nutrient values are dropped rather than clamped (a negative
// estimate is garbage, not a small value). The display name is trimmed.
func SanitizeAnalyzed(item AnalyzedItem) AnalyzedItem {
	item.DisplayName = strings.TrimSpace(item.DisplayName)
	item.Unit = NormalizeUnit(item.Unit)

	switch item.Confidence {
	case ConfidenceLow, ConfidenceMedium, ConfidenceHigh:
	default:
		item.Confidence = ConfidenceLow
	}

	if item.Quantity <= 0 {
		item.Quantity = 1
	}

	item.Nutrients = sanitizeNutrients(item.Nutrients)
	return item
}

// SanitizeFood drops negative macro values from a catalog record. Catalog
// providers occasionally ship junk rows; a record with a negative macro keeps
// its other fields.
func SanitizeFood(f NormalizedFood) NormalizedFood {
	f.DisplayName = strings.TrimSpace(f.DisplayName)
	f.ServingUnit = NormalizeUnit(f.ServingUnit)
	f.Macros = sanitizeNutrients(f.Macros)
	return f
}

func sanitizeNutrients(n Nutrients) Nutrients {
	n.Calories = dropNegative(n.Calories)
	n.Carbs = dropNegative(n.Carbs)
	n.Protein = dropNegative(n.Protein)
	n.Fat = dropNegative(n.Fat)
	n.Fibre = dropNegative(n.Fibre)
	n.Sugar = dropNegative(n.Sugar)
	n.SodiumMg = dropNegative(n.SodiumMg)
	return n
}

func dropNegative(v *float64) *float64 {
	if v != nil && *v < 0 {
		return nil
	}
	return v
}

// Float returns a pointer to v. Convenience for building Nutrients literals.
func Float(v float64) *float64 { return &v }
