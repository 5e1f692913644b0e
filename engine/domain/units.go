package domain

import "strings"

// UnitFamily groups serving units that describe the same kind of measure.
type UnitFamily string

const (
	FamilyMass    UnitFamily = "mass"
	FamilyVolume  UnitFamily = "volume"
	FamilyCount   UnitFamily = "count"
	FamilyServing UnitFamily = "serving"
	FamilyUnknown UnitFamily = "unknown"
)

// unitFamilies maps normalized unit spellings to their family. Aliases cover
// the spellings the vision service and the catalogs actually emit.
var unitFamilies = map[string]UnitFamily{
	"g": FamilyMass, "gram": FamilyMass, "grams": FamilyMass,
	"kg": FamilyMass, "kilogram": FamilyMass, "kilograms": FamilyMass,
	"oz": FamilyMass, "ounce": FamilyMass, "ounces": FamilyMass,
	"lb": FamilyMass, "lbs": FamilyMass, "pound": FamilyMass, "pounds": FamilyMass,

	"ml": FamilyVolume, "milliliter": FamilyVolume, "milliliters": FamilyVolume,
	"l": FamilyVolume, "liter": FamilyVolume, "liters": FamilyVolume, "litre": FamilyVolume, "litres": FamilyVolume,
	"cup": FamilyVolume, "cups": FamilyVolume,
	"tbsp": FamilyVolume, "tablespoon": FamilyVolume, "tablespoons": FamilyVolume,
	"tsp": FamilyVolume, "teaspoon": FamilyVolume, "teaspoons": FamilyVolume,
	"floz": FamilyVolume, "fl oz": FamilyVolume,

	"slice": FamilyCount, "slices": FamilyCount,
	"piece": FamilyCount, "pieces": FamilyCount,
	"egg": FamilyCount, "eggs": FamilyCount,
	"item": FamilyCount, "items": FamilyCount,
	"unit": FamilyCount, "units": FamilyCount,

	"serving": FamilyServing, "servings": FamilyServing, "portion": FamilyServing, "portions": FamilyServing,
}

// NormalizeUnit lowercases and trims a unit spelling.
func NormalizeUnit(unit string) string {
	return strings.ToLower(strings.TrimSpace(unit))
}

// UnitFamilyOf classifies a unit. Empty units are FamilyUnknown.
func UnitFamilyOf(unit string) UnitFamily {
	u := NormalizeUnit(unit)
	if u == "" {
		return FamilyUnknown
	}
	if f, ok := unitFamilies[u]; ok {
		return f
	}
	return FamilyUnknown
}

// UnitsCompatible reports whether two serving units belong to the same family.
// The generic "serving" family and unknown/empty units are compatible with
// anything: there is no basis to reject, so the decision policy gives the
// candidate the benefit of the doubt.
func UnitsCompatible(a, b string) bool {
	fa, fb := UnitFamilyOf(a), UnitFamilyOf(b)
	if fa == FamilyServing || fb == FamilyServing {
		return true
	}
	if fa == FamilyUnknown || fb == FamilyUnknown {
		return true
	}
	return fa == fb
}
