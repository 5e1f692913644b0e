// Package domain defines core domain types, constants, and validation for the
// mealmatch resolution engine. It acts as the validation gate at pipeline
// entry points: everything arriving from the vision service or user input is
// sanitized here before the engine touches it.
package domain

// Provider identifies the catalog a NormalizedFood came from.
type Provider string

const (
	ProviderLocal         Provider = "local"
	ProviderOpenFoodFacts Provider = "openfoodfacts"
	ProviderUSDA          Provider = "usda"
	ProviderSemantic      Provider = "semantic"
	ProviderManual        Provider = "manual"
)

// Confidence is the vision service's self-declared confidence for an item.
type Confidence string

const (
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

// Source marks how a SelectedMealItem was produced.
type Source string

const (
	SourceMatched Source = "matched"
	SourceManual  Source = "manual"
)

// Nutrients holds per-serving macro-nutrient values. Every field is optional;
// nil means the catalog or estimate did not report it. Present values are
// non-negative once sanitized.
type Nutrients struct {
	Calories *float64 `json:"calories_kcal,omitempty"`
	Carbs    *float64 `json:"carbs_g,omitempty"`
	Protein  *float64 `json:"protein_g,omitempty"`
	Fat      *float64 `json:"fat_g,omitempty"`
	Fibre    *float64 `json:"fibre_g,omitempty"`
	Sugar    *float64 `json:"sugar_g,omitempty"`
	SodiumMg *float64 `json:"sodium_mg,omitempty"`
}

// CoreMacroCount reports how many of the four core macros (calories, carbs,
// protein, fat) are present.
func (n Nutrients) CoreMacroCount() int {
	count := 0
	for _, v := range []*float64{n.Calories, n.Carbs, n.Protein, n.Fat} {
		if v != nil {
			count++
		}
	}
	return count
}

// PositiveMacroCount reports how many core macros are present with a value
// strictly greater than zero. Used to judge whether an AI estimate carries
// enough signal to be compared against catalog records.
func (n Nutrients) PositiveMacroCount() int {
	count := 0
	for _, v := range []*float64{n.Calories, n.Carbs, n.Protein, n.Fat} {
		if v != nil && *v > 0 {
			count++
		}
	}
	return count
}

// ParsedMealItem is one item mention extracted from a freeform description.
type ParsedMealItem struct {
	Name     string  `json:"name"`
	Quantity float64 `json:"quantity"`
	Unit     string  `json:"unit,omitempty"`
	Raw      string  `json:"raw"`
}

// AnalyzedItem is a food item detected by the external vision/LLM service.
// Treated as untrusted input; see SanitizeAnalyzed.
type AnalyzedItem struct {
	DisplayName string     `json:"display_name"`
	Quantity    float64    `json:"quantity"`
	Unit        string     `json:"unit,omitempty"`
	Nutrients   Nutrients  `json:"nutrients"`
	Confidence  Confidence `json:"confidence"`
}

// NormalizedFood is a catalog nutrition record from any provider reduced to a
// common shape. Provider+ExternalID is the natural key.
type NormalizedFood struct {
	Provider    Provider  `json:"provider"`
	ExternalID  string    `json:"external_id"`
	DisplayName string    `json:"display_name"`
	Brand       string    `json:"brand,omitempty"`
	ServingSize float64   `json:"serving_size,omitempty"`
	ServingUnit string    `json:"serving_unit,omitempty"`
	Macros      Nutrients `json:"macros"`
}

// Key returns the natural key for dedup and exclusion lists.
func (f NormalizedFood) Key() string {
	return string(f.Provider) + ":" + f.ExternalID
}

// ScoredCandidate pairs a catalog record with its text relevance score.
// Ephemeral, produced per lookup.
type ScoredCandidate struct {
	Food      NormalizedFood
	TextScore float64 // 0..100
}

// SelectedMealItem is the engine's output unit: a catalog-backed match or an
// explicit manual placeholder. It is the only entity that survives past the
// resolution subsystem.
type SelectedMealItem struct {
	NormalizedFood
	Quantity     float64 `json:"quantity"`
	Source       Source  `json:"source"`
	OriginalText string  `json:"original_text,omitempty"`
}
