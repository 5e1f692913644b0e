package domain

import "testing"

func TestSanitizeAnalyzed(t *testing.T) {
	tests := []struct {
		name string
		in   AnalyzedItem
		want AnalyzedItem
	}{
		{
			name: "valid item unchanged",
			in:   AnalyzedItem{DisplayName: "rice", Quantity: 2, Unit: "cup", Confidence: ConfidenceHigh},
			want: AnalyzedItem{DisplayName: "rice", Quantity: 2, Unit: "cup", Confidence: ConfidenceHigh},
		},
		{
			name: "unknown confidence collapses to low",
			in:   AnalyzedItem{DisplayName: "rice", Quantity: 1, Confidence: "very sure"},
			want: AnalyzedItem{DisplayName: "rice", Quantity: 1, Confidence: ConfidenceLow},
		},
		{
			name: "non-positive quantity resets to one",
			in:   AnalyzedItem{DisplayName: "rice", Quantity: -3, Confidence: ConfidenceLow},
			want: AnalyzedItem{DisplayName: "rice", Quantity: 1, Confidence: ConfidenceLow},
		},
		{
			name: "name and unit trimmed",
			in:   AnalyzedItem{DisplayName: "  rice ", Quantity: 1, Unit: " Cup ", Confidence: ConfidenceMedium},
			want: AnalyzedItem{DisplayName: "rice", Quantity: 1, Unit: "cup", Confidence: ConfidenceMedium},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SanitizeAnalyzed(tt.in)
			if got.DisplayName != tt.want.DisplayName || got.Quantity != tt.want.Quantity ||
				got.Unit != tt.want.Unit || got.Confidence != tt.want.Confidence {
				t.Errorf("SanitizeAnalyzed() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestSanitizeAnalyzed_DropsNegativeNutrients(t *testing.T) {
	in := AnalyzedItem{
		DisplayName: "mystery",
		Quantity:    1,
		Confidence:  ConfidenceLow,
		Nutrients:   Nutrients{Calories: Float(-50), Carbs: Float(20)},
	}
	got := SanitizeAnalyzed(in)
	if got.Nutrients.Calories != nil {
		t.Errorf("negative calories kept: %v", *got.Nutrients.Calories)
	}
	if got.Nutrients.Carbs == nil || *got.Nutrients.Carbs != 20 {
		t.Errorf("positive carbs lost: %v", got.Nutrients.Carbs)
	}
}

func TestCoreMacroCount(t *testing.T) {
	n := Nutrients{Calories: Float(100), Protein: Float(5)}
	if got := n.CoreMacroCount(); got != 2 {
		t.Errorf("CoreMacroCount() = %d, want 2", got)
	}
	if got := (Nutrients{}).CoreMacroCount(); got != 0 {
		t.Errorf("empty CoreMacroCount() = %d, want 0", got)
	}
	// Fibre is not a core macro.
	n = Nutrients{Fibre: Float(3)}
	if got := n.CoreMacroCount(); got != 0 {
		t.Errorf("fibre-only CoreMacroCount() = %d, want 0", got)
	}
}

func TestPositiveMacroCount(t *testing.T) {
	n := Nutrients{Calories: Float(0), Carbs: Float(30), Fat: Float(10)}
	if got := n.PositiveMacroCount(); got != 2 {
		t.Errorf("PositiveMacroCount() = %d, want 2", got)
	}
}

func TestUnitsCompatible(t *testing.T) {
	tests := []struct {
		a, b string
		want bool
	}{
		{"g", "kg", true},
		{"g", "grams", true},
		{"cup", "ml", true},
		{"cup", "g", false},
		{"slice", "piece", true},
		{"slice", "g", false},
		{"serving", "g", true},
		{"cup", "portion", true},
		{"", "g", true},          // empty unit: no basis to reject
		{"handful", "g", true},   // unknown unit: no basis to reject
		{"tbsp", "tsp", true},
		{"oz", "ml", false},
	}
	for _, tt := range tests {
		if got := UnitsCompatible(tt.a, tt.b); got != tt.want {
			t.Errorf("UnitsCompatible(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestUnitFamilyOf(t *testing.T) {
	if f := UnitFamilyOf("Grams"); f != FamilyMass {
		t.Errorf("UnitFamilyOf(Grams) = %s", f)
	}
	if f := UnitFamilyOf(""); f != FamilyUnknown {
		t.Errorf("UnitFamilyOf(empty) = %s", f)
	}
	if f := UnitFamilyOf("servings"); f != FamilyServing {
		t.Errorf("UnitFamilyOf(servings) = %s", f)
	}
}

func TestNormalizedFoodKey(t *testing.T) {
	f := NormalizedFood{Provider: ProviderLocal, ExternalID: "42"}
	if got := f.Key(); got != "local:42" {
		t.Errorf("Key() = %q", got)
	}
}
