package score

import (
	"math"
	"testing"

	"github.com/glucolog/mealmatch/engine/domain"
)

func TestMacroDistance_AllAbsent(t *testing.T) {
	candidate := domain.Nutrients{Calories: domain.Float(200), Carbs: domain.Float(40)}
	if d := MacroDistance(domain.Nutrients{}, candidate); d != nil {
		t.Errorf("distance with empty estimate = %v, want nil", *d)
	}
}

func TestMacroDistance_ZeroEstimateIgnored(t *testing.T) {
	estimate := domain.Nutrients{Calories: domain.Float(0), Carbs: domain.Float(0)}
	candidate := domain.Nutrients{Calories: domain.Float(200), Carbs: domain.Float(40)}
	if d := MacroDistance(estimate, candidate); d != nil {
		t.Errorf("distance with zero-valued estimate = %v, want nil", *d)
	}
}

func TestMacroDistance_Average(t *testing.T) {
	estimate := domain.Nutrients{Calories: domain.Float(100), Carbs: domain.Float(20)}
	candidate := domain.Nutrients{Calories: domain.Float(150), Carbs: domain.Float(20)}
	d := MacroDistance(estimate, candidate)
	if d == nil {
		t.Fatal("distance = nil, want value")
	}
	// calories: |150-100|/100 = 0.5, carbs: 0. Average 0.25.
	if math.Abs(*d-0.25) > 1e-9 {
		t.Errorf("distance = %v, want 0.25", *d)
	}
}

func TestMacroDistance_CandidateMissingMacroSkipped(t *testing.T) {
	estimate := domain.Nutrients{Calories: domain.Float(100), Protein: domain.Float(10)}
	candidate := domain.Nutrients{Calories: domain.Float(100)}
	d := MacroDistance(estimate, candidate)
	if d == nil {
		t.Fatal("distance = nil, want value")
	}
	if *d != 0 {
		t.Errorf("distance = %v, want 0 (protein pair not comparable)", *d)
	}
}

func TestMacroDistance_SmallEstimateFloor(t *testing.T) {
	// Denominator floors at 1 so tiny estimates don't explode the distance.
	estimate := domain.Nutrients{Fat: domain.Float(0.5)}
	candidate := domain.Nutrients{Fat: domain.Float(1.5)}
	d := MacroDistance(estimate, candidate)
	if d == nil {
		t.Fatal("distance = nil, want value")
	}
	if math.Abs(*d-1.0) > 1e-9 {
		t.Errorf("distance = %v, want 1.0", *d)
	}
}

func TestBestByMacro(t *testing.T) {
	estimate := domain.Nutrients{Calories: domain.Float(400), Carbs: domain.Float(80)}

	near := domain.ScoredCandidate{
		Food: domain.NormalizedFood{
			ExternalID: "near",
			Macros:     domain.Nutrients{Calories: domain.Float(390), Carbs: domain.Float(78)},
		},
		TextScore: 60,
	}
	far := domain.ScoredCandidate{
		Food: domain.NormalizedFood{
			ExternalID: "far",
			Macros:     domain.Nutrients{Calories: domain.Float(100), Carbs: domain.Float(10)},
		},
		TextScore: 90,
	}
	belowFloor := domain.ScoredCandidate{
		Food: domain.NormalizedFood{
			ExternalID: "floor",
			Macros:     domain.Nutrients{Calories: domain.Float(400), Carbs: domain.Float(80)},
		},
		TextScore: 30,
	}

	best, dist := BestByMacro([]domain.ScoredCandidate{far, near, belowFloor}, estimate)
	if best == nil || dist == nil {
		t.Fatal("BestByMacro returned nil")
	}
	if best.Food.ExternalID != "near" {
		t.Errorf("best = %q, want near", best.Food.ExternalID)
	}
}

func TestBestByMacro_NoComparable(t *testing.T) {
	ranked := []domain.ScoredCandidate{
		{Food: domain.NormalizedFood{ExternalID: "a"}, TextScore: 80},
	}
	best, dist := BestByMacro(ranked, domain.Nutrients{})
	if best != nil || dist != nil {
		t.Error("expected nil result when estimate has no usable macros")
	}
}

func TestBestByMacro_TopKBound(t *testing.T) {
	estimate := domain.Nutrients{Calories: domain.Float(100)}
	var ranked []domain.ScoredCandidate
	for i := 0; i < TopKMacro; i++ {
		ranked = append(ranked, domain.ScoredCandidate{
			Food:      domain.NormalizedFood{ExternalID: "pad", Macros: domain.Nutrients{Calories: domain.Float(500)}},
			TextScore: 90,
		})
	}
	// A perfect macro match sitting past the top-K must not be considered.
	ranked = append(ranked, domain.ScoredCandidate{
		Food:      domain.NormalizedFood{ExternalID: "perfect", Macros: domain.Nutrients{Calories: domain.Float(100)}},
		TextScore: 90,
	})

	best, _ := BestByMacro(ranked, estimate)
	if best == nil {
		t.Fatal("BestByMacro returned nil")
	}
	if best.Food.ExternalID == "perfect" {
		t.Error("candidate beyond the top-K window was considered")
	}
}
