package resolve

import (
	"github.com/google/uuid"

	"github.com/glucolog/mealmatch/engine/domain"
	"github.com/glucolog/mealmatch/engine/score"
)

// request is one unit of per-item work flowing through the pipeline.
type request struct {
	query    string
	quantity float64
	unit     string
	raw      string
	estimate *domain.AnalyzedItem // nil on the text path
	cacheKey string
}

// decision is the outcome of the policy for a single request.
type decision struct {
	item    domain.SelectedMealItem
	matched bool
	reason  error // sentinel explaining a fallback, nil on accept
}

// decide applies the acceptance policy to the ranked candidates. Order of
// rules: text floor, macro-distance override, macro sparsity, unit
// compatibility. Every rejection degrades to an explicit manual placeholder.
func (s *Service) decide(req request, ranked []domain.ScoredCandidate) decision {
	if len(ranked) == 0 {
		return decision{item: s.fallback(req), reason: domain.NewResolutionError(req.query, domain.ErrNoCandidates)}
	}
	best := ranked[0]
	if best.TextScore < s.opts.MinTextScore {
		return decision{item: s.fallback(req), reason: domain.NewResolutionError(req.query, domain.ErrLowTextScore)}
	}

	chosen := best
	quantity := req.quantity

	if req.estimate != nil {
		// Macro-distance override: prefer the nutritionally closest of the
		// top text candidates when it beats the text pick by a clear margin.
		// Note the macro-preferred candidate's name is never re-validated
		// against the query beyond its own text floor.
		macroBest, macroDist := score.BestByMacro(ranked, req.estimate.Nutrients)
		if macroBest != nil && macroDist != nil {
			textDist := score.MacroDistance(req.estimate.Nutrients, best.Food.Macros)
			if textDist == nil || *macroDist+s.opts.MacroDistanceMargin < *textDist {
				chosen = *macroBest
			}
		}
	}

	// A record too sparse to be useful is worse than an explicit placeholder.
	if chosen.Food.Macros.CoreMacroCount() < 2 {
		return decision{item: s.fallback(req), reason: domain.NewResolutionError(req.query, domain.ErrSparseMacros)}
	}

	if req.estimate != nil {
		if !domain.UnitsCompatible(req.estimate.Unit, chosen.Food.ServingUnit) {
			if !estimateIsWeak(req.estimate) {
				// A confident estimate in the wrong unit family means we would
				// silently reinterpret the quantity. Refuse.
				return decision{item: s.fallback(req), reason: domain.NewResolutionError(req.query, domain.ErrUnitMismatch)}
			}
			// Weak estimate: accept the candidate but distrust the AI's
			// quantity along with its macros.
			quantity = 1
		}
	}

	return decision{
		item: domain.SelectedMealItem{
			NormalizedFood: chosen.Food,
			Quantity:       quantity,
			Source:         domain.SourceMatched,
			OriginalText:   req.raw,
		},
		matched: true,
	}
}

// estimateIsWeak reports whether the AI estimate is too thin to trust for
// unit arbitration: low declared confidence, or fewer than two usable macros.
func estimateIsWeak(est *domain.AnalyzedItem) bool {
	return est.Confidence == domain.ConfidenceLow || est.Nutrients.PositiveMacroCount() < 2
}

// fallback synthesizes an editable manual-entry placeholder. Vision-path
// fallbacks carry the AI's macro estimate, the only numbers available;
// text-path fallbacks carry no macros at all.
func (s *Service) fallback(req request) domain.SelectedMealItem {
	food := domain.NormalizedFood{
		Provider:    domain.ProviderManual,
		ExternalID:  uuid.NewString(),
		DisplayName: req.query,
		ServingUnit: req.unit,
	}
	if req.estimate != nil {
		food.Macros = req.estimate.Nutrients
	}
	return domain.SelectedMealItem{
		NormalizedFood: food,
		Quantity:       req.quantity,
		Source:         domain.SourceManual,
		OriginalText:   req.raw,
	}
}
