package score

import (
	"math"

	"github.com/glucolog/mealmatch/engine/domain"
)

// TopKMacro bounds how many text-ranked candidates the macro-distance pass
// considers. Hand-tuned cutoff.
const TopKMacro = 6

// MacroDistance computes the normalized average relative error between an AI
// macro estimate and a candidate's macros over {calories, carbs, protein,
// fat}. A pair is comparable when the estimate reports a positive value and
// the candidate reports the macro at all. Returns nil when no pair was
// comparable: the caller cannot judge, so it must not pretend to.
// Smaller is better.
func MacroDistance(estimate, candidate domain.Nutrients) *float64 {
	pairs := [][2]*float64{
		{estimate.Calories, candidate.Calories},
		{estimate.Carbs, candidate.Carbs},
		{estimate.Protein, candidate.Protein},
		{estimate.Fat, candidate.Fat},
	}

	sum := 0.0
	n := 0
	for _, p := range pairs {
		est, cand := p[0], p[1]
		if est == nil || *est <= 0 || cand == nil {
			continue
		}
		sum += math.Abs(*cand-*est) / math.Max(*est, 1)
		n++
	}
	if n == 0 {
		return nil
	}
	d := sum / float64(n)
	return &d
}

// BestByMacro picks the candidate with the smallest defined macro distance
// among the top-K text-ranked candidates that clear the text floor. Returns
// the candidate and its distance, or nil when no candidate is comparable.
func BestByMacro(ranked []domain.ScoredCandidate, estimate domain.Nutrients) (*domain.ScoredCandidate, *float64) {
	var best *domain.ScoredCandidate
	var bestDist *float64

	limit := len(ranked)
	if limit > TopKMacro {
		limit = TopKMacro
	}
	for i := 0; i < limit; i++ {
		c := ranked[i]
		if c.TextScore < MinTextScore {
			continue
		}
		d := MacroDistance(estimate, c.Food.Macros)
		if d == nil {
			continue
		}
		if bestDist == nil || *d < *bestDist {
			cc := c
			best = &cc
			bestDist = d
		}
	}
	return best, bestDist
}
