// Package score ranks catalog candidates against a food query. Text scoring
// is token-overlap based with a brevity factor; macro scoring measures
// normalized distance between an AI estimate and a candidate's macros.
package score

import (
	"regexp"
	"sort"
	"strings"

	"github.com/glucolog/mealmatch/engine/domain"
)

// MinTextScore is the acceptance floor applied by the decision policy.
// Hand-tuned; not empirically validated.
const MinTextScore = 55.0

var nonWordRe = regexp.MustCompile(`[^a-z0-9]+`)

// Score rates a candidate's display name against the query, 0..100.
// An exact normalized match scores 100. Otherwise the score rewards coverage
// (fraction of query tokens present in the name) scaled by a brevity factor
// that penalizes names padded with words the query never asked for.
func Score(candidate domain.NormalizedFood, query string) float64 {
	qNorm := normalize(query)
	cNorm := normalize(candidate.DisplayName)
	if qNorm == "" || cNorm == "" {
		return 0
	}
	if qNorm == cNorm {
		return 100
	}

	qTokens := Tokenize(query)
	cTokens := Tokenize(candidate.DisplayName)
	if len(qTokens) == 0 || len(cTokens) == 0 {
		return 0
	}

	cSet := make(map[string]bool, len(cTokens))
	for _, t := range cTokens {
		cSet[t] = true
	}

	matched := 0
	for _, t := range qTokens {
		if cSet[t] {
			matched++
		}
	}
	if matched == 0 {
		return 0
	}

	coverage := float64(matched) / float64(len(qTokens))
	brevity := float64(len(qTokens)) / float64(len(cTokens))
	if brevity > 1 {
		brevity = 1
	}

	return coverage * (70 + 30*brevity)
}

// Rank scores all candidates against the query and returns them sorted by
// score descending. The sort is stable, so ties keep catalog order and the
// ordering is deterministic for a fixed input.
func Rank(candidates []domain.NormalizedFood, query string) []domain.ScoredCandidate {
	scored := make([]domain.ScoredCandidate, len(candidates))
	for i, c := range candidates {
		scored[i] = domain.ScoredCandidate{Food: c, TextScore: Score(c, query)}
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].TextScore > scored[j].TextScore
	})
	return scored
}

// Tokenize lowercases, strips punctuation, splits into words, and singularizes
// trailing plurals so "eggs" meets "Egg, large".
func Tokenize(s string) []string {
	cleaned := nonWordRe.ReplaceAllString(strings.ToLower(s), " ")
	words := strings.Fields(cleaned)
	tokens := make([]string, 0, len(words))
	for _, w := range words {
		tokens = append(tokens, singular(w))
	}
	return tokens
}

// singular trims a plural suffix from tokens long enough that doing so is
// safe. "eggs" → "egg", "slices" → "slice"; "rice" and "oz" pass through.
// "-ie" nouns reduce to the same "-y" form as their "-ies" plural, so
// "cookies" and "cookie" both become "cooky" and still token-match. The
// reduced form never leaves the scorer.
func singular(w string) string {
	switch {
	case len(w) > 4 && strings.HasSuffix(w, "ies"):
		return w[:len(w)-3] + "y"
	case len(w) > 4 && strings.HasSuffix(w, "ie"):
		return w[:len(w)-2] + "y"
	case len(w) > 4 && (strings.HasSuffix(w, "ches") || strings.HasSuffix(w, "shes") ||
		strings.HasSuffix(w, "xes") || strings.HasSuffix(w, "sses") || strings.HasSuffix(w, "zes")):
		return w[:len(w)-2]
	case len(w) > 3 && strings.HasSuffix(w, "s") && !strings.HasSuffix(w, "ss"):
		return w[:len(w)-1]
	}
	return w
}

func normalize(s string) string {
	return strings.Join(Tokenize(s), " ")
}
