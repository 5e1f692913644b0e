// Package parse splits a freeform meal description into discrete item
// mentions using separator heuristics and a leading quantity/unit grammar.
// No external dependencies, no I/O.
package parse

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/glucolog/mealmatch/engine/domain"
)

// separatorRe splits a description into item mentions. Commas and semicolons
// are hard separators; conjunctions also split, which breaks "butter chicken
// with naan" into two items. Splitting a dish from its side beats merging
// two foods into one unmatched query.
var separatorRe = regexp.MustCompile(`(?i)\s*(?:,|;|\n|\band\b|\bwith\b|\bplus\b|&)\s*`)

// quantityRe matches a leading quantity token: "2", "2.5", "1/2", "1 1/2".
var quantityRe = regexp.MustCompile(`^(\d+\s+\d+/\d+|\d+/\d+|\d+(?:\.\d+)?)\s*`)

// numberWords maps small spelled-out quantities.
var numberWords = map[string]float64{
	"a": 1, "an": 1, "one": 1, "two": 2, "three": 3, "four": 4, "five": 5,
	"six": 6, "seven": 7, "eight": 8, "nine": 9, "ten": 10,
	"half": 0.5, "couple": 2, "dozen": 12,
}

// Parse extracts item mentions from a meal description. It returns
// domain.ErrEmptyDescription when the input trims to nothing or no mention
// survives, a signal for the caller to request clarification rather than a fault.
func Parse(text string) ([]domain.ParsedMealItem, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, domain.ErrEmptyDescription
	}

	var items []domain.ParsedMealItem
	for _, segment := range separatorRe.Split(trimmed, -1) {
		segment = strings.TrimSpace(segment)
		if segment == "" {
			continue
		}
		item := parseMention(segment)
		if item.Name == "" {
			continue
		}
		items = append(items, item)
	}

	if len(items) == 0 {
		return nil, domain.ErrEmptyDescription
	}
	return items, nil
}

// parseMention extracts quantity, unit, and name from a single mention.
func parseMention(segment string) domain.ParsedMealItem {
	item := domain.ParsedMealItem{Quantity: 1, Raw: segment}
	rest := segment

	if m := quantityRe.FindString(rest); m != "" {
		if q, ok := parseQuantity(strings.TrimSpace(m)); ok && q > 0 {
			item.Quantity = q
			rest = strings.TrimSpace(rest[len(m):])
		}
	} else {
		// Spelled-out quantity: "two eggs", "a slice of toast".
		fields := strings.SplitN(rest, " ", 2)
		if len(fields) == 2 {
			if q, ok := numberWords[strings.ToLower(fields[0])]; ok {
				item.Quantity = q
				rest = strings.TrimSpace(fields[1])
				// "half an avocado", "half a bagel"
				rest = strings.TrimPrefix(rest, "an ")
				rest = strings.TrimPrefix(rest, "a ")
			}
		}
	}

	// A unit token directly after the quantity: "2 slices toast", "1 cup rice".
	fields := strings.SplitN(rest, " ", 2)
	if len(fields) == 2 && isMeasureUnit(fields[0]) {
		item.Unit = domain.NormalizeUnit(fields[0])
		rest = strings.TrimSpace(fields[1])
		rest = strings.TrimSpace(strings.TrimPrefix(rest, "of "))
	}

	item.Name = strings.TrimSpace(rest)
	return item
}

// countUnits are the count-family tokens the parser accepts as units. Food
// nouns that happen to classify as countable ("eggs") stay part of the name.
var countUnits = map[string]bool{
	"slice": true, "slices": true, "piece": true, "pieces": true,
	"serving": true, "servings": true, "portion": true, "portions": true,
}

func isMeasureUnit(token string) bool {
	u := domain.NormalizeUnit(token)
	switch domain.UnitFamilyOf(u) {
	case domain.FamilyMass, domain.FamilyVolume, domain.FamilyServing:
		return true
	case domain.FamilyCount:
		return countUnits[u]
	}
	return false
}

// parseQuantity handles integers, decimals, and simple fractions.
func parseQuantity(s string) (float64, bool) {
	if whole, frac, ok := strings.Cut(s, " "); ok {
		w, okW := parseQuantity(whole)
		f, okF := parseQuantity(frac)
		if okW && okF {
			return w + f, true
		}
		return 0, false
	}
	if num, den, ok := strings.Cut(s, "/"); ok {
		n, errN := strconv.ParseFloat(num, 64)
		d, errD := strconv.ParseFloat(den, 64)
		if errN != nil || errD != nil || d == 0 {
			return 0, false
		}
		return n / d, true
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
