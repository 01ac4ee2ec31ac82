// Package fuzzy ranks catalog names against a spoken or typed project query.
//
// Both sides are expanded into transliteration and numeral variants, and each
// catalog item scores the best bigram similarity over all variant pairs.
package fuzzy

import (
	"cmp"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/benvon/smart-worklog/internal/models"
	"github.com/benvon/smart-worklog/internal/textnorm"
)

const (
	// PrefixFloor is the minimum score when a variant starts with the query
	PrefixFloor = 0.90
	// SubstringFloor is the minimum score when a variant contains the query
	SubstringFloor = 0.78
	// MinFloorQueryLength is the compact query length the floors need
	MinFloorQueryLength = 4
)

// Dice returns the bigram Dice coefficient of a and b. Both strings are
// padded with a space on each side so even one-letter strings have bigrams.
func Dice(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1
	}

	ga, gb := bigrams(a), bigrams(b)
	counts := make(map[[2]rune]int, len(ga))
	for _, g := range ga {
		counts[g]++
	}

	shared := 0
	for _, g := range gb {
		if counts[g] > 0 {
			shared++
			counts[g]--
		}
	}
	return 2 * float64(shared) / float64(len(ga)+len(gb))
}

func bigrams(s string) [][2]rune {
	runes := []rune(" " + s + " ")
	out := make([][2]rune, 0, len(runes)-1)
	for i := 0; i+1 < len(runes); i++ {
		out = append(out, [2]rune{runes[i], runes[i+1]})
	}
	return out
}

// Rank scores every catalog item against query. The result is ordered by
// score, highest first, with ties broken by display name.
func Rank(catalog []models.Project, query string) []models.RankedCandidate {
	queryVariants := textnorm.Variants(query)
	ranked := make([]models.RankedCandidate, 0, len(catalog))

	for _, item := range catalog {
		ranked = append(ranked, models.RankedCandidate{
			ID:          item.ID,
			DisplayName: item.Name,
			Score:       bestVariantScore(textnorm.Variants(item.Name), queryVariants),
		})
	}

	slices.SortStableFunc(ranked, func(a, b models.RankedCandidate) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		if c := strings.Compare(a.DisplayName, b.DisplayName); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return ranked
}

func bestVariantScore(nameVariants, queryVariants []string) float64 {
	best := 0.0
	for _, n := range nameVariants {
		for _, q := range queryVariants {
			if score := variantScore(n, q); score > best {
				best = score
			}
		}
	}
	return best
}

func variantScore(name, query string) float64 {
	if name == query {
		return 1
	}
	score := Dice(name, query)
	if utf8.RuneCountInString(strings.ReplaceAll(query, " ", "")) < MinFloorQueryLength {
		return score
	}
	switch {
	case strings.HasPrefix(name, query):
		return max(score, PrefixFloor)
	case strings.Contains(name, query):
		return max(score, SubstringFloor)
	default:
		return score
	}
}
