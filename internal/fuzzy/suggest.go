package fuzzy

import (
	"strings"

	"github.com/antzucaro/matchr"

	"github.com/benvon/smart-worklog/internal/models"
	"github.com/benvon/smart-worklog/internal/textnorm"
)

// SuggestThreshold is the Jaro-Winkler similarity a catalog name needs to be
// offered as a "did you mean" hint
const SuggestThreshold = 0.80

// Suggest returns the catalog name that sounds closest to query once both
// are transliterated to Latin. It is used to enrich a no-match answer, so a
// weak bigram score does not rule a name out here.
func Suggest(catalog []models.Project, query string) (string, bool) {
	q := textnorm.RuToLat(query)
	if q == "" {
		return "", false
	}
	queryTokens := strings.Fields(q)

	best, bestScore := "", 0.0
	for _, item := range catalog {
		name := textnorm.RuToLat(item.Name)
		if name == "" {
			continue
		}
		score := jaroWinklerBest(queryTokens, strings.Fields(name), q, name)
		if score > bestScore || (score == bestScore && best != "" && item.Name < best) {
			best, bestScore = item.Name, score
		}
	}

	if bestScore < SuggestThreshold {
		return "", false
	}
	return best, true
}

// jaroWinklerBest compares the full strings and their space-stripped forms
func jaroWinklerBest(queryTokens, nameTokens []string, query, name string) float64 {
	score := matchr.JaroWinkler(query, name, false)
	if len(queryTokens) > 1 || len(nameTokens) > 1 {
		if s := matchr.JaroWinkler(strings.Join(queryTokens, ""), strings.Join(nameTokens, ""), false); s > score {
			score = s
		}
	}
	return score
}
