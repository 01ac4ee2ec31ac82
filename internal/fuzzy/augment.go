package fuzzy

import (
	"regexp"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/benvon/smart-worklog/internal/textnorm"
)

var (
	projectLabel   = regexp.MustCompile(`(?i)(?:^|\s)(?:project|проект)\s+`)
	nextFieldLabel = regexp.MustCompile(`(?i)\s(?:task|работа|задача|start|начало|время начала|duration|длительность)(?:\s|$)`)
)

// minStemContainment is the stem length from which partial overlap counts
const minStemContainment = 3

// AugmentQuery repairs the numerals of a project query using the text it
// was extracted from. Speech transcription often lets a name's numeral drift
// out of the project field ("проект павер апп работа ... 17") or changes its
// form.
//
// Numerals found in the source's project-labeled segment are appended when
// the query carries none, and replace the query's own numerals when they
// disagree. When the query still has no numerals, numerals directly following
// a word of the query anywhere in the source are appended.
func AugmentQuery(sourceText, projectQuery string) string {
	query := strings.TrimSpace(projectQuery)
	if query == "" {
		return query
	}
	query = withSegmentNumerals(sourceText, query)
	return withEmbeddedNumerals(sourceText, query)
}

func withSegmentNumerals(sourceText, query string) string {
	segment := projectSegment(sourceText)
	if segment == "" {
		return query
	}
	sourceMarkers := textnorm.ExtractNumerals(segment)
	if len(sourceMarkers) == 0 {
		return query
	}

	queryMarkers := textnorm.ExtractNumerals(query)
	if len(queryMarkers) == 0 {
		return joinNonEmpty(query, strings.Join(sourceMarkers, " "))
	}
	for _, m := range queryMarkers {
		if slices.Contains(sourceMarkers, m) {
			return query
		}
	}

	base := textnorm.StripNumerals(query)
	if base == "" {
		return joinNonEmpty(query, strings.Join(sourceMarkers, " "))
	}
	return joinNonEmpty(base, strings.Join(sourceMarkers, " "))
}

func withEmbeddedNumerals(sourceText, query string) string {
	if len(textnorm.ExtractNumerals(query)) > 0 {
		return query
	}

	queryStems := make([]string, 0)
	for _, t := range textnorm.Tokens(query) {
		if s := stem(t); s != "" {
			queryStems = append(queryStems, s)
		}
	}
	sourceTokens := textnorm.Tokens(sourceText)
	if len(queryStems) == 0 || len(sourceTokens) == 0 {
		return query
	}

	var collected []string
	for i, token := range sourceTokens {
		s := stem(token)
		if s == "" || !matchesAnyStem(s, queryStems) {
			continue
		}
		window := sourceTokens[i+1 : min(i+3, len(sourceTokens))]
		for _, marker := range textnorm.ExtractNumerals(strings.Join(window, " ")) {
			if !slices.Contains(collected, marker) {
				collected = append(collected, marker)
			}
		}
	}

	if len(collected) == 0 {
		return query
	}
	return joinNonEmpty(query, strings.Join(collected, " "))
}

// projectSegment returns the text after the first project label up to the
// next field label
func projectSegment(sourceText string) string {
	source := textnorm.Canonicalize(sourceText)
	loc := projectLabel.FindStringIndex(source)
	if loc == nil {
		return ""
	}
	segment := strings.TrimSpace(source[loc[1]:])
	if stop := nextFieldLabel.FindStringIndex(segment); stop != nil {
		segment = strings.TrimSpace(segment[:stop[0]])
	}
	return segment
}

func matchesAnyStem(s string, stems []string) bool {
	for _, q := range stems {
		if s == q {
			return true
		}
		if utf8.RuneCountInString(s) < minStemContainment || utf8.RuneCountInString(q) < minStemContainment {
			continue
		}
		if strings.Contains(s, q) || strings.Contains(q, s) {
			return true
		}
	}
	return false
}

func stem(token string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return -1
	}, token)
}

func joinNonEmpty(a, b string) string {
	return strings.TrimSpace(a + " " + b)
}
