package temporal

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/benvon/smart-worklog/internal/models"
	"github.com/benvon/smart-worklog/internal/textnorm"
)

var (
	durationToken  = regexp.MustCompile(`\d+(?:\.\d+)?|\pL+`)
	clockLike      = regexp.MustCompile(`\b\d{1,2}[:.]\d{2}\b`)
	durationClock  = regexp.MustCompile(`\d:\d{2}`)
	negativeNumber = regexp.MustCompile(`(?:^|\s)-\s*\d`)
	decimalPattern = regexp.MustCompile(`^\d+(?:\.\d+)?$`)
)

var hourUnits = map[string]struct{}{
	"h":     {},
	"hr":    {},
	"hrs":   {},
	"hour":  {},
	"hours": {},
	"ч":     {},
	"час":   {},
	"часа":  {},
	"часов": {},
}

var minuteUnits = map[string]struct{}{
	"m":       {},
	"min":     {},
	"mins":    {},
	"minute":  {},
	"minutes": {},
	"м":       {},
	"мин":     {},
	"минута":  {},
	"минуты":  {},
	"минут":   {},
}

// ParseDuration reads a duration such as "1h 30m", "1,5 часа", "полчаса",
// "1 час 30" or a bare minute count. The result is always positive; signed
// numbers and H:MM clock readings are rejected even next to a unit.
func ParseDuration(raw string) (int, error) {
	source := strings.ToLower(textnorm.FoldYo(raw))
	source = strings.ReplaceAll(source, ",", ".")
	if negativeNumber.MatchString(source) || durationClock.MatchString(source) {
		return 0, durationError(raw)
	}
	tokens := durationTokens(source)
	if len(tokens) == 0 {
		return 0, durationError(raw)
	}

	minutes := 0.0
	matched := false
	for i := 0; i < len(tokens); i++ {
		tok := tokens[i]
		switch {
		case tok == "полчаса":
			minutes += 30
			matched = true
		case tok == "полтора" || tok == "полторы":
			minutes += 90
			matched = true
			if i+1 < len(tokens) && isUnit(hourUnits, tokens[i+1]) {
				i++
			}
		case tok == "half" && i+2 < len(tokens) && (tokens[i+1] == "an" || tokens[i+1] == "a") && isUnit(hourUnits, tokens[i+2]):
			minutes += 30
			matched = true
			i += 2
		case decimalPattern.MatchString(tok) && i+1 < len(tokens) && isUnit(hourUnits, tokens[i+1]):
			h, _ := strconv.ParseFloat(tok, 64)
			minutes += h * 60
			matched = true
			i++
			extra, next := trailingMinutes(tokens, i)
			minutes += extra
			i = next
		case textnorm.IsDigitToken(tok) && i+1 < len(tokens) && isUnit(minuteUnits, tokens[i+1]):
			m, _ := strconv.Atoi(tok)
			minutes += float64(m)
			matched = true
			i++
		case tok == "час" || tok == "hour":
			extra, next := trailingMinutes(tokens, i)
			minutes += 60 + extra
			matched = true
			i = next
		}
	}

	if !matched {
		if clockLike.MatchString(source) {
			return 0, durationError(raw)
		}
		if len(tokens) != 1 || !textnorm.IsDigitToken(tokens[0]) {
			return 0, durationError(raw)
		}
		m, _ := strconv.Atoi(tokens[0])
		minutes = float64(m)
	}

	total := int(math.Round(minutes))
	if total <= 0 {
		return 0, durationError(raw)
	}
	return total, nil
}

// FormatMinutes renders a minute count as "1h 30m", "2h" or "45m"
func FormatMinutes(minutes int) string {
	h, m := minutes/60, minutes%60
	switch {
	case h > 0 && m > 0:
		return fmt.Sprintf("%dh %dm", h, m)
	case h > 0:
		return fmt.Sprintf("%dh", h)
	default:
		return fmt.Sprintf("%dm", m)
	}
}

// durationTokens splits digits from letters ("1h30m" -> 1 h 30 m) and
// rewrites number words as digits
func durationTokens(source string) []string {
	raw := durationToken.FindAllString(source, -1)
	out := make([]string, 0, len(raw))
	for i := 0; i < len(raw); i++ {
		if v, n, ok := textnorm.ParseNumberWords(raw, i); ok {
			out = append(out, strconv.Itoa(v))
			i += n - 1
			continue
		}
		out = append(out, raw[i])
	}
	return out
}

// trailingMinutes reads "1 час 30": a bare number right after the hour unit
// at tokens[i] counts as minutes. It returns the minutes and the index of the
// last consumed token.
func trailingMinutes(tokens []string, i int) (float64, int) {
	if i+1 >= len(tokens) || !textnorm.IsDigitToken(tokens[i+1]) {
		return 0, i
	}
	if i+2 < len(tokens) && isUnit(hourUnits, tokens[i+2]) {
		return 0, i
	}
	m, _ := strconv.Atoi(tokens[i+1])
	i++
	if i+1 < len(tokens) && isUnit(minuteUnits, tokens[i+1]) {
		i++
	}
	return float64(m), i
}

func isUnit(units map[string]struct{}, token string) bool {
	_, ok := units[token]
	return ok
}

func durationError(raw string) error {
	return fmt.Errorf("%w: %q", models.ErrDurationParse, raw)
}
