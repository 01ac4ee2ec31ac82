package temporal

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/benvon/smart-worklog/internal/textnorm"
)

var explicitClock = regexp.MustCompile(`\b(\d{1,2})[:.](\d{2})\b`)

type meridiem int

const (
	noMeridiem meridiem = iota
	morning
	afternoon
	night
)

var meridiemWords = map[string]meridiem{
	"утра":      morning,
	"utra":      morning,
	"am":        morning,
	"morning":   morning,
	"дня":       afternoon,
	"вечера":    afternoon,
	"dnya":      afternoon,
	"vechera":   afternoon,
	"pm":        afternoon,
	"afternoon": afternoon,
	"evening":   afternoon,
	"ночи":      night,
	"nochi":     night,
	"night":     night,
}

var timeNoiseWords = map[string]struct{}{
	"начало":   {},
	"время":    {},
	"start":    {},
	"at":       {},
	"в":        {},
	"во":       {},
	"ровно":    {},
	"около":    {},
	"примерно": {},
	"about":    {},
	"around":   {},
	"минута":   {},
	"минуты":   {},
	"минут":    {},
	"мин":      {},
	"m":        {},
	"min":      {},
	"mins":     {},
	"minutes":  {},
}

var hourWords = map[string]struct{}{
	"час":    {},
	"часа":   {},
	"часов":  {},
	"ч":      {},
	"h":      {},
	"hour":   {},
	"hours":  {},
	"oclock": {},
}

// halfHours maps the genitive ordinal in "пол второго" to the next hour
var halfHours = map[string]int{
	"первого":       1,
	"второго":       2,
	"третьего":      3,
	"четвертого":    4,
	"пятого":        5,
	"шестого":       6,
	"седьмого":      7,
	"восьмого":      8,
	"девятого":      9,
	"десятого":      10,
	"одиннадцатого": 11,
	"двенадцатого":  12,
}

// resolveTimeOfDay reads the hour and minute from what is left of a start
// phrase once its date cues are removed. An explicit HH:MM clock is taken
// as written; natural phrases get the working-day afternoon heuristic.
func resolveTimeOfDay(text string) (hour, minute int, ok bool) {
	tokens := temporalTokens(text)
	mer, tokens := extractMeridiem(tokens)

	if m := explicitClock.FindStringSubmatch(text); m != nil {
		hour, _ = strconv.Atoi(m[1])
		minute, _ = strconv.Atoi(m[2])
		if mer != noMeridiem {
			hour = applyMeridiem(hour, mer)
		}
		return hour, minute, validClock(hour, minute)
	}

	hour, minute, ok = parseNaturalTime(tokens)
	if !ok {
		return 0, 0, false
	}
	hour = adjustHour(hour, mer)
	return hour, minute, validClock(hour, minute)
}

func extractMeridiem(tokens []string) (meridiem, []string) {
	mer := noMeridiem
	kept := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if m, ok := meridiemWords[t]; ok {
			if mer == noMeridiem {
				mer = m
			}
			continue
		}
		kept = append(kept, t)
	}
	return mer, kept
}

// parseNaturalTime is strict: every remaining token has to be understood,
// otherwise "Apollo 17" would read as 17:00.
func parseNaturalTime(tokens []string) (hour, minute int, ok bool) {
	tokens = expandCompactHalf(dropWords(tokens, timeNoiseWords))
	if len(tokens) == 0 {
		return 0, 0, false
	}

	if len(tokens) == 2 && tokens[0] == "пол" {
		next, found := halfHours[tokens[1]]
		if !found {
			return 0, 0, false
		}
		if next == 1 {
			return 12, 30, true
		}
		return next - 1, 30, true
	}

	if len(tokens) == 3 && tokens[0] == "half" && tokens[1] == "past" {
		h, n, found := readHour(tokens[2:])
		if !found || n != 1 {
			return 0, 0, false
		}
		return h, 30, true
	}

	if tokens[0] == "час" {
		minute, ok = readMinute(dropWords(tokens[1:], hourWords))
		return 1, minute, ok
	}

	tokens = dropWords(tokens, hourWords)
	hour, n, found := readHour(tokens)
	if !found {
		return 0, 0, false
	}
	minute, ok = readMinute(tokens[n:])
	return hour, minute, ok
}

// expandCompactHalf splits "полвторого" into "пол второго"
func expandCompactHalf(tokens []string) []string {
	if len(tokens) != 1 || !strings.HasPrefix(tokens[0], "пол") {
		return tokens
	}
	tail := strings.TrimPrefix(tokens[0], "пол")
	if _, ok := halfHours[tail]; !ok {
		return tokens
	}
	return []string{"пол", tail}
}

func readHour(tokens []string) (hour, consumed int, ok bool) {
	if len(tokens) == 0 {
		return 0, 0, false
	}
	if isClockDigits(tokens[0]) {
		h, _ := strconv.Atoi(tokens[0])
		return h, 1, h <= 23
	}
	h, n, found := textnorm.ParseNumberWords(tokens, 0)
	if !found || h > 23 {
		return 0, 0, false
	}
	return h, n, true
}

// readMinute accepts nothing, one token, or two summed number words
func readMinute(tokens []string) (int, bool) {
	switch len(tokens) {
	case 0:
		return 0, true
	case 1:
		if isClockDigits(tokens[0]) {
			m, _ := strconv.Atoi(tokens[0])
			return m, m <= 59
		}
		m, ok := wordValue(tokens[0])
		return m, ok && m <= 59
	case 2:
		first, ok1 := wordValue(tokens[0])
		second, ok2 := wordValue(tokens[1])
		sum := first + second
		return sum, ok1 && ok2 && sum <= 59
	default:
		return 0, false
	}
}

func wordValue(token string) (int, bool) {
	v, _, ok := textnorm.ParseNumberWords([]string{token}, 0)
	return v, ok
}

func isClockDigits(token string) bool {
	return len(token) <= 2 && textnorm.IsDigitToken(token)
}

func dropWords(tokens []string, words map[string]struct{}) []string {
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if _, drop := words[t]; !drop {
			out = append(out, t)
		}
	}
	return out
}

func applyMeridiem(hour int, mer meridiem) int {
	switch mer {
	case morning:
		if hour == 12 {
			return 0
		}
	case afternoon:
		if hour < 12 {
			return hour + 12
		}
	case night:
		if hour == 12 {
			return 0
		}
		if hour >= 9 && hour < 12 {
			return hour + 12
		}
	}
	return hour
}

// adjustHour honors an explicit meridiem. Without one, hours 1 through 7
// are taken as afternoon since work rarely starts before eight.
func adjustHour(hour int, mer meridiem) int {
	if mer != noMeridiem {
		return applyMeridiem(hour, mer)
	}
	if hour >= 1 && hour <= 7 {
		return hour + 12
	}
	return hour
}

func validClock(hour, minute int) bool {
	return hour >= 0 && hour <= 23 && minute >= 0 && minute <= 59
}
