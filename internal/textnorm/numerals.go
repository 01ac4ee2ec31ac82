package textnorm

import (
	"strconv"
	"strings"
)

type numberWords struct {
	units map[string]int
	teens map[string]int
	tens  map[string]int
}

var russianNumbers = numberWords{
	units: map[string]int{
		"ноль":   0,
		"нуль":   0,
		"один":   1,
		"одна":   1,
		"два":    2,
		"две":    2,
		"три":    3,
		"четыре": 4,
		"пять":   5,
		"шесть":  6,
		"семь":   7,
		"восемь": 8,
		"девять": 9,
	},
	teens: map[string]int{
		"десять":       10,
		"одиннадцать":  11,
		"двенадцать":   12,
		"тринадцать":   13,
		"четырнадцать": 14,
		"пятнадцать":   15,
		"шестнадцать":  16,
		"семнадцать":   17,
		"восемнадцать": 18,
		"девятнадцать": 19,
	},
	tens: map[string]int{
		"двадцать":    20,
		"тридцать":    30,
		"сорок":       40,
		"пятьдесят":   50,
		"шестьдесят":  60,
		"семьдесят":   70,
		"восемьдесят": 80,
		"девяносто":   90,
	},
}

var englishNumbers = numberWords{
	units: map[string]int{
		"zero":  0,
		"one":   1,
		"two":   2,
		"three": 3,
		"four":  4,
		"five":  5,
		"six":   6,
		"seven": 7,
		"eight": 8,
		"nine":  9,
	},
	teens: map[string]int{
		"ten":       10,
		"eleven":    11,
		"twelve":    12,
		"thirteen":  13,
		"fourteen":  14,
		"fifteen":   15,
		"sixteen":   16,
		"seventeen": 17,
		"eighteen":  18,
		"nineteen":  19,
	},
	tens: map[string]int{
		"twenty":  20,
		"thirty":  30,
		"forty":   40,
		"fifty":   50,
		"sixty":   60,
		"seventy": 70,
		"eighty":  80,
		"ninety":  90,
	},
}

var numberLanguages = []numberWords{russianNumbers, englishNumbers}

// ParseNumberWords reads a number phrase starting at tokens[i]: a unit, a
// teen, or a tens word optionally followed by a non-zero unit. Tokens must be
// lowercase with ё folded.
func ParseNumberWords(tokens []string, i int) (value, consumed int, ok bool) {
	if i < 0 || i >= len(tokens) {
		return 0, 0, false
	}
	word := tokens[i]
	for _, lang := range numberLanguages {
		if v, found := lang.teens[word]; found {
			return v, 1, true
		}
		if v, found := lang.tens[word]; found {
			if i+1 < len(tokens) {
				if u, unit := lang.units[tokens[i+1]]; unit && u > 0 {
					return v + u, 2, true
				}
			}
			return v, 1, true
		}
		if v, found := lang.units[word]; found {
			return v, 1, true
		}
	}
	return 0, 0, false
}

// IsDigitToken reports whether token is a run of one to four ASCII digits
func IsDigitToken(token string) bool {
	if token == "" || len(token) > 4 {
		return false
	}
	for i := 0; i < len(token); i++ {
		if token[i] < '0' || token[i] > '9' {
			return false
		}
	}
	return true
}

// numeralAt recognizes a numeral run starting at tokens[i]
func numeralAt(tokens []string, i int) (value, consumed int, ok bool) {
	token := tokens[i]
	if IsDigitToken(token) {
		v, err := strconv.Atoi(token)
		if err != nil {
			return 0, 0, false
		}
		return v, 1, true
	}
	if v, roman := ParseRoman(token); roman {
		return v, 1, true
	}
	return ParseNumberWords(tokens, i)
}

// ExtractNumerals returns the decimal values of every numeral in s, in order
// of first appearance and without duplicates
func ExtractNumerals(s string) []string {
	tokens := Tokens(s)
	seen := make(map[string]struct{})
	var markers []string

	for i := 0; i < len(tokens); i++ {
		v, n, ok := numeralAt(tokens, i)
		if !ok {
			continue
		}
		key := strconv.Itoa(v)
		if _, dup := seen[key]; !dup {
			seen[key] = struct{}{}
			markers = append(markers, key)
		}
		i += n - 1
	}
	return markers
}

// StripNumerals removes every recognized numeral run from the compare form of s
func StripNumerals(s string) string {
	tokens := Tokens(s)
	kept := make([]string, 0, len(tokens))

	for i := 0; i < len(tokens); i++ {
		if _, n, ok := numeralAt(tokens, i); ok {
			i += n - 1
			continue
		}
		kept = append(kept, tokens[i])
	}
	return strings.Join(kept, " ")
}

// ReplaceNumeralsWithRoman renders digit runs and number words of s as
// lowercase Roman numerals. Existing Roman numerals stay as they are.
func ReplaceNumeralsWithRoman(s string) string {
	tokens := Tokens(s)
	out := make([]string, 0, len(tokens))

	for i := 0; i < len(tokens); i++ {
		token := tokens[i]
		if IsDigitToken(token) {
			if v, err := strconv.Atoi(token); err == nil {
				if roman := ToRoman(v); roman != "" {
					out = append(out, roman)
					continue
				}
			}
		}
		if v, n, ok := ParseNumberWords(tokens, i); ok {
			if roman := ToRoman(v); roman != "" {
				out = append(out, roman)
				i += n - 1
				continue
			}
		}
		out = append(out, token)
	}
	return strings.Join(out, " ")
}
