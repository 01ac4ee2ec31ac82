package textnorm

import (
	"strings"
)

const (
	maxRomanValue  = 3999
	maxRomanLength = 8
)

var romanTable = []struct {
	value  int
	symbol string
}{
	{1000, "m"},
	{900, "cm"},
	{500, "d"},
	{400, "cd"},
	{100, "c"},
	{90, "xc"},
	{50, "l"},
	{40, "xl"},
	{10, "x"},
	{9, "ix"},
	{5, "v"},
	{4, "iv"},
	{1, "i"},
}

var romanDigits = map[byte]int{
	'i': 1,
	'v': 5,
	'x': 10,
	'l': 50,
	'c': 100,
	'd': 500,
	'm': 1000,
}

// ToRoman renders n as a lowercase Roman numeral. Values outside 1..3999
// yield an empty string.
func ToRoman(n int) string {
	if n <= 0 || n > maxRomanValue {
		return ""
	}
	var b strings.Builder
	for _, entry := range romanTable {
		for n >= entry.value {
			b.WriteString(entry.symbol)
			n -= entry.value
		}
	}
	return b.String()
}

// ParseRoman reads a Roman numeral token. Only canonical subtractive forms
// are accepted, so "iiii" or "dim" are rejected.
func ParseRoman(token string) (int, bool) {
	if token == "" || len(token) > maxRomanLength {
		return 0, false
	}
	lower := strings.ToLower(token)

	total := 0
	for i := 0; i < len(lower); i++ {
		cur, ok := romanDigits[lower[i]]
		if !ok {
			return 0, false
		}
		next := 0
		if i+1 < len(lower) {
			next = romanDigits[lower[i+1]]
		}
		if cur < next {
			total -= cur
		} else {
			total += cur
		}
	}

	if total <= 0 || ToRoman(total) != lower {
		return 0, false
	}
	return total, true
}
