package textnorm

import (
	"cmp"
	"slices"
	"strings"
	"unicode/utf8"
)

type translitRule struct {
	from string
	to   string
}

// translitTable applies its rules greedily, trying longer keys first at every
// position. The rule slice is never mutated after construction.
type translitTable struct {
	rules []translitRule
}

func newTranslitTable(rules ...translitRule) translitTable {
	sorted := slices.Clone(rules)
	slices.SortStableFunc(sorted, func(a, b translitRule) int {
		return cmp.Compare(utf8.RuneCountInString(b.from), utf8.RuneCountInString(a.from))
	})
	return translitTable{rules: sorted}
}

func (t translitTable) apply(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	for i := 0; i < len(s); {
		matched := false
		for _, rule := range t.rules {
			if strings.HasPrefix(s[i:], rule.from) {
				b.WriteString(rule.to)
				i += len(rule.from)
				matched = true
				break
			}
		}
		if !matched {
			_, size := utf8.DecodeRuneInString(s[i:])
			b.WriteString(s[i : i+size])
			i += size
		}
	}
	return b.String()
}

var ruToLat = newTranslitTable(
	translitRule{"щ", "shch"},
	translitRule{"ш", "sh"},
	translitRule{"ч", "ch"},
	translitRule{"ц", "ts"},
	translitRule{"ю", "yu"},
	translitRule{"я", "ya"},
	translitRule{"ж", "zh"},
	translitRule{"х", "kh"},
	translitRule{"ё", "yo"},
	translitRule{"й", "y"},
	translitRule{"а", "a"},
	translitRule{"б", "b"},
	translitRule{"в", "v"},
	translitRule{"г", "g"},
	translitRule{"д", "d"},
	translitRule{"е", "e"},
	translitRule{"з", "z"},
	translitRule{"и", "i"},
	translitRule{"к", "k"},
	translitRule{"л", "l"},
	translitRule{"м", "m"},
	translitRule{"н", "n"},
	translitRule{"о", "o"},
	translitRule{"п", "p"},
	translitRule{"р", "r"},
	translitRule{"с", "s"},
	translitRule{"т", "t"},
	translitRule{"у", "u"},
	translitRule{"ф", "f"},
	translitRule{"ы", "y"},
	translitRule{"э", "e"},
	translitRule{"ъ", ""},
	translitRule{"ь", ""},
)

var latToRu = newTranslitTable(
	translitRule{"shch", "щ"},
	translitRule{"sch", "щ"},
	translitRule{"yo", "ё"},
	translitRule{"yu", "ю"},
	translitRule{"ya", "я"},
	translitRule{"zh", "ж"},
	translitRule{"kh", "х"},
	translitRule{"ts", "ц"},
	translitRule{"ch", "ч"},
	translitRule{"sh", "ш"},
	translitRule{"ee", "ии"},
	translitRule{"a", "а"},
	translitRule{"b", "б"},
	translitRule{"c", "к"},
	translitRule{"d", "д"},
	translitRule{"e", "е"},
	translitRule{"f", "ф"},
	translitRule{"g", "г"},
	translitRule{"h", "х"},
	translitRule{"i", "и"},
	translitRule{"j", "й"},
	translitRule{"k", "к"},
	translitRule{"l", "л"},
	translitRule{"m", "м"},
	translitRule{"n", "н"},
	translitRule{"o", "о"},
	translitRule{"p", "п"},
	translitRule{"q", "к"},
	translitRule{"r", "р"},
	translitRule{"s", "с"},
	translitRule{"t", "т"},
	translitRule{"u", "у"},
	translitRule{"v", "в"},
	translitRule{"w", "в"},
	translitRule{"x", "кс"},
	translitRule{"y", "й"},
	translitRule{"z", "з"},
)

// RuToLat transliterates the compare form of s from Cyrillic to Latin.
// Soft and hard signs are dropped.
func RuToLat(s string) string {
	return ruToLat.apply(CompareForm(s))
}

// LatToRu transliterates the compare form of s from Latin to Cyrillic
func LatToRu(s string) string {
	return latToRu.apply(CompareForm(s))
}

// Variants returns the spellings of s used for matching: the compare form,
// both transliterations, and each of those with numerals rendered as Roman
// numerals. The result is deduplicated and keeps a stable order.
func Variants(s string) []string {
	base := CompareForm(s)
	if base == "" {
		return nil
	}

	scripts := []string{base, ruToLat.apply(base), latToRu.apply(base)}
	out := make([]string, 0, 2*len(scripts))
	seen := make(map[string]struct{}, 2*len(scripts))
	add := func(v string) {
		if v == "" {
			return
		}
		if _, dup := seen[v]; dup {
			return
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}

	for _, v := range scripts {
		add(v)
	}
	for _, v := range scripts {
		add(ReplaceNumeralsWithRoman(v))
	}
	return out
}
