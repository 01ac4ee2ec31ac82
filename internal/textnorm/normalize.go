// Package textnorm canonicalizes free-form command text typed or transcribed in
// Russian, English or translit. It repairs cp1251 mojibake, reads numerals in
// every form a project name may carry them (digits, Roman numerals, number
// words), and produces transliteration variants for cross-script matching.
//
// All functions are pure and safe for concurrent use.
package textnorm

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

var (
	punctuationRun = regexp.MustCompile("[.,;:!?\"'`()\\[\\]{}<>|\\\\/]+")
	yoFolder       = strings.NewReplacer("ё", "е", "Ё", "Е")
)

// Canonicalize composes the text to NFC, folds ё to е, replaces punctuation
// runs with a single space and collapses whitespace. Case is preserved.
func Canonicalize(s string) string {
	if s == "" {
		return ""
	}
	s = norm.NFC.String(s)
	s = yoFolder.Replace(s)
	s = punctuationRun.ReplaceAllString(s, " ")
	return strings.Join(strings.Fields(s), " ")
}

// FoldYo replaces ё with е without touching anything else
func FoldYo(s string) string {
	return yoFolder.Replace(s)
}

// CompareForm is the lowercase canonical form used for all matching
func CompareForm(s string) string {
	return strings.ToLower(Canonicalize(s))
}

// Tokens splits the compare form of s into words
func Tokens(s string) []string {
	return strings.Fields(CompareForm(s))
}

// SquashDictatedLetters joins runs of three or more single-letter tokens into
// one upper-case word. Speech transcription renders spelled-out names such as
// "a p i" this way.
func SquashDictatedLetters(s string) string {
	tokens := strings.Fields(s)
	if len(tokens) < 3 {
		return strings.Join(tokens, " ")
	}

	out := make([]string, 0, len(tokens))
	for i := 0; i < len(tokens); {
		j := i
		for j < len(tokens) && isSingleLetter(tokens[j]) {
			j++
		}
		if j-i >= 3 {
			out = append(out, strings.ToUpper(strings.Join(tokens[i:j], "")))
			i = j
			continue
		}
		if j == i {
			j = i + 1
		}
		out = append(out, tokens[i:j]...)
		i = j
	}
	return strings.Join(out, " ")
}

func isSingleLetter(token string) bool {
	r, size := utf8.DecodeRuneInString(token)
	return size == len(token) && unicode.IsLetter(r)
}
