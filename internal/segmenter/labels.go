package segmenter

import (
	"unicode"
	"unicode/utf8"
)

// Field is one of the four command fields a label introduces
type Field int

const (
	FieldProject Field = iota
	FieldTask
	FieldStart
	FieldDuration
)

func (f Field) String() string {
	switch f {
	case FieldProject:
		return "project"
	case FieldTask:
		return "task"
	case FieldStart:
		return "start"
	case FieldDuration:
		return "duration"
	default:
		return "unknown"
	}
}

type label struct {
	word  string
	field Field
}

// labels is ordered longest first so "время начала" wins over "начало"
var labels = []label{
	{"время начала", FieldStart},
	{"длительность", FieldDuration},
	{"duration", FieldDuration},
	{"project", FieldProject},
	{"проект", FieldProject},
	{"работа", FieldTask},
	{"задача", FieldTask},
	{"начало", FieldStart},
	{"start", FieldStart},
	{"task", FieldTask},
}

// occurrence is a label found in text, with byte offsets
type occurrence struct {
	field Field
	start int
	end   int
}

// findLabels returns every whole-word label occurrence in text, in order
func findLabels(text string) []occurrence {
	var out []occurrence
	prev := ' '
	for i := 0; i < len(text); {
		r, size := utf8.DecodeRuneInString(text[i:])
		if !isWordRune(prev) && isWordRune(r) {
			if occ, ok := labelAt(text, i); ok {
				out = append(out, occ)
				prev, _ = utf8.DecodeLastRuneInString(text[:occ.end])
				i = occ.end
				continue
			}
		}
		prev = r
		i += size
	}
	return out
}

// labelAt matches a label starting exactly at byte offset i
func labelAt(text string, i int) (occurrence, bool) {
	for _, l := range labels {
		n, ok := hasPrefixFold(text[i:], l.word)
		if !ok {
			continue
		}
		next, _ := utf8.DecodeRuneInString(text[i+n:])
		if i+n < len(text) && isWordRune(next) {
			continue
		}
		return occurrence{field: l.field, start: i, end: i + n}, true
	}
	return occurrence{}, false
}

// hasPrefixFold reports whether s starts with prefix under Unicode case
// folding and returns the number of bytes of s it covers
func hasPrefixFold(s, prefix string) (int, bool) {
	n := 0
	for _, pr := range prefix {
		if n >= len(s) {
			return 0, false
		}
		sr, size := utf8.DecodeRuneInString(s[n:])
		if unicode.ToLower(sr) != unicode.ToLower(pr) {
			return 0, false
		}
		n += size
	}
	return n, true
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}
