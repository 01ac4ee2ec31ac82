package textnorm

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// MojibakeBurstThreshold is the minimum number of "Р?"/"С?" bursts before a
// repair is attempted. UTF-8 Cyrillic decoded as Windows-1251 turns every
// letter into one of these pairs.
const MojibakeBurstThreshold = 6

var mojibakeBurst = regexp.MustCompile(`[РС][^\s]`)

// RepairMojibake undoes UTF-8 text that was decoded as Windows-1251. Every rune
// is mapped back to its single codepage byte and the bytes are decoded as
// UTF-8 again. When a rune has no codepage byte, or the reassembled bytes are
// not valid UTF-8, the input is returned unchanged.
func RepairMojibake(s string) string {
	if s == "" {
		return s
	}
	if len(mojibakeBurst.FindAllStringIndex(s, -1)) < MojibakeBurstThreshold {
		return s
	}

	buf := make([]byte, 0, len(s))
	for _, r := range s {
		if r < utf8.RuneSelf {
			buf = append(buf, byte(r))
			continue
		}
		b, ok := charmap.Windows1251.EncodeRune(r)
		if !ok {
			return s
		}
		buf = append(buf, b)
	}

	if !utf8.Valid(buf) {
		return s
	}
	repaired := string(buf)
	if strings.TrimSpace(repaired) == "" {
		return s
	}
	return repaired
}
