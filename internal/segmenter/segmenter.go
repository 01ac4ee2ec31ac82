// Package segmenter splits a free-form work-log command into its project,
// task, start and duration fields.
//
// Three strategies are tried in order: slash-delimited parts, an explicit
// label scan, and failure with a format error. Values keep their original
// case and spelling since task descriptions end up in front of users.
package segmenter

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"github.com/benvon/smart-worklog/internal/models"
	"github.com/benvon/smart-worklog/internal/textnorm"
)

// Classifier tells start times and durations apart in unlabeled parts
type Classifier interface {
	IsTime(raw string) bool
	IsDuration(raw string) bool
}

// MinSlashParts is the number of "/" separated parts the slash strategy needs
const MinSlashParts = 4

var (
	typographicQuotes = strings.NewReplacer("“", "", "”", "", "«", "", "»", "", "\"", "", "„", "")
	spokenSlash       = regexp.MustCompile(`(?i)(^|\s)(слэш|слеш|slash)(\s|$)`)
	slashSpacing      = regexp.MustCompile(`\s*/\s*`)
	trackerWord       = regexp.MustCompile(`(?i)cl(?:o|oc)kify|клокифай|клокифи`)
	russianTrigger    = regexp.MustCompile(`(?i)^\s*(?:занеси|занести|добавь|добавить)\s+в\s+\S+\s*[.:,-]?\s*`)
	englishTrigger    = regexp.MustCompile(`(?i)^\s*add\s+to\s+\S+\s*[:,-]?\s*`)
)

const valueCutset = " \t\n:.,;!?-/"

// Segmenter turns command text into a CommandCandidate
type Segmenter struct {
	classifier Classifier
}

// New creates a segmenter that classifies unlabeled parts with c
func New(c Classifier) *Segmenter {
	return &Segmenter{classifier: c}
}

// Segment extracts the four command fields from text. It returns
// models.ErrFormat when any of them cannot be found.
func (s *Segmenter) Segment(text string) (models.CommandCandidate, error) {
	source := stripTrigger(Prepare(text))
	if source == "" {
		return models.CommandCandidate{}, models.ErrFormat
	}

	if candidate, ok := s.segmentSlashes(source); ok {
		return candidate, nil
	}
	if candidate, ok := scanLabels(source); ok {
		return candidate, nil
	}
	return models.CommandCandidate{}, models.ErrFormat
}

// Prepare normalizes text without losing the punctuation segmentation relies
// on: quotes go, spoken "слэш" becomes "/", whitespace collapses and
// dictated letters are joined.
func Prepare(text string) string {
	s := norm.NFC.String(text)
	s = typographicQuotes.Replace(s)
	for spokenSlash.MatchString(s) {
		s = spokenSlash.ReplaceAllString(s, "$1/$3")
	}
	s = slashSpacing.ReplaceAllString(s, " / ")
	s = strings.Join(strings.Fields(s), " ")
	return textnorm.SquashDictatedLetters(s)
}

// stripTrigger drops the "занеси в clockify" style preamble. When a field
// label is present anywhere, everything before the first label goes, which
// also covers a trigger phrase garbled by speech recognition.
func stripTrigger(text string) string {
	if occ := findLabels(text); len(occ) > 0 {
		return strings.TrimSpace(text[occ[0].start:])
	}
	if loc := trackerWord.FindStringIndex(text); loc != nil {
		after := strings.TrimLeft(text[loc[1]:], " .,-")
		if strings.HasPrefix(after, ":") {
			return strings.TrimSpace(after[1:])
		}
	}
	text = russianTrigger.ReplaceAllString(text, "")
	text = englishTrigger.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}

func (s *Segmenter) segmentSlashes(source string) (models.CommandCandidate, bool) {
	var parts []string
	for _, p := range strings.Split(source, "/") {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) < MinSlashParts {
		return models.CommandCandidate{}, false
	}

	var fields [4]string
	var unlabeled []string
	for _, part := range parts {
		field, value, ok := labeledPart(part)
		if !ok {
			unlabeled = append(unlabeled, part)
			continue
		}
		if fields[field] == "" {
			fields[field] = value
		}
	}

	// A time written only in words, such as a bare "пятница", may as well be a
	// project name, so it takes the start slot only when no part with
	// digits reads as a time.
	remaining := make([]string, 0, len(unlabeled))
	wordTime := -1
	for _, part := range unlabeled {
		if fields[FieldStart] == "" && s.classifier.IsTime(part) {
			if !strings.ContainsFunc(part, unicode.IsDigit) {
				if wordTime < 0 {
					wordTime = len(remaining)
				}
				remaining = append(remaining, part)
				continue
			}
			fields[FieldStart] = part
			continue
		}
		if fields[FieldDuration] == "" && s.classifier.IsDuration(part) {
			fields[FieldDuration] = part
			continue
		}
		remaining = append(remaining, part)
	}
	if fields[FieldStart] == "" && wordTime >= 0 {
		fields[FieldStart] = remaining[wordTime]
		remaining = append(remaining[:wordTime], remaining[wordTime+1:]...)
	}

	for _, part := range remaining {
		switch {
		case fields[FieldProject] == "":
			fields[FieldProject] = part
		case fields[FieldTask] == "":
			fields[FieldTask] = part
		}
	}

	candidate := candidateFrom(fields)
	return candidate, candidate.Complete()
}

// labeledPart recognizes "Проект: Apollo", "task - report" or "start 10:30"
func labeledPart(part string) (Field, string, bool) {
	occ, ok := labelAt(part, 0)
	if !ok {
		return 0, "", false
	}
	rest := part[occ.end:]
	if rest == "" {
		return 0, "", false
	}
	first := rune(rest[0])
	if first != ':' && first != '-' && !unicode.IsSpace(first) {
		return 0, "", false
	}
	value := strings.Trim(rest, valueCutset)
	if value == "" {
		return 0, "", false
	}
	return occ.field, value, true
}

// scanLabels reads the text between consecutive labels. The first non-empty
// value of each field wins.
func scanLabels(source string) (models.CommandCandidate, bool) {
	occurrences := findLabels(source)
	if len(occurrences) == 0 {
		return models.CommandCandidate{}, false
	}

	var fields [4]string
	for i, occ := range occurrences {
		end := len(source)
		if i+1 < len(occurrences) {
			end = occurrences[i+1].start
		}
		value := strings.Trim(source[occ.end:end], valueCutset)
		if value == "" || fields[occ.field] != "" {
			continue
		}
		fields[occ.field] = value
	}

	candidate := candidateFrom(fields)
	return candidate, candidate.Complete()
}

func candidateFrom(fields [4]string) models.CommandCandidate {
	return models.CommandCandidate{
		ProjectQuery: fields[FieldProject],
		TaskQuery:    fields[FieldTask],
		StartRaw:     fields[FieldStart],
		DurationRaw:  fields[FieldDuration],
	}
}
