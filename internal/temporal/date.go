package temporal

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/benvon/smart-worklog/internal/models"
	"github.com/benvon/smart-worklog/internal/textnorm"
)

var (
	isoDatePattern   = regexp.MustCompile(`\b(\d{4})-(\d{1,2})-(\d{1,2})\b`)
	localDatePattern = regexp.MustCompile(`\b(\d{1,2})\.(\d{1,2})\.(\d{4})\b`)
	shortDatePattern = regexp.MustCompile(`\b(\d{1,2})\.(\d{1,2})\b`)
	colonClock       = regexp.MustCompile(`\b\d{1,2}:\d{2}\b`)
)

var relativeDays = map[string]int{
	"позавчера": -2,
	"вчера":     -1,
	"yesterday": -1,
	"сегодня":   0,
	"today":     0,
}

var weekdays = map[string]time.Weekday{
	"понедельник":  time.Monday,
	"понедельника": time.Monday,
	"monday":       time.Monday,
	"вторник":      time.Tuesday,
	"вторника":     time.Tuesday,
	"tuesday":      time.Tuesday,
	"среда":        time.Wednesday,
	"среду":        time.Wednesday,
	"среды":        time.Wednesday,
	"wednesday":    time.Wednesday,
	"четверг":      time.Thursday,
	"четверга":     time.Thursday,
	"thursday":     time.Thursday,
	"пятница":      time.Friday,
	"пятницу":      time.Friday,
	"пятницы":      time.Friday,
	"friday":       time.Friday,
	"суббота":      time.Saturday,
	"субботу":      time.Saturday,
	"субботы":      time.Saturday,
	"saturday":     time.Saturday,
	"воскресенье":  time.Sunday,
	"воскресенья":  time.Sunday,
	"sunday":       time.Sunday,
}

// anchor is the calendar day a start phrase points at, plus the text left
// over for time-of-day parsing
type anchor struct {
	day    time.Time
	rest   string
	hasCue bool
}

// anchorDay finds the day a phrase refers to. An explicit date beats a
// weekday, which beats a relative day.
func (r *Resolver) anchorDay(text string, now time.Time) (anchor, error) {
	a := anchor{day: now, rest: text}

	explicit, rest, found, err := r.explicitDate(text, now)
	if err != nil {
		return anchor{}, err
	}
	a.rest = rest

	tokens := strings.Fields(rest)
	kept := make([]string, 0, len(tokens))
	offset, hasRelative := 0, false
	weekday, hasWeekday := time.Sunday, false

	for i := 0; i < len(tokens); i++ {
		word := strings.Trim(tokens[i], ".:-/")
		if word == "day" && i+2 < len(tokens) && tokens[i+1] == "before" && strings.Trim(tokens[i+2], ".:-/") == "yesterday" {
			offset, hasRelative = -2, true
			i += 2
			continue
		}
		if d, ok := relativeDays[word]; ok {
			if !hasRelative {
				offset, hasRelative = d, true
			}
			continue
		}
		if wd, ok := weekdays[word]; ok {
			if !hasWeekday {
				weekday, hasWeekday = wd, true
			}
			continue
		}
		kept = append(kept, tokens[i])
	}
	a.rest = strings.Join(kept, " ")
	a.hasCue = found || hasRelative || hasWeekday

	switch {
	case found:
		a.day = explicit
	case hasWeekday:
		today := isoWeekday(now.Weekday())
		target := isoWeekday(weekday)
		if target > today {
			return anchor{}, models.ErrFutureWeekday
		}
		a.day = now.AddDate(0, 0, target-today)
	case hasRelative:
		a.day = now.AddDate(0, 0, offset)
	}
	return a, nil
}

// explicitDate extracts an ISO or local numeric date and removes it from the
// text. A short DD.MM date is only recognized next to an HH:MM clock since
// "10.30" on its own is a time.
func (r *Resolver) explicitDate(text string, now time.Time) (time.Time, string, bool, error) {
	if loc := isoDatePattern.FindStringSubmatchIndex(text); loc != nil {
		y, m, d := atoi(text[loc[2]:loc[3]]), atoi(text[loc[4]:loc[5]]), atoi(text[loc[6]:loc[7]])
		return r.civilDate(text, loc, y, m, d)
	}
	if loc := localDatePattern.FindStringSubmatchIndex(text); loc != nil {
		d, m, y := atoi(text[loc[2]:loc[3]]), atoi(text[loc[4]:loc[5]]), atoi(text[loc[6]:loc[7]])
		return r.civilDate(text, loc, y, m, d)
	}
	if colonClock.MatchString(text) {
		if loc := shortDatePattern.FindStringSubmatchIndex(text); loc != nil {
			d, m := atoi(text[loc[2]:loc[3]]), atoi(text[loc[4]:loc[5]])
			return r.civilDate(text, loc, now.Year(), m, d)
		}
	}
	return time.Time{}, text, false, nil
}

func (r *Resolver) civilDate(text string, loc []int, y, m, d int) (time.Time, string, bool, error) {
	t := time.Date(y, time.Month(m), d, 0, 0, 0, 0, r.reference)
	if t.Year() != y || int(t.Month()) != m || t.Day() != d {
		return time.Time{}, "", false, startError(text)
	}
	rest := strings.TrimSpace(text[:loc[0]] + " " + text[loc[1]:])
	return t, rest, true, nil
}

// HasExplicitDateReference reports whether text names a past relative day or
// a weekday
func HasExplicitDateReference(text string) bool {
	tokens := textnorm.Tokens(text)
	for i, token := range tokens {
		if _, ok := weekdays[token]; ok {
			return true
		}
		switch token {
		case "вчера", "позавчера", "yesterday":
			return true
		case "day":
			if i+2 < len(tokens) && tokens[i+1] == "before" && tokens[i+2] == "yesterday" {
				return true
			}
		}
	}
	return false
}

// isoWeekday numbers weekdays Monday=1 through Sunday=7
func isoWeekday(wd time.Weekday) int {
	return (int(wd)+6)%7 + 1
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
