// Package temporal turns free-form start time and duration phrases into an
// absolute instant and a positive minute count.
//
// Calendar arithmetic ("today", weekdays, the hour of day) happens in the
// reference location. Results are returned in the storage location.
package temporal

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/benvon/smart-worklog/internal/models"
	"github.com/benvon/smart-worklog/internal/textnorm"
)

// SkewTolerance is how far past "now" a start may land before it is assumed
// to belong to the previous day
const SkewTolerance = 5 * time.Minute

var temporalPunctuation = regexp.MustCompile("[,;!?()\"'`«»“”]+")

// Resolver resolves start times and durations against a clock
type Resolver struct {
	reference *time.Location
	storage   *time.Location
	now       func() time.Time
}

// Option configures a Resolver
type Option func(*Resolver)

// WithClock replaces the wall clock, mostly for tests
func WithClock(now func() time.Time) Option {
	return func(r *Resolver) {
		r.now = now
	}
}

// NewResolver creates a resolver. Both locations are required.
func NewResolver(reference, storage *time.Location, opts ...Option) (*Resolver, error) {
	if reference == nil {
		return nil, errors.New("reference location is required")
	}
	if storage == nil {
		return nil, errors.New("storage location is required")
	}

	r := &Resolver{
		reference: reference,
		storage:   storage,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Reference returns the location used for calendar arithmetic
func (r *Resolver) Reference() *time.Location {
	return r.reference
}

// Storage returns the location results are expressed in
func (r *Resolver) Storage() *time.Location {
	return r.storage
}

// Now returns the current instant in the reference location
func (r *Resolver) Now() time.Time {
	return r.now().In(r.reference)
}

// ResolveStart resolves a start phrase such as "вчера пол второго",
// "2026-10-14 09:15" or "friday at 10" into an instant.
func (r *Resolver) ResolveStart(raw string) (time.Time, error) {
	now := r.Now()

	text := prepareTemporal(raw)
	if text == "" {
		return time.Time{}, startError(raw)
	}

	anchor, err := r.anchorDay(text, now)
	if err != nil {
		return time.Time{}, err
	}

	hour, minute, ok := resolveTimeOfDay(anchor.rest)
	if !ok {
		return time.Time{}, startError(raw)
	}

	day := anchor.day
	start := time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, r.reference)
	if !anchor.hasCue && start.After(now.Add(SkewTolerance)) {
		start = start.AddDate(0, 0, -1)
	}

	return start.In(r.storage), nil
}

// At builds an instant from a "2006-01-02" date and a "15:04" clock in the
// reference location
func (r *Resolver) At(date, clock string) (time.Time, error) {
	t, err := time.ParseInLocation("2006-01-02 15:04", strings.TrimSpace(date)+" "+strings.TrimSpace(clock), r.reference)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %w", models.ErrTimeParse, err)
	}
	return t.In(r.storage), nil
}

// IsTime reports whether raw reads as a start time. A weekday that lies
// ahead in the week still counts as a time expression.
func (r *Resolver) IsTime(raw string) bool {
	_, err := r.ResolveStart(raw)
	return err == nil || errors.Is(err, models.ErrFutureWeekday)
}

// IsDuration reports whether raw reads as a duration
func (r *Resolver) IsDuration(raw string) bool {
	_, err := ParseDuration(raw)
	return err == nil
}

func startError(raw string) error {
	return fmt.Errorf("%w: %q", models.ErrTimeParse, raw)
}

// prepareTemporal lowercases, folds ё and drops punctuation that never
// carries meaning in a date or time. Colons, dots and dashes survive.
func prepareTemporal(raw string) string {
	s := strings.ToLower(textnorm.FoldYo(raw))
	s = temporalPunctuation.ReplaceAllString(s, " ")
	return strings.Join(strings.Fields(s), " ")
}

// temporalTokens splits text into words with separator punctuation trimmed
func temporalTokens(text string) []string {
	fields := strings.Fields(text)
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.Trim(f, ".:-/")
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}
