package ai

import (
	"context"
	"time"
)

// CommandExtractor turns free text a rule parser could not split into the
// fields of a work-log command. Results are untrusted until validated.
type CommandExtractor interface {
	// ExtractCommand extracts command fields from text. now anchors
	// relative dates and carries the reference timezone.
	ExtractCommand(ctx context.Context, text string, now time.Time) (*Extraction, error)
}

// Extraction is the raw command shape a model answers with
type Extraction struct {
	Project         string `json:"project" validate:"required,notgeneric"`
	Task            string `json:"task" validate:"required,notgeneric"`
	Date            string `json:"date" validate:"required,datetime=2006-01-02"`
	Time            string `json:"time" validate:"required,hhmm"`
	DurationMinutes int    `json:"duration_minutes" validate:"gt=0,lte=1440"`
}

// ExtractorFunc adapts a function to CommandExtractor
type ExtractorFunc func(ctx context.Context, text string, now time.Time) (*Extraction, error)

// ExtractCommand calls f
func (f ExtractorFunc) ExtractCommand(ctx context.Context, text string, now time.Time) (*Extraction, error) {
	return f(ctx, text, now)
}
