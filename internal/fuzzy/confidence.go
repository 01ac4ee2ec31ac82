package fuzzy

import (
	"fmt"

	"github.com/benvon/smart-worklog/internal/models"
)

// Confidence classifies a ranking
type Confidence string

const (
	ConfidenceNoMatch Confidence = "no_match"
	ConfidenceLow     Confidence = "low"
	ConfidenceHigh    Confidence = "high"
)

// Thresholds drive confidence classification
type Thresholds struct {
	// LowConfidence is the top score below which a ranking needs a choice
	LowConfidence float64 `json:"low_confidence"`
	// MinGap is the lead the top item needs over the runner-up
	MinGap float64 `json:"min_gap"`
	// NoMatch is the top score below which nothing matched at all
	NoMatch float64 `json:"no_match"`
}

// DefaultThresholds are tuned for project catalogs of a few dozen names
var DefaultThresholds = Thresholds{
	LowConfidence: 0.56,
	MinGap:        0.08,
	NoMatch:       0.35,
}

// Validate checks the thresholds are ordered and in range
func (t Thresholds) Validate() error {
	if t.NoMatch <= 0 || t.NoMatch > 1 {
		return fmt.Errorf("no-match threshold must be in (0, 1], got %v", t.NoMatch)
	}
	if t.LowConfidence <= 0 || t.LowConfidence > 1 {
		return fmt.Errorf("low-confidence threshold must be in (0, 1], got %v", t.LowConfidence)
	}
	if t.NoMatch > t.LowConfidence {
		return fmt.Errorf("no-match threshold %v exceeds low-confidence threshold %v", t.NoMatch, t.LowConfidence)
	}
	if t.MinGap < 0 || t.MinGap >= 1 {
		return fmt.Errorf("minimum gap must be in [0, 1), got %v", t.MinGap)
	}
	return nil
}

// Ranker ranks catalogs and classifies the result with fixed thresholds
type Ranker struct {
	thresholds Thresholds
}

// NewRanker validates t and returns a ranker using it
func NewRanker(t Thresholds) (*Ranker, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return &Ranker{thresholds: t}, nil
}

// Thresholds returns the ranker's thresholds
func (r *Ranker) Thresholds() Thresholds {
	return r.thresholds
}

// Rank scores catalog against query
func (r *Ranker) Rank(catalog []models.Project, query string) []models.RankedCandidate {
	return Rank(catalog, query)
}

// IsLowConfidence reports whether the top item is too weak or too close to
// the runner-up to accept without asking. An empty ranking is low confidence.
func (r *Ranker) IsLowConfidence(ranked []models.RankedCandidate) bool {
	if len(ranked) == 0 {
		return true
	}
	top := ranked[0].Score
	if top < r.thresholds.LowConfidence {
		return true
	}
	if len(ranked) > 1 {
		second := ranked[1].Score
		if second > 0 && top-second < r.thresholds.MinGap {
			return true
		}
	}
	return false
}

// Classify buckets a ranking into no-match, low or high confidence
func (r *Ranker) Classify(ranked []models.RankedCandidate) Confidence {
	if len(ranked) == 0 || ranked[0].Score < r.thresholds.NoMatch {
		return ConfidenceNoMatch
	}
	if r.IsLowConfidence(ranked) {
		return ConfidenceLow
	}
	return ConfidenceHigh
}

var defaultRanker = &Ranker{thresholds: DefaultThresholds}

// IsLowConfidence applies DefaultThresholds
func IsLowConfidence(ranked []models.RankedCandidate) bool {
	return defaultRanker.IsLowConfidence(ranked)
}
