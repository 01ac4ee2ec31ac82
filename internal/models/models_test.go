package models

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCommandErrorIs(t *testing.T) {
	t.Parallel()

	err := fmt.Errorf("rank: %w", NewCommandError(KindNoMatch, "nothing like Zeppelin", nil))
	assert.ErrorIs(t, err, ErrNoMatch)
	assert.NotErrorIs(t, err, ErrAmbiguousMatch)
	assert.Equal(t, KindNoMatch, KindOf(err))
	assert.Equal(t, ErrorKind(""), KindOf(errors.New("plain")))

	cause := errors.New("bad clock")
	wrapped := NewCommandError(KindTimeParse, "start time not recognized", cause)
	assert.ErrorIs(t, wrapped, cause)
	assert.Equal(t, "time_parse: start time not recognized: bad clock", wrapped.Error())
}

func TestNewParsedCommand(t *testing.T) {
	t.Parallel()

	start := time.Date(2026, time.October, 15, 7, 30, 0, 0, time.UTC)
	cmd := NewParsedCommand("Apollo", "отчёт", start, 90, ParseSourceRules)
	assert.Equal(t, start.Add(90*time.Minute), cmd.End)
	assert.Equal(t, ParseSourceRules, cmd.Source)
}

func TestPendingSelectionExpired(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, time.October, 15, 12, 0, 0, 0, time.UTC)
	sel := &PendingSelection{ExpiresAt: now}
	assert.False(t, sel.Expired(now))
	assert.True(t, sel.Expired(now.Add(time.Nanosecond)))

	c := RankedCandidate{ID: "p17", DisplayName: "Apollo 17", Score: 0.9}
	assert.Equal(t, Project{ID: "p17", Name: "Apollo 17"}, c.Project())
}
