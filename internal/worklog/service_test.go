package worklog

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/text/encoding/charmap"

	"github.com/benvon/smart-worklog/internal/catalog"
	"github.com/benvon/smart-worklog/internal/fuzzy"
	"github.com/benvon/smart-worklog/internal/models"
	"github.com/benvon/smart-worklog/internal/parser"
	"github.com/benvon/smart-worklog/internal/selection"
	"github.com/benvon/smart-worklog/internal/services/ai"
	"github.com/benvon/smart-worklog/internal/temporal"
)

var moscow = time.FixedZone("MSK", 3*60*60)

// fixedNow is a Thursday
var fixedNow = time.Date(2026, time.October, 15, 12, 0, 0, 0, moscow)

const (
	ambiguousText = "Проект: apolo / Задача: отчёт / Начало: 10:30 / Длительность: 1h 30m"
	geminiText    = "Проект: Gemini / Задача: ревью / Начало: 10:30 / Длительность: 1h"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func defaultCatalog() []models.Project {
	return []models.Project{
		{ID: "p17", Name: "Apollo 17"},
		{ID: "p18", Name: "Apollo 18"},
		{ID: "pg", Name: "Gemini"},
	}
}

func newTestService(t *testing.T, opts selection.Options) (*Service, *testClock) {
	t.Helper()

	resolver, err := temporal.NewResolver(moscow, time.UTC, temporal.WithClock(func() time.Time { return fixedNow }))
	require.NoError(t, err)
	p := parser.New([]parser.Strategy{parser.NewRuleStrategy(resolver)})

	ranker, err := fuzzy.NewRanker(fuzzy.DefaultThresholds)
	require.NoError(t, err)

	clock := &testClock{now: fixedNow}
	store := selection.NewMemoryStore(clock.Now)
	machine, err := selection.NewMachine(store, opts, zap.NewNop(), selection.WithClock(clock.Now))
	require.NoError(t, err)

	svc, err := NewService(p, ranker, machine, catalog.NewStatic(defaultCatalog()), zap.NewNop())
	require.NoError(t, err)
	return svc, clock
}

// garble renders text the way a cp1251 client shows UTF-8 bytes
func garble(t *testing.T, text string) string {
	t.Helper()
	garbled, err := charmap.Windows1251.NewDecoder().String(text)
	require.NoError(t, err)
	require.NotEqual(t, text, garbled)
	return garbled
}

func newFallbackService(t *testing.T, extractor ai.CommandExtractor) *Service {
	t.Helper()

	resolver, err := temporal.NewResolver(moscow, time.UTC, temporal.WithClock(func() time.Time { return fixedNow }))
	require.NoError(t, err)
	p := parser.New([]parser.Strategy{
		parser.NewRuleStrategy(resolver),
		parser.NewFallbackStrategy(extractor, resolver, nil),
	})

	ranker, err := fuzzy.NewRanker(fuzzy.DefaultThresholds)
	require.NoError(t, err)
	machine, err := selection.NewMachine(selection.NewMemoryStore(nil), selection.DefaultOptions(), nil)
	require.NoError(t, err)

	svc, err := NewService(p, ranker, machine, nil, nil)
	require.NoError(t, err)
	return svc
}

func TestSubmit(t *testing.T) {
	t.Parallel()

	t.Run("high confidence resolves", func(t *testing.T) {
		t.Parallel()
		svc, _ := newTestService(t, selection.DefaultOptions())

		out, err := svc.Submit(context.Background(), Submission{OwnerID: "u1", Text: geminiText, Source: SourceTyped})
		require.NoError(t, err)
		assert.Equal(t, StatusResolved, out.Status)
		require.NotNil(t, out.Project)
		assert.Equal(t, "pg", out.Project.ID)
		assert.Equal(t, 60, out.Command.DurationMinutes)
		assert.Nil(t, out.Selection)
	})

	t.Run("ambiguous opens a selection", func(t *testing.T) {
		t.Parallel()
		svc, _ := newTestService(t, selection.DefaultOptions())

		out, err := svc.Submit(context.Background(), Submission{OwnerID: "u1", Text: ambiguousText})
		require.NoError(t, err)
		assert.Equal(t, StatusPending, out.Status)
		assert.Nil(t, out.Project)
		require.NotNil(t, out.Selection)
		assert.Equal(t, "u1", out.Selection.OwnerID)
		require.Len(t, out.Selection.Candidates, 3)
		assert.Equal(t, "Apollo 17", out.Selection.Candidates[0].DisplayName)
		assert.Equal(t, "Apollo 18", out.Selection.Candidates[1].DisplayName)
		assert.Equal(t, 90, out.Selection.Command.DurationMinutes)
	})

	t.Run("ambiguous without interactive selection", func(t *testing.T) {
		t.Parallel()
		opts := selection.DefaultOptions()
		opts.Interactive = false
		svc, _ := newTestService(t, opts)

		_, err := svc.Submit(context.Background(), Submission{OwnerID: "u1", Text: ambiguousText})
		require.ErrorIs(t, err, models.ErrAmbiguousMatch)

		var ce *models.CommandError
		require.True(t, errors.As(err, &ce))
		require.Len(t, ce.Choices, 3)
		assert.Equal(t, "Apollo 17", ce.Choices[0].DisplayName)
	})

	t.Run("single weak candidate resolves", func(t *testing.T) {
		t.Parallel()
		svc, _ := newTestService(t, selection.DefaultOptions())

		out, err := svc.Submit(context.Background(), Submission{
			OwnerID: "u1",
			Text:    ambiguousText,
			Catalog: []models.Project{{ID: "p17", Name: "Apollo 17"}},
		})
		require.NoError(t, err)
		assert.Equal(t, StatusResolved, out.Status)
		assert.Equal(t, "p17", out.Project.ID)
	})

	t.Run("no match", func(t *testing.T) {
		t.Parallel()
		svc, _ := newTestService(t, selection.DefaultOptions())

		_, err := svc.Submit(context.Background(), Submission{
			OwnerID: "u1",
			Text:    "Проект: Zeppelin / Задача: ревью / Начало: 10:30 / Длительность: 1h",
		})
		assert.ErrorIs(t, err, models.ErrNoMatch)
	})

	t.Run("empty catalog is no match", func(t *testing.T) {
		t.Parallel()
		resolver, err := temporal.NewResolver(moscow, time.UTC, temporal.WithClock(func() time.Time { return fixedNow }))
		require.NoError(t, err)
		ranker, err := fuzzy.NewRanker(fuzzy.DefaultThresholds)
		require.NoError(t, err)
		machine, err := selection.NewMachine(selection.NewMemoryStore(nil), selection.DefaultOptions(), nil)
		require.NoError(t, err)
		svc, err := NewService(parser.New([]parser.Strategy{parser.NewRuleStrategy(resolver)}), ranker, machine, nil, nil)
		require.NoError(t, err)

		_, err = svc.Submit(context.Background(), Submission{OwnerID: "u1", Text: geminiText})
		assert.ErrorIs(t, err, models.ErrNoMatch)
	})

	t.Run("typed chatter is rejected", func(t *testing.T) {
		t.Parallel()
		svc, _ := newTestService(t, selection.DefaultOptions())

		_, err := svc.Submit(context.Background(), Submission{OwnerID: "u1", Text: "привет, как дела?", Source: SourceTyped})
		require.ErrorIs(t, err, models.ErrFormat)

		var ce *models.CommandError
		require.True(t, errors.As(err, &ce))
		assert.Equal(t, parser.UsageMessage, ce.Message)
	})

	t.Run("voice skips the gate", func(t *testing.T) {
		t.Parallel()
		svc, _ := newTestService(t, selection.DefaultOptions())

		_, err := svc.Submit(context.Background(), Submission{OwnerID: "u1", Text: "привет, как дела?", Source: SourceVoice})
		require.ErrorIs(t, err, models.ErrFormat)

		var ce *models.CommandError
		require.True(t, errors.As(err, &ce))
		assert.NotEqual(t, parser.UsageMessage, ce.Message)
	})

	t.Run("future weekday", func(t *testing.T) {
		t.Parallel()
		svc, _ := newTestService(t, selection.DefaultOptions())

		_, err := svc.Submit(context.Background(), Submission{
			OwnerID: "u1",
			Text:    "Проект: Gemini / Задача: ревью / Начало: пятница 10:30 / Длительность: 1h",
		})
		assert.ErrorIs(t, err, models.ErrFutureWeekday)
	})

	t.Run("garbled report request", func(t *testing.T) {
		t.Parallel()
		svc, _ := newTestService(t, selection.DefaultOptions())

		out, err := svc.Submit(context.Background(), Submission{OwnerID: "u1", Text: garble(t, "Пришли отчёт")})
		require.NoError(t, err)
		assert.Equal(t, StatusReport, out.Status)
	})

	t.Run("garbled text keeps project numerals", func(t *testing.T) {
		t.Parallel()
		const dictated = "занеси в clockify проект павер апп 17 работа баги"

		for name, text := range map[string]string{"clean": dictated, "garbled": garble(t, dictated)} {
			svc := newFallbackService(t, ai.ExtractorFunc(func(context.Context, string, time.Time) (*ai.Extraction, error) {
				return &ai.Extraction{Project: "павер апп", Task: "баги", Date: "2026-10-15", Time: "10:00", DurationMinutes: 45}, nil
			}))

			out, err := svc.Submit(context.Background(), Submission{
				OwnerID: "u1",
				Text:    text,
				Source:  SourceVoice,
				Catalog: []models.Project{{ID: "pa17", Name: "Павер апп 17"}, {ID: "pg", Name: "Gemini"}},
			})
			require.NoError(t, err, name)
			assert.Equal(t, "павер апп 17", out.Command.ProjectQuery, name)
			assert.Equal(t, "pa17", out.Project.ID, name)
		}
	})

	t.Run("report request", func(t *testing.T) {
		t.Parallel()
		svc, _ := newTestService(t, selection.DefaultOptions())

		out, err := svc.Submit(context.Background(), Submission{OwnerID: "u1", Text: "Пришли отчёт"})
		require.NoError(t, err)
		assert.Equal(t, StatusReport, out.Status)
	})
}

func TestHandleCallback(t *testing.T) {
	t.Parallel()

	submit := func(t *testing.T, svc *Service) *models.PendingSelection {
		t.Helper()
		out, err := svc.Submit(context.Background(), Submission{OwnerID: "u1", Text: ambiguousText})
		require.NoError(t, err)
		require.Equal(t, StatusPending, out.Status)
		return out.Selection
	}

	t.Run("choice resolves", func(t *testing.T) {
		t.Parallel()
		svc, _ := newTestService(t, selection.DefaultOptions())
		sel := submit(t, svc)

		out, err := svc.HandleCallback(context.Background(), "u1", selection.EncodeChoice(sel.ID, 1))
		require.NoError(t, err)
		assert.Equal(t, StatusResolved, out.Status)
		assert.Equal(t, "p18", out.Project.ID)
		assert.Equal(t, sel.Command, *out.Command)

		_, err = svc.HandleCallback(context.Background(), "u1", selection.EncodeChoice(sel.ID, 0))
		assert.ErrorIs(t, err, models.ErrSelectionExpired)
	})

	t.Run("cancel", func(t *testing.T) {
		t.Parallel()
		svc, _ := newTestService(t, selection.DefaultOptions())
		sel := submit(t, svc)

		out, err := svc.HandleCallback(context.Background(), "u1", selection.EncodeCancel(sel.ID))
		require.NoError(t, err)
		assert.Equal(t, StatusCanceled, out.Status)
		assert.Nil(t, out.Project)

		_, err = svc.HandleCallback(context.Background(), "u1", selection.EncodeChoice(sel.ID, 0))
		assert.ErrorIs(t, err, models.ErrSelectionExpired)
	})

	t.Run("foreign owner", func(t *testing.T) {
		t.Parallel()
		svc, _ := newTestService(t, selection.DefaultOptions())
		sel := submit(t, svc)

		_, err := svc.HandleCallback(context.Background(), "u2", selection.EncodeChoice(sel.ID, 0))
		require.ErrorIs(t, err, models.ErrSelectionOwnership)

		out, err := svc.HandleCallback(context.Background(), "u1", selection.EncodeChoice(sel.ID, 0))
		require.NoError(t, err)
		assert.Equal(t, "p17", out.Project.ID)
	})

	t.Run("expired", func(t *testing.T) {
		t.Parallel()
		svc, clock := newTestService(t, selection.DefaultOptions())
		sel := submit(t, svc)

		clock.Advance(selection.DefaultOptions().TTL + time.Second)
		_, err := svc.HandleCallback(context.Background(), "u1", selection.EncodeChoice(sel.ID, 0))
		assert.ErrorIs(t, err, models.ErrSelectionExpired)
	})

	t.Run("index out of range", func(t *testing.T) {
		t.Parallel()
		svc, _ := newTestService(t, selection.DefaultOptions())
		sel := submit(t, svc)

		_, err := svc.HandleCallback(context.Background(), "u1", selection.EncodeChoice(sel.ID, 7))
		assert.ErrorIs(t, err, models.ErrSelectionNotFound)
	})

	t.Run("garbage payload", func(t *testing.T) {
		t.Parallel()
		svc, _ := newTestService(t, selection.DefaultOptions())

		_, err := svc.HandleCallback(context.Background(), "u1", "PROJECT|nope")
		assert.ErrorIs(t, err, models.ErrSelectionNotFound)
	})
}

func TestNewServiceRequiresCollaborators(t *testing.T) {
	t.Parallel()

	_, err := NewService(nil, nil, nil, nil, nil)
	assert.Error(t, err)
}

func TestRank(t *testing.T) {
	t.Parallel()
	svc, _ := newTestService(t, selection.DefaultOptions())

	ranking, err := svc.Rank(context.Background(), "gemini", nil)
	require.NoError(t, err)
	assert.Equal(t, fuzzy.ConfidenceHigh, ranking.Confidence)
	assert.Equal(t, "pg", ranking.Candidates[0].ID)
	assert.Empty(t, ranking.Suggestion)

	ranking, err = svc.Rank(context.Background(), "apolo", nil)
	require.NoError(t, err)
	assert.Equal(t, fuzzy.ConfidenceLow, ranking.Confidence)

	ranking, err = svc.Rank(context.Background(), "anything", []models.Project{})
	require.NoError(t, err)
	assert.Equal(t, fuzzy.ConfidenceNoMatch, ranking.Confidence)
	assert.Empty(t, ranking.Candidates)
}

func TestSelection(t *testing.T) {
	t.Parallel()
	svc, _ := newTestService(t, selection.DefaultOptions())

	out, err := svc.Submit(context.Background(), Submission{OwnerID: "u1", Text: ambiguousText})
	require.NoError(t, err)

	sel, err := svc.Selection(context.Background(), out.Selection.ID, "u1")
	require.NoError(t, err)
	assert.Equal(t, out.Selection.ID, sel.ID)

	_, err = svc.Selection(context.Background(), out.Selection.ID, "u2")
	assert.ErrorIs(t, err, models.ErrSelectionOwnership)

	_, err = svc.Selection(context.Background(), selection.NewID(), "u1")
	assert.ErrorIs(t, err, models.ErrSelectionExpired)
}
