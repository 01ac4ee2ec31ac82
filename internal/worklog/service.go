// Package worklog wires parsing, ranking and disambiguation into the
// command flow a transport drives: submit text, get back a resolved command
// or a pending selection, then answer the selection through a callback.
package worklog

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/benvon/smart-worklog/internal/fuzzy"
	"github.com/benvon/smart-worklog/internal/logger"
	"github.com/benvon/smart-worklog/internal/models"
	"github.com/benvon/smart-worklog/internal/parser"
	"github.com/benvon/smart-worklog/internal/selection"
	"github.com/benvon/smart-worklog/internal/textnorm"
)

const tracerName = "github.com/benvon/smart-worklog/internal/worklog"

// Source tells how the text reached us
type Source string

const (
	SourceTyped Source = "typed"
	SourceVoice Source = "voice"
)

// Status is the state a submission or callback ends in
type Status string

const (
	StatusResolved Status = "resolved"
	StatusPending  Status = "pending"
	StatusCanceled Status = "canceled"
	// StatusReport marks a request for a report rather than a work-log entry
	StatusReport Status = "report"
)

// Submission is one piece of user text to turn into a work-log entry
type Submission struct {
	OwnerID string `json:"owner_id" validate:"required,max=128"`
	Text    string `json:"text" validate:"required,max=4000"`
	Source  Source `json:"source" validate:"omitempty,oneof=typed voice"`
	// Catalog overrides the service's default catalog when set
	Catalog []models.Project `json:"catalog,omitempty" validate:"omitempty,dive"`
}

// Outcome is the result of Submit or HandleCallback
type Outcome struct {
	Status  Status                `json:"status"`
	Command *models.ParsedCommand `json:"command,omitempty"`
	// Project is set once the command is bound to a catalog item
	Project   *models.Project          `json:"project,omitempty"`
	Selection *models.PendingSelection `json:"selection,omitempty"`
}

// CommandParser turns text into a parsed command
type CommandParser interface {
	Parse(ctx context.Context, text string) (*models.ParsedCommand, error)
}

// CatalogSource provides the default project catalog
type CatalogSource interface {
	Projects(ctx context.Context) ([]models.Project, error)
}

// Service runs the command flow
type Service struct {
	parser  CommandParser
	ranker  *fuzzy.Ranker
	machine *selection.Machine
	catalog CatalogSource
	tracer  trace.Tracer
	logger  *zap.Logger
}

// NewService creates a service. catalog may be nil when every submission
// carries its own catalog.
func NewService(p CommandParser, ranker *fuzzy.Ranker, machine *selection.Machine, catalog CatalogSource, zapLogger *zap.Logger) (*Service, error) {
	if p == nil || ranker == nil || machine == nil {
		return nil, errors.New("parser, ranker and selection machine are required")
	}
	if zapLogger == nil {
		zapLogger = zap.NewNop()
	}
	return &Service{
		parser:  p,
		ranker:  ranker,
		machine: machine,
		catalog: catalog,
		tracer:  otel.Tracer(tracerName),
		logger:  zapLogger,
	}, nil
}

// Machine exposes the selection machine for direct selection endpoints
func (s *Service) Machine() *selection.Machine {
	return s.machine
}

// Ranker exposes the ranker
func (s *Service) Ranker() *fuzzy.Ranker {
	return s.ranker
}

// Catalog returns override, falling back to the default catalog
func (s *Service) Catalog(ctx context.Context, override []models.Project) ([]models.Project, error) {
	if len(override) > 0 {
		return override, nil
	}
	if s.catalog == nil {
		return nil, nil
	}
	projects, err := s.catalog.Projects(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}
	return projects, nil
}

// Ranking is a scored catalog with its confidence class
type Ranking struct {
	Candidates []models.RankedCandidate `json:"candidates"`
	Confidence fuzzy.Confidence         `json:"confidence"`
	// Suggestion is a "did you mean" name for rankings with no match
	Suggestion string `json:"suggestion,omitempty"`
}

// Parse runs the parser alone, without the command gate or ranking
func (s *Service) Parse(ctx context.Context, text string) (*models.ParsedCommand, error) {
	return s.parser.Parse(ctx, text)
}

// Rank scores query against override, or the default catalog when override is empty
func (s *Service) Rank(ctx context.Context, query string, override []models.Project) (*Ranking, error) {
	projects, err := s.Catalog(ctx, override)
	if err != nil {
		return nil, err
	}
	ranked := s.ranker.Rank(projects, query)
	out := &Ranking{Candidates: ranked, Confidence: s.ranker.Classify(ranked)}
	if out.Confidence == fuzzy.ConfidenceNoMatch {
		out.Suggestion, _ = fuzzy.Suggest(projects, query)
	}
	return out, nil
}

// Selection returns the live pending selection id when it belongs to owner
func (s *Service) Selection(ctx context.Context, id, owner string) (*models.PendingSelection, error) {
	sel, err := s.machine.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if sel.OwnerID != owner {
		return nil, models.NewCommandError(models.KindSelectionOwnership, models.ErrSelectionOwnership.Message, nil)
	}
	return sel, nil
}

// Submit repairs mojibake in sub.Text once, parses it and binds it to a
// catalog project. An ambiguous project ends in a pending selection, or in an
// ambiguous-match error when interactive selection is off.
func (s *Service) Submit(ctx context.Context, sub Submission) (*Outcome, error) {
	ctx, span := s.tracer.Start(ctx, "worklog.Submit", trace.WithAttributes(
		attribute.String("worklog.source", string(sub.Source)),
	))
	defer span.End()

	text := textnorm.RepairMojibake(sub.Text)

	if parser.IsReportCommand(text) {
		return &Outcome{Status: StatusReport}, nil
	}
	if sub.Source != SourceVoice && !parser.LooksLikeCommand(text) {
		return nil, s.fail(span, models.NewCommandError(models.KindFormat, parser.UsageMessage, nil))
	}

	cmd, err := s.parser.Parse(ctx, text)
	if err != nil {
		return nil, s.fail(span, err)
	}
	cmd.ProjectQuery = fuzzy.AugmentQuery(text, cmd.ProjectQuery)

	projects, err := s.Catalog(ctx, sub.Catalog)
	if err != nil {
		return nil, s.fail(span, err)
	}

	ranked := s.ranker.Rank(projects, cmd.ProjectQuery)
	confidence := s.ranker.Classify(ranked)
	span.SetAttributes(attribute.String("worklog.confidence", string(confidence)))

	switch {
	case confidence == fuzzy.ConfidenceNoMatch:
		ce := models.NewCommandError(models.KindNoMatch, models.ErrNoMatch.Message, nil)
		if name, ok := fuzzy.Suggest(projects, cmd.ProjectQuery); ok {
			ce.Suggestion = name
		}
		s.logger.Info("project_not_matched",
			zap.String("query", logger.SanitizeCommandText(cmd.ProjectQuery)),
			zap.String("suggestion", ce.Suggestion),
		)
		return nil, s.fail(span, ce)

	case confidence == fuzzy.ConfidenceLow && len(ranked) >= 2:
		sel, err := s.machine.Create(ctx, sub.OwnerID, ranked, *cmd)
		if err != nil {
			return nil, s.fail(span, err)
		}
		return &Outcome{Status: StatusPending, Command: cmd, Selection: sel}, nil
	}

	project := ranked[0].Project()
	s.logger.Info("command_resolved",
		zap.String("owner_id", logger.SanitizeOwnerID(sub.OwnerID)),
		zap.String("project_id", project.ID),
		zap.String("source", string(cmd.Source)),
		zap.Int("duration_minutes", cmd.DurationMinutes),
	)
	return &Outcome{Status: StatusResolved, Command: cmd, Project: &project}, nil
}

// HandleCallback answers a pending selection with an encoded callback payload
func (s *Service) HandleCallback(ctx context.Context, owner, data string) (*Outcome, error) {
	cb, err := selection.ParseCallback(data)
	if err != nil {
		return nil, err
	}

	switch cb.Action {
	case selection.ActionCancel:
		return s.Cancel(ctx, cb.SelectionID, owner)
	default:
		return s.Resolve(ctx, cb.SelectionID, owner, cb.Index)
	}
}

// Resolve binds a pending selection's command to the chosen candidate
func (s *Service) Resolve(ctx context.Context, id, owner string, index int) (*Outcome, error) {
	res, err := s.machine.Resolve(ctx, id, owner, index)
	if err != nil {
		return nil, err
	}
	project := res.Choice.Project()
	cmd := res.Selection.Command
	return &Outcome{Status: StatusResolved, Command: &cmd, Project: &project, Selection: res.Selection}, nil
}

// Cancel drops a pending selection
func (s *Service) Cancel(ctx context.Context, id, owner string) (*Outcome, error) {
	sel, err := s.machine.Cancel(ctx, id, owner)
	if err != nil {
		return nil, err
	}
	cmd := sel.Command
	return &Outcome{Status: StatusCanceled, Command: &cmd, Selection: sel}, nil
}

func (s *Service) fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, string(models.KindOf(err)))
	return err
}
