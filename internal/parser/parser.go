package parser

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/benvon/smart-worklog/internal/models"
	"github.com/benvon/smart-worklog/internal/textnorm"
)

const tracerName = "github.com/benvon/smart-worklog/internal/parser"

// Parser runs strategies in order until one succeeds
type Parser struct {
	strategies []Strategy
	tracer     trace.Tracer
	logger     *zap.Logger
}

// Option configures a Parser
type Option func(*Parser)

// WithTracerProvider traces with tp instead of the global provider
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(p *Parser) {
		p.tracer = tp.Tracer(tracerName)
	}
}

// WithLogger sets the logger
func WithLogger(zapLogger *zap.Logger) Option {
	return func(p *Parser) {
		p.logger = zapLogger
	}
}

// New creates a parser trying strategies in the given order
func New(strategies []Strategy, opts ...Option) *Parser {
	p := &Parser{
		strategies: strategies,
		tracer:     otel.Tracer(tracerName),
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Parse repairs mojibake in text and returns the first strategy result.
// A forward weekday stops the chain at once. When every strategy fails the
// first real failure is returned, or models.ErrFormat if all declined.
func (p *Parser) Parse(ctx context.Context, text string) (*models.ParsedCommand, error) {
	ctx, span := p.tracer.Start(ctx, "parser.Parse")
	defer span.End()

	repaired := textnorm.RepairMojibake(text)
	if repaired != text {
		span.SetAttributes(attribute.Bool("worklog.mojibake_repaired", true))
		p.logger.Debug("mojibake_repaired")
	}

	var firstErr error
	for _, s := range p.strategies {
		cmd, err := s.Parse(ctx, repaired)
		if err == nil {
			span.SetAttributes(
				attribute.String("worklog.parse_source", string(cmd.Source)),
				attribute.Int("worklog.duration_minutes", cmd.DurationMinutes),
			)
			return cmd, nil
		}
		if errors.Is(err, ErrNotApplicable) {
			continue
		}
		if errors.Is(err, models.ErrFutureWeekday) {
			return nil, p.fail(span, err)
		}
		p.logger.Debug("parse_strategy_failed",
			zap.String("strategy", s.Name()),
			zap.String("kind", string(models.KindOf(err))),
		)
		if firstErr == nil {
			firstErr = err
		}
	}

	if firstErr == nil {
		firstErr = models.ErrFormat
	}
	return nil, p.fail(span, firstErr)
}

func (p *Parser) fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, string(models.KindOf(err)))
	return err
}
