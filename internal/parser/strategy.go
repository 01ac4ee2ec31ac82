// Package parser turns command text into a validated work-log command by
// trying a chain of strategies: deterministic rules first, then an optional
// model-backed fallback.
package parser

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/benvon/smart-worklog/internal/logger"
	"github.com/benvon/smart-worklog/internal/models"
	"github.com/benvon/smart-worklog/internal/segmenter"
	"github.com/benvon/smart-worklog/internal/services/ai"
	"github.com/benvon/smart-worklog/internal/temporal"
	"github.com/benvon/smart-worklog/internal/validation"
)

// ErrNotApplicable is returned by a strategy that declines the input
var ErrNotApplicable = errors.New("strategy not applicable")

// Strategy is one way of parsing command text
type Strategy interface {
	Name() string
	Parse(ctx context.Context, text string) (*models.ParsedCommand, error)
}

// RuleStrategy parses with the segmenter and the temporal resolver
type RuleStrategy struct {
	segmenter *segmenter.Segmenter
	resolver  *temporal.Resolver
}

// NewRuleStrategy creates a rule strategy resolving times with resolver
func NewRuleStrategy(resolver *temporal.Resolver) *RuleStrategy {
	return &RuleStrategy{
		segmenter: segmenter.New(resolver),
		resolver:  resolver,
	}
}

func (s *RuleStrategy) Name() string { return string(models.ParseSourceRules) }

// Parse segments text and resolves its start before its duration, so a
// forward weekday is reported even when the duration is also broken.
func (s *RuleStrategy) Parse(_ context.Context, text string) (*models.ParsedCommand, error) {
	candidate, err := s.segmenter.Segment(text)
	if err != nil {
		return nil, err
	}

	project := strings.TrimSpace(candidate.ProjectQuery)
	task := strings.TrimSpace(candidate.TaskQuery)
	if project == "" || task == "" {
		return nil, models.ErrFormat
	}

	start, err := s.resolver.ResolveStart(candidate.StartRaw)
	if err != nil {
		return nil, err
	}
	minutes, err := temporal.ParseDuration(candidate.DurationRaw)
	if err != nil {
		return nil, err
	}

	cmd := models.NewParsedCommand(project, task, start, minutes, models.ParseSourceRules)
	return &cmd, nil
}

// FallbackStrategy asks a CommandExtractor when the rules fail. It never
// runs for text with an explicit date reference, since those are left to
// the rules' stricter date handling.
type FallbackStrategy struct {
	extractor ai.CommandExtractor
	resolver  *temporal.Resolver
	logger    *zap.Logger
}

// NewFallbackStrategy wraps extractor. A nil extractor makes the strategy
// decline every input.
func NewFallbackStrategy(extractor ai.CommandExtractor, resolver *temporal.Resolver, zapLogger *zap.Logger) *FallbackStrategy {
	if zapLogger == nil {
		zapLogger = zap.NewNop()
	}
	return &FallbackStrategy{
		extractor: extractor,
		resolver:  resolver,
		logger:    zapLogger,
	}
}

func (s *FallbackStrategy) Name() string { return string(models.ParseSourceAI) }

func (s *FallbackStrategy) Parse(ctx context.Context, text string) (*models.ParsedCommand, error) {
	if s.extractor == nil || temporal.HasExplicitDateReference(text) {
		return nil, ErrNotApplicable
	}

	now := s.resolver.Now()
	extraction, err := s.extractor.ExtractCommand(ctx, text, now)
	if err != nil {
		switch {
		case ai.IsQuotaError(err):
			s.logger.Error("ai_fallback_quota_exceeded", zap.Error(err))
		case ai.IsRateLimitError(err):
			s.logger.Warn("ai_fallback_rate_limited", zap.Error(err))
		default:
			s.logger.Warn("ai_fallback_failed", zap.String("error", logger.SanitizeError(err)))
		}
		return nil, fmt.Errorf("ai fallback: %w", err)
	}

	if err := validation.Validate.Struct(extraction); err != nil {
		s.logger.Debug("ai_fallback_rejected",
			zap.String("project", logger.SanitizeCommandText(extraction.Project)),
			zap.String("error", logger.SanitizeError(err)),
		)
		return nil, models.NewCommandError(models.KindFormat, "fallback extraction rejected", err)
	}

	start, err := s.resolver.At(extraction.Date, extraction.Time)
	if err != nil {
		return nil, err
	}
	if start.After(now.Add(temporal.SkewTolerance)) {
		return nil, models.NewCommandError(models.KindTimeParse, "start lies in the future", nil)
	}

	cmd := models.NewParsedCommand(extraction.Project, extraction.Task, start, extraction.DurationMinutes, models.ParseSourceAI)
	return &cmd, nil
}
