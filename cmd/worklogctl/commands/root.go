package commands

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/benvon/smart-worklog/internal/catalog"
	"github.com/benvon/smart-worklog/internal/config"
	"github.com/benvon/smart-worklog/internal/fuzzy"
	"github.com/benvon/smart-worklog/internal/logger"
	"github.com/benvon/smart-worklog/internal/models"
	"github.com/benvon/smart-worklog/internal/parser"
	"github.com/benvon/smart-worklog/internal/selection"
	"github.com/benvon/smart-worklog/internal/services/ai"
	"github.com/benvon/smart-worklog/internal/temporal"
	"github.com/benvon/smart-worklog/internal/worklog"
)

type rootOptions struct {
	debug bool
}

// NewRootCmd creates the worklogctl command tree
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "worklogctl",
		Short:         "Work-log command tool",
		Long:          "Parse, rank and submit work-log commands locally against a project catalog",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().BoolVar(&opts.debug, "debug", false, "Log pipeline decisions to stderr")

	cmd.AddCommand(newParseCmd(opts))
	cmd.AddCommand(newRankCmd(opts))
	cmd.AddCommand(newSubmitCmd(opts))
	cmd.AddCommand(newConfigCmd())
	return cmd
}

func (o *rootOptions) logger() *zap.Logger {
	if !o.debug {
		return zap.NewNop()
	}
	l, err := logger.NewDevelopmentLogger(true)
	if err != nil {
		return zap.NewNop()
	}
	return l
}

// newService builds the command pipeline from the environment with an
// in-memory selection store. catalogPath overrides CATALOG_PATH when set.
func (o *rootOptions) newService(catalogPath string) (*worklog.Service, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	zapLogger := o.logger()

	reference, storage, err := cfg.Locations()
	if err != nil {
		return nil, err
	}
	resolver, err := temporal.NewResolver(reference, storage)
	if err != nil {
		return nil, fmt.Errorf("create resolver: %w", err)
	}

	strategies := []parser.Strategy{parser.NewRuleStrategy(resolver)}
	if cfg.OpenAIKey != "" {
		extractor, err := ai.NewOpenAIExtractor(ai.OpenAIConfig{
			APIKey:     cfg.OpenAIKey,
			BaseURL:    cfg.AIBaseURL,
			Model:      cfg.AIModel,
			Timeout:    cfg.AITimeout,
			MaxRetries: cfg.AIMaxRetries,
			DebugMode:  o.debug,
		}, zapLogger)
		if err != nil {
			return nil, fmt.Errorf("create ai extractor: %w", err)
		}
		strategies = append(strategies, parser.NewFallbackStrategy(extractor, resolver, zapLogger))
	}

	ranker, err := fuzzy.NewRanker(cfg.Thresholds())
	if err != nil {
		return nil, err
	}

	machine, err := selection.NewMachine(selection.NewMemoryStore(nil), cfg.SelectionOptions(), zapLogger)
	if err != nil {
		return nil, err
	}

	if catalogPath == "" {
		catalogPath = cfg.CatalogPath
	}
	var projects []models.Project
	if catalogPath != "" {
		if projects, err = catalog.LoadFile(catalogPath); err != nil {
			return nil, err
		}
	}

	return worklog.NewService(parser.New(strategies, parser.WithLogger(zapLogger)), ranker, machine, catalog.NewStatic(projects), zapLogger)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
