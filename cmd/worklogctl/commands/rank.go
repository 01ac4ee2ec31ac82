package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newRankCmd(opts *rootOptions) *cobra.Command {
	var catalogPath string
	cmd := &cobra.Command{
		Use:   "rank QUERY",
		Short: "Rank catalog projects against a query",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := opts.newService(catalogPath)
			if err != nil {
				return err
			}
			ranking, err := svc.Rank(cmd.Context(), strings.Join(args, " "), nil)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Confidence: %s\n", ranking.Confidence)
			if ranking.Suggestion != "" {
				fmt.Fprintf(out, "Did you mean: %s\n", ranking.Suggestion)
			}
			for i, c := range ranking.Candidates {
				fmt.Fprintf(out, "%2d. %-40s %.3f  (%s)\n", i+1, c.DisplayName, c.Score, c.ID)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&catalogPath, "catalog", "", "Catalog YAML file (defaults to CATALOG_PATH)")
	return cmd
}
