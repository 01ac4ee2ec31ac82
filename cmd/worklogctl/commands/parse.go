package commands

import (
	"strings"

	"github.com/spf13/cobra"
)

func newParseCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "parse TEXT",
		Short: "Parse a command without matching it",
		Long:  "Parse a work-log command and print the extracted fields with resolved start and end times",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := opts.newService("")
			if err != nil {
				return err
			}
			parsed, err := svc.Parse(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), parsed)
		},
	}
}
