package commands

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/benvon/smart-worklog/internal/worklog"
)

func newSubmitCmd(opts *rootOptions) *cobra.Command {
	var (
		catalogPath string
		owner       string
		voice       bool
	)
	cmd := &cobra.Command{
		Use:   "submit TEXT",
		Short: "Submit a command and bind it to a project",
		Long: "Parse a command, match its project against the catalog and print the result. " +
			"When several projects fit, the choices are listed and read from stdin.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := opts.newService(catalogPath)
			if err != nil {
				return err
			}

			sub := worklog.Submission{
				OwnerID: owner,
				Text:    strings.Join(args, " "),
				Source:  worklog.SourceTyped,
			}
			if voice {
				sub.Source = worklog.SourceVoice
			}

			out, err := svc.Submit(cmd.Context(), sub)
			if err != nil {
				return err
			}
			if out.Status == worklog.StatusPending {
				out, err = choose(cmd, svc, out)
				if err != nil {
					return err
				}
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	}
	cmd.Flags().StringVar(&catalogPath, "catalog", "", "Catalog YAML file (defaults to CATALOG_PATH)")
	cmd.Flags().StringVar(&owner, "owner", "cli", "Owner id recorded on pending selections")
	cmd.Flags().BoolVar(&voice, "voice", false, "Treat the text as a voice transcription")
	return cmd
}

// choose lists the pending candidates and resolves the selection with the
// number read from stdin. An empty line or "c" cancels.
func choose(cmd *cobra.Command, svc *worklog.Service, pending *worklog.Outcome) (*worklog.Outcome, error) {
	sel := pending.Selection
	w := cmd.ErrOrStderr()

	fmt.Fprintf(w, "Several projects match %q:\n", sel.Command.ProjectQuery)
	for i, c := range sel.Candidates {
		fmt.Fprintf(w, "  %d. %s\n", i+1, c.DisplayName)
	}
	fmt.Fprint(w, "Choose a number, or press enter to cancel: ")

	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("read choice: %w", err)
	}
	line = strings.TrimSpace(line)
	if line == "" || strings.EqualFold(line, "c") {
		return svc.Cancel(cmd.Context(), sel.ID, sel.OwnerID)
	}

	n, err := strconv.Atoi(line)
	if err != nil || n < 1 || n > len(sel.Candidates) {
		return nil, fmt.Errorf("invalid choice %q", line)
	}
	return svc.Resolve(cmd.Context(), sel.ID, sel.OwnerID, n-1)
}
