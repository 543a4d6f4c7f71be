package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/spinless-app/spinless/internal/database"
)

func newApplyCmd() *cobra.Command {
	var (
		flags  scanFlags
		format string
		yes    bool
	)

	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Stamp the planned texture rows",
		Long: `Apply scans like 'scan', shows the planned updates and, once confirmed, writes
them to the texture database in one transaction. Kodi must be closed.

Every committed run is recorded so it can be undone with 'spinless revert'.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := validateFormat(format); err != nil {
				return err
			}
			settings, err := flags.settings(cmd)
			if err != nil {
				return err
			}

			journal, err := openJournal()
			if err != nil {
				return err
			}
			defer func() {
				_ = database.CloseDatabase(journal)
			}()

			session, err := openSession(cmd.Context(), settings, journal)
			if err != nil {
				return err
			}
			defer session.Close()

			ctx := cmd.Context()
			report, err := session.Scan(ctx)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if format == "table" {
				writeSummary(out, report)
				writePreview(out, report, settings.PreviewLimit)
			}
			if len(report.Updates) == 0 {
				if format == "json" {
					return outputJSON(out, applyOutput{})
				}
				return nil
			}

			if !yes {
				ok, err := confirm(cmd, fmt.Sprintf("Write %d texture rows to %s?", len(report.Updates), session.Stores().Texture))
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintln(cmd.ErrOrStderr(), "Aborted.")
					return nil
				}
			}

			outcome, err := session.Apply(ctx, report)
			if err != nil {
				return err
			}

			if format == "json" {
				return outputJSON(out, applyOutput{
					Updated:        outcome.Updated,
					AlreadyCurrent: outcome.AlreadyCurrent,
					RunID:          outcome.RunID,
				})
			}
			fmt.Fprintf(out, "Updated %d texture rows (%d already current).\n", outcome.Updated, outcome.AlreadyCurrent)
			if outcome.RunID != 0 {
				fmt.Fprintf(out, "Recorded as run %d; undo with: spinless revert %d\n", outcome.RunID, outcome.RunID)
			}
			return nil
		},
	}

	flags.bind(cmd)
	cmd.Flags().StringVar(&format, "format", "table", "Output format: table or json")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Apply without asking for confirmation")

	return cmd
}

type applyOutput struct {
	Updated        int   `json:"updated"`
	AlreadyCurrent int   `json:"already_current"`
	RunID          int64 `json:"run_id,omitempty"`
}

var errNoConfirm = errors.New("refusing to write without confirmation; pass --yes to apply non-interactively")

// confirm asks a yes/no question on stderr and reads the answer from the
// command's input. Without a terminal it refuses.
func confirm(cmd *cobra.Command, question string) (bool, error) {
	in := cmd.InOrStdin()
	if f, ok := in.(*os.File); ok && f == os.Stdin && !isTerminal() {
		return false, errNoConfirm
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "%s [y/N] ", question)
	answer, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && answer == "" {
		return false, errNoConfirm
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}
