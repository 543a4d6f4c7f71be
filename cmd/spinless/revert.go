package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/spinless-app/spinless/internal/database"
	"github.com/spinless-app/spinless/internal/usecase"
)

func newRevertCmd() *cobra.Command {
	var (
		dryRun      bool
		yes         bool
		format      string
		busyTimeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "revert <run-id>",
		Short: "Restore the texture rows changed by a run",
		Long: `Revert writes back the lasthashcheck values a run replaced. Rows that were
removed from the texture database, or changed again since the run, are left
alone. Kodi must be closed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateFormat(format); err != nil {
				return err
			}
			id, err := parseRunID(args[0])
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
			history := usecase.NewHistory(journal, logger)

			if !dryRun && !yes {
				detail, err := history.Show(cmd.Context(), id)
				if err != nil {
					return err
				}
				ok, err := confirm(cmd, fmt.Sprintf("Restore %d texture rows in %s?", len(detail.Rows), detail.Run.TextureDB))
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintln(cmd.ErrOrStderr(), "Aborted.")
					return nil
				}
			}

			result, err := history.Revert(cmd.Context(), id, usecase.RevertOptions{BusyTimeout: busyTimeout, DryRun: dryRun})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if format == "json" {
				return outputJSON(out, result)
			}
			verb := "Restored"
			if dryRun {
				verb = "Would restore"
			}
			fmt.Fprintf(out, "%s %d texture rows from run %d.\n", verb, result.Restored, id)
			for _, skip := range result.Skipped {
				fmt.Fprintf(out, "  skipped texture %d: %s\n", skip.TextureID, skip.Reason)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Report what would be restored without writing")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Revert without asking for confirmation")
	cmd.Flags().StringVar(&format, "format", "table", "Output format: table or json")
	cmd.Flags().DurationVar(&busyTimeout, "busy-timeout", database.DefaultBusyTimeout, "How long to wait for a locked database")

	return cmd
}
