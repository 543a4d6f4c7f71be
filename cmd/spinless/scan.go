package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/spinless-app/spinless/internal/config"
	"github.com/spinless-app/spinless/internal/database"
	"github.com/spinless-app/spinless/internal/usecase"
)

func newScanCmd() *cobra.Command {
	var (
		flags  scanFlags
		format string
		items  bool
	)

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Report which texture rows would be stamped (dry run)",
		Long: `Scan reads the Kodi library and texture databases and reports which cached
artwork rows qualify. Nothing is written.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := validateFormat(format); err != nil {
				return err
			}
			settings, err := flags.settings(cmd)
			if err != nil {
				return err
			}

			session, err := openSession(cmd.Context(), settings, nil)
			if err != nil {
				return err
			}
			defer session.Close()

			report, err := session.Scan(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if format == "json" {
				return outputJSON(out, report)
			}
			if items {
				writeItems(out, report)
			}
			writeSummary(out, report)
			writePreview(out, report, settings.PreviewLimit)
			return nil
		},
	}

	flags.bind(cmd)
	cmd.Flags().StringVar(&format, "format", "table", "Output format: table or json")
	cmd.Flags().BoolVar(&items, "items", false, "List every scanned item with its gate decision")

	return cmd
}

// openSession discovers missing store paths and opens a session. A nil
// journal disables recording.
func openSession(ctx context.Context, settings config.Settings, journal *database.Context) (*usecase.Session, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	settings = discover(settings)
	return usecase.OpenSession(ctx, settings, usecase.Deps{Journal: journal, Logger: logger})
}

func openJournal() (*database.Context, error) {
	return database.OpenJournal(config.GetJournalPath())
}

