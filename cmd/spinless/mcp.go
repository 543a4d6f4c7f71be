package main

import (
	"github.com/spf13/cobra"

	"github.com/spinless-app/spinless/internal/config"
	"github.com/spinless-app/spinless/internal/database"
	"github.com/spinless-app/spinless/internal/mcp"
)

func newMCPCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start MCP server",
		Long:  "Start the Model Context Protocol server for spinless over stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			settings, err := config.LoadSettings(config.GetSettingsPath())
			if err != nil {
				return err
			}
			settings = discover(settings)

			journal, err := openJournal()
			if err != nil {
				return err
			}
			defer func() {
				_ = database.CloseDatabase(journal)
			}()

			logger.Info().Str("journal", journal.Path).Msg("starting MCP server")
			return mcp.NewServer(settings, journal, logger).Run(cmd.Context())
		},
	}

	return cmd
}
