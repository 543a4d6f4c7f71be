package main

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/spinless-app/spinless/internal/config"
)

func newLocateCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "locate",
		Short: "Show where the Kodi databases were found",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := validateFormat(format); err != nil {
				return err
			}
			dirs := config.KodiDatabaseDirs()
			loc := config.Locate(dirs)

			out := cmd.OutOrStdout()
			if format == "json" {
				return outputJSON(out, struct {
					Searched []string `json:"searched"`
					config.Locations
				}{Searched: dirs, Locations: loc})
			}

			t := newTable(out)
			t.AppendHeader(table.Row{"Store", "Path"})
			t.AppendRow(table.Row{"folder", orNotFound(loc.Dir)})
			t.AppendRow(table.Row{"video", orNotFound(loc.Video)})
			t.AppendRow(table.Row{"music", orNotFound(loc.Music)})
			t.AppendRow(table.Row{"texture", orNotFound(loc.Texture)})
			t.Render()

			if loc.Dir == "" {
				fmt.Fprintln(out, "Searched:")
				for _, dir := range dirs {
					fmt.Fprintf(out, "  %s\n", dir)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", "table", "Output format: table or json")
	return cmd
}

func orNotFound(s string) string {
	if s == "" {
		return "(not found)"
	}
	return s
}
