package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/spinless-app/spinless/internal/database"
	"github.com/spinless-app/spinless/internal/usecase"
)

func newHistoryCmd() *cobra.Command {
	var (
		limit  int
		format string
		prune  time.Duration
	)

	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "List applied runs, or show the rows of one run",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateFormat(format); err != nil {
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
			out := cmd.OutOrStdout()

			if cmd.Flags().Changed("prune") {
				deleted, err := history.Prune(cmd.Context(), prune)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Pruned %d runs.\n", deleted)
				return nil
			}

			if len(args) == 1 {
				id, err := parseRunID(args[0])
				if err != nil {
					return err
				}
				detail, err := history.Show(cmd.Context(), id)
				if err != nil {
					return err
				}
				if format == "json" {
					return outputJSON(out, runDetailJSON(detail))
				}
				writeRunDetail(cmd, detail)
				return nil
			}

			runs, err := history.List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if format == "json" {
				output := make([]runJSON, 0, len(runs))
				for _, run := range runs {
					output = append(output, toRunJSON(run))
				}
				return outputJSON(out, output)
			}
			if len(runs) == 0 {
				fmt.Fprintln(out, "No runs recorded.")
				return nil
			}
			writeRuns(cmd, runs)
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of runs to list (0 for all)")
	cmd.Flags().StringVar(&format, "format", "table", "Output format: table or json")
	cmd.Flags().DurationVar(&prune, "prune", 0, "Delete runs older than this age (e.g. 720h) instead of listing")

	return cmd
}

func parseRunID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid run id: %s", s)
	}
	return id, nil
}

type runJSON struct {
	ID             int64   `json:"id"`
	AppliedAt      string  `json:"applied_at"`
	TextureDB      string  `json:"texture_db"`
	Mode           string  `json:"mode"`
	EpisodePolicy  string  `json:"episode_policy"`
	Updated        int64   `json:"updated"`
	AlreadyCurrent int64   `json:"already_current"`
	RevertedAt     *string `json:"reverted_at,omitempty"`
}

type runRowJSON struct {
	TextureID int64   `json:"texture_id"`
	URL       string  `json:"url"`
	Old       *string `json:"old"`
	New       string  `json:"new"`
}

type runDetailOutput struct {
	runJSON
	Rows []runRowJSON `json:"rows"`
}

func toRunJSON(run database.RunRecord) runJSON {
	out := runJSON{
		ID:             run.ID,
		AppliedAt:      run.AppliedAt.Format(time.RFC3339),
		TextureDB:      run.TextureDB,
		Mode:           run.Mode,
		EpisodePolicy:  run.EpisodePolicy,
		Updated:        run.Updated,
		AlreadyCurrent: run.AlreadyCurrent,
	}
	if run.RevertedAt != nil {
		reverted := run.RevertedAt.Format(time.RFC3339)
		out.RevertedAt = &reverted
	}
	return out
}

func runDetailJSON(detail *usecase.RunDetail) runDetailOutput {
	out := runDetailOutput{runJSON: toRunJSON(detail.Run), Rows: make([]runRowJSON, 0, len(detail.Rows))}
	for _, row := range detail.Rows {
		out.Rows = append(out.Rows, runRowJSON{TextureID: row.TextureID, URL: row.URL, Old: row.OldHashCheck, New: row.NewHashCheck})
	}
	return out
}

func writeRuns(cmd *cobra.Command, runs []database.RunRecord) {
	pathWidth := getTerminalWidth() - 65
	if pathWidth < 20 {
		pathWidth = 20
	}

	t := newTable(cmd.OutOrStdout())
	t.AppendHeader(table.Row{"Run", "Applied", "Mode", "Updated", "Current", "Reverted", "Texture DB"})
	for _, run := range runs {
		reverted := ""
		if run.RevertedAt != nil {
			reverted = run.RevertedAt.Local().Format("2006-01-02 15:04")
		}
		t.AppendRow(table.Row{
			run.ID,
			run.AppliedAt.Local().Format("2006-01-02 15:04:05"),
			run.Mode,
			run.Updated,
			run.AlreadyCurrent,
			reverted,
			truncateLeft(run.TextureDB, pathWidth),
		})
	}
	t.Render()
}

func writeRunDetail(cmd *cobra.Command, detail *usecase.RunDetail) {
	out := cmd.OutOrStdout()
	run := detail.Run
	fmt.Fprintf(out, "Run %d applied %s to %s\n", run.ID, run.AppliedAt.Local().Format("2006-01-02 15:04:05"), run.TextureDB)
	fmt.Fprintf(out, "Mode %s, episode policy %s\n", run.Mode, run.EpisodePolicy)
	if run.RevertedAt != nil {
		fmt.Fprintf(out, "Reverted %s\n", run.RevertedAt.Local().Format("2006-01-02 15:04:05"))
	}

	urlWidth := getTerminalWidth() - 60
	if urlWidth < 20 {
		urlWidth = 20
	}
	t := newTable(out)
	t.AppendHeader(table.Row{"Texture", "URL", "Old", "New"})
	for _, row := range detail.Rows {
		t.AppendRow(table.Row{row.TextureID, truncateLeft(row.URL, urlWidth), valueOrNull(row.OldHashCheck), row.NewHashCheck})
	}
	t.Render()
}
