package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/mattn/go-runewidth"
	"golang.org/x/term"

	"github.com/spinless-app/spinless/internal/media"
	"github.com/spinless-app/spinless/internal/planner"
)

func outputJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func getTerminalWidth() int {
	// Try to get terminal width from stdout
	if width, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && width > 0 {
		return width
	}
	// Default width if terminal size cannot be determined
	return 80
}

func isTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	return t
}

// truncateLeft keeps the end of s, where paths differ.
func truncateLeft(s string, width int) string {
	if width <= 0 || runewidth.StringWidth(s) <= width {
		return s
	}
	runes := []rune(s)
	for i := range runes {
		tail := string(runes[i:])
		if runewidth.StringWidth(tail)+3 <= width {
			return "..." + tail
		}
	}
	return runewidth.Truncate(s, width, "...")
}

func valueOrNull(v *string) string {
	if v == nil {
		return "NULL"
	}
	return *v
}

func writeSummary(w io.Writer, report *planner.ScanReport) {
	sum := report.Summary
	t := newTable(w)
	t.SetTitle("Scan summary")

	for _, ct := range media.AllTypes {
		if n, ok := sum.Items[ct]; ok {
			t.AppendRow(table.Row{"Items (" + string(ct) + ")", n})
		}
	}
	t.AppendRow(table.Row{"Eligible", sum.Eligible})
	t.AppendRow(table.Row{"Ineligible", sum.Ineligible})

	reasons := make([]string, 0, len(sum.Reasons))
	for r := range sum.Reasons {
		reasons = append(reasons, r)
	}
	sort.Strings(reasons)
	for _, r := range reasons {
		t.AppendRow(table.Row{"  " + r, sum.Reasons[r]})
	}

	t.AppendSeparator()
	t.AppendRow(table.Row{"Local artwork", sum.Artwork})
	t.AppendRow(table.Row{"Not cached", sum.NotCached})
	t.AppendRow(table.Row{"Remote (skipped)", sum.Remote})
	if sum.Unresolvable > 0 {
		t.AppendRow(table.Row{"Unresolvable paths", sum.Unresolvable})
	}
	t.AppendSeparator()
	t.AppendRow(table.Row{"Planned updates", sum.Planned})
	t.AppendRow(table.Row{"Already current", sum.AlreadyCurrent})
	t.Render()
}

func writePreview(w io.Writer, report *planner.ScanReport, limit int) {
	preview := report.Preview(limit)
	if len(preview) == 0 {
		fmt.Fprintln(w, "No texture rows need updating.")
		return
	}

	// Fixed columns: id, item, old and new timestamps plus borders.
	urlWidth := getTerminalWidth() - 70
	if urlWidth < 20 {
		urlWidth = 20
	}

	t := newTable(w)
	t.AppendHeader(table.Row{"Texture", "Item", "URL", "Old", "New"})
	for _, u := range preview {
		t.AppendRow(table.Row{u.TextureID, u.Item.String(), truncateLeft(u.URL, urlWidth), valueOrNull(u.Old), u.New})
	}
	if pending := len(report.Pending()); pending > len(preview) {
		t.AppendFooter(table.Row{"", "", fmt.Sprintf("... and %d more", pending-len(preview)), "", ""})
	}
	t.Render()
}

func writeItems(w io.Writer, report *planner.ScanReport) {
	titleWidth := getTerminalWidth() - 60
	if titleWidth < 15 {
		titleWidth = 15
	}

	t := newTable(w)
	t.AppendHeader(table.Row{"Item", "Title", "Status", "Reason", "Artwork"})
	for _, item := range report.Items {
		matched := 0
		for _, a := range item.Artwork {
			if a.Status == planner.ArtworkMatched {
				matched++
			}
		}
		t.AppendRow(table.Row{
			item.Key.String(),
			runewidth.Truncate(item.Title, titleWidth, "..."),
			item.Status,
			item.Reason,
			fmt.Sprintf("%d/%d", matched, len(item.Artwork)),
		})
	}
	t.Render()
}
