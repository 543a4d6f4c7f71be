// Package mcp exposes scan, apply and history over the Model Context Protocol.
package mcp

import (
	"context"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog"

	"github.com/spinless-app/spinless/internal/config"
	"github.com/spinless-app/spinless/internal/database"
	"github.com/spinless-app/spinless/internal/library"
	"github.com/spinless-app/spinless/internal/nfo"
	"github.com/spinless-app/spinless/internal/planner"
	"github.com/spinless-app/spinless/internal/usecase"
)

// Version is reported to MCP clients.
var Version = "0.1.0"

// Server wraps the MCP server with the spinless tools.
type Server struct {
	server   *mcp.Server
	settings config.Settings
	journal  *database.Context
	log      zerolog.Logger
}

// NewServer creates a server that scans with settings and journals applies
// to journal. The server does not own journal.
func NewServer(settings config.Settings, journal *database.Context, logger zerolog.Logger) *Server {
	mcpServer := mcp.NewServer(&mcp.Implementation{
		Name:    "spinless",
		Version: Version,
	}, nil)

	s := &Server{
		server:   mcpServer,
		settings: settings,
		journal:  journal,
		log:      logger,
	}
	s.registerTools()
	return s
}

// Run starts the MCP server with stdio transport
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "spinless_scan",
		Description: "Dry run: report which Kodi texture cache rows would be stamped so Kodi stops re-checking local artwork",
	}, s.handleScan)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "spinless_apply",
		Description: "Scan and then stamp the planned texture cache rows in one transaction. Kodi must be closed",
	}, s.handleApply)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "spinless_history",
		Description: "List previously applied runs, newest first",
	}, s.handleHistory)
}

// ScanInput overrides the saved settings for one call.
type ScanInput struct {
	Types         *string `json:"types,omitempty" jsonschema:"Comma separated content types (movie, set, tvshow, season, episode, musicvideo, actor, artist, album) or all"`
	Mode          *string `json:"mode,omitempty" jsonschema:"NFO gate mode: nfo-required or all-local"`
	EpisodePolicy *string `json:"episodePolicy,omitempty" jsonschema:"Episode policy: per_item or require_show_nfo"`
	PreviewLimit  *int    `json:"previewLimit,omitempty" jsonschema:"Number of planned updates to include (0 for all)"`
}

type ApplyInput struct {
	Types         *string `json:"types,omitempty" jsonschema:"Comma separated content types or all"`
	Mode          *string `json:"mode,omitempty" jsonschema:"NFO gate mode: nfo-required or all-local"`
	EpisodePolicy *string `json:"episodePolicy,omitempty" jsonschema:"Episode policy: per_item or require_show_nfo"`
	Confirm       bool    `json:"confirm" jsonschema:"Must be true to write to the texture cache"`
}

type ScanOutput struct {
	Mode           string             `json:"mode"`
	EpisodePolicy  string             `json:"episodePolicy"`
	TextureDB      string             `json:"textureDb"`
	Items          map[string]int     `json:"items"`
	Eligible       int                `json:"eligible"`
	Ineligible     int                `json:"ineligible"`
	Reasons        map[string]int     `json:"reasons,omitempty"`
	Artwork        int                `json:"artwork"`
	NotCached      int                `json:"notCached"`
	Remote         int                `json:"remote"`
	Unresolvable   int                `json:"unresolvable"`
	Planned        int                `json:"planned"`
	AlreadyCurrent int                `json:"alreadyCurrent"`
	Preview        []PlannedUpdateDTO `json:"preview"`
}

type PlannedUpdateDTO struct {
	TextureID int64  `json:"textureId"`
	URL       string `json:"url"`
	Item      string `json:"item"`
	Old       string `json:"old,omitempty"`
	New       string `json:"new"`
}

type ApplyOutput struct {
	Message        string `json:"message"`
	Updated        int    `json:"updated"`
	AlreadyCurrent int    `json:"alreadyCurrent"`
	RunID          int64  `json:"runId,omitempty"`
}

type HistoryInput struct {
	Limit *int `json:"limit,omitempty" jsonschema:"Maximum number of runs to list (default 20, 0 for all)"`
}

type HistoryOutput struct {
	Runs []RunDTO `json:"runs"`
}

type RunDTO struct {
	ID             int64  `json:"id"`
	AppliedAt      string `json:"appliedAt"`
	TextureDB      string `json:"textureDb"`
	Mode           string `json:"mode"`
	Updated        int64  `json:"updated"`
	AlreadyCurrent int64  `json:"alreadyCurrent"`
	RevertedAt     string `json:"revertedAt,omitempty"`
}

// settingsFor applies the per-call overrides to the saved settings.
func (s *Server) settingsFor(input ScanInput) (config.Settings, error) {
	settings := s.settings
	if input.Types != nil {
		sel, err := library.ParseSelection(*input.Types)
		if err != nil {
			return settings, err
		}
		settings.Types = sel
	}
	if input.Mode != nil {
		mode, err := nfo.ParseMode(*input.Mode)
		if err != nil {
			return settings, err
		}
		settings.Mode = mode
	}
	if input.EpisodePolicy != nil {
		policy, err := nfo.ParseEpisodePolicy(*input.EpisodePolicy)
		if err != nil {
			return settings, err
		}
		settings.EpisodePolicy = policy
	}
	if input.PreviewLimit != nil {
		settings.PreviewLimit = *input.PreviewLimit
	}
	return settings, nil
}

func (s *Server) scan(ctx context.Context, input ScanInput) (*usecase.Session, *planner.ScanReport, config.Settings, error) {
	settings, err := s.settingsFor(input)
	if err != nil {
		return nil, nil, settings, err
	}
	session, err := usecase.OpenSession(ctx, settings, usecase.Deps{Journal: s.journal, Logger: s.log})
	if err != nil {
		return nil, nil, settings, err
	}
	report, err := session.Scan(ctx)
	if err != nil {
		_ = session.Close()
		return nil, nil, settings, fmt.Errorf("scan failed: %w", err)
	}
	return session, report, settings, nil
}

func (s *Server) handleScan(ctx context.Context, req *mcp.CallToolRequest, input ScanInput) (*mcp.CallToolResult, ScanOutput, error) {
	session, report, settings, err := s.scan(ctx, input)
	if err != nil {
		return nil, ScanOutput{}, err
	}
	defer session.Close()
	return nil, scanOutput(report, settings.PreviewLimit), nil
}

func (s *Server) handleApply(ctx context.Context, req *mcp.CallToolRequest, input ApplyInput) (*mcp.CallToolResult, ApplyOutput, error) {
	if !input.Confirm {
		return nil, ApplyOutput{}, fmt.Errorf("apply requires confirm=true; run spinless_scan first to review the plan")
	}
	session, report, _, err := s.scan(ctx, ScanInput{Types: input.Types, Mode: input.Mode, EpisodePolicy: input.EpisodePolicy})
	if err != nil {
		return nil, ApplyOutput{}, err
	}
	defer session.Close()

	outcome, err := session.Apply(ctx, report)
	if err != nil {
		return nil, ApplyOutput{}, fmt.Errorf("apply failed: %w", err)
	}
	message := fmt.Sprintf("Updated %d texture rows (%d already current)", outcome.Updated, outcome.AlreadyCurrent)
	if outcome.Total() == 0 {
		message = "Nothing to update"
	}
	return nil, ApplyOutput{
		Message:        message,
		Updated:        outcome.Updated,
		AlreadyCurrent: outcome.AlreadyCurrent,
		RunID:          outcome.RunID,
	}, nil
}

func (s *Server) handleHistory(ctx context.Context, req *mcp.CallToolRequest, input HistoryInput) (*mcp.CallToolResult, HistoryOutput, error) {
	limit := 20
	if input.Limit != nil {
		limit = *input.Limit
	}
	runs, err := usecase.NewHistory(s.journal, s.log).List(ctx, limit)
	if err != nil {
		return nil, HistoryOutput{}, fmt.Errorf("failed to list runs: %w", err)
	}

	out := HistoryOutput{Runs: make([]RunDTO, 0, len(runs))}
	for _, run := range runs {
		dto := RunDTO{
			ID:             run.ID,
			AppliedAt:      run.AppliedAt.Format(time.RFC3339),
			TextureDB:      run.TextureDB,
			Mode:           run.Mode,
			Updated:        run.Updated,
			AlreadyCurrent: run.AlreadyCurrent,
		}
		if run.RevertedAt != nil {
			dto.RevertedAt = run.RevertedAt.Format(time.RFC3339)
		}
		out.Runs = append(out.Runs, dto)
	}
	return nil, out, nil
}

func scanOutput(report *planner.ScanReport, previewLimit int) ScanOutput {
	sum := report.Summary
	out := ScanOutput{
		Mode:           string(report.Mode),
		EpisodePolicy:  string(report.EpisodePolicy),
		TextureDB:      report.TextureDB,
		Items:          make(map[string]int, len(sum.Items)),
		Eligible:       sum.Eligible,
		Ineligible:     sum.Ineligible,
		Reasons:        sum.Reasons,
		Artwork:        sum.Artwork,
		NotCached:      sum.NotCached,
		Remote:         sum.Remote,
		Unresolvable:   sum.Unresolvable,
		Planned:        sum.Planned,
		AlreadyCurrent: sum.AlreadyCurrent,
		Preview:        []PlannedUpdateDTO{},
	}
	for t, n := range sum.Items {
		out.Items[string(t)] = n
	}
	for _, u := range report.Preview(previewLimit) {
		dto := PlannedUpdateDTO{TextureID: u.TextureID, URL: u.URL, Item: u.Item.String(), New: u.New}
		if u.Old != nil {
			dto.Old = *u.Old
		}
		out.Preview = append(out.Preview, dto)
	}
	return out
}
