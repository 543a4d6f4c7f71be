package usecase

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/spinless-app/spinless/internal/database"
	"github.com/spinless-app/spinless/internal/texture"
)

// ErrAlreadyReverted is returned when a run has been reverted before.
var ErrAlreadyReverted = errors.New("run has already been reverted")

// History lists and reverts journaled runs.
type History struct {
	runs *database.RunRepository
	log  zerolog.Logger
	now  func() time.Time
}

func NewHistory(journal *database.Context, logger zerolog.Logger) *History {
	return &History{runs: database.NewRunRepository(journal), log: logger, now: time.Now}
}

// RunDetail is a run together with the rows it changed.
type RunDetail struct {
	Run  database.RunRecord
	Rows []database.RunRowRecord
}

// List returns up to limit runs, newest first.
func (h *History) List(ctx context.Context, limit int) ([]database.RunRecord, error) {
	return h.runs.List(ctx, limit)
}

// Show returns one run and its rows.
func (h *History) Show(ctx context.Context, id int64) (*RunDetail, error) {
	run, err := h.runs.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	rows, err := h.runs.Rows(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to read rows of run %d: %w", id, err)
	}
	return &RunDetail{Run: *run, Rows: rows}, nil
}

// Prune deletes runs older than age.
func (h *History) Prune(ctx context.Context, age time.Duration) (int64, error) {
	if age <= 0 {
		return 0, fmt.Errorf("prune age must be positive")
	}
	deleted, err := h.runs.Prune(ctx, h.now().Add(-age))
	if err != nil {
		return 0, err
	}
	h.log.Info().Int64("runs", deleted).Dur("older_than", age).Msg("journal pruned")
	return deleted, nil
}

// RevertOptions tunes Revert.
type RevertOptions struct {
	BusyTimeout time.Duration
	// DryRun reports what would be restored without writing.
	DryRun bool
}

// RevertSkip is a journaled row left untouched by a revert.
type RevertSkip struct {
	TextureID int64  `json:"texture_id"`
	Reason    string `json:"reason"`
}

// RevertResult describes a revert.
type RevertResult struct {
	RunID    int64        `json:"run_id"`
	Restored int          `json:"restored"`
	Skipped  []RevertSkip `json:"skipped,omitempty"`
	DryRun   bool         `json:"dry_run,omitempty"`
}

// Revert restores the lasthashcheck values a run replaced. Rows that were
// deleted or whose value changed since the run are skipped. All restored
// rows are written in one transaction.
func (h *History) Revert(ctx context.Context, id int64, opts RevertOptions) (*RevertResult, error) {
	detail, err := h.Show(ctx, id)
	if err != nil {
		return nil, err
	}
	if detail.Run.Reverted() {
		return nil, fmt.Errorf("run %d: %w", id, ErrAlreadyReverted)
	}

	dbCtx, err := database.OpenTexture(ctx, detail.Run.TextureDB, database.Options{BusyTimeout: opts.BusyTimeout})
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = database.CloseDatabase(dbCtx)
	}()
	store := texture.NewStore(dbCtx, h.log)

	result := &RevertResult{RunID: id, DryRun: opts.DryRun}
	var writes []texture.Write
	for _, row := range detail.Rows {
		current, err := store.Current(ctx, row.TextureID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				result.Skipped = append(result.Skipped, RevertSkip{TextureID: row.TextureID, Reason: "row no longer exists"})
				continue
			}
			return nil, err
		}
		if current.LastHashCheck == nil || *current.LastHashCheck != row.NewHashCheck {
			result.Skipped = append(result.Skipped, RevertSkip{TextureID: row.TextureID, Reason: "value changed since the run"})
			continue
		}
		writes = append(writes, texture.Write{ID: row.TextureID, Value: row.OldHashCheck})
	}
	result.Restored = len(writes)
	if opts.DryRun {
		return result, nil
	}

	if len(writes) > 0 {
		if err := store.CheckWritable(ctx); err != nil {
			return nil, err
		}
		if _, err := store.Apply(ctx, writes); err != nil {
			return nil, err
		}
	}

	marked, err := h.runs.MarkReverted(context.WithoutCancel(ctx), id, h.now())
	if err != nil {
		return nil, fmt.Errorf("texture cache restored but run %d could not be marked reverted: %w", id, err)
	}
	if !marked {
		return nil, fmt.Errorf("run %d: %w", id, ErrAlreadyReverted)
	}
	h.log.Info().Int64("run", id).Int("restored", result.Restored).Int("skipped", len(result.Skipped)).Msg("run reverted")
	return result, nil
}
