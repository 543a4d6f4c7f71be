package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sqldb "github.com/spinless-app/spinless/internal/database/sqlc"
)

// RunRepository reads and writes the apply journal.
type RunRepository struct {
	ctx *Context
}

func NewRunRepository(dbCtx *Context) *RunRepository {
	return &RunRepository{ctx: dbCtx}
}

// Record stores a run and the rows it touched in one transaction and
// returns the new run id.
func (r *RunRepository) Record(ctx context.Context, run RunRecord, rows []RunRowRecord) (int64, error) {
	queries := queriesFromContext(r.ctx)
	if queries == nil {
		return 0, fmt.Errorf("run repository: missing database context")
	}

	tx, err := r.ctx.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin journal transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	txQueries := queries.WithTx(tx)
	res, err := txQueries.InsertRun(ctx, runInsertParams(run))
	if err != nil {
		return 0, fmt.Errorf("failed to insert run: %w", err)
	}
	runID, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	for _, row := range rows {
		if err := txQueries.InsertRunRow(ctx, runRowParams(runID, row)); err != nil {
			return 0, fmt.Errorf("failed to insert run row %d: %w", row.TextureID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit journal transaction: %w", err)
	}
	return runID, nil
}

// List returns up to limit runs, newest first. A non-positive limit lists all.
func (r *RunRepository) List(ctx context.Context, limit int) ([]RunRecord, error) {
	queries := queriesFromContext(r.ctx)
	if queries == nil {
		return nil, fmt.Errorf("run repository: missing database context")
	}

	queryLimit := int64(limit)
	if queryLimit <= 0 {
		queryLimit = -1
	}
	rows, err := queries.ListRuns(ctx, queryLimit)
	if err != nil {
		return nil, err
	}

	result := make([]RunRecord, 0, len(rows))
	for _, row := range rows {
		result = append(result, RunRecordFromRow(row))
	}
	return result, nil
}

// Get returns the run with the given id or ErrNotFound.
func (r *RunRepository) Get(ctx context.Context, id int64) (*RunRecord, error) {
	queries := queriesFromContext(r.ctx)
	if queries == nil {
		return nil, fmt.Errorf("run repository: missing database context")
	}

	row, err := queries.GetRun(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("run %d: %w", id, ErrNotFound)
		}
		return nil, err
	}

	record := RunRecordFromRow(row)
	return &record, nil
}

// Rows returns the texture rows recorded for a run.
func (r *RunRepository) Rows(ctx context.Context, runID int64) ([]RunRowRecord, error) {
	queries := queriesFromContext(r.ctx)
	if queries == nil {
		return nil, fmt.Errorf("run repository: missing database context")
	}

	rows, err := queries.ListRunRows(ctx, runID)
	if err != nil {
		return nil, err
	}

	result := make([]RunRowRecord, 0, len(rows))
	for _, row := range rows {
		result = append(result, RunRowRecordFromRow(row))
	}
	return result, nil
}

// MarkReverted stamps the run as reverted. It returns false when the run was
// already reverted or does not exist.
func (r *RunRepository) MarkReverted(ctx context.Context, runID int64, at time.Time) (bool, error) {
	queries := queriesFromContext(r.ctx)
	if queries == nil {
		return false, fmt.Errorf("run repository: missing database context")
	}

	affected, err := queries.MarkRunReverted(ctx, sqldb.MarkRunRevertedParams{RevertedAt: formatTime(at), ID: runID})
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// Prune deletes runs applied before cutoff together with their rows and
// returns how many runs were removed.
func (r *RunRepository) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	queries := queriesFromContext(r.ctx)
	if queries == nil {
		return 0, fmt.Errorf("run repository: missing database context")
	}

	deleted, err := queries.DeleteRunsBefore(ctx, formatTime(cutoff))
	if err != nil {
		return 0, fmt.Errorf("failed to prune journal: %w", err)
	}
	return deleted, nil
}
