package sqldb

import (
	"context"
	"database/sql"
)

const insertRun = `
INSERT INTO runs (applied_at, texture_db, mode, episode_policy, updated, already_current)
VALUES (?, ?, ?, ?, ?, ?)`

type InsertRunParams struct {
	AppliedAt      string
	TextureDB      string
	Mode           string
	EpisodePolicy  string
	Updated        int64
	AlreadyCurrent int64
}

func (q *Queries) InsertRun(ctx context.Context, arg InsertRunParams) (sql.Result, error) {
	return q.db.ExecContext(ctx, insertRun,
		arg.AppliedAt,
		arg.TextureDB,
		arg.Mode,
		arg.EpisodePolicy,
		arg.Updated,
		arg.AlreadyCurrent,
	)
}

const insertRunRow = `
INSERT INTO run_rows (run_id, texture_id, url, old_hashcheck, new_hashcheck)
VALUES (?, ?, ?, ?, ?)`

func (q *Queries) InsertRunRow(ctx context.Context, arg RunRow) error {
	_, err := q.db.ExecContext(ctx, insertRunRow,
		arg.RunID,
		arg.TextureID,
		arg.URL,
		arg.OldHashCheck,
		arg.NewHashCheck,
	)
	return err
}

const runColumns = `id, applied_at, texture_db, mode, episode_policy, updated, already_current, reverted_at`

const listRuns = `SELECT ` + runColumns + ` FROM runs ORDER BY id DESC LIMIT ?`

func (q *Queries) ListRuns(ctx context.Context, limit int64) ([]Run, error) {
	rows, err := q.db.QueryContext(ctx, listRuns, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Run
	for rows.Next() {
		var i Run
		if err := scanRun(rows, &i); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const getRun = `SELECT ` + runColumns + ` FROM runs WHERE id = ?`

func (q *Queries) GetRun(ctx context.Context, id int64) (Run, error) {
	row := q.db.QueryRowContext(ctx, getRun, id)
	var i Run
	err := scanRun(row, &i)
	return i, err
}

const listRunRows = `
SELECT run_id, texture_id, url, old_hashcheck, new_hashcheck
FROM run_rows WHERE run_id = ? ORDER BY texture_id`

func (q *Queries) ListRunRows(ctx context.Context, runID int64) ([]RunRow, error) {
	rows, err := q.db.QueryContext(ctx, listRunRows, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []RunRow
	for rows.Next() {
		var i RunRow
		if err := rows.Scan(&i.RunID, &i.TextureID, &i.URL, &i.OldHashCheck, &i.NewHashCheck); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const markRunReverted = `UPDATE runs SET reverted_at = ? WHERE id = ? AND reverted_at IS NULL`

type MarkRunRevertedParams struct {
	RevertedAt string
	ID         int64
}

func (q *Queries) MarkRunReverted(ctx context.Context, arg MarkRunRevertedParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, markRunReverted, arg.RevertedAt, arg.ID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner, i *Run) error {
	return row.Scan(
		&i.ID,
		&i.AppliedAt,
		&i.TextureDB,
		&i.Mode,
		&i.EpisodePolicy,
		&i.Updated,
		&i.AlreadyCurrent,
		&i.RevertedAt,
	)
}
