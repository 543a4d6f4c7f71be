package database

import (
	sqldb "github.com/spinless-app/spinless/internal/database/sqlc"
)

// RunRecordFromRow converts a journal runs row to a RunRecord.
func RunRecordFromRow(row sqldb.Run) RunRecord {
	return RunRecord{
		ID:             row.ID,
		AppliedAt:      parseTime(row.AppliedAt),
		TextureDB:      row.TextureDB,
		Mode:           row.Mode,
		EpisodePolicy:  row.EpisodePolicy,
		Updated:        row.Updated,
		AlreadyCurrent: row.AlreadyCurrent,
		RevertedAt:     optionalTime(row.RevertedAt),
	}
}

// RunRowRecordFromRow converts a journal run_rows row to a RunRowRecord.
func RunRowRecordFromRow(row sqldb.RunRow) RunRowRecord {
	return RunRowRecord{
		TextureID:    row.TextureID,
		URL:          row.URL,
		OldHashCheck: nullStringToPtr(row.OldHashCheck),
		NewHashCheck: row.NewHashCheck,
	}
}

func runInsertParams(run RunRecord) sqldb.InsertRunParams {
	return sqldb.InsertRunParams{
		AppliedAt:      formatTime(run.AppliedAt),
		TextureDB:      run.TextureDB,
		Mode:           run.Mode,
		EpisodePolicy:  run.EpisodePolicy,
		Updated:        run.Updated,
		AlreadyCurrent: run.AlreadyCurrent,
	}
}

func runRowParams(runID int64, row RunRowRecord) sqldb.RunRow {
	return sqldb.RunRow{
		RunID:        runID,
		TextureID:    row.TextureID,
		URL:          row.URL,
		OldHashCheck: stringPtrToNullString(row.OldHashCheck),
		NewHashCheck: row.NewHashCheck,
	}
}
