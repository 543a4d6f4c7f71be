package database

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRunRepositoryLifecycle(t *testing.T) {
	ctx := context.Background()
	repo := NewRunRepository(setupJournal(t))

	old := "2024-05-01 10:00:00"
	appliedAt := time.Date(2025, 3, 4, 5, 6, 7, 0, time.UTC)
	runID, err := repo.Record(ctx, RunRecord{
		AppliedAt:      appliedAt,
		TextureDB:      "/kodi/Textures13.db",
		Mode:           "nfo-required",
		EpisodePolicy:  "per_item",
		Updated:        2,
		AlreadyCurrent: 1,
	}, []RunRowRecord{
		{TextureID: 7, URL: "/movies/Alien/poster.jpg", OldHashCheck: &old, NewHashCheck: "2099-01-01 00:00:00"},
		{TextureID: 3, URL: "/movies/Alien/fanart.jpg", NewHashCheck: "2099-01-01 00:00:00"},
	})
	if err != nil {
		t.Fatalf("Record returned error: %v", err)
	}
	if runID == 0 {
		t.Fatalf("expected non-zero run id")
	}

	run, err := repo.Get(ctx, runID)
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if !run.AppliedAt.Equal(appliedAt) || run.Updated != 2 || run.AlreadyCurrent != 1 || run.Reverted() {
		t.Fatalf("unexpected run record: %#v", run)
	}

	rows, err := repo.Rows(ctx, runID)
	if err != nil {
		t.Fatalf("Rows returned error: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0].TextureID != 3 || rows[0].OldHashCheck != nil {
		t.Fatalf("expected NULL old value for texture 3, got %#v", rows[0])
	}
	if rows[1].OldHashCheck == nil || *rows[1].OldHashCheck != old {
		t.Fatalf("expected old value %q for texture 7, got %#v", old, rows[1])
	}

	marked, err := repo.MarkReverted(ctx, runID, appliedAt.Add(time.Hour))
	if err != nil {
		t.Fatalf("MarkReverted returned error: %v", err)
	}
	if !marked {
		t.Fatalf("expected first MarkReverted to succeed")
	}
	marked, err = repo.MarkReverted(ctx, runID, appliedAt.Add(2*time.Hour))
	if err != nil {
		t.Fatalf("MarkReverted second call error: %v", err)
	}
	if marked {
		t.Fatalf("expected second MarkReverted to be a no-op")
	}

	run, err = repo.Get(ctx, runID)
	if err != nil {
		t.Fatalf("Get after revert returned error: %v", err)
	}
	if !run.Reverted() || !run.RevertedAt.Equal(appliedAt.Add(time.Hour)) {
		t.Fatalf("expected reverted_at to be the first stamp, got %#v", run.RevertedAt)
	}
}

func TestRunRepositoryListNewestFirst(t *testing.T) {
	ctx := context.Background()
	repo := NewRunRepository(setupJournal(t))

	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := range 3 {
		if _, err := repo.Record(ctx, RunRecord{AppliedAt: base.Add(time.Duration(i) * time.Minute), TextureDB: "t.db", Mode: "all-local", EpisodePolicy: "per_item"}, nil); err != nil {
			t.Fatalf("Record %d returned error: %v", i, err)
		}
	}

	all, err := repo.List(ctx, 0)
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(all) != 3 || all[0].ID < all[1].ID || all[1].ID < all[2].ID {
		t.Fatalf("expected 3 runs newest first, got %#v", all)
	}

	limited, err := repo.List(ctx, 2)
	if err != nil {
		t.Fatalf("List with limit returned error: %v", err)
	}
	if len(limited) != 2 || limited[0].ID != all[0].ID {
		t.Fatalf("expected the 2 newest runs, got %#v", limited)
	}
}

func TestRunRepositoryGetMissing(t *testing.T) {
	repo := NewRunRepository(setupJournal(t))
	if _, err := repo.Get(context.Background(), 42); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRunRepositoryRecordRollsBackOnDuplicateRow(t *testing.T) {
	ctx := context.Background()
	dbCtx := setupJournal(t)
	repo := NewRunRepository(dbCtx)

	_, err := repo.Record(ctx, RunRecord{AppliedAt: time.Now(), TextureDB: "t.db", Mode: "all-local", EpisodePolicy: "per_item"}, []RunRowRecord{
		{TextureID: 1, URL: "a", NewHashCheck: "x"},
		{TextureID: 1, URL: "a", NewHashCheck: "x"},
	})
	if err == nil {
		t.Fatalf("expected duplicate texture id to fail")
	}

	runs, err := repo.List(ctx, 0)
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(runs) != 0 {
		t.Fatalf("expected failed record to leave no run, got %d", len(runs))
	}
}

func TestRunRepositoryPruneRemovesOldRunsAndRows(t *testing.T) {
	ctx := context.Background()
	repo := NewRunRepository(setupJournal(t))

	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	var ids []int64
	for i := 0; i < 3; i++ {
		id, err := repo.Record(ctx, RunRecord{
			AppliedAt:     base.AddDate(0, i, 0),
			TextureDB:     "/kodi/Textures13.db",
			Mode:          "nfo-required",
			EpisodePolicy: "per_item",
			Updated:       1,
		}, []RunRowRecord{{TextureID: int64(i + 1), URL: "/m/poster.jpg", NewHashCheck: "2099-01-01 00:00:00"}})
		if err != nil {
			t.Fatalf("Record returned error: %v", err)
		}
		ids = append(ids, id)
	}

	deleted, err := repo.Prune(ctx, base.AddDate(0, 1, 15))
	if err != nil {
		t.Fatalf("Prune returned error: %v", err)
	}
	if deleted != 2 {
		t.Fatalf("expected 2 runs pruned, got %d", deleted)
	}

	if _, err := repo.Get(ctx, ids[0]); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected pruned run to be gone, got %v", err)
	}
	rows, err := repo.Rows(ctx, ids[1])
	if err != nil {
		t.Fatalf("Rows returned error: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("expected rows of pruned run to cascade, got %d", len(rows))
	}
	if _, err := repo.Get(ctx, ids[2]); err != nil {
		t.Fatalf("expected newest run to survive, got %v", err)
	}
}
