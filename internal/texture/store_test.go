package texture

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/rs/zerolog"

	"github.com/spinless-app/spinless/internal/database"
	"github.com/spinless-app/spinless/internal/database/dbtest"
)

const updateSQL = `UPDATE texture SET lasthashcheck = ? WHERE id = ?`

func openTexture(t *testing.T, fixture *dbtest.Store) *Store {
	t.Helper()
	dbCtx, err := database.OpenTexture(context.Background(), fixture.Path, database.Options{BusyTimeout: 50 * time.Millisecond})
	if err != nil {
		t.Fatalf("OpenTexture returned error: %v", err)
	}
	t.Cleanup(func() {
		_ = database.CloseDatabase(dbCtx)
	})
	return NewStore(dbCtx, zerolog.Nop())
}

func seedTextures(t *testing.T) *dbtest.Store {
	t.Helper()
	fixture := dbtest.NewTextureStore(t)
	fixture.Texture(1, "/movies/Alien/poster.jpg", "2024-01-01 00:00:00")
	fixture.Texture(2, "/movies/Alien/fanart.jpg", nil)
	fixture.Texture(3, "/movies/Aliens/poster.jpg", "2024-02-02 00:00:00")
	return fixture
}

func TestLoadMatcherReadsRows(t *testing.T) {
	store := openTexture(t, seedTextures(t))

	m, err := LoadMatcher(context.Background(), store.Context(), nil)
	if err != nil {
		t.Fatalf("LoadMatcher returned error: %v", err)
	}
	row, ok := m.Match("/movies/Alien/fanart.jpg")
	if !ok || row.ID != 2 || row.LastHashCheck != nil {
		t.Fatalf("expected row 2 with NULL lasthashcheck, got %#v", row)
	}
}

func TestApplyWritesSentinel(t *testing.T) {
	fixture := seedTextures(t)
	store := openTexture(t, fixture)

	n, err := store.Apply(context.Background(), SentinelWrites([]int64{1, 2}))
	if err != nil {
		t.Fatalf("Apply returned error: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 rows written, got %d", n)
	}

	got := fixture.HashChecks()
	if got[1].String != Sentinel || got[2].String != Sentinel {
		t.Fatalf("expected rows 1 and 2 at sentinel, got %#v", got)
	}
	if got[3].String != "2024-02-02 00:00:00" {
		t.Fatalf("expected row 3 untouched, got %#v", got[3])
	}

	// Writing again is a no-op in effect but still counts the rows.
	if n, err := store.Apply(context.Background(), SentinelWrites([]int64{1, 2})); err != nil || n != 2 {
		t.Fatalf("expected idempotent re-apply, got %d %v", n, err)
	}
}

func TestApplyCanWriteNull(t *testing.T) {
	fixture := seedTextures(t)
	store := openTexture(t, fixture)

	if _, err := store.Apply(context.Background(), []Write{{ID: 1}}); err != nil {
		t.Fatalf("Apply returned error: %v", err)
	}
	if fixture.HashCheck(1).Valid {
		t.Fatalf("expected NULL lasthashcheck for row 1")
	}
}

func TestApplyMissingRowRollsBack(t *testing.T) {
	fixture := seedTextures(t)
	store := openTexture(t, fixture)
	before := fixture.HashChecks()

	_, err := store.Apply(context.Background(), SentinelWrites([]int64{1, 99}))
	if !errors.Is(err, database.ErrStaleRow) {
		t.Fatalf("expected ErrStaleRow, got %v", err)
	}
	var storeErr *database.StoreError
	if !errors.As(err, &storeErr) || storeErr.Store != database.StoreTexture {
		t.Fatalf("expected texture StoreError, got %#v", err)
	}
	assertUnchanged(t, before, fixture.HashChecks())
}

func TestApplyFailureMidBatchIsAtomic(t *testing.T) {
	fixture := seedTextures(t)
	fixture.Exec(`CREATE TRIGGER fail_row_3 BEFORE UPDATE ON texture WHEN NEW.id = 3
BEGIN SELECT RAISE(ABORT, 'injected failure'); END`)
	store := openTexture(t, fixture)
	before := fixture.HashChecks()

	if _, err := store.Apply(context.Background(), SentinelWrites([]int64{1, 2, 3})); err == nil {
		t.Fatalf("expected injected failure")
	}
	assertUnchanged(t, before, fixture.HashChecks())
}

func TestApplyLockedStore(t *testing.T) {
	fixture := seedTextures(t)
	store := openTexture(t, fixture)
	fixture.Lock()

	if err := store.CheckWritable(context.Background()); !errors.Is(err, database.ErrStoreLocked) {
		t.Fatalf("expected ErrStoreLocked from pre-check, got %v", err)
	}
	if _, err := store.Apply(context.Background(), SentinelWrites([]int64{1})); !errors.Is(err, database.ErrStoreLocked) {
		t.Fatalf("expected ErrStoreLocked from apply, got %v", err)
	}
}

func TestApplyCancelledBeforeBegin(t *testing.T) {
	fixture := seedTextures(t)
	store := openTexture(t, fixture)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := store.Apply(ctx, SentinelWrites([]int64{1})); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if fixture.HashCheck(1).String == Sentinel {
		t.Fatalf("expected no write after cancellation")
	}
}

func TestApplyRollsBackOnExecError(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New returned error: %v", err)
	}
	defer db.Close()
	store := NewStore(database.NewContext(database.StoreTexture, "mock.db", db), zerolog.Nop())

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(updateSQL)).WithArgs(Sentinel, int64(1)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(updateSQL)).WithArgs(Sentinel, int64(2)).WillReturnError(errors.New("disk I/O error"))
	mock.ExpectRollback()

	if _, err := store.Apply(context.Background(), SentinelWrites([]int64{1, 2, 3})); err == nil {
		t.Fatalf("expected exec error to fail the batch")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestApplyMapsBusyToLocked(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New returned error: %v", err)
	}
	defer db.Close()
	store := NewStore(database.NewContext(database.StoreTexture, "mock.db", db), zerolog.Nop())

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(updateSQL)).WithArgs(Sentinel, int64(1)).WillReturnError(errors.New("database is locked (5) (SQLITE_BUSY)"))
	mock.ExpectRollback()

	_, err = store.Apply(context.Background(), SentinelWrites([]int64{1}))
	if !errors.Is(err, database.ErrStoreLocked) {
		t.Fatalf("expected ErrStoreLocked, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestApplyCommitFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New returned error: %v", err)
	}
	defer db.Close()
	store := NewStore(database.NewContext(database.StoreTexture, "mock.db", db), zerolog.Nop())

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(updateSQL)).WithArgs(Sentinel, int64(1)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit().WillReturnError(errors.New("disk full"))

	n, err := store.Apply(context.Background(), SentinelWrites([]int64{1}))
	if err == nil || n != 0 {
		t.Fatalf("expected commit failure to report zero rows and an error, got %d %v", n, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestApplyCompletesWhenCancelledMidBatch(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New returned error: %v", err)
	}
	defer db.Close()
	store := NewStore(database.NewContext(database.StoreTexture, "mock.db", db), zerolog.Nop())

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(updateSQL)).WithArgs(Sentinel, int64(1)).
		WillDelayFor(200 * time.Millisecond).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(updateSQL)).WithArgs(Sentinel, int64(2)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	timer := time.AfterFunc(50*time.Millisecond, cancel)
	defer timer.Stop()

	n, err := store.Apply(ctx, SentinelWrites([]int64{1, 2}))
	if err != nil {
		t.Fatalf("expected the batch to finish after cancellation, got %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 rows written, got %d", n)
	}
	if ctx.Err() == nil {
		t.Fatalf("expected ctx to be cancelled during the batch")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestReplaceReturnsPriorValues(t *testing.T) {
	fixture := seedTextures(t)
	store := openTexture(t, fixture)

	previous, err := store.Replace(context.Background(), SentinelWrites([]int64{1, 2}))
	if err != nil {
		t.Fatalf("Replace returned error: %v", err)
	}
	if len(previous) != 2 {
		t.Fatalf("expected 2 prior rows, got %#v", previous)
	}
	if previous[0].ID != 1 || previous[0].LastHashCheck == nil || *previous[0].LastHashCheck != "2024-01-01 00:00:00" {
		t.Fatalf("unexpected prior row 1: %#v", previous[0])
	}
	if previous[1].ID != 2 || previous[1].LastHashCheck != nil {
		t.Fatalf("expected NULL prior value for row 2, got %#v", previous[1])
	}
	if got := fixture.HashChecks(); got[1].String != Sentinel || got[2].String != Sentinel {
		t.Fatalf("expected rows written, got %#v", got)
	}
}

func TestReplaceSeesValueChangedAfterRead(t *testing.T) {
	fixture := seedTextures(t)
	store := openTexture(t, fixture)

	// Kodi touches row 1 after it was read for planning.
	fixture.Exec(`UPDATE texture SET lasthashcheck = '2025-05-05 05:05:05' WHERE id = 1`)

	previous, err := store.Replace(context.Background(), SentinelWrites([]int64{1}))
	if err != nil {
		t.Fatalf("Replace returned error: %v", err)
	}
	if len(previous) != 1 || previous[0].LastHashCheck == nil || *previous[0].LastHashCheck != "2025-05-05 05:05:05" {
		t.Fatalf("expected the value present at write time, got %#v", previous)
	}
}

func TestReplaceMissingRowRollsBack(t *testing.T) {
	fixture := seedTextures(t)
	store := openTexture(t, fixture)
	before := fixture.HashChecks()

	previous, err := store.Replace(context.Background(), SentinelWrites([]int64{1, 99}))
	if !errors.Is(err, database.ErrStaleRow) {
		t.Fatalf("expected ErrStaleRow, got %v", err)
	}
	if previous != nil {
		t.Fatalf("expected no prior rows on failure, got %#v", previous)
	}
	assertUnchanged(t, before, fixture.HashChecks())
}

func assertUnchanged(t *testing.T, before, after map[int64]sql.NullString) {
	t.Helper()
	for id, value := range before {
		if after[id] != value {
			t.Fatalf("row %d changed from %#v to %#v", id, value, after[id])
		}
	}
}
