// Package database opens the Kodi stores and the apply journal.
//
// The video and music library stores are always opened read-only. The
// texture store is opened read-write with immediate transactions so that
// BEGIN takes the write lock up front.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/spinless-app/spinless/db/migrations"
	sqldb "github.com/spinless-app/spinless/internal/database/sqlc"

	// Import SQLite driver for database/sql
	_ "modernc.org/sqlite"
)

// Store names one of the databases the tool touches.
type Store string

const (
	StoreVideo   Store = "video"
	StoreMusic   Store = "music"
	StoreTexture Store = "texture"
	StoreJournal Store = "journal"
)

// DefaultBusyTimeout bounds how long a statement waits for a lock.
const DefaultBusyTimeout = time.Second

var requiredTables = map[Store][]string{
	StoreVideo:   {"movie", "files", "path", "art"},
	StoreMusic:   {"artist", "album", "art"},
	StoreTexture: {"texture"},
}

// Context holds the database connection and query interface.
type Context struct {
	DB      *sql.DB
	Queries *sqldb.Queries
	Store   Store
	Path    string
}

// NewContext wraps an already opened handle.
func NewContext(store Store, path string, db *sql.DB) *Context {
	return &Context{DB: db, Queries: sqldb.New(db), Store: store, Path: path}
}

// Options tunes how a Kodi store is opened.
type Options struct {
	BusyTimeout time.Duration
}

// OpenLibrary opens a video or music library store read-only.
func OpenLibrary(ctx context.Context, store Store, path string, opts Options) (*Context, error) {
	return openKodiStore(ctx, store, path, "mode=ro", opts)
}

// OpenTexture opens the texture cache store for reading and writing.
func OpenTexture(ctx context.Context, path string, opts Options) (*Context, error) {
	return openKodiStore(ctx, StoreTexture, path, "_txlock=immediate", opts)
}

func openKodiStore(ctx context.Context, store Store, path, mode string, opts Options) (*Context, error) {
	fail := func(op string, err error) error {
		return &StoreError{Store: store, Path: path, Op: op, Err: err}
	}

	if path == "" {
		return nil, fail("open", ErrMissingStore)
	}
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fail("open", ErrMissingStore)
		}
		return nil, fail("stat", err)
	}
	if info.IsDir() {
		return nil, fail("open", fmt.Errorf("%s is a directory", path))
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fail("resolve path", err)
	}

	timeout := opts.BusyTimeout
	if timeout <= 0 {
		timeout = DefaultBusyTimeout
	}
	dsn := fileURI(absPath, fmt.Sprintf("%s&_pragma=busy_timeout(%d)", mode, timeout.Milliseconds()))

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fail("open", err)
	}
	// One connection keeps the store a single handle for the whole call.
	db.SetMaxOpenConns(1)

	dbCtx := NewContext(store, path, db)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, dbCtx.Wrap("ping", err)
	}
	if err := dbCtx.checkSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return dbCtx, nil
}

// fileURI builds the SQLite URI for absPath. The path is percent-encoded so
// '?', '#' and '%' in directory names reach SQLite intact.
func fileURI(absPath, query string) string {
	p := filepath.ToSlash(absPath)
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return (&url.URL{Scheme: "file", Path: p, RawQuery: query}).String()
}

func (c *Context) checkSchema(ctx context.Context) error {
	for _, table := range requiredTables[c.Store] {
		var name string
		err := c.DB.QueryRowContext(ctx, `SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&name)
		if errors.Is(err, sql.ErrNoRows) {
			return c.Wrap("check schema", fmt.Errorf("%w: missing table %q", ErrWrongSchema, table))
		}
		if err != nil {
			return c.Wrap("check schema", err)
		}
	}
	return nil
}

// CheckWritable takes and releases the write lock on the store. It fails
// with ErrStoreLocked while Kodi (or any other writer) holds the database.
func (c *Context) CheckWritable(ctx context.Context) error {
	tx, err := c.DB.BeginTx(ctx, nil)
	if err != nil {
		return c.Wrap("lock check", err)
	}
	if err := tx.Rollback(); err != nil {
		return c.Wrap("lock check", err)
	}
	return nil
}

// OpenJournal opens (creating if needed) the apply journal and runs its
// migrations. ":memory:" opens a private in-memory journal.
func OpenJournal(path string) (*Context, error) {
	useMemory := path == ":memory:"

	var dsn string
	if useMemory {
		dsn = "file::memory:?_pragma=foreign_keys(ON)"
	} else {
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return nil, fmt.Errorf("failed to create journal directory: %w", err)
		}
		absPath, err := filepath.Abs(path)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve journal path: %w", err)
		}
		dsn = fileURI(absPath, "_pragma=foreign_keys(ON)")
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}
	if useMemory {
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping journal: %w", err)
	}

	if err := runMigrations(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return NewContext(StoreJournal, path, db), nil
}

// CloseDatabase closes the database connection.
func CloseDatabase(ctx *Context) error {
	if ctx == nil || ctx.DB == nil {
		return nil
	}
	return ctx.DB.Close()
}

func runMigrations(db *sql.DB) error {
	driver, err := sqlite.WithInstance(db, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("failed to initialise migrate driver: %w", err)
	}

	sourceDriver, err := iofs.New(migrations.Files, ".")
	if err != nil {
		return fmt.Errorf("failed to load embedded migrations: %w", err)
	}
	defer func() {
		_ = sourceDriver.Close()
	}()

	migrator, err := migrate.NewWithInstance("iofs", sourceDriver, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}

	if err := migrator.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	return nil
}
