package database

import (
	"errors"
	"fmt"
	"strings"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// ErrNotFound indicates a requested record does not exist.
var ErrNotFound = errors.New("database: not found")

// ErrStoreLocked indicates another process (usually Kodi) holds the store lock.
var ErrStoreLocked = errors.New("database is locked by another process; close Kodi and try again")

// ErrStaleRow indicates a row changed or disappeared between planning and apply.
var ErrStaleRow = errors.New("row no longer exists in store")

// ErrMissingStore indicates the store file does not exist.
var ErrMissingStore = errors.New("database file not found")

// ErrWrongSchema indicates the file is a SQLite database but not the expected Kodi store.
var ErrWrongSchema = errors.New("unexpected database schema")

// StoreError reports a store-level failure with enough context to act on it.
type StoreError struct {
	Store Store
	Path  string
	Op    string
	Err   error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s store %s: %s: %v", e.Store, e.Path, e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// IsLockError reports whether err comes from SQLite lock contention.
func IsLockError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrStoreLocked) {
		return true
	}
	var se *sqlite.Error
	if errors.As(err, &se) {
		switch se.Code() & 0xff {
		case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED:
			return true
		}
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "sqlite_busy")
}

// Wrap turns err into a *StoreError for the given store, mapping lock
// contention onto ErrStoreLocked. It returns nil for a nil err.
func (c *Context) Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	var se *StoreError
	if errors.As(err, &se) {
		return err
	}
	if IsLockError(err) && !errors.Is(err, ErrStoreLocked) {
		err = fmt.Errorf("%w (%v)", ErrStoreLocked, err)
	}
	store, path := Store(""), ""
	if c != nil {
		store, path = c.Store, c.Path
	}
	return &StoreError{Store: store, Path: path, Op: op, Err: err}
}
