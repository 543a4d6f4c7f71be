package database

import (
	"database/sql"
	"time"

	sqldb "github.com/spinless-app/spinless/internal/database/sqlc"
)

// journalTimeFormat is how timestamps are written to the journal.
const journalTimeFormat = time.RFC3339

func stringPtrToNullString(value *string) sql.NullString {
	if value == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *value, Valid: true}
}

func nullStringToPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	value := ns.String
	return &value
}

func formatTime(t time.Time) string {
	return t.UTC().Format(journalTimeFormat)
}

func parseTime(value string) time.Time {
	t, err := time.Parse(journalTimeFormat, value)
	if err != nil {
		return time.Time{}
	}
	return t
}

func optionalTime(ns sql.NullString) *time.Time {
	if !ns.Valid || ns.String == "" {
		return nil
	}
	t := parseTime(ns.String)
	return &t
}

func queriesFromContext(ctx *Context) *sqldb.Queries {
	if ctx == nil {
		return nil
	}
	if ctx.Queries != nil {
		return ctx.Queries
	}
	if ctx.DB == nil {
		return nil
	}
	return sqldb.New(ctx.DB)
}
