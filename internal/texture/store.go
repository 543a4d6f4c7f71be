package texture

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/spinless-app/spinless/internal/database"
	sqldb "github.com/spinless-app/spinless/internal/database/sqlc"
)

// Write sets one row's lasthashcheck. A nil Value writes NULL.
type Write struct {
	ID    int64
	Value *string
}

// Store writes to the texture cache.
type Store struct {
	db  *database.Context
	log zerolog.Logger
}

func NewStore(dbCtx *database.Context, logger zerolog.Logger) *Store {
	return &Store{db: dbCtx, log: logger}
}

// Context returns the underlying store handle.
func (s *Store) Context() *database.Context {
	return s.db
}

// CheckWritable fails with database.ErrStoreLocked while another process
// holds the store.
func (s *Store) CheckWritable(ctx context.Context) error {
	return s.db.CheckWritable(ctx)
}

// Current reads the present lasthashcheck of row id.
func (s *Store) Current(ctx context.Context, id int64) (Row, error) {
	tex, err := s.db.Queries.GetTextureByID(ctx, id)
	if err != nil {
		return Row{}, s.db.Wrap("read texture", err)
	}
	return rowFrom(tex), nil
}

// Apply performs every write in one immediate transaction. Either all rows
// change or none do: a missing row fails the batch with database.ErrStaleRow.
// Cancelling ctx has no effect once the transaction has begun.
func (s *Store) Apply(ctx context.Context, writes []Write) (int, error) {
	n, _, err := s.apply(ctx, writes, false)
	return n, err
}

// Replace is Apply that also returns each row as it stood inside the
// transaction, immediately before it was overwritten.
func (s *Store) Replace(ctx context.Context, writes []Write) ([]Row, error) {
	_, previous, err := s.apply(ctx, writes, true)
	return previous, err
}

func (s *Store) apply(ctx context.Context, writes []Write, capture bool) (int, []Row, error) {
	if len(writes) == 0 {
		return 0, nil, nil
	}
	if err := ctx.Err(); err != nil {
		return 0, nil, err
	}
	ctx = context.WithoutCancel(ctx)

	tx, err := s.db.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, nil, s.db.Wrap("begin", err)
	}

	rollback := func(cause error) error {
		if rbErr := tx.Rollback(); rbErr != nil {
			cause = errors.Join(cause, fmt.Errorf("rollback failed: %w", rbErr))
		}
		s.log.Warn().Err(cause).Int("rows", len(writes)).Msg("texture update rolled back")
		return s.db.Wrap("apply", cause)
	}

	var previous []Row
	if capture {
		previous = make([]Row, 0, len(writes))
	}
	queries := s.db.Queries.WithTx(tx)
	for _, w := range writes {
		if capture {
			tex, err := queries.GetTextureByID(ctx, w.ID)
			if errors.Is(err, sql.ErrNoRows) {
				return 0, nil, rollback(fmt.Errorf("texture %d: %w", w.ID, database.ErrStaleRow))
			}
			if err != nil {
				return 0, nil, rollback(fmt.Errorf("read texture %d: %w", w.ID, err))
			}
			previous = append(previous, rowFrom(tex))
		}

		var value any
		if w.Value != nil {
			value = *w.Value
		}
		affected, err := queries.UpdateLastHashCheck(ctx, sqldb.UpdateLastHashCheckParams{LastHashCheck: value, ID: w.ID})
		if err != nil {
			return 0, nil, rollback(fmt.Errorf("update texture %d: %w", w.ID, err))
		}
		if affected == 0 {
			return 0, nil, rollback(fmt.Errorf("texture %d: %w", w.ID, database.ErrStaleRow))
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, nil, s.db.Wrap("commit", err)
	}
	s.log.Info().Int("rows", len(writes)).Str("store", s.db.Path).Msg("texture cache updated")
	return len(writes), previous, nil
}

func rowFrom(tex sqldb.Texture) Row {
	row := Row{ID: tex.ID, URL: tex.URL}
	if tex.LastHashCheck.Valid {
		value := tex.LastHashCheck.String
		row.LastHashCheck = &value
	}
	return row
}

// SentinelWrites builds the writes that stamp ids with Sentinel.
func SentinelWrites(ids []int64) []Write {
	value := Sentinel
	writes := make([]Write, len(ids))
	for i, id := range ids {
		writes[i] = Write{ID: id, Value: &value}
	}
	return writes
}
