package sqldb

import "context"

const listTextures = `SELECT id, url, lasthashcheck FROM texture ORDER BY id`

func (q *Queries) ListTextures(ctx context.Context) ([]Texture, error) {
	rows, err := q.db.QueryContext(ctx, listTextures)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Texture
	for rows.Next() {
		var i Texture
		if err := rows.Scan(&i.ID, &i.URL, &i.LastHashCheck); err != nil {
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

const getTextureByID = `SELECT id, url, lasthashcheck FROM texture WHERE id = ?`

func (q *Queries) GetTextureByID(ctx context.Context, id int64) (Texture, error) {
	row := q.db.QueryRowContext(ctx, getTextureByID, id)
	var i Texture
	err := row.Scan(&i.ID, &i.URL, &i.LastHashCheck)
	return i, err
}

const updateLastHashCheck = `UPDATE texture SET lasthashcheck = ? WHERE id = ?`

type UpdateLastHashCheckParams struct {
	LastHashCheck any
	ID            int64
}

// UpdateLastHashCheck returns the number of affected rows.
func (q *Queries) UpdateLastHashCheck(ctx context.Context, arg UpdateLastHashCheckParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, updateLastHashCheck, arg.LastHashCheck, arg.ID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
