package sqldb

import "context"

const deleteRunsBefore = `DELETE FROM runs WHERE applied_at < ?`

// DeleteRunsBefore removes runs applied before the given RFC 3339 time. Their
// rows go with them through ON DELETE CASCADE.
func (q *Queries) DeleteRunsBefore(ctx context.Context, appliedAt string) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteRunsBefore, appliedAt)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
