package database

import "time"

// RunRecord is one applied run as stored in the journal.
type RunRecord struct {
	ID             int64
	AppliedAt      time.Time
	TextureDB      string
	Mode           string
	EpisodePolicy  string
	Updated        int64
	AlreadyCurrent int64
	RevertedAt     *time.Time
}

// Reverted reports whether the run has already been undone.
func (r RunRecord) Reverted() bool {
	return r.RevertedAt != nil
}

// RunRowRecord captures the before and after lasthashcheck value of one
// texture row touched by a run. OldHashCheck is nil when the column was NULL.
type RunRowRecord struct {
	TextureID    int64
	URL          string
	OldHashCheck *string
	NewHashCheck string
}
