package sqldb

import "database/sql"

// ItemArtRow is one row of an item LEFT JOIN art query. Items without art
// produce a single row with invalid ArtType/ArtURL.
type ItemArtRow struct {
	ID       int64
	Title    sql.NullString
	Path     sql.NullString
	Filename sql.NullString
	ParentID sql.NullInt64
	ArtType  sql.NullString
	ArtURL   sql.NullString
}

// ActorLinkRow links an actor to a movie or show.
type ActorLinkRow struct {
	ActorID   int64
	MediaID   int64
	MediaType string
}

// Texture mirrors the columns of Kodi's texture table the engine reads.
type Texture struct {
	ID            int64
	URL           string
	LastHashCheck sql.NullString
}

// Run is a row of the journal's runs table.
type Run struct {
	ID             int64
	AppliedAt      string
	TextureDB      string
	Mode           string
	EpisodePolicy  string
	Updated        int64
	AlreadyCurrent int64
	RevertedAt     sql.NullString
}

// RunRow is one texture row recorded by an applied run.
type RunRow struct {
	RunID        int64
	TextureID    int64
	URL          string
	OldHashCheck sql.NullString
	NewHashCheck string
}
