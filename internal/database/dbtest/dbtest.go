// Package dbtest builds throwaway SQLite files laid out like Kodi's video,
// music and texture stores. Only the tables and columns the engine reads
// are created.
package dbtest

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	// Import SQLite driver for database/sql
	_ "modernc.org/sqlite"
)

const videoSchema = `
CREATE TABLE path (idPath INTEGER PRIMARY KEY, strPath TEXT);
CREATE TABLE files (idFile INTEGER PRIMARY KEY, idPath INTEGER, strFilename TEXT);
CREATE TABLE movie (idMovie INTEGER PRIMARY KEY, idFile INTEGER, c00 TEXT, idSet INTEGER);
CREATE TABLE sets (idSet INTEGER PRIMARY KEY, strSet TEXT);
CREATE TABLE tvshow (idShow INTEGER PRIMARY KEY, c00 TEXT);
CREATE TABLE tvshowlinkpath (idShow INTEGER, idPath INTEGER);
CREATE TABLE seasons (idSeason INTEGER PRIMARY KEY, idShow INTEGER, season INTEGER);
CREATE TABLE episode (idEpisode INTEGER PRIMARY KEY, idFile INTEGER, c00 TEXT, idShow INTEGER, idSeason INTEGER);
CREATE TABLE musicvideo (idMVideo INTEGER PRIMARY KEY, idFile INTEGER, c00 TEXT);
CREATE TABLE actor (actor_id INTEGER PRIMARY KEY, name TEXT, art_urls TEXT);
CREATE TABLE actor_link (actor_id INTEGER, media_id INTEGER, media_type TEXT, role TEXT, cast_order INTEGER);
CREATE TABLE art (art_id INTEGER PRIMARY KEY, media_id INTEGER, media_type TEXT, type TEXT, url TEXT);
`

const musicSchema = `
CREATE TABLE artist (idArtist INTEGER PRIMARY KEY, strArtist TEXT);
CREATE TABLE album (idAlbum INTEGER PRIMARY KEY, strAlbum TEXT);
CREATE TABLE art (art_id INTEGER PRIMARY KEY, media_id INTEGER, media_type TEXT, type TEXT, url TEXT);
`

const textureSchema = `
CREATE TABLE texture (id INTEGER PRIMARY KEY, url TEXT, cachedurl TEXT, imagehash TEXT, lasthashcheck TEXT);
CREATE TABLE sizes (idtexture INTEGER, size INTEGER, width INTEGER, height INTEGER, usecount INTEGER, lastusetime TEXT);
`

// Store is a fixture database file with a handle kept open for seeding and
// inspection.
type Store struct {
	t    testing.TB
	DB   *sql.DB
	Path string
}

// NewVideoStore creates an empty MyVideos database in a temp directory.
func NewVideoStore(t testing.TB) *Store {
	return newStore(t, "MyVideos131.db", videoSchema)
}

// NewMusicStore creates an empty MyMusic database in a temp directory.
func NewMusicStore(t testing.TB) *Store {
	return newStore(t, "MyMusic83.db", musicSchema)
}

// NewTextureStore creates an empty Textures database in a temp directory.
func NewTextureStore(t testing.TB) *Store {
	return newStore(t, "Textures13.db", textureSchema)
}

// NewEmptyFile creates a SQLite database without any Kodi tables.
func NewEmptyFile(t testing.TB, name string) *Store {
	return newStore(t, name, "CREATE TABLE unrelated (id INTEGER PRIMARY KEY);")
}

func newStore(t testing.TB, name, schema string) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open fixture %s: %v", name, err)
	}
	t.Cleanup(func() {
		_ = db.Close()
	})
	if _, err := db.Exec(schema); err != nil {
		t.Fatalf("create fixture schema %s: %v", name, err)
	}
	return &Store{t: t, DB: db, Path: path}
}

// Exec runs a statement against the fixture and fails the test on error.
func (s *Store) Exec(query string, args ...any) sql.Result {
	s.t.Helper()
	res, err := s.DB.Exec(query, args...)
	if err != nil {
		s.t.Fatalf("fixture exec %q: %v", query, err)
	}
	return res
}

// file returns the idFile of dir+name, creating the path and files rows.
func (s *Store) file(dir, name string) int64 {
	s.t.Helper()
	var pathID int64
	err := s.DB.QueryRow(`SELECT idPath FROM path WHERE strPath = ?`, dir).Scan(&pathID)
	if err == sql.ErrNoRows {
		res := s.Exec(`INSERT INTO path (strPath) VALUES (?)`, dir)
		pathID, _ = res.LastInsertId()
	} else if err != nil {
		s.t.Fatalf("fixture path lookup: %v", err)
	}
	res := s.Exec(`INSERT INTO files (idPath, strFilename) VALUES (?, ?)`, pathID, name)
	fileID, _ := res.LastInsertId()
	return fileID
}

func nullable(id int64) any {
	if id == 0 {
		return nil
	}
	return id
}

// Movie inserts a movie stored at dir+file. A zero setID leaves idSet NULL.
func (s *Store) Movie(id int64, title, dir, file string, setID int64) {
	s.t.Helper()
	s.Exec(`INSERT INTO movie (idMovie, idFile, c00, idSet) VALUES (?, ?, ?, ?)`, id, s.file(dir, file), title, nullable(setID))
}

// Set inserts a movie set.
func (s *Store) Set(id int64, title string) {
	s.t.Helper()
	s.Exec(`INSERT INTO sets (idSet, strSet) VALUES (?, ?)`, id, title)
}

// Show inserts a TV show linked to dir.
func (s *Store) Show(id int64, title, dir string) {
	s.t.Helper()
	s.Exec(`INSERT INTO tvshow (idShow, c00) VALUES (?, ?)`, id, title)
	if dir == "" {
		return
	}
	res := s.Exec(`INSERT INTO path (strPath) VALUES (?)`, dir)
	pathID, _ := res.LastInsertId()
	s.Exec(`INSERT INTO tvshowlinkpath (idShow, idPath) VALUES (?, ?)`, id, pathID)
}

// Season inserts a season of showID.
func (s *Store) Season(id, showID, number int64) {
	s.t.Helper()
	s.Exec(`INSERT INTO seasons (idSeason, idShow, season) VALUES (?, ?, ?)`, id, showID, number)
}

// Episode inserts an episode stored at dir+file.
func (s *Store) Episode(id, showID, seasonID int64, title, dir, file string) {
	s.t.Helper()
	s.Exec(`INSERT INTO episode (idEpisode, idFile, c00, idShow, idSeason) VALUES (?, ?, ?, ?, ?)`,
		id, s.file(dir, file), title, showID, nullable(seasonID))
}

// MusicVideo inserts a music video stored at dir+file.
func (s *Store) MusicVideo(id int64, title, dir, file string) {
	s.t.Helper()
	s.Exec(`INSERT INTO musicvideo (idMVideo, idFile, c00) VALUES (?, ?, ?)`, id, s.file(dir, file), title)
}

// Actor inserts an actor.
func (s *Store) Actor(id int64, name string) {
	s.t.Helper()
	s.Exec(`INSERT INTO actor (actor_id, name) VALUES (?, ?)`, id, name)
}

// ActorLink links an actor to a media item.
func (s *Store) ActorLink(actorID, mediaID int64, mediaType string) {
	s.t.Helper()
	s.Exec(`INSERT INTO actor_link (actor_id, media_id, media_type) VALUES (?, ?, ?)`, actorID, mediaID, mediaType)
}

// Artist inserts a music artist.
func (s *Store) Artist(id int64, name string) {
	s.t.Helper()
	s.Exec(`INSERT INTO artist (idArtist, strArtist) VALUES (?, ?)`, id, name)
}

// Album inserts a music album.
func (s *Store) Album(id int64, name string) {
	s.t.Helper()
	s.Exec(`INSERT INTO album (idAlbum, strAlbum) VALUES (?, ?)`, id, name)
}

// Art attaches an artwork reference to a media item.
func (s *Store) Art(mediaID int64, mediaType, kind, url string) {
	s.t.Helper()
	s.Exec(`INSERT INTO art (media_id, media_type, type, url) VALUES (?, ?, ?, ?)`, mediaID, mediaType, kind, url)
}

// Texture inserts a texture cache row. A nil lastHashCheck stores NULL.
func (s *Store) Texture(id int64, url string, lastHashCheck any) {
	s.t.Helper()
	s.Exec(`INSERT INTO texture (id, url, cachedurl, imagehash, lasthashcheck) VALUES (?, ?, '', '', ?)`, id, url, lastHashCheck)
}

// HashCheck returns the lasthashcheck column of texture row id.
func (s *Store) HashCheck(id int64) sql.NullString {
	s.t.Helper()
	var value sql.NullString
	if err := s.DB.QueryRow(`SELECT lasthashcheck FROM texture WHERE id = ?`, id).Scan(&value); err != nil {
		s.t.Fatalf("read lasthashcheck %d: %v", id, err)
	}
	return value
}

// HashChecks returns every texture row's lasthashcheck keyed by id.
func (s *Store) HashChecks() map[int64]sql.NullString {
	s.t.Helper()
	rows, err := s.DB.Query(`SELECT id, lasthashcheck FROM texture`)
	if err != nil {
		s.t.Fatalf("read texture rows: %v", err)
	}
	defer rows.Close()
	out := map[int64]sql.NullString{}
	for rows.Next() {
		var id int64
		var value sql.NullString
		if err := rows.Scan(&id, &value); err != nil {
			s.t.Fatalf("scan texture row: %v", err)
		}
		out[id] = value
	}
	if err := rows.Err(); err != nil {
		s.t.Fatalf("iterate texture rows: %v", err)
	}
	return out
}

// Lock takes the write lock on the store from a separate connection, the way
// a running Kodi would. The returned function releases it.
func (s *Store) Lock() func() {
	s.t.Helper()
	ctx := context.Background()
	conn, err := s.DB.Conn(ctx)
	if err != nil {
		s.t.Fatalf("acquire fixture connection: %v", err)
	}
	if _, err := conn.ExecContext(ctx, "BEGIN IMMEDIATE"); err != nil {
		_ = conn.Close()
		s.t.Fatalf("lock fixture: %v", err)
	}
	released := false
	release := func() {
		if released {
			return
		}
		released = true
		_, _ = conn.ExecContext(ctx, "ROLLBACK")
		_ = conn.Close()
	}
	s.t.Cleanup(release)
	return release
}
