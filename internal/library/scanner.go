// Package library enumerates content items from the Kodi library stores.
package library

import (
	"context"
	"errors"
	"fmt"
	"iter"

	"github.com/rs/zerolog"

	sqldb "github.com/spinless-app/spinless/internal/database/sqlc"
	"github.com/spinless-app/spinless/internal/media"
)

// ErrNoMusicStore is returned when music types are selected but no music
// store was supplied.
var ErrNoMusicStore = errors.New("music types selected but no music database is configured")

// Scanner reads items from the video and (optionally) music stores. It never
// writes to either store.
type Scanner struct {
	video *sqldb.Queries
	music *sqldb.Queries
	log   zerolog.Logger
}

// NewScanner builds a Scanner. music may be nil when no music store exists.
func NewScanner(video, music *sqldb.Queries, logger zerolog.Logger) *Scanner {
	return &Scanner{video: video, music: music, log: logger}
}

// Scan yields the items of every selected type, one type after another in
// media.AllTypes order. The sequence is lazy and each range over it queries
// the stores again. Iteration stops with ctx.Err() once ctx is done.
func (s *Scanner) Scan(ctx context.Context, sel Selection) iter.Seq2[media.ContentItem, error] {
	sel = Normalize(sel)
	return func(yield func(media.ContentItem, error) bool) {
		if sel.NeedsMusic() && s.music == nil {
			yield(media.ContentItem{}, ErrNoMusicStore)
			return
		}
		for _, t := range sel.Types() {
			if !s.scanType(ctx, t, yield) {
				return
			}
		}
	}
}

// scanType streams items of one type and returns false when iteration must
// stop.
func (s *Scanner) scanType(ctx context.Context, t media.ContentType, yield func(media.ContentItem, error) bool) bool {
	var owners map[int64][]media.ItemKey
	if t == media.Actor {
		var err error
		if owners, err = s.actorOwners(ctx); err != nil {
			yield(media.ContentItem{}, fmt.Errorf("failed to read actor links: %w", err))
			return false
		}
	}

	var (
		current *media.ContentItem
		count   int
	)
	emit := func() bool {
		if current == nil {
			return true
		}
		if err := ctx.Err(); err != nil {
			yield(media.ContentItem{}, err)
			return false
		}
		count++
		return yield(*current, nil)
	}

	for row, err := range s.rows(ctx, t) {
		if err != nil {
			yield(media.ContentItem{}, fmt.Errorf("failed to read %s items: %w", t, err))
			return false
		}
		if current == nil || current.Key.ID != row.ID {
			if !emit() {
				return false
			}
			item := newItem(t, row, owners)
			current = &item
		}
		if row.ArtURL.Valid && row.ArtURL.String != "" {
			current.Artwork = append(current.Artwork, media.Artwork{Kind: row.ArtType.String, URL: row.ArtURL.String})
		}
	}
	if !emit() {
		return false
	}

	s.log.Debug().Str("type", string(t)).Int("items", count).Msg("scanned content type")
	return true
}

func (s *Scanner) rows(ctx context.Context, t media.ContentType) iter.Seq2[sqldb.ItemArtRow, error] {
	switch t {
	case media.Movie:
		return s.video.ListMovieArt(ctx)
	case media.Set:
		return s.video.ListSetArt(ctx)
	case media.Show:
		return s.video.ListShowArt(ctx)
	case media.Season:
		return s.video.ListSeasonArt(ctx)
	case media.Episode:
		return s.video.ListEpisodeArt(ctx)
	case media.MusicVideo:
		return s.video.ListMusicVideoArt(ctx)
	case media.Actor:
		return s.video.ListActorArt(ctx)
	case media.Artist:
		return s.music.ListArtistArt(ctx)
	case media.Album:
		return s.music.ListAlbumArt(ctx)
	default:
		return func(yield func(sqldb.ItemArtRow, error) bool) {
			yield(sqldb.ItemArtRow{}, fmt.Errorf("unsupported content type: %s", t))
		}
	}
}

func (s *Scanner) actorOwners(ctx context.Context) (map[int64][]media.ItemKey, error) {
	links, err := s.video.ListActorLinks(ctx)
	if err != nil {
		return nil, err
	}
	owners := make(map[int64][]media.ItemKey)
	for _, link := range links {
		owners[link.ActorID] = append(owners[link.ActorID], media.ItemKey{Type: media.ContentType(link.MediaType), ID: link.MediaID})
	}
	return owners, nil
}

func newItem(t media.ContentType, row sqldb.ItemArtRow, owners map[int64][]media.ItemKey) media.ContentItem {
	item := media.ContentItem{
		Key:     media.ItemKey{Type: t, ID: row.ID},
		Title:   row.Title.String,
		Dir:     row.Path.String,
		File:    row.Filename.String,
		Artwork: []media.Artwork{},
	}
	switch t {
	case media.Season, media.Episode:
		if row.ParentID.Valid {
			item.Parents = []media.ItemKey{{Type: media.Show, ID: row.ParentID.Int64}}
		}
	case media.Actor:
		item.Parents = owners[row.ID]
	}
	return item
}
