package sqldb

import (
	"context"
	"iter"
)

// Every item query LEFT JOINs art so items without artwork still yield a row,
// and orders by item id so rows of one item are adjacent.

const listMovieArt = `
SELECT m.idMovie, m.c00, p.strPath, f.strFilename, NULL, a.type, a.url
FROM movie m
LEFT JOIN files f ON f.idFile = m.idFile
LEFT JOIN path p ON p.idPath = f.idPath
LEFT JOIN art a ON a.media_id = m.idMovie AND a.media_type = 'movie'
ORDER BY m.idMovie, a.type, a.art_id`

func (q *Queries) ListMovieArt(ctx context.Context) iter.Seq2[ItemArtRow, error] {
	return q.itemArt(ctx, listMovieArt)
}

const listSetArt = `
SELECT s.idSet, s.strSet, NULL, NULL, NULL, a.type, a.url
FROM sets s
LEFT JOIN art a ON a.media_id = s.idSet AND a.media_type = 'set'
ORDER BY s.idSet, a.type, a.art_id`

func (q *Queries) ListSetArt(ctx context.Context) iter.Seq2[ItemArtRow, error] {
	return q.itemArt(ctx, listSetArt)
}

// A show may be linked to several paths; the lowest path id is its folder.
const listShowArt = `
SELECT t.idShow, t.c00,
       (SELECT p.strPath FROM tvshowlinkpath tl JOIN path p ON p.idPath = tl.idPath
        WHERE tl.idShow = t.idShow ORDER BY p.idPath LIMIT 1),
       NULL, NULL, a.type, a.url
FROM tvshow t
LEFT JOIN art a ON a.media_id = t.idShow AND a.media_type = 'tvshow'
ORDER BY t.idShow, a.type, a.art_id`

func (q *Queries) ListShowArt(ctx context.Context) iter.Seq2[ItemArtRow, error] {
	return q.itemArt(ctx, listShowArt)
}

const listSeasonArt = `
SELECT s.idSeason, 'Season ' || s.season, NULL, NULL, s.idShow, a.type, a.url
FROM seasons s
LEFT JOIN art a ON a.media_id = s.idSeason AND a.media_type = 'season'
ORDER BY s.idSeason, a.type, a.art_id`

func (q *Queries) ListSeasonArt(ctx context.Context) iter.Seq2[ItemArtRow, error] {
	return q.itemArt(ctx, listSeasonArt)
}

const listEpisodeArt = `
SELECT e.idEpisode, e.c00, p.strPath, f.strFilename, e.idShow, a.type, a.url
FROM episode e
LEFT JOIN files f ON f.idFile = e.idFile
LEFT JOIN path p ON p.idPath = f.idPath
LEFT JOIN art a ON a.media_id = e.idEpisode AND a.media_type = 'episode'
ORDER BY e.idEpisode, a.type, a.art_id`

func (q *Queries) ListEpisodeArt(ctx context.Context) iter.Seq2[ItemArtRow, error] {
	return q.itemArt(ctx, listEpisodeArt)
}

const listMusicVideoArt = `
SELECT mv.idMVideo, mv.c00, p.strPath, f.strFilename, NULL, a.type, a.url
FROM musicvideo mv
LEFT JOIN files f ON f.idFile = mv.idFile
LEFT JOIN path p ON p.idPath = f.idPath
LEFT JOIN art a ON a.media_id = mv.idMVideo AND a.media_type = 'musicvideo'
ORDER BY mv.idMVideo, a.type, a.art_id`

func (q *Queries) ListMusicVideoArt(ctx context.Context) iter.Seq2[ItemArtRow, error] {
	return q.itemArt(ctx, listMusicVideoArt)
}

const listActorArt = `
SELECT ac.actor_id, ac.name, NULL, NULL, NULL, a.type, a.url
FROM actor ac
LEFT JOIN art a ON a.media_id = ac.actor_id AND a.media_type = 'actor'
ORDER BY ac.actor_id, a.type, a.art_id`

func (q *Queries) ListActorArt(ctx context.Context) iter.Seq2[ItemArtRow, error] {
	return q.itemArt(ctx, listActorArt)
}

const listActorLinks = `
SELECT actor_id, media_id, media_type
FROM actor_link
WHERE media_type IN ('movie', 'tvshow')
ORDER BY actor_id, media_type, media_id`

func (q *Queries) ListActorLinks(ctx context.Context) ([]ActorLinkRow, error) {
	rows, err := q.db.QueryContext(ctx, listActorLinks)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []ActorLinkRow
	for rows.Next() {
		var i ActorLinkRow
		if err := rows.Scan(&i.ActorID, &i.MediaID, &i.MediaType); err != nil {
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

// itemArt streams ItemArtRow values. The query runs when iteration starts,
// so every range over the result re-reads the store.
func (q *Queries) itemArt(ctx context.Context, query string) iter.Seq2[ItemArtRow, error] {
	return func(yield func(ItemArtRow, error) bool) {
		rows, err := q.db.QueryContext(ctx, query)
		if err != nil {
			yield(ItemArtRow{}, err)
			return
		}
		defer rows.Close()

		for rows.Next() {
			var i ItemArtRow
			if err := rows.Scan(&i.ID, &i.Title, &i.Path, &i.Filename, &i.ParentID, &i.ArtType, &i.ArtURL); err != nil {
				yield(ItemArtRow{}, err)
				return
			}
			if !yield(i, nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(ItemArtRow{}, err)
		}
	}
}
