package sqldb

import (
	"context"
	"iter"
)

const listArtistArt = `
SELECT ar.idArtist, ar.strArtist, NULL, NULL, NULL, a.type, a.url
FROM artist ar
LEFT JOIN art a ON a.media_id = ar.idArtist AND a.media_type = 'artist'
ORDER BY ar.idArtist, a.type, a.art_id`

func (q *Queries) ListArtistArt(ctx context.Context) iter.Seq2[ItemArtRow, error] {
	return q.itemArt(ctx, listArtistArt)
}

const listAlbumArt = `
SELECT al.idAlbum, al.strAlbum, NULL, NULL, NULL, a.type, a.url
FROM album al
LEFT JOIN art a ON a.media_id = al.idAlbum AND a.media_type = 'album'
ORDER BY al.idAlbum, a.type, a.art_id`

func (q *Queries) ListAlbumArt(ctx context.Context) iter.Seq2[ItemArtRow, error] {
	return q.itemArt(ctx, listAlbumArt)
}
