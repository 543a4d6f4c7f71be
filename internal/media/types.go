// Package media provides the data types shared by the scan and update engine.
package media

import (
	"fmt"
	"strings"
)

// ContentType tags a library item. The values match the media_type column
// Kodi uses in its art tables.
type ContentType string

const (
	Movie      ContentType = "movie"
	Set        ContentType = "set"
	Show       ContentType = "tvshow"
	Season     ContentType = "season"
	Episode    ContentType = "episode"
	MusicVideo ContentType = "musicvideo"
	Actor      ContentType = "actor"
	Artist     ContentType = "artist"
	Album      ContentType = "album"
)

// AllTypes lists every supported content type in scan order.
var AllTypes = []ContentType{Movie, Set, Show, Season, Episode, MusicVideo, Actor, Artist, Album}

// ParseContentType accepts the canonical names plus the plural forms used on
// the command line ("movies", "shows", "episodes", ...).
func ParseContentType(s string) (ContentType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "movie", "movies":
		return Movie, nil
	case "set", "sets":
		return Set, nil
	case "tvshow", "tvshows", "show", "shows":
		return Show, nil
	case "season", "seasons":
		return Season, nil
	case "episode", "episodes":
		return Episode, nil
	case "musicvideo", "musicvideos", "music-videos":
		return MusicVideo, nil
	case "actor", "actors":
		return Actor, nil
	case "artist", "artists":
		return Artist, nil
	case "album", "albums":
		return Album, nil
	default:
		return "", fmt.Errorf("invalid content type: %s (valid values: movies, sets, shows, seasons, episodes, musicvideos, actors, artists, albums)", s)
	}
}

// IsMusic reports whether the type lives in the music library store.
func (t ContentType) IsMusic() bool {
	return t == Artist || t == Album
}

// ItemKey identifies an item within one library store.
type ItemKey struct {
	Type ContentType `json:"type"`
	ID   int64       `json:"id"`
}

func (k ItemKey) String() string {
	return fmt.Sprintf("%s:%d", k.Type, k.ID)
}

// Artwork is one art row attached to an item. URL is kept exactly as stored.
type Artwork struct {
	Kind string `json:"kind"`
	URL  string `json:"url"`
}

// ContentItem is one library entity as read from a store.
//
// Parents holds back-references: the show for seasons and episodes, every
// owning movie or show for actors. Dir and File are the store-native media
// directory and filename (File is empty for folder-based items).
type ContentItem struct {
	Key     ItemKey   `json:"key"`
	Title   string    `json:"title,omitempty"`
	Dir     string    `json:"dir,omitempty"`
	File    string    `json:"file,omitempty"`
	Parents []ItemKey `json:"parents,omitempty"`
	Artwork []Artwork `json:"artwork"`
}

// Parent returns the first parent key, if any.
func (c ContentItem) Parent() (ItemKey, bool) {
	if len(c.Parents) == 0 {
		return ItemKey{}, false
	}
	return c.Parents[0], true
}
