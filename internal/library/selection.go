package library

import (
	"strings"

	"github.com/spinless-app/spinless/internal/media"
)

// Selection says which content types a scan enumerates.
type Selection struct {
	Movies      bool `json:"movies" yaml:"movies"`
	Sets        bool `json:"sets" yaml:"sets"`
	Shows       bool `json:"shows" yaml:"shows"`
	Seasons     bool `json:"seasons" yaml:"seasons"`
	Episodes    bool `json:"episodes" yaml:"episodes"`
	MusicVideos bool `json:"musicvideos" yaml:"musicvideos"`
	Actors      bool `json:"actors" yaml:"actors"`
	Artists     bool `json:"artists" yaml:"artists"`
	Albums      bool `json:"albums" yaml:"albums"`
}

// All selects every content type.
func All() Selection {
	return Selection{
		Movies: true, Sets: true, Shows: true, Seasons: true, Episodes: true,
		MusicVideos: true, Actors: true, Artists: true, Albums: true,
	}
}

// SelectionOf selects exactly the given types.
func SelectionOf(types ...media.ContentType) Selection {
	var s Selection
	for _, t := range types {
		if p := s.field(t); p != nil {
			*p = true
		}
	}
	return s
}

// ParseSelection reads a comma separated list of type names. "all" selects
// everything.
func ParseSelection(list string) (Selection, error) {
	var types []media.ContentType
	for _, part := range strings.Split(list, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if strings.EqualFold(part, "all") {
			return All(), nil
		}
		t, err := media.ParseContentType(part)
		if err != nil {
			return Selection{}, err
		}
		types = append(types, t)
	}
	return SelectionOf(types...), nil
}

// Normalize applies the dependency rules between types: seasons and episodes
// need shows, and actors need movies or shows.
func Normalize(s Selection) Selection {
	if !s.Shows {
		s.Seasons = false
		s.Episodes = false
	}
	if !s.Movies && !s.Shows {
		s.Actors = false
	}
	return s
}

// Has reports whether t is selected.
func (s Selection) Has(t media.ContentType) bool {
	p := s.field(t)
	return p != nil && *p
}

// Types lists the selected types in scan order.
func (s Selection) Types() []media.ContentType {
	var out []media.ContentType
	for _, t := range media.AllTypes {
		if s.Has(t) {
			out = append(out, t)
		}
	}
	return out
}

// Empty reports whether nothing is selected.
func (s Selection) Empty() bool {
	return len(s.Types()) == 0
}

// NeedsMusic reports whether the music store has to be read.
func (s Selection) NeedsMusic() bool {
	return s.Artists || s.Albums
}

func (s Selection) String() string {
	types := s.Types()
	if len(types) == 0 {
		return "none"
	}
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = string(t)
	}
	return strings.Join(names, ",")
}

func (s *Selection) field(t media.ContentType) *bool {
	switch t {
	case media.Movie:
		return &s.Movies
	case media.Set:
		return &s.Sets
	case media.Show:
		return &s.Shows
	case media.Season:
		return &s.Seasons
	case media.Episode:
		return &s.Episodes
	case media.MusicVideo:
		return &s.MusicVideos
	case media.Actor:
		return &s.Actors
	case media.Artist:
		return &s.Artists
	case media.Album:
		return &s.Albums
	default:
		return nil
	}
}
