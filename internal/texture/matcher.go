// Package texture matches artwork references against Kodi's texture cache
// and rewrites the lasthashcheck column of matched rows.
package texture

import (
	"context"
	"net/url"
	"strings"

	"github.com/spinless-app/spinless/internal/database"
)

// Sentinel is the lasthashcheck value written to eligible rows. Kodi only
// re-hashes a cached texture once this time has passed.
const Sentinel = "2099-01-01 00:00:00"

// Row is one texture cache row. LastHashCheck is nil when the column is NULL.
type Row struct {
	ID            int64   `json:"id"`
	URL           string  `json:"url"`
	LastHashCheck *string `json:"lasthashcheck"`
}

// Pinned reports whether lasthashcheck is at or past the sentinel. Kodi
// writes "YYYY-MM-DD HH:MM:SS", so values order as strings.
func (r Row) Pinned() bool {
	return r.LastHashCheck != nil && *r.LastHashCheck >= Sentinel
}

// Target is the value to write to the row. A row already pinned past the
// sentinel keeps its value so it is never moved earlier.
func (r Row) Target() string {
	if r.Pinned() {
		return *r.LastHashCheck
	}
	return Sentinel
}

// Normalizer maps a candidate reference to the key used for lookups. It is
// applied to both the cached url column and the candidates.
type Normalizer func(string) string

// Identity is the default Normalizer.
func Identity(s string) string { return s }

// Matcher finds texture rows by exact reference.
type Matcher struct {
	rows      map[string]Row
	normalize Normalizer
}

// NewMatcher indexes rows. When two rows share a key the lowest id wins.
func NewMatcher(rows []Row, normalize Normalizer) *Matcher {
	if normalize == nil {
		normalize = Identity
	}
	m := &Matcher{rows: make(map[string]Row, len(rows)), normalize: normalize}
	for _, row := range rows {
		key := normalize(row.URL)
		if existing, ok := m.rows[key]; ok && existing.ID < row.ID {
			continue
		}
		m.rows[key] = row
	}
	return m
}

// LoadMatcher reads every texture row from the store.
func LoadMatcher(ctx context.Context, dbCtx *database.Context, normalize Normalizer) (*Matcher, error) {
	textures, err := dbCtx.Queries.ListTextures(ctx)
	if err != nil {
		return nil, dbCtx.Wrap("list textures", err)
	}
	rows := make([]Row, 0, len(textures))
	for _, tex := range textures {
		rows = append(rows, rowFrom(tex))
	}
	return NewMatcher(rows, normalize), nil
}

// Len returns the number of indexed rows.
func (m *Matcher) Len() int {
	return len(m.rows)
}

// Match looks up the row cached for a store-native artwork reference.
func (m *Matcher) Match(ref string) (Row, bool) {
	for _, candidate := range Candidates(ref) {
		if row, ok := m.rows[m.normalize(candidate)]; ok {
			return row, true
		}
	}
	return Row{}, false
}

// Candidates returns the forms a reference may be cached under, in lookup
// order: the reference itself, then Kodi's image:// wrapped form. When both
// forms are cached the raw row wins.
func Candidates(ref string) []string {
	if strings.HasPrefix(ref, "image://") {
		return []string{ref}
	}
	return []string{ref, Wrap(ref)}
}

// Wrap encodes ref the way Kodi stores image:// texture urls: every byte
// outside the RFC 3986 unreserved set is percent-encoded.
func Wrap(ref string) string {
	escaped := strings.ReplaceAll(url.QueryEscape(ref), "+", "%20")
	return "image://" + escaped + "/"
}
