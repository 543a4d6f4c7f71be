// Package nfo decides whether a library item is eligible for a texture
// timestamp update, based on the presence of NFO sidecar files.
package nfo

import (
	"fmt"
	"path"
	"strings"

	"github.com/rs/zerolog"

	"github.com/spinless-app/spinless/internal/media"
	"github.com/spinless-app/spinless/internal/pathmap"
)

// Mode selects how strictly artwork is gated.
type Mode string

const (
	// NFORequired only admits items whose sidecar exists.
	NFORequired Mode = "nfo-required"
	// AllLocal admits every item with local artwork.
	AllLocal Mode = "all-local"
)

// ParseMode validates a mode name. The empty string selects NFORequired.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(s); m {
	case "":
		return NFORequired, nil
	case NFORequired, AllLocal:
		return m, nil
	default:
		return "", fmt.Errorf("invalid nfo mode: %s (valid values: nfo-required, all-local)", s)
	}
}

// EpisodePolicy selects how episodes relate to their show's sidecar.
type EpisodePolicy string

const (
	// PerItem only looks at the episode's own sidecar.
	PerItem EpisodePolicy = "per_item"
	// RequireShowNFO needs both tvshow.nfo and the episode sidecar.
	RequireShowNFO EpisodePolicy = "require_show_nfo"
)

// ParseEpisodePolicy validates a policy name. The empty string selects PerItem.
func ParseEpisodePolicy(s string) (EpisodePolicy, error) {
	switch p := EpisodePolicy(s); p {
	case "":
		return PerItem, nil
	case PerItem, RequireShowNFO:
		return p, nil
	default:
		return "", fmt.Errorf("invalid episode policy: %s (valid values: per_item, require_show_nfo)", s)
	}
}

// Ineligibility reasons.
const (
	ReasonNoItemNFO         = "no-item-nfo"
	ReasonNoShowNFO         = "no-show-nfo"
	ReasonDirectoryNotFound = "directory-not-found"
	ReasonRemoteOnly        = "remote-only"
	ReasonNoArtwork         = "no-artwork"
	ReasonNoEligibleOwner   = "no-eligible-owner"
)

// Sidecar file names used by Kodi.
const (
	Extension   = ".nfo"
	ShowNFO     = "tvshow.nfo"
	MovieNFO    = "movie.nfo"
	MovieSetNFO = "set.nfo"
)

// Decision is the gate's verdict for one item.
type Decision struct {
	Eligible bool   `json:"eligible"`
	Reason   string `json:"reason,omitempty"`
	// Evidence is the sidecar path that satisfied the gate, or the directory
	// that was probed when it did not.
	Evidence string `json:"evidence,omitempty"`
}

func eligible(evidence string) Decision {
	return Decision{Eligible: true, Evidence: evidence}
}

func ineligible(reason, evidence string) Decision {
	return Decision{Reason: reason, Evidence: evidence}
}

// Lookup finds another item of the same scan by key.
type Lookup func(media.ItemKey) (media.ContentItem, bool)

// Gate evaluates eligibility for one scan. Results are memoised for the life
// of the Gate, so a new Gate must be built for every scan.
type Gate struct {
	mode     Mode
	policy   EpisodePolicy
	resolver *pathmap.Resolver
	prober   Prober
	lookup   Lookup
	log      zerolog.Logger

	decisions map[media.ItemKey]Decision
	evidence  map[media.ItemKey]Decision
}

// Options configures a Gate.
type Options struct {
	Mode     Mode
	Policy   EpisodePolicy
	Resolver *pathmap.Resolver
	Prober   Prober
	Lookup   Lookup
	Logger   zerolog.Logger
}

// NewGate builds a Gate. A nil Prober probes the live filesystem.
func NewGate(opts Options) *Gate {
	g := &Gate{
		mode:      opts.Mode,
		policy:    opts.Policy,
		resolver:  opts.Resolver,
		prober:    opts.Prober,
		lookup:    opts.Lookup,
		log:       opts.Logger,
		decisions: map[media.ItemKey]Decision{},
		evidence:  map[media.ItemKey]Decision{},
	}
	if g.mode == "" {
		g.mode = NFORequired
	}
	if g.policy == "" {
		g.policy = PerItem
	}
	if g.resolver == nil {
		g.resolver = pathmap.NewResolver(nil, pathmap.Linux)
	}
	if g.prober == nil {
		g.prober = OSProber{}
	}
	if g.lookup == nil {
		g.lookup = func(media.ItemKey) (media.ContentItem, bool) { return media.ContentItem{}, false }
	}
	return g
}

// Decide returns the eligibility of item.
func (g *Gate) Decide(item media.ContentItem) Decision {
	if d, ok := g.decisions[item.Key]; ok {
		return d
	}
	d := g.decide(item)
	g.decisions[item.Key] = d

	ev := g.log.Debug().Str("item", item.Key.String()).Bool("eligible", d.Eligible)
	if d.Reason != "" {
		ev = ev.Str("reason", d.Reason)
	}
	ev.Str("evidence", d.Evidence).Msg("nfo gate")
	return d
}

func (g *Gate) decide(item media.ContentItem) Decision {
	if len(item.Artwork) == 0 {
		return ineligible(ReasonNoArtwork, "")
	}
	if !HasLocalArtwork(item) {
		return ineligible(ReasonRemoteOnly, "")
	}

	if item.Key.Type.IsMusic() {
		return eligible("")
	}

	if item.Key.Type == media.Actor {
		return g.decideActor(item)
	}

	if g.mode == AllLocal {
		return eligible("")
	}

	switch item.Key.Type {
	case media.Movie:
		return g.probe(item, ownSidecar(item.File), MovieNFO)
	case media.MusicVideo:
		return g.probe(item, ownSidecar(item.File))
	case media.Set:
		return g.probe(item, MovieSetNFO)
	case media.Show:
		return g.showEvidence(item.Key)
	case media.Season:
		show, ok := item.Parent()
		if !ok {
			return ineligible(ReasonNoShowNFO, "")
		}
		return g.showEvidence(show)
	case media.Episode:
		if g.policy == RequireShowNFO {
			show, ok := item.Parent()
			if !ok {
				return ineligible(ReasonNoShowNFO, "")
			}
			if d := g.showEvidence(show); !d.Eligible {
				return d
			}
		}
		return g.probe(item, ownSidecar(item.File))
	default:
		return ineligible(ReasonNoItemNFO, "")
	}
}

// decideActor admits an actor when one of its owning movies or shows is
// present in this scan and, outside all-local mode, is itself eligible.
func (g *Gate) decideActor(item media.ContentItem) Decision {
	for _, key := range item.Parents {
		if key.Type != media.Movie && key.Type != media.Show {
			continue
		}
		owner, ok := g.lookup(key)
		if !ok {
			continue
		}
		if g.mode == AllLocal {
			return eligible(key.String())
		}
		if g.Decide(owner).Eligible {
			return eligible(key.String())
		}
	}
	return ineligible(ReasonNoEligibleOwner, "")
}

// showEvidence reports whether the show identified by key has tvshow.nfo.
// Missing sidecars are reported as no-show-nfo regardless of which item asked.
func (g *Gate) showEvidence(key media.ItemKey) Decision {
	show, ok := g.lookup(key)
	if !ok {
		return ineligible(ReasonNoShowNFO, key.String())
	}
	d := g.probe(show, ShowNFO)
	if !d.Eligible && d.Reason == ReasonNoItemNFO {
		d.Reason = ReasonNoShowNFO
	}
	return d
}

// probe looks for the first existing sidecar among names in the item's media
// directory. Probe results are cached per item.
func (g *Gate) probe(item media.ContentItem, names ...string) Decision {
	if d, ok := g.evidence[item.Key]; ok {
		return d
	}

	d := g.probeUncached(item, names)
	g.evidence[item.Key] = d
	return d
}

func (g *Gate) probeUncached(item media.ContentItem, names []string) Decision {
	dirRef := item.Dir
	if dirRef == "" {
		dirRef = artworkDir(item)
	}
	if dirRef == "" {
		return ineligible(ReasonDirectoryNotFound, "")
	}

	dir, err := g.resolver.ResolveDir(dirRef)
	if err != nil || dir.Local == "" {
		return ineligible(ReasonDirectoryNotFound, dirRef)
	}
	if !g.prober.DirExists(dir.Local) {
		return ineligible(ReasonDirectoryNotFound, dir.Local)
	}

	for _, name := range names {
		if name == "" {
			continue
		}
		candidate := g.resolver.Join(dir.Local, name)
		if g.prober.FileExists(candidate) {
			return eligible(candidate)
		}
	}
	return ineligible(ReasonNoItemNFO, dir.Local)
}

// HasLocalArtwork reports whether item has at least one artwork reference
// that is neither remote nor empty.
func HasLocalArtwork(item media.ContentItem) bool {
	for _, art := range item.Artwork {
		if IsLocalReference(art.URL) {
			return true
		}
	}
	return false
}

// IsLocalReference reports whether ref points at local storage.
func IsLocalReference(ref string) bool {
	if strings.TrimSpace(ref) == "" || pathmap.IsRemote(ref) {
		return false
	}
	return !strings.HasPrefix(strings.ToLower(ref), "image://")
}

// ownSidecar returns the episode-style sidecar name for a media file:
// the file name with its extension replaced by .nfo.
func ownSidecar(file string) string {
	if file == "" || strings.HasPrefix(strings.ToLower(file), "stack://") {
		return ""
	}
	return strings.TrimSuffix(file, path.Ext(file)) + Extension
}

// artworkDir derives a directory from the first local artwork reference.
// Movie sets have no media path of their own in the library.
func artworkDir(item media.ContentItem) string {
	for _, art := range item.Artwork {
		if !IsLocalReference(art.URL) {
			continue
		}
		if i := strings.LastIndexAny(art.URL, `/\`); i > 0 {
			return art.URL[:i+1]
		}
	}
	return ""
}
