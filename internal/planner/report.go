package planner

import (
	"github.com/spinless-app/spinless/internal/media"
	"github.com/spinless-app/spinless/internal/nfo"
)

// ItemStatus is the overall outcome for one item.
type ItemStatus string

const (
	// ItemMatched is eligible with at least one cached artwork row.
	ItemMatched ItemStatus = "matched"
	// ItemUnmatched is eligible but none of its artwork is cached.
	ItemUnmatched ItemStatus = "unmatched"
	// ItemIneligible failed the NFO gate; Reason says why.
	ItemIneligible ItemStatus = "ineligible"
)

// ArtworkStatus is the outcome for one artwork reference.
type ArtworkStatus string

const (
	ArtworkMatched      ArtworkStatus = "matched"
	ArtworkNotCached    ArtworkStatus = "not-cached"
	ArtworkRemote       ArtworkStatus = "remote"
	ArtworkUnresolvable ArtworkStatus = "unresolvable"
	ArtworkSkipped      ArtworkStatus = "skipped"
)

// ArtworkOutcome records what happened to one artwork reference.
type ArtworkOutcome struct {
	Kind      string        `json:"kind"`
	URL       string        `json:"url"`
	Status    ArtworkStatus `json:"status"`
	Reason    string        `json:"reason,omitempty"`
	Local     string        `json:"local,omitempty"`
	TextureID int64         `json:"texture_id,omitempty"`
}

// ItemOutcome records the gate decision and artwork outcomes of one item.
type ItemOutcome struct {
	Key      media.ItemKey    `json:"key"`
	Title    string           `json:"title,omitempty"`
	Status   ItemStatus       `json:"status"`
	Reason   string           `json:"reason,omitempty"`
	Evidence string           `json:"evidence,omitempty"`
	Artwork  []ArtworkOutcome `json:"artwork"`
}

// PlannedUpdate is one texture row to stamp with New.
type PlannedUpdate struct {
	TextureID int64         `json:"texture_id"`
	URL       string        `json:"url"`
	Old       *string       `json:"old"`
	New       string        `json:"new"`
	Item      media.ItemKey `json:"item"`
	// AlreadyCurrent is set when Old already equals New.
	AlreadyCurrent bool `json:"already_current"`
}

// Summary aggregates a report.
type Summary struct {
	Items          map[media.ContentType]int `json:"items"`
	Eligible       int                       `json:"eligible"`
	Ineligible     int                       `json:"ineligible"`
	Reasons        map[string]int            `json:"reasons,omitempty"`
	Artwork        int                       `json:"artwork"`
	Matched        int                       `json:"matched"`
	NotCached      int                       `json:"not_cached"`
	Remote         int                       `json:"remote"`
	Unresolvable   int                       `json:"unresolvable"`
	Planned        int                       `json:"planned"`
	AlreadyCurrent int                       `json:"already_current"`
}

// ScanReport is the result of a dry run. Apply writes exactly its Updates.
type ScanReport struct {
	Mode          nfo.Mode          `json:"mode"`
	EpisodePolicy nfo.EpisodePolicy `json:"episode_policy"`
	TextureDB     string            `json:"texture_db,omitempty"`
	Items         []ItemOutcome     `json:"items"`
	Updates       []PlannedUpdate   `json:"updates"`
	Summary       Summary           `json:"summary"`
}

// Pending returns the updates that change a row.
func (r *ScanReport) Pending() []PlannedUpdate {
	var out []PlannedUpdate
	for _, u := range r.Updates {
		if !u.AlreadyCurrent {
			out = append(out, u)
		}
	}
	return out
}

// Preview returns up to n pending updates, or all of them when n <= 0.
func (r *ScanReport) Preview(n int) []PlannedUpdate {
	pending := r.Pending()
	if n > 0 && len(pending) > n {
		return pending[:n]
	}
	return pending
}

// TextureIDs lists the row ids of every planned update in report order.
func (r *ScanReport) TextureIDs() []int64 {
	ids := make([]int64, len(r.Updates))
	for i, u := range r.Updates {
		ids[i] = u.TextureID
	}
	return ids
}

func newSummary() Summary {
	return Summary{Items: map[media.ContentType]int{}, Reasons: map[string]int{}}
}

func (s *Summary) addItem(o ItemOutcome) {
	s.Items[o.Key.Type]++
	if o.Status == ItemIneligible {
		s.Ineligible++
		s.Reasons[o.Reason]++
	} else {
		s.Eligible++
	}
	for _, art := range o.Artwork {
		switch art.Status {
		case ArtworkMatched:
			s.Artwork++
			s.Matched++
		case ArtworkNotCached:
			s.Artwork++
			s.NotCached++
		case ArtworkRemote:
			s.Remote++
		case ArtworkUnresolvable:
			s.Unresolvable++
		}
	}
}

func (s *Summary) addUpdate(u PlannedUpdate) {
	if u.AlreadyCurrent {
		s.AlreadyCurrent++
		return
	}
	s.Planned++
}
