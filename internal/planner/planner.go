// Package planner drives a scan through the NFO gate, the path resolver and
// the texture matcher, and applies the resulting timestamp updates.
package planner

import (
	"context"
	"errors"
	"fmt"
	"iter"

	"github.com/rs/zerolog"

	"github.com/spinless-app/spinless/internal/library"
	"github.com/spinless-app/spinless/internal/media"
	"github.com/spinless-app/spinless/internal/nfo"
	"github.com/spinless-app/spinless/internal/pathmap"
	"github.com/spinless-app/spinless/internal/texture"
)

// Config is everything a scan depends on besides the stores themselves.
type Config struct {
	Selection     library.Selection
	Mode          nfo.Mode
	EpisodePolicy nfo.EpisodePolicy
	Substitutions []pathmap.Substitution
	Platform      pathmap.Platform
	// Normalizer adapts texture url comparison; nil compares exactly.
	Normalizer texture.Normalizer
}

// ItemSource enumerates library items.
type ItemSource interface {
	Scan(ctx context.Context, sel library.Selection) iter.Seq2[media.ContentItem, error]
}

// Planner computes and applies texture timestamp updates.
type Planner struct {
	cfg      Config
	items    ItemSource
	textures *texture.Store
	prober   nfo.Prober
	log      zerolog.Logger
}

// Deps are the collaborators of a Planner.
type Deps struct {
	Items    ItemSource
	Textures *texture.Store
	// Prober checks the filesystem; nil uses the live filesystem.
	Prober nfo.Prober
	Logger zerolog.Logger
}

// New snapshots cfg; later changes by the caller do not affect the planner.
func New(cfg Config, deps Deps) (*Planner, error) {
	mode, err := nfo.ParseMode(string(cfg.Mode))
	if err != nil {
		return nil, err
	}
	policy, err := nfo.ParseEpisodePolicy(string(cfg.EpisodePolicy))
	if err != nil {
		return nil, err
	}
	if deps.Items == nil || deps.Textures == nil {
		return nil, errors.New("planner: item source and texture store are required")
	}
	prober := deps.Prober
	if prober == nil {
		prober = nfo.OSProber{}
	}

	cfg.Mode = mode
	cfg.EpisodePolicy = policy
	cfg.Selection = library.Normalize(cfg.Selection)
	cfg.Substitutions = append([]pathmap.Substitution(nil), cfg.Substitutions...)
	if cfg.Platform == "" {
		cfg.Platform = pathmap.Linux
	}

	return &Planner{
		cfg:      cfg,
		items:    deps.Items,
		textures: deps.Textures,
		prober:   prober,
		log:      deps.Logger,
	}, nil
}

// Config returns a copy of the planner's configuration.
func (p *Planner) Config() Config {
	cfg := p.cfg
	cfg.Substitutions = append([]pathmap.Substitution(nil), p.cfg.Substitutions...)
	return cfg
}

// Plan performs a dry run. It reads the stores and the filesystem and writes
// nothing; calling it twice on unchanged inputs yields equal reports.
func (p *Planner) Plan(ctx context.Context) (*ScanReport, error) {
	matcher, err := texture.LoadMatcher(ctx, p.textures.Context(), p.cfg.Normalizer)
	if err != nil {
		return nil, err
	}

	items, lookup, err := p.collect(ctx)
	if err != nil {
		return nil, err
	}

	resolver := pathmap.NewResolver(p.cfg.Substitutions, p.cfg.Platform)
	gate := nfo.NewGate(nfo.Options{
		Mode:     p.cfg.Mode,
		Policy:   p.cfg.EpisodePolicy,
		Resolver: resolver,
		Prober:   p.prober,
		Lookup:   lookup,
		Logger:   p.log,
	})

	report := &ScanReport{
		Mode:          p.cfg.Mode,
		EpisodePolicy: p.cfg.EpisodePolicy,
		TextureDB:     p.textures.Context().Path,
		Items:         make([]ItemOutcome, 0, len(items)),
		Updates:       []PlannedUpdate{},
		Summary:       newSummary(),
	}
	planned := make(map[int64]bool)

	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		outcome := p.evaluate(item, gate, resolver, matcher)
		for _, art := range outcome.Artwork {
			if art.Status != ArtworkMatched || planned[art.TextureID] {
				continue
			}
			planned[art.TextureID] = true
			row, _ := matcher.Match(art.URL)
			update := PlannedUpdate{
				TextureID:      row.ID,
				URL:            row.URL,
				Old:            row.LastHashCheck,
				New:            row.Target(),
				Item:           item.Key,
				AlreadyCurrent: row.Pinned(),
			}
			report.Updates = append(report.Updates, update)
			report.Summary.addUpdate(update)
		}
		report.Items = append(report.Items, outcome)
		report.Summary.addItem(outcome)
	}

	p.log.Info().
		Int("items", len(report.Items)).
		Int("textures", matcher.Len()).
		Int("eligible", report.Summary.Eligible).
		Int("matched", report.Summary.Matched).
		Int("not_cached", report.Summary.NotCached).
		Int("planned", report.Summary.Planned).
		Int("already_current", report.Summary.AlreadyCurrent).
		Msg("scan complete")
	return report, nil
}

// collect reads the whole scan once and indexes it for hierarchy lookups.
func (p *Planner) collect(ctx context.Context) ([]media.ContentItem, nfo.Lookup, error) {
	var items []media.ContentItem
	index := make(map[media.ItemKey]int)
	for item, err := range p.items.Scan(ctx, p.cfg.Selection) {
		if err != nil {
			return nil, nil, fmt.Errorf("scan library: %w", err)
		}
		index[item.Key] = len(items)
		items = append(items, item)
	}
	lookup := func(key media.ItemKey) (media.ContentItem, bool) {
		i, ok := index[key]
		if !ok {
			return media.ContentItem{}, false
		}
		return items[i], true
	}
	return items, lookup, nil
}

func (p *Planner) evaluate(item media.ContentItem, gate *nfo.Gate, resolver *pathmap.Resolver, matcher *texture.Matcher) ItemOutcome {
	decision := gate.Decide(item)
	outcome := ItemOutcome{
		Key:      item.Key,
		Title:    item.Title,
		Reason:   decision.Reason,
		Evidence: decision.Evidence,
		Artwork:  make([]ArtworkOutcome, 0, len(item.Artwork)),
	}

	matched := false
	for _, art := range item.Artwork {
		ao := ArtworkOutcome{Kind: art.Kind, URL: art.URL}
		switch {
		case !nfo.IsLocalReference(art.URL):
			ao.Status = ArtworkRemote
		case !decision.Eligible:
			ao.Status = ArtworkSkipped
		default:
			p.matchArtwork(&ao, resolver, matcher)
		}
		if ao.Status == ArtworkMatched {
			matched = true
		}
		outcome.Artwork = append(outcome.Artwork, ao)
	}

	switch {
	case !decision.Eligible:
		outcome.Status = ItemIneligible
	case matched:
		outcome.Status = ItemMatched
	default:
		outcome.Status = ItemUnmatched
	}
	return outcome
}

func (p *Planner) matchArtwork(ao *ArtworkOutcome, resolver *pathmap.Resolver, matcher *texture.Matcher) {
	resolved, err := resolver.Resolve(ao.URL)
	if err != nil {
		var unresolvable *pathmap.UnresolvableError
		if !errors.As(err, &unresolvable) || unresolvable.Reason != pathmap.ReasonUnmappedShare {
			ao.Status = ArtworkUnresolvable
			if unresolvable != nil {
				ao.Reason = unresolvable.Reason
			}
			p.log.Debug().Str("url", ao.URL).Str("reason", ao.Reason).Msg("artwork unresolvable")
			return
		}
		// The cache is keyed by the stored reference, so a share with no
		// host mapping still matches; it just cannot be probed.
		p.log.Debug().Str("url", ao.URL).Msg("share has no host mapping; matching stored reference")
	}
	ao.Local = resolved.Local

	row, ok := matcher.Match(resolved.Store)
	if !ok {
		ao.Status = ArtworkNotCached
		p.log.Debug().Str("url", ao.URL).Msg("artwork not cached")
		return
	}
	ao.Status = ArtworkMatched
	ao.TextureID = row.ID
}

// ApplyResult counts the rows written by Apply.
type ApplyResult struct {
	// Updated rows changed value.
	Updated int `json:"updated"`
	// AlreadyCurrent rows were rewritten with the value they already held.
	AlreadyCurrent int `json:"already_current"`
	// Changes lists the Updated rows with the value each held inside the
	// write transaction.
	Changes []Change `json:"-"`
}

// Change is one row Apply moved from Old to New.
type Change struct {
	TextureID int64
	URL       string
	Old       *string
	New       string
}

// Total is the number of rows written.
func (r ApplyResult) Total() int {
	return r.Updated + r.AlreadyCurrent
}

// Apply writes exactly report.Updates in one transaction after checking that
// the texture store is not locked. On any failure nothing is written and the
// result is zero. Counts reflect the values found at write time, which may
// differ from the scan if Kodi touched a row in between.
func (p *Planner) Apply(ctx context.Context, report *ScanReport) (ApplyResult, error) {
	if report == nil || len(report.Updates) == 0 {
		return ApplyResult{}, nil
	}
	if err := p.textures.CheckWritable(ctx); err != nil {
		return ApplyResult{}, err
	}

	p.log.Debug().Ints64("textures", report.TextureIDs()).Msg("applying planned updates")
	writes := make([]texture.Write, len(report.Updates))
	for i, u := range report.Updates {
		value := u.New
		writes[i] = texture.Write{ID: u.TextureID, Value: &value}
	}

	previous, err := p.textures.Replace(ctx, writes)
	if err != nil {
		return ApplyResult{}, err
	}
	var result ApplyResult
	for i, old := range previous {
		u := report.Updates[i]
		if old.LastHashCheck != nil && *old.LastHashCheck == u.New {
			result.AlreadyCurrent++
			continue
		}
		result.Updated++
		result.Changes = append(result.Changes, Change{TextureID: u.TextureID, URL: old.URL, Old: old.LastHashCheck, New: u.New})
	}
	p.log.Info().Int("updated", result.Updated).Int("already_current", result.AlreadyCurrent).Msg("apply complete")
	return result, nil
}
