package usecase

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/spinless-app/spinless/internal/config"
	"github.com/spinless-app/spinless/internal/database"
	sqldb "github.com/spinless-app/spinless/internal/database/sqlc"
	"github.com/spinless-app/spinless/internal/library"
	"github.com/spinless-app/spinless/internal/nfo"
	"github.com/spinless-app/spinless/internal/pathmap"
	"github.com/spinless-app/spinless/internal/planner"
	"github.com/spinless-app/spinless/internal/texture"
)

// ErrNoVideoStore and ErrNoTextureStore report stores that were neither
// configured nor discovered.
var (
	ErrNoVideoStore   = errors.New("video database not found; use --video-db to specify its path")
	ErrNoTextureStore = errors.New("texture database not found; use --texture-db to specify its path")
)

// ErrNothingSelected is returned when no content type remains to scan, for
// example actors without movies or shows.
var ErrNothingSelected = errors.New("no content types left to scan; check --types")

// Deps are optional collaborators of a Session.
type Deps struct {
	// Journal records applied runs; nil disables recording.
	Journal *database.Context
	// Prober checks sidecar files; nil uses the live filesystem.
	Prober nfo.Prober
	Logger zerolog.Logger
	// Now stamps journal entries; nil uses time.Now.
	Now func() time.Time
}

// Session holds the open stores for one scan and its optional apply.
type Session struct {
	stores   config.Databases
	video    *database.Context
	music    *database.Context
	textures *texture.Store
	planner  *planner.Planner
	runs     *database.RunRepository
	log      zerolog.Logger
	now      func() time.Time
}

// OpenSession resolves and opens the stores named by settings. Store paths
// left empty must have been filled by discovery beforehand.
func OpenSession(ctx context.Context, settings config.Settings, deps Deps) (*Session, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	stores := settings.Databases
	if stores.Video == "" {
		return nil, ErrNoVideoStore
	}
	if stores.Texture == "" {
		return nil, ErrNoTextureStore
	}

	s := &Session{
		stores: stores,
		log:    deps.Logger,
		now:    deps.Now,
	}
	if s.now == nil {
		s.now = time.Now
	}
	if deps.Journal != nil {
		s.runs = database.NewRunRepository(deps.Journal)
	}

	opts := database.Options{BusyTimeout: settings.BusyTimeout}
	var err error
	if s.video, err = database.OpenLibrary(ctx, database.StoreVideo, stores.Video, opts); err != nil {
		return nil, err
	}

	selection := library.Normalize(settings.Types)
	if selection.NeedsMusic() {
		if stores.Music == "" {
			s.log.Warn().Msg("music database not found; skipping artists and albums")
			selection.Artists, selection.Albums = false, false
		} else if s.music, err = database.OpenLibrary(ctx, database.StoreMusic, stores.Music, opts); err != nil {
			s.closeAll()
			return nil, err
		}
	}
	if selection.Empty() {
		s.closeAll()
		return nil, ErrNothingSelected
	}

	textureCtx, err := database.OpenTexture(ctx, stores.Texture, opts)
	if err != nil {
		s.closeAll()
		return nil, err
	}
	s.textures = texture.NewStore(textureCtx, s.log)

	platform := settings.Platform
	if platform == "" {
		platform = pathmap.HostPlatform()
	}

	s.planner, err = planner.New(planner.Config{
		Selection:     selection,
		Mode:          settings.Mode,
		EpisodePolicy: settings.EpisodePolicy,
		Substitutions: settings.Substitutions,
		Platform:      platform,
	}, planner.Deps{
		Items:    library.NewScanner(s.video.Queries, s.musicQueries(), s.log),
		Textures: s.textures,
		Prober:   deps.Prober,
		Logger:   s.log,
	})
	if err != nil {
		s.closeAll()
		return nil, err
	}

	s.log.Debug().
		Str("video", stores.Video).
		Str("music", stores.Music).
		Str("texture", stores.Texture).
		Str("types", selection.String()).
		Str("platform", string(platform)).
		Msg("session opened")
	return s, nil
}

// Stores returns the store paths in use.
func (s *Session) Stores() config.Databases {
	return s.stores
}

// Config returns the planner configuration the session scans with.
func (s *Session) Config() planner.Config {
	return s.planner.Config()
}

// Scan performs a dry run.
func (s *Session) Scan(ctx context.Context) (*planner.ScanReport, error) {
	return s.planner.Plan(ctx)
}

// ApplyOutcome is the result of a committed apply.
type ApplyOutcome struct {
	planner.ApplyResult
	// RunID is the journal id of the run, or 0 when nothing was recorded.
	RunID int64 `json:"run_id,omitempty"`
}

// Apply writes report and records the changed rows in the journal. A
// journal failure after a successful apply is logged, not returned, because
// the texture store has already been committed.
func (s *Session) Apply(ctx context.Context, report *planner.ScanReport) (ApplyOutcome, error) {
	result, err := s.planner.Apply(ctx, report)
	if err != nil {
		return ApplyOutcome{}, err
	}
	outcome := ApplyOutcome{ApplyResult: result}
	if s.runs == nil || result.Updated == 0 {
		return outcome, nil
	}

	textureDB, err := filepath.Abs(s.textures.Context().Path)
	if err != nil {
		textureDB = s.textures.Context().Path
	}
	rows := make([]database.RunRowRecord, 0, len(result.Changes))
	for _, c := range result.Changes {
		rows = append(rows, database.RunRowRecord{
			TextureID:    c.TextureID,
			URL:          c.URL,
			OldHashCheck: c.Old,
			NewHashCheck: c.New,
		})
	}
	runID, err := s.runs.Record(context.WithoutCancel(ctx), database.RunRecord{
		AppliedAt:      s.now(),
		TextureDB:      textureDB,
		Mode:           string(report.Mode),
		EpisodePolicy:  string(report.EpisodePolicy),
		Updated:        int64(result.Updated),
		AlreadyCurrent: int64(result.AlreadyCurrent),
	}, rows)
	if err != nil {
		s.log.Warn().Err(err).Msg("texture cache updated but the run could not be journaled")
		return outcome, nil
	}
	outcome.RunID = runID
	return outcome, nil
}

// Close releases every store.
func (s *Session) Close() error {
	return s.closeAll()
}

func (s *Session) musicQueries() *sqldb.Queries {
	if s.music == nil {
		return nil
	}
	return s.music.Queries
}

func (s *Session) closeAll() error {
	var errs []error
	if s.textures != nil {
		errs = append(errs, database.CloseDatabase(s.textures.Context()))
	}
	errs = append(errs, database.CloseDatabase(s.music), database.CloseDatabase(s.video))
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("failed to close stores: %w", err)
	}
	return nil
}
