package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/spinless-app/spinless/internal/config"
	"github.com/spinless-app/spinless/internal/library"
	"github.com/spinless-app/spinless/internal/nfo"
	"github.com/spinless-app/spinless/internal/pathmap"
)

// scanFlags are the per-run overrides of the saved settings shared by
// scan, apply and settings save.
type scanFlags struct {
	types         string
	mode          string
	episodePolicy string
	substitutions []string
	platform      string
	videoDB       string
	musicDB       string
	textureDB     string
	busyTimeout   time.Duration
	preview       int
}

func (f *scanFlags) bind(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVar(&f.types, "types", "", "Comma separated content types (movie, set, tvshow, season, episode, musicvideo, actor, artist, album) or all")
	flags.StringVar(&f.mode, "mode", "", "NFO gate: nfo-required or all-local")
	flags.StringVar(&f.episodePolicy, "episode-policy", "", "Episodes: per_item or require_show_nfo")
	flags.StringArrayVar(&f.substitutions, "sub", nil, "Path substitution FROM=TO applied before probing (repeatable)")
	flags.StringVar(&f.platform, "platform", "", "Path convention: linux, darwin, windows or wsl (default: detect)")
	flags.StringVar(&f.videoDB, "video-db", "", "Path to MyVideos*.db (default: discover)")
	flags.StringVar(&f.musicDB, "music-db", "", "Path to MyMusic*.db (default: discover)")
	flags.StringVar(&f.textureDB, "texture-db", "", "Path to Textures*.db (default: discover)")
	flags.DurationVar(&f.busyTimeout, "busy-timeout", 0, "How long to wait for a locked database")
	flags.IntVar(&f.preview, "preview", 0, "Number of planned updates to preview (0 for all)")
}

// settings loads the saved settings and layers the changed flags on top.
func (f *scanFlags) settings(cmd *cobra.Command) (config.Settings, error) {
	settings, err := config.LoadSettings(config.GetSettingsPath())
	if err != nil {
		return settings, err
	}
	return f.apply(cmd, settings)
}

func (f *scanFlags) apply(cmd *cobra.Command, settings config.Settings) (config.Settings, error) {
	changed := cmd.Flags().Changed

	if changed("types") {
		sel, err := library.ParseSelection(f.types)
		if err != nil {
			return settings, err
		}
		settings.Types = sel
	}
	if changed("mode") {
		mode, err := nfo.ParseMode(f.mode)
		if err != nil {
			return settings, err
		}
		settings.Mode = mode
	}
	if changed("episode-policy") {
		policy, err := nfo.ParseEpisodePolicy(f.episodePolicy)
		if err != nil {
			return settings, err
		}
		settings.EpisodePolicy = policy
	}
	if changed("sub") {
		subs := make([]pathmap.Substitution, 0, len(f.substitutions))
		for _, raw := range f.substitutions {
			sub, err := pathmap.ParseSubstitution(raw)
			if err != nil {
				return settings, err
			}
			subs = append(subs, sub)
		}
		settings.Substitutions = subs
	}
	if changed("platform") {
		platform, err := pathmap.ParsePlatform(f.platform)
		if err != nil {
			return settings, err
		}
		settings.Platform = platform
	}
	if changed("video-db") {
		settings.Databases.Video = f.videoDB
	}
	if changed("music-db") {
		settings.Databases.Music = f.musicDB
	}
	if changed("texture-db") {
		settings.Databases.Texture = f.textureDB
	}
	if changed("busy-timeout") {
		settings.BusyTimeout = f.busyTimeout
	}
	if changed("preview") {
		settings.PreviewLimit = f.preview
	}

	if err := settings.Validate(); err != nil {
		return settings, err
	}
	return settings, nil
}

// discover fills store paths the user did not give.
func discover(settings config.Settings) config.Settings {
	d := settings.Databases
	if d.Video != "" && d.Music != "" && d.Texture != "" {
		return settings
	}
	loc := config.Locate(config.KodiDatabaseDirs())
	if loc.Dir != "" {
		logger.Debug().Str("dir", loc.Dir).Msg("found Kodi database folder")
	}
	settings.Databases = d.Fill(loc)
	return settings
}

func validateFormat(format string) error {
	switch format {
	case "table", "json":
		return nil
	default:
		return fmt.Errorf("invalid format: %s (valid values: table, json)", format)
	}
}
