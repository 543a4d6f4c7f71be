package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/spinless-app/spinless/internal/library"
	"github.com/spinless-app/spinless/internal/nfo"
	"github.com/spinless-app/spinless/internal/pathmap"
)

// Databases holds explicit store locations. Empty fields are discovered.
type Databases struct {
	Video   string `yaml:"video,omitempty" json:"video,omitempty"`
	Music   string `yaml:"music,omitempty" json:"music,omitempty"`
	Texture string `yaml:"texture,omitempty" json:"texture,omitempty"`
}

// Settings are the persisted user preferences. Command line flags override
// them for a single run.
type Settings struct {
	Types         library.Selection      `yaml:"types" json:"types"`
	Mode          nfo.Mode               `yaml:"mode" json:"mode"`
	EpisodePolicy nfo.EpisodePolicy      `yaml:"episode_policy" json:"episode_policy"`
	Substitutions []pathmap.Substitution `yaml:"substitutions,omitempty" json:"substitutions,omitempty"`
	// Platform forces the path convention; empty detects the host.
	Platform     pathmap.Platform `yaml:"platform,omitempty" json:"platform,omitempty"`
	Databases    Databases        `yaml:"databases,omitempty" json:"databases,omitempty"`
	BusyTimeout  time.Duration    `yaml:"busy_timeout" json:"busy_timeout"`
	PreviewLimit int              `yaml:"preview_limit" json:"preview_limit"`
}

// DefaultSettings scans movies only, gated by their NFO files.
func DefaultSettings() Settings {
	return Settings{
		Types:         library.Selection{Movies: true, Seasons: true, Episodes: true},
		Mode:          nfo.NFORequired,
		EpisodePolicy: nfo.PerItem,
		BusyTimeout:   time.Second,
		PreviewLimit:  10,
	}
}

// Validate checks the enumerations and numeric bounds.
func (s Settings) Validate() error {
	if _, err := nfo.ParseMode(string(s.Mode)); err != nil {
		return err
	}
	if _, err := nfo.ParseEpisodePolicy(string(s.EpisodePolicy)); err != nil {
		return err
	}
	if s.Platform != "" {
		if _, err := pathmap.ParsePlatform(string(s.Platform)); err != nil {
			return err
		}
	}
	for _, sub := range s.Substitutions {
		if sub.From == "" {
			return fmt.Errorf("invalid substitution %q: empty FROM prefix", sub.String())
		}
	}
	if s.BusyTimeout < 0 {
		return fmt.Errorf("busy_timeout must not be negative")
	}
	if s.PreviewLimit < 0 {
		return fmt.Errorf("preview_limit must not be negative")
	}
	return nil
}

// LoadSettings reads path over the defaults. A missing file yields the
// defaults without error.
func LoadSettings(path string) (Settings, error) {
	settings := DefaultSettings()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return settings, nil
		}
		return settings, fmt.Errorf("failed to read settings: %w", err)
	}

	if err := yaml.Unmarshal(data, &settings); err != nil {
		return DefaultSettings(), fmt.Errorf("failed to parse settings %s: %w", path, err)
	}
	if err := settings.Validate(); err != nil {
		return DefaultSettings(), fmt.Errorf("invalid settings %s: %w", path, err)
	}
	return settings, nil
}

// SaveSettings writes settings to path, creating parent directories.
func SaveSettings(path string, settings Settings) error {
	if err := settings.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("failed to create settings directory: %w", err)
	}

	data, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write settings: %w", err)
	}
	return nil
}
