// Package config resolves where spinless keeps its own files, loads and
// saves user settings, and discovers Kodi's database folder.
package config

import (
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
)

// DirEnv overrides every spinless directory when set.
const DirEnv = "SPINLESS_DIR"

const appName = "spinless"

// GetDataDir resolves the directory holding the apply journal. It checks
// SPINLESS_DIR first, then XDG paths, and finally the user's home directory.
func GetDataDir() string {
	if explicit := os.Getenv(DirEnv); explicit != "" {
		return explicit
	}

	xdg.Reload()

	dataHome := xdg.DataHome
	if dataHome == "" {
		home := homeDir()
		if home == "" {
			return filepath.Join(os.TempDir(), appName)
		}
		dataHome = filepath.Join(home, ".local", "share")
	}

	return filepath.Join(dataHome, appName)
}

// GetConfigDir resolves the directory holding settings.yaml.
func GetConfigDir() string {
	if explicit := os.Getenv(DirEnv); explicit != "" {
		return explicit
	}

	xdg.Reload()

	configHome := xdg.ConfigHome
	if configHome == "" {
		home := homeDir()
		if home == "" {
			return filepath.Join(os.TempDir(), appName)
		}
		configHome = filepath.Join(home, ".config")
	}

	return filepath.Join(configHome, appName)
}

// GetSettingsPath returns the settings file location.
func GetSettingsPath() string {
	return filepath.Join(GetConfigDir(), "settings.yaml")
}

// GetJournalPath returns the apply journal database location.
func GetJournalPath() string {
	return filepath.Join(GetDataDir(), "journal.db")
}

func homeDir() string {
	if xdg.Home != "" {
		return xdg.Home
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return home
}
