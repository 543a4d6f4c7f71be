package config

import (
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"
)

// KodiDirEnv points discovery at a specific userdata/Database folder.
const KodiDirEnv = "SPINLESS_KODI_DIR"

// Store file name prefixes inside Kodi's Database folder.
const (
	VideoPrefix   = "MyVideos"
	MusicPrefix   = "MyMusic"
	TexturePrefix = "Textures"
)

// KodiDatabaseDirs lists the candidate Database folders for this host in
// search order.
func KodiDatabaseDirs() []string {
	return kodiDatabaseDirs(runtime.GOOS, homeDir(), os.Getenv)
}

func kodiDatabaseDirs(goos, home string, getenv func(string) string) []string {
	var dirs []string
	if explicit := getenv(KodiDirEnv); explicit != "" {
		dirs = append(dirs, explicit)
	}

	sub := filepath.Join("Kodi", "userdata", "Database")
	switch goos {
	case "windows":
		if appData := getenv("APPDATA"); appData != "" {
			dirs = append(dirs, filepath.Join(appData, sub))
		}
		if localAppData := getenv("LOCALAPPDATA"); localAppData != "" {
			dirs = append(dirs, filepath.Join(localAppData, sub))
		}
		if home != "" {
			dirs = append(dirs, filepath.Join(home, "AppData", "Roaming", sub))
		}
	case "darwin":
		if home != "" {
			dirs = append(dirs, filepath.Join(home, "Library", "Application Support", sub))
		}
	default:
		if home != "" {
			dirs = append(dirs,
				filepath.Join(home, ".kodi", "userdata", "Database"),
				filepath.Join(home, ".var", "app", "tv.kodi.Kodi", "data", "userdata", "Database"),
			)
		}
		dirs = append(dirs, filepath.Join("/storage", ".kodi", "userdata", "Database"))
	}
	return dirs
}

// Locations are the discovered store files. Empty fields were not found.
type Locations struct {
	Dir     string `json:"dir,omitempty"`
	Video   string `json:"video,omitempty"`
	Music   string `json:"music,omitempty"`
	Texture string `json:"texture,omitempty"`
}

// Locate searches dirs in order and returns the stores of the first folder
// holding a video or texture database.
func Locate(dirs []string) Locations {
	for _, dir := range dirs {
		loc := Locations{
			Dir:     dir,
			Video:   FindDatabase(dir, VideoPrefix),
			Music:   FindDatabase(dir, MusicPrefix),
			Texture: FindDatabase(dir, TexturePrefix),
		}
		if loc.Video != "" || loc.Texture != "" {
			return loc
		}
	}
	return Locations{}
}

// FindDatabase returns the newest <prefix><version>.db in dir, comparing
// versions numerically, or "" when there is none.
func FindDatabase(dir, prefix string) string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return ""
	}

	type candidate struct {
		name    string
		version int
	}
	var found []candidate
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if version, ok := dbVersion(entry.Name(), prefix); ok {
			found = append(found, candidate{name: entry.Name(), version: version})
		}
	}
	if len(found) == 0 {
		return ""
	}

	sort.Slice(found, func(i, j int) bool {
		if found[i].version != found[j].version {
			return found[i].version > found[j].version
		}
		return found[i].name > found[j].name
	})
	return filepath.Join(dir, found[0].name)
}

// dbVersion parses "MyVideos131.db" into 131.
func dbVersion(name, prefix string) (int, bool) {
	if !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, ".db") {
		return 0, false
	}
	digits := strings.TrimSuffix(strings.TrimPrefix(name, prefix), ".db")
	if digits == "" {
		return 0, false
	}
	version, err := strconv.Atoi(digits)
	if err != nil || version < 0 {
		return 0, false
	}
	return version, true
}

// Fill returns d with empty fields taken from loc.
func (d Databases) Fill(loc Locations) Databases {
	if d.Video == "" {
		d.Video = loc.Video
	}
	if d.Music == "" {
		d.Music = loc.Music
	}
	if d.Texture == "" {
		d.Texture = loc.Texture
	}
	return d
}
