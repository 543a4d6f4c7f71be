package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/spinless-app/spinless/internal/library"
	"github.com/spinless-app/spinless/internal/nfo"
	"github.com/spinless-app/spinless/internal/pathmap"
)

func TestGetDataDirWithExplicitEnv(t *testing.T) {
	customDir := filepath.Join(t.TempDir(), "custom")

	t.Setenv(DirEnv, customDir)
	t.Setenv("XDG_DATA_HOME", "")

	if got := GetDataDir(); got != customDir {
		t.Fatalf("expected %q, got %q", customDir, got)
	}
	if got, want := GetJournalPath(), filepath.Join(customDir, "journal.db"); got != want {
		t.Fatalf("GetJournalPath expected %q, got %q", want, got)
	}
	if got, want := GetSettingsPath(), filepath.Join(customDir, "settings.yaml"); got != want {
		t.Fatalf("GetSettingsPath expected %q, got %q", want, got)
	}
}

func TestGetDirsFallBackToXDG(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv(DirEnv, "")
	t.Setenv("XDG_DATA_HOME", filepath.Join(tmpDir, "data"))
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(tmpDir, "config"))

	if got, want := GetDataDir(), filepath.Join(tmpDir, "data", "spinless"); got != want {
		t.Fatalf("GetDataDir expected %q, got %q", want, got)
	}
	if got, want := GetConfigDir(), filepath.Join(tmpDir, "config", "spinless"); got != want {
		t.Fatalf("GetConfigDir expected %q, got %q", want, got)
	}
}

func TestLoadSettingsMissingFileGivesDefaults(t *testing.T) {
	settings, err := LoadSettings(filepath.Join(t.TempDir(), "settings.yaml"))
	if err != nil {
		t.Fatalf("LoadSettings returned error: %v", err)
	}
	if !reflect.DeepEqual(settings, DefaultSettings()) {
		t.Fatalf("expected defaults, got %#v", settings)
	}
	if got := library.Normalize(settings.Types).Types(); len(got) != 1 || got[0] != "movie" {
		t.Fatalf("expected movies only by default, got %v", got)
	}
}

func TestSaveAndLoadSettingsRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "settings.yaml")
	settings := DefaultSettings()
	settings.Types.Shows = true
	settings.Mode = nfo.AllLocal
	settings.EpisodePolicy = nfo.RequireShowNFO
	settings.Substitutions = []pathmap.Substitution{{From: "smb://nas/", To: "/mnt/nas/"}}
	settings.Platform = pathmap.WSL
	settings.BusyTimeout = 3 * time.Second
	settings.Databases.Texture = "/kodi/Textures13.db"

	if err := SaveSettings(path, settings); err != nil {
		t.Fatalf("SaveSettings returned error: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read settings: %v", err)
	}
	if !strings.Contains(string(data), "busy_timeout: 3s") || !strings.Contains(string(data), "episode_policy: require_show_nfo") {
		t.Fatalf("unexpected settings file:\n%s", data)
	}

	loaded, err := LoadSettings(path)
	if err != nil {
		t.Fatalf("LoadSettings returned error: %v", err)
	}
	if !reflect.DeepEqual(loaded, settings) {
		t.Fatalf("expected %#v, got %#v", settings, loaded)
	}
}

func TestLoadSettingsPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	if err := os.WriteFile(path, []byte("mode: all-local\n"), 0o600); err != nil {
		t.Fatalf("write settings: %v", err)
	}

	settings, err := LoadSettings(path)
	if err != nil {
		t.Fatalf("LoadSettings returned error: %v", err)
	}
	if settings.Mode != nfo.AllLocal || settings.EpisodePolicy != nfo.PerItem || settings.PreviewLimit != 10 {
		t.Fatalf("expected mode override over defaults, got %#v", settings)
	}
}

func TestLoadSettingsRejectsInvalidValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	if err := os.WriteFile(path, []byte("episode_policy: sometimes\n"), 0o600); err != nil {
		t.Fatalf("write settings: %v", err)
	}

	settings, err := LoadSettings(path)
	if err == nil {
		t.Fatalf("expected invalid policy to be rejected")
	}
	if !reflect.DeepEqual(settings, DefaultSettings()) {
		t.Fatalf("expected defaults alongside the error, got %#v", settings)
	}

	if err := os.WriteFile(path, []byte("types: [not, a, map]\n"), 0o600); err != nil {
		t.Fatalf("write settings: %v", err)
	}
	if _, err := LoadSettings(path); err == nil {
		t.Fatalf("expected malformed YAML to be rejected")
	}
}

func TestKodiDatabaseDirsPerPlatform(t *testing.T) {
	env := map[string]string{"APPDATA": `C:\Users\me\AppData\Roaming`, "LOCALAPPDATA": `C:\Users\me\AppData\Local`}
	getenv := func(key string) string { return env[key] }

	windows := kodiDatabaseDirs("windows", "/home/me", getenv)
	if len(windows) != 3 || !strings.Contains(windows[0], "Roaming") || !strings.Contains(windows[1], "Local") {
		t.Fatalf("unexpected windows dirs: %v", windows)
	}

	darwin := kodiDatabaseDirs("darwin", "/Users/me", getenv)
	if len(darwin) != 1 || !strings.Contains(darwin[0], "Application Support") {
		t.Fatalf("unexpected darwin dirs: %v", darwin)
	}

	linux := kodiDatabaseDirs("linux", "/home/me", getenv)
	want := []string{
		filepath.Join("/home/me", ".kodi", "userdata", "Database"),
		filepath.Join("/home/me", ".var", "app", "tv.kodi.Kodi", "data", "userdata", "Database"),
		filepath.Join("/storage", ".kodi", "userdata", "Database"),
	}
	if !reflect.DeepEqual(linux, want) {
		t.Fatalf("expected %v, got %v", want, linux)
	}

	env[KodiDirEnv] = "/custom/Database"
	if got := kodiDatabaseDirs("linux", "/home/me", getenv); got[0] != "/custom/Database" {
		t.Fatalf("expected explicit dir first, got %v", got)
	}
}

func TestFindDatabaseNewestVersion(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"MyVideos99.db", "MyVideos131.db", "MyVideos121.db", "MyVideosX.db", "Textures13.db", "MyMusic83.db-journal"} {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0o600); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}

	if got, want := FindDatabase(dir, VideoPrefix), filepath.Join(dir, "MyVideos131.db"); got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
	if got := FindDatabase(dir, MusicPrefix); got != "" {
		t.Fatalf("expected no music store, got %q", got)
	}
	if got := FindDatabase(filepath.Join(dir, "missing"), VideoPrefix); got != "" {
		t.Fatalf("expected missing dir to yield nothing, got %q", got)
	}
}

func TestLocateFirstPopulatedDir(t *testing.T) {
	empty := t.TempDir()
	kodi := t.TempDir()
	for _, name := range []string{"MyVideos131.db", "MyMusic83.db", "Textures13.db"} {
		if err := os.WriteFile(filepath.Join(kodi, name), nil, 0o600); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}

	loc := Locate([]string{filepath.Join(empty, "nope"), empty, kodi})
	if loc.Dir != kodi || loc.Video == "" || loc.Music == "" || loc.Texture == "" {
		t.Fatalf("expected every store in %s, got %#v", kodi, loc)
	}

	if got := Locate([]string{empty}); got != (Locations{}) {
		t.Fatalf("expected nothing found, got %#v", got)
	}
}
