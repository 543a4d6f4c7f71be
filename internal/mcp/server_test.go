package mcp

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/spinless-app/spinless/internal/config"
	"github.com/spinless-app/spinless/internal/database"
	"github.com/spinless-app/spinless/internal/database/dbtest"
	"github.com/spinless-app/spinless/internal/texture"
)

func newTestServer(t *testing.T) (*Server, *dbtest.Store) {
	t.Helper()
	root := filepath.ToSlash(t.TempDir())
	dir := root + "/Alien/"
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(dir+"Alien.nfo", []byte("<movie/>"), 0o644); err != nil {
		t.Fatalf("write nfo: %v", err)
	}

	video := dbtest.NewVideoStore(t)
	video.Movie(1, "Alien", dir, "Alien.mkv", 0)
	video.Art(1, "movie", "poster", dir+"poster.jpg")
	textures := dbtest.NewTextureStore(t)
	textures.Texture(1, dir+"poster.jpg", nil)

	journal, err := database.OpenJournal(":memory:")
	if err != nil {
		t.Fatalf("OpenJournal returned error: %v", err)
	}
	t.Cleanup(func() { _ = database.CloseDatabase(journal) })

	settings := config.DefaultSettings()
	settings.BusyTimeout = 50 * time.Millisecond
	settings.Databases = config.Databases{Video: video.Path, Texture: textures.Path}
	return NewServer(settings, journal, zerolog.Nop()), textures
}

func TestHandleScanIsDryRun(t *testing.T) {
	s, textures := newTestServer(t)

	_, out, err := s.handleScan(context.Background(), nil, ScanInput{})
	if err != nil {
		t.Fatalf("handleScan returned error: %v", err)
	}
	if out.Planned != 1 || len(out.Preview) != 1 {
		t.Fatalf("expected one planned update, got %+v", out)
	}
	if out.Items["movie"] != 1 {
		t.Fatalf("expected one movie, got %v", out.Items)
	}
	if got := out.Preview[0]; got.TextureID != 1 || got.New != texture.Sentinel || got.Item != "movie:1" {
		t.Fatalf("unexpected preview row: %+v", got)
	}
	if textures.HashCheck(1).Valid {
		t.Fatalf("scan wrote to the texture store")
	}
}

func TestHandleScanRejectsBadOverride(t *testing.T) {
	s, _ := newTestServer(t)
	mode := "sometimes"
	if _, _, err := s.handleScan(context.Background(), nil, ScanInput{Mode: &mode}); err == nil {
		t.Fatalf("expected error for invalid mode")
	}
}

func TestHandleApplyRequiresConfirm(t *testing.T) {
	s, textures := newTestServer(t)
	if _, _, err := s.handleApply(context.Background(), nil, ApplyInput{}); err == nil {
		t.Fatalf("expected error without confirm")
	}
	if textures.HashCheck(1).Valid {
		t.Fatalf("unconfirmed apply wrote to the texture store")
	}
}

func TestHandleApplyThenHistory(t *testing.T) {
	s, textures := newTestServer(t)
	ctx := context.Background()

	_, out, err := s.handleApply(ctx, nil, ApplyInput{Confirm: true})
	if err != nil {
		t.Fatalf("handleApply returned error: %v", err)
	}
	if out.Updated != 1 || out.RunID == 0 {
		t.Fatalf("unexpected apply output: %+v", out)
	}
	if got := textures.HashCheck(1); got.String != texture.Sentinel {
		t.Fatalf("texture not stamped: %+v", got)
	}

	_, history, err := s.handleHistory(ctx, nil, HistoryInput{})
	if err != nil {
		t.Fatalf("handleHistory returned error: %v", err)
	}
	if len(history.Runs) != 1 || history.Runs[0].ID != out.RunID || history.Runs[0].Updated != 1 {
		t.Fatalf("unexpected history: %+v", history.Runs)
	}
}
