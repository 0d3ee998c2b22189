package config

import (
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("VIEWLINK_SOCKET", "")
	t.Setenv("VIEWLINK_LOG_LEVEL", "")
	t.Setenv("VIEWLINK_DB_PATH", "")
	t.Setenv("VIEWLINK_MAX_FRAME_MB", "")
	t.Setenv("VIEWLINK_CONFIG_DIR", t.TempDir())
	t.Setenv("XDG_RUNTIME_DIR", "")

	cfg := LoadConfig()
	if cfg.SocketPath == "" {
		t.Fatal("socket path should never be empty")
	}
	if cfg.LogLevel != "info" {
		t.Fatalf("unexpected log level: %s", cfg.LogLevel)
	}
	if filepath.Base(cfg.DBPath) != "defaults.db" {
		t.Fatalf("unexpected db path: %s", cfg.DBPath)
	}
	if cfg.MaxFrameBytes != 64<<20 {
		t.Fatalf("unexpected max frame: %d", cfg.MaxFrameBytes)
	}
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("VIEWLINK_SOCKET", "/tmp/custom.sock")
	t.Setenv("VIEWLINK_LOG_LEVEL", "debug")
	t.Setenv("VIEWLINK_MAX_FRAME_MB", "8")

	cfg := LoadConfig()
	if cfg.SocketPath != "/tmp/custom.sock" {
		t.Fatalf("unexpected socket path: %s", cfg.SocketPath)
	}
	if cfg.LogLevel != "debug" {
		t.Fatalf("unexpected log level: %s", cfg.LogLevel)
	}
	if cfg.MaxFrameBytes != 8<<20 {
		t.Fatalf("unexpected max frame: %d", cfg.MaxFrameBytes)
	}
}

func TestLoadConfig_MalformedFrameSizeFallsBack(t *testing.T) {
	t.Setenv("VIEWLINK_MAX_FRAME_MB", "not-a-number")
	cfg := LoadConfig()
	if cfg.MaxFrameBytes != 64<<20 {
		t.Fatalf("unexpected max frame: %d", cfg.MaxFrameBytes)
	}
}

func TestGetConfig_CachesWithinTTL(t *testing.T) {
	t.Setenv("VIEWLINK_LOG_LEVEL", "warn")
	LoadConfig()

	t.Setenv("VIEWLINK_LOG_LEVEL", "error")
	if got := GetConfig().LogLevel; got != "warn" {
		t.Fatalf("cache miss within TTL: got %s", got)
	}

	cacheMu.Lock()
	cachedAt = time.Now().Add(-cacheTTL - time.Second)
	cacheMu.Unlock()
	if got := GetConfig().LogLevel; got != "error" {
		t.Fatalf("stale cache after TTL: got %s", got)
	}
}

func TestStore_LoadOrInitWritesDefaults(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir)

	cfg, err := store.LoadOrInit()
	if err != nil {
		t.Fatalf("load or init: %v", err)
	}
	if cfg.Window.Title != "viewlink" || cfg.Window.Width != 480 || cfg.Window.Height != 640 {
		t.Fatalf("unexpected defaults: %+v", cfg.Window)
	}
	if !cfg.Notifications.Enabled || cfg.Notifications.Backend != "system" {
		t.Fatalf("unexpected notification defaults: %+v", cfg.Notifications)
	}

	// Second load reads the file it just wrote.
	again, err := store.LoadOrInit()
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if again != cfg {
		t.Fatalf("reload mismatch: %+v vs %+v", again, cfg)
	}
}

func TestStore_SaveRoundTrip(t *testing.T) {
	store := NewStore(t.TempDir())
	want := RenderConfig{
		Window:        WindowConfig{Title: "My App", Width: 800, Height: 600},
		Notifications: NotificationsConfig{Enabled: true, Backend: "log"},
		StatusIcon:    "bolt",
	}
	if err := store.Save(want); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := store.LoadOrInit()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got != want {
		t.Fatalf("round trip: got %+v, want %+v", got, want)
	}
}

func TestStore_NormalizesBadValues(t *testing.T) {
	store := NewStore(t.TempDir())
	if err := store.Save(RenderConfig{
		Window:        WindowConfig{Width: -1, Height: 0},
		Notifications: NotificationsConfig{Backend: "DBUS"},
	}); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := store.LoadOrInit()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.Window.Width != 480 || got.Window.Height != 640 {
		t.Fatalf("sizes not normalized: %+v", got.Window)
	}
	if got.Notifications.Backend != "system" {
		t.Fatalf("backend not normalized: %q", got.Notifications.Backend)
	}
}
