package config

import (
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

const configTOMLFileName = "config.toml"

// WindowConfig is the rendering process's own window chrome, applied
// before any tree arrives and overridable by patch chrome updates.
type WindowConfig struct {
	Title  string  `toml:"title"`
	Width  float64 `toml:"width"`
	Height float64 `toml:"height"`
}

type NotificationsConfig struct {
	Enabled bool   `toml:"enabled"`
	Backend string `toml:"backend"`
}

// RenderConfig is the on-disk preference file in the config dir. It is
// the rendering side's own state; nothing in it travels over the
// channel.
type RenderConfig struct {
	Window        WindowConfig        `toml:"window"`
	Notifications NotificationsConfig `toml:"notifications"`
	StatusIcon    string              `toml:"status_icon,omitempty"`
}

type Store struct {
	dir string
}

func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// LoadOrInit reads config.toml, writing a normalized default file on
// first run.
func (s *Store) LoadOrInit() (RenderConfig, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return RenderConfig{}, err
	}

	path := filepath.Join(s.dir, configTOMLFileName)
	if b, err := os.ReadFile(path); err == nil {
		var cfg RenderConfig
		if err := toml.Unmarshal(b, &cfg); err != nil {
			return RenderConfig{}, err
		}
		return normalizeRenderConfig(cfg), nil
	} else if !os.IsNotExist(err) {
		return RenderConfig{}, err
	}

	cfg := normalizeRenderConfig(RenderConfig{
		Notifications: NotificationsConfig{Enabled: true},
	})
	if err := writeTOMLAtomically(path, cfg); err != nil {
		return RenderConfig{}, err
	}
	return cfg, nil
}

func (s *Store) Save(cfg RenderConfig) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return err
	}
	return writeTOMLAtomically(filepath.Join(s.dir, configTOMLFileName), normalizeRenderConfig(cfg))
}

func normalizeRenderConfig(cfg RenderConfig) RenderConfig {
	if strings.TrimSpace(cfg.Window.Title) == "" {
		cfg.Window.Title = "viewlink"
	}
	if cfg.Window.Width <= 0 {
		cfg.Window.Width = 480
	}
	if cfg.Window.Height <= 0 {
		cfg.Window.Height = 640
	}
	cfg.Notifications.Backend = strings.ToLower(strings.TrimSpace(cfg.Notifications.Backend))
	switch cfg.Notifications.Backend {
	case "system", "log":
	default:
		cfg.Notifications.Backend = "system"
	}
	cfg.StatusIcon = strings.TrimSpace(cfg.StatusIcon)
	return cfg
}

func writeTOMLAtomically(path string, v any) error {
	b, err := toml.Marshal(v)
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
