package config

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Config is the process environment: where the socket lives, where the
// defaults database lives, and how chatty the logs are.
type Config struct {
	SocketPath    string
	LogLevel      string
	DBPath        string
	MaxFrameBytes uint32
}

var (
	cacheTTL   = 10 * time.Second
	nowFunc    = time.Now
	cacheMu    sync.RWMutex
	cachedCfg  Config
	cachedAt   time.Time
	cacheValid bool
)

func LoadConfig() Config {
	cfg := loadFromEnv()
	cacheMu.Lock()
	cachedCfg = cfg
	cachedAt = nowFunc()
	cacheValid = true
	cacheMu.Unlock()
	return cfg
}

func GetConfig() *Config {
	now := nowFunc()
	cacheMu.RLock()
	valid := cacheValid && now.Sub(cachedAt) < cacheTTL
	if valid {
		out := cachedCfg
		cacheMu.RUnlock()
		return &out
	}
	cacheMu.RUnlock()

	cfg := loadFromEnv()
	cacheMu.Lock()
	cachedCfg = cfg
	cachedAt = now
	cacheValid = true
	cacheMu.Unlock()

	out := cfg
	return &out
}

func loadFromEnv() Config {
	socket := os.Getenv("VIEWLINK_SOCKET")
	if socket == "" {
		socket = defaultSocketPath()
	}

	level := os.Getenv("VIEWLINK_LOG_LEVEL")
	if level == "" {
		level = "info"
	}

	dbPath := os.Getenv("VIEWLINK_DB_PATH")
	if dbPath == "" {
		dbPath = defaultDBPath()
	}

	maxFrame := uint32(64 << 20)
	if mb := atoiOrDefault(os.Getenv("VIEWLINK_MAX_FRAME_MB"), 64); mb > 0 && mb <= 1024 {
		maxFrame = uint32(mb) << 20
	}

	return Config{
		SocketPath:    socket,
		LogLevel:      level,
		DBPath:        dbPath,
		MaxFrameBytes: maxFrame,
	}
}

// DefaultConfigDir returns ~/.config/viewlink.
func DefaultConfigDir() (string, error) {
	if override := strings.TrimSpace(os.Getenv("VIEWLINK_CONFIG_DIR")); override != "" {
		return override, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "viewlink"), nil
}

func defaultSocketPath() string {
	if runtime := strings.TrimSpace(os.Getenv("XDG_RUNTIME_DIR")); runtime != "" {
		return filepath.Join(runtime, "viewlink", "viewlink.sock")
	}
	dir, err := DefaultConfigDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "viewlink.sock")
	}
	return filepath.Join(dir, "viewlink.sock")
}

func defaultDBPath() string {
	dir, err := DefaultConfigDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "viewlink-defaults.db")
	}
	return filepath.Join(dir, "defaults.db")
}

func atoiOrDefault(v string, fallback int) int {
	n := 0
	for i := 0; i < len(v); i++ {
		if v[i] < '0' || v[i] > '9' {
			return fallback
		}
		n = n*10 + int(v[i]-'0')
	}
	if n == 0 {
		return fallback
	}
	return n
}
