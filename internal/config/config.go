package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config captures the storefront settings.
type Config struct {
	APIURL      string
	IdentityURL string
	TokenURL    string
	APIKey      string
	LogDir      string
	CachePath   string
	PollSeconds int
	Search      SearchConfig
}

// SearchConfig tunes the browse view's search box. Zero values select the
// search package defaults; a negative MinSearch disables the minimum
// searching duration.
type SearchConfig struct {
	Debounce  time.Duration
	MinSearch time.Duration
}

const (
	defaultConfigPath  = "~/.config/stall/config.toml"
	defaultLogDir      = "~/.local/share/stall"
	defaultAPIURL      = "https://next-sale-server.vercel.app"
	defaultPollSeconds = 30
	cacheFileName      = "cache.db"
	logFileName        = "stall.log"
)

// Load locates and parses the stall config, falling back to defaults when missing.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Config{APIURL: defaultAPIURL, PollSeconds: defaultPollSeconds}

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg.LogDir = mustExpand(defaultLogDir)
			cfg.CachePath = filepath.Join(cfg.LogDir, cacheFileName)
			return cfg, nil
		}
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var raw struct {
		APIURL      string `toml:"api_url"`
		IdentityURL string `toml:"identity_url"`
		TokenURL    string `toml:"token_url"`
		APIKey      string `toml:"api_key"`
		LogDir      string `toml:"log_dir"`
		CachePath   string `toml:"cache_path"`
		PollSeconds int    `toml:"poll_seconds"`
		Search      struct {
			DebounceMS  int `toml:"debounce_ms"`
			MinSearchMS int `toml:"min_search_ms"`
		} `toml:"search"`
	}
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	cfg.APIURL = strings.TrimSpace(raw.APIURL)
	if cfg.APIURL == "" {
		cfg.APIURL = defaultAPIURL
	}
	cfg.IdentityURL = strings.TrimSpace(raw.IdentityURL)
	cfg.TokenURL = strings.TrimSpace(raw.TokenURL)
	cfg.APIKey = strings.TrimSpace(raw.APIKey)

	if raw.PollSeconds > 0 {
		cfg.PollSeconds = raw.PollSeconds
	}
	if raw.Search.DebounceMS < 0 {
		return Config{}, fmt.Errorf("parse config: search.debounce_ms must not be negative")
	}
	cfg.Search.Debounce = time.Duration(raw.Search.DebounceMS) * time.Millisecond
	cfg.Search.MinSearch = time.Duration(raw.Search.MinSearchMS) * time.Millisecond

	cfg.LogDir = strings.TrimSpace(raw.LogDir)
	if cfg.LogDir == "" {
		cfg.LogDir = defaultLogDir
	}
	cfg.LogDir = mustExpand(cfg.LogDir)

	cfg.CachePath = strings.TrimSpace(raw.CachePath)
	if cfg.CachePath == "" {
		cfg.CachePath = filepath.Join(cfg.LogDir, cacheFileName)
	}
	cfg.CachePath = mustExpand(cfg.CachePath)

	return cfg, nil
}

// LogPath returns the path of stall's own log file.
func (c Config) LogPath() string {
	if strings.TrimSpace(c.LogDir) == "" {
		return mustExpand(defaultLogDir + "/" + logFileName)
	}
	return filepath.Join(c.LogDir, logFileName)
}

// PollInterval returns the catalog refresh interval.
func (c Config) PollInterval() time.Duration {
	if c.PollSeconds <= 0 {
		return defaultPollSeconds * time.Second
	}
	return time.Duration(c.PollSeconds) * time.Second
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
