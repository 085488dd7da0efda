package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix namespaces the browser's environment overrides, e.g. FRAMESURF_THEME.
const EnvPrefix = "FRAMESURF"

const appDirName = "framesurf"

// Config holds framesurf user configuration. Values load from config.json
// and may be overridden by FRAMESURF_* environment variables.
type Config struct {
	Theme    string `json:"theme" envconfig:"THEME"`
	Homepage string `json:"homepage" envconfig:"HOMEPAGE"`

	// Gateway is the fetch service endpoint. Empty fetches pages directly.
	Gateway   string `json:"gateway" envconfig:"GATEWAY"`
	UserAgent string `json:"user_agent" envconfig:"USER_AGENT"`
	Timeout   string `json:"timeout" envconfig:"TIMEOUT"`
	RetryMax  int    `json:"retry_max" envconfig:"RETRY_MAX"`

	LogLevel string `json:"log_level" envconfig:"LOG_LEVEL"`

	PlainRender     bool `json:"plain_render" envconfig:"PLAIN_RENDER"`
	RenderCacheSize int  `json:"render_cache_size" envconfig:"RENDER_CACHE_SIZE"`

	path string
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Theme:           "default",
		Timeout:         "15s",
		RetryMax:        2,
		LogLevel:        "info",
		RenderCacheSize: 32,
	}
}

// RequestTimeout parses Timeout, falling back to 15s.
func (c *Config) RequestTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil || d <= 0 {
		return 15 * time.Second
	}
	return d
}

// Path returns where the configuration is stored.
func (c *Config) Path() string {
	return c.path
}

// LoadConfig loads configuration from the standard config directory.
func LoadConfig() (*Config, error) {
	dir, err := configDir()
	if err != nil {
		return nil, err
	}
	return LoadConfigFrom(dir)
}

// LoadConfigFrom loads dir/config.json, writing the defaults there on first
// run, then applies environment overrides. Overrides are never saved.
func LoadConfigFrom(dir string) (*Config, error) {
	path := filepath.Join(dir, "config.json")
	cfg := DefaultConfig()
	cfg.path = path

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		if err := cfg.Save(); err != nil {
			return nil, err
		}
	case err != nil:
		return nil, fmt.Errorf("reading config: %w", err)
	default:
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parsing config: %w", err)
		}
	}

	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("applying environment: %w", err)
	}

	cfg.path = path
	return &cfg, nil
}

// Save writes the configuration to disk.
func (c *Config) Save() error {
	if c.path == "" {
		dir, err := configDir()
		if err != nil {
			return err
		}
		c.path = filepath.Join(dir, "config.json")
	}

	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	return os.WriteFile(c.path, data, 0o644)
}

// DataDir returns the data directory for persistent storage.
func DataDir() (string, error) {
	return platformDir("XDG_DATA_HOME", filepath.Join(".local", "share"))
}

// LogPath returns the default log file location.
func LogPath() (string, error) {
	dir, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "framesurf.log"), nil
}

func configDir() (string, error) {
	return platformDir("XDG_CONFIG_HOME", ".config")
}

// platformDir resolves the per-OS application directory. On Linux and BSD
// xdgVar wins, else fallback under the home directory.
func platformDir(xdgVar, fallback string) (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home dir: %w", err)
	}

	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", appDirName), nil
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, appDirName), nil
		}
		return filepath.Join(home, "."+appDirName), nil
	default:
		if xdg := os.Getenv(xdgVar); xdg != "" {
			return filepath.Join(xdg, appDirName), nil
		}
		return filepath.Join(home, fallback, appDirName), nil
	}
}
