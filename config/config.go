package config

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

const (
	// MinPollIntervalSeconds is the lower bound applied to poll_interval_seconds.
	MinPollIntervalSeconds = 10
	socketName             = "hyprconnect.sock"
)

// Config represents the overall daemon configuration. It is loaded once at
// startup and never mutated afterwards.
type Config struct {
	DefaultDevice        string        `yaml:"default_device"`
	PollIntervalSeconds  int           `yaml:"poll_interval_seconds"`
	PollInterval         time.Duration `yaml:"-"` // Ignored by YAML parser
	BatteryWarnPercent   int           `yaml:"battery_warn_percent"`
	BatteryCritPercent   int           `yaml:"battery_crit_percent"`
	NotificationsEnabled bool          `yaml:"notifications_enabled"`
	SocketPath           string        `yaml:"socket_path"`

	Log        LogConfig        `yaml:"log"`
	HTTP       HTTPConfig       `yaml:"http"`
	History    HistoryConfig    `yaml:"history"`
	Push       PushConfig       `yaml:"push"`
	WorkerPool WorkerPoolConfig `yaml:"worker_pool"`
}

// LogConfig controls the zerolog output.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // console | json
}

// HTTPConfig holds the optional loopback status API settings.
type HTTPConfig struct {
	Enabled         bool    `yaml:"enabled"`
	Listen          string  `yaml:"listen"`
	RateLimitPerSec float64 `yaml:"rate_limit_per_sec"`
	RateLimitBurst  int     `yaml:"rate_limit_burst"`
	CacheTTLSeconds int     `yaml:"cache_ttl_seconds"`
}

// HistoryConfig holds the device history database settings.
type HistoryConfig struct {
	Enabled      bool   `yaml:"enabled"`
	DSN          string `yaml:"dsn"`
	MaxOpenConns int    `yaml:"max_open_conns"`
}

// PushConfig holds the VAPID keys for web push notifications.
type PushConfig struct {
	PublicKey  string `yaml:"vapid_public_key"`
	PrivateKey string `yaml:"vapid_private_key"`
	Subject    string `yaml:"subject"`
	TTL        int    `yaml:"ttl"`
}

// Configured reports whether web push can be used.
func (p PushConfig) Configured() bool {
	return p.PublicKey != "" && p.PrivateKey != ""
}

// WorkerPoolConfig holds the configuration for the notification worker pool.
type WorkerPoolConfig struct {
	Size int `yaml:"size"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	cfg := &Config{
		PollIntervalSeconds:  MinPollIntervalSeconds,
		BatteryWarnPercent:   30,
		BatteryCritPercent:   15,
		NotificationsEnabled: true,
		History:              HistoryConfig{Enabled: true},
	}
	applyDefaults(cfg)
	return cfg
}

// DefaultPath resolves the config file location.
func DefaultPath() string {
	if p := os.Getenv("HYPRCONNECT_CONFIG"); p != "" {
		return p
	}
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return filepath.Join(".config", "hyprconnect", "config.yaml")
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, "hyprconnect", "config.yaml")
}

// DefaultSocketPath is $XDG_RUNTIME_DIR/hyprconnect.sock, or /tmp when unset.
func DefaultSocketPath() string {
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return filepath.Join(dir, socketName)
	}
	return filepath.Join(os.TempDir(), socketName)
}

// Load reads the configuration from the given path. A missing file yields
// the defaults.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			log.Info().Str("path", path).Msg("config file not found; using defaults")
			return Default(), nil
		}
		return nil, errors.Wrapf(err, "open config %s", path)
	}
	defer f.Close()

	cfg := Default()
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return cfg, nil
		}
		return nil, errors.Wrapf(err, "decode config %s", path)
	}

	applyDefaults(cfg)
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.PollIntervalSeconds < MinPollIntervalSeconds {
		cfg.PollIntervalSeconds = MinPollIntervalSeconds
	}
	cfg.PollInterval = time.Duration(cfg.PollIntervalSeconds) * time.Second

	if cfg.SocketPath == "" {
		cfg.SocketPath = DefaultSocketPath()
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}

	if cfg.HTTP.Listen == "" {
		cfg.HTTP.Listen = "127.0.0.1:8765"
	}
	if cfg.HTTP.RateLimitPerSec <= 0 {
		cfg.HTTP.RateLimitPerSec = 10
	}
	if cfg.HTTP.RateLimitBurst <= 0 {
		cfg.HTTP.RateLimitBurst = 5
	}
	if cfg.HTTP.CacheTTLSeconds <= 0 {
		cfg.HTTP.CacheTTLSeconds = 2
	}

	if cfg.History.DSN == "" {
		cfg.History.DSN = defaultHistoryDSN()
	}
	if cfg.History.MaxOpenConns <= 0 {
		cfg.History.MaxOpenConns = 1
	}

	if cfg.Push.TTL <= 0 {
		cfg.Push.TTL = 3600
	}

	if cfg.WorkerPool.Size <= 0 {
		cfg.WorkerPool.Size = 1
	}
}

func defaultHistoryDSN() string {
	base := os.Getenv("XDG_DATA_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "hyprconnect-history.db"
		}
		base = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(base, "hyprconnect", "history.db")
}
