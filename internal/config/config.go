package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config represents the global ~/.gram/config.toml.
type Config struct {
	DefaultSession string   `toml:"default_session"`
	Window         Window   `toml:"window"`
	Feed           Feed     `toml:"feed"`
	Snapshot       Snapshot `toml:"snapshot"`
}

// Window bounds the per-tab message viewport.
type Window struct {
	// ViewportLimit is the hard cap on rendered ids per tab.
	ViewportLimit int `toml:"viewport_limit"`
	// Slice is the history fetch slice; on overflow the viewport keeps
	// its newest Slice/2 ids.
	Slice int `toml:"slice"`
}

// Feed locates the inbound update stream.
type Feed struct {
	// Path to the JSONL update stream; empty means the session default.
	Path string `toml:"path"`
}

// Snapshot controls SQLite snapshot cadence.
type Snapshot struct {
	IntervalSeconds int `toml:"interval_seconds"`
}

// Default returns the stock configuration.
func Default() *Config {
	return &Config{
		DefaultSession: "main",
		Window:         Window{ViewportLimit: 84, Slice: 42},
		Snapshot:       Snapshot{IntervalSeconds: 60},
	}
}

// Load reads config from the given path, filling unset fields with
// defaults. Returns an error if the file is missing or malformed.
func Load(path string) (*Config, error) {
	var cfg Config
	_, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return nil, err
	}
	applyDefaults(&cfg)
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadOrDefault reads config from path, falling back to defaults when
// the file does not exist.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if os.IsNotExist(err) {
		return Default(), nil
	}
	return cfg, err
}

// Save writes config to the given path, creating parent dirs as needed.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	encErr := toml.NewEncoder(f).Encode(cfg)
	if closeErr := f.Close(); closeErr != nil && encErr == nil {
		return closeErr
	}
	return encErr
}

func applyDefaults(cfg *Config) {
	def := Default()
	if cfg.DefaultSession == "" {
		cfg.DefaultSession = def.DefaultSession
	}
	if cfg.Window.ViewportLimit == 0 {
		cfg.Window.ViewportLimit = def.Window.ViewportLimit
	}
	if cfg.Window.Slice == 0 {
		cfg.Window.Slice = def.Window.Slice
	}
	if cfg.Snapshot.IntervalSeconds == 0 {
		cfg.Snapshot.IntervalSeconds = def.Snapshot.IntervalSeconds
	}
}

func (cfg *Config) validate() error {
	if cfg.Window.ViewportLimit < 0 || cfg.Window.Slice < 0 {
		return fmt.Errorf("window limits must be positive")
	}
	if cfg.Window.Slice > cfg.Window.ViewportLimit {
		return fmt.Errorf("window slice %d exceeds viewport limit %d", cfg.Window.Slice, cfg.Window.ViewportLimit)
	}
	return nil
}
