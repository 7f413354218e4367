// Package config loads imagefetch settings from settings.toml.
package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"imagefetch/pkg/driver"
	envdriver "imagefetch/pkg/driver/env"
)

// FileName is the name of the settings file inside the config directory.
const FileName = "settings.toml"

// Config is the whole settings file.
type Config struct {
	Fetch   FetchConfig    `toml:"fetch"`
	View    ViewConfig     `toml:"view"`
	Serve   ServeConfig    `toml:"serve"`
	Drivers map[string]int `toml:"drivers"`

	// Path is the file the config was read from, empty when defaults are used.
	Path string `toml:"-"`
}

type FetchConfig struct {
	ConnectTimeout time.Duration `toml:"connect_timeout"`
	ReadTimeout    time.Duration `toml:"read_timeout"`
	ReadBufferSize int           `toml:"read_buffer_size"`
}

type ViewConfig struct {
	Width  int `toml:"width"`
	Height int `toml:"height"`
	// Fallback is an image shown when a download fails; empty uses the built-in placeholder.
	Fallback  string `toml:"fallback"`
	OutputDir string `toml:"output_dir"`
}

type ServeConfig struct {
	Addr string `toml:"addr"`
}

// Default returns the settings used when no file exists.
func Default() *Config {
	return &Config{
		Fetch: FetchConfig{
			ConnectTimeout: 15 * time.Second,
			ReadTimeout:    10 * time.Second,
			ReadBufferSize: 32 << 10,
		},
		Serve: ServeConfig{
			Addr: "127.0.0.1:8080",
		},
		Drivers: map[string]int{},
	}
}

// Load reads the settings file. An empty path resolves to $IMAGEFETCH_CONFIG
// or settings.toml in the env driver's config directory. A missing file is not
// an error. Driver weights from the file are applied to the registry.
func Load(ctx context.Context, path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv("IMAGEFETCH_CONFIG")
	}
	if path == "" {
		dir, err := envdriver.GetConfigDir(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to locate config directory: %w", err)
		}
		path = filepath.Join(dir, FileName)
	}
	path = envdriver.ExpandPath(path)

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	} else {
		cfg.Path = path
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	for id, weight := range cfg.Drivers {
		driver.SetWeight(id, weight)
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	overrides := []struct {
		name string
		dst  *time.Duration
	}{
		{"IMAGEFETCH_CONNECT_TIMEOUT", &c.Fetch.ConnectTimeout},
		{"IMAGEFETCH_READ_TIMEOUT", &c.Fetch.ReadTimeout},
	}
	for _, o := range overrides {
		raw := os.Getenv(o.name)
		if raw == "" {
			continue
		}
		d, err := time.ParseDuration(raw)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", o.name, err)
		}
		*o.dst = d
	}
	return nil
}

// Validate rejects settings the fetcher cannot work with.
func (c *Config) Validate() error {
	if c.Fetch.ConnectTimeout <= 0 {
		return fmt.Errorf("fetch.connect_timeout must be positive, got %s", c.Fetch.ConnectTimeout)
	}
	if c.Fetch.ReadTimeout <= 0 {
		return fmt.Errorf("fetch.read_timeout must be positive, got %s", c.Fetch.ReadTimeout)
	}
	if c.Fetch.ReadBufferSize <= 0 {
		return fmt.Errorf("fetch.read_buffer_size must be positive, got %d", c.Fetch.ReadBufferSize)
	}
	if c.View.Width < 0 || c.View.Height < 0 {
		return fmt.Errorf("view size must not be negative, got %dx%d", c.View.Width, c.View.Height)
	}
	return nil
}

type configKey struct{}

// WithConfig returns a copy of ctx carrying cfg.
func WithConfig(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configKey{}, cfg)
}

// FromContext returns the config stored in ctx, or Default() when none was set.
func FromContext(ctx context.Context) *Config {
	if cfg, ok := ctx.Value(configKey{}).(*Config); ok && cfg != nil {
		return cfg
	}
	return Default()
}
