// Package config loads nestree settings from a TOML file.
//
// Values are resolved in order: built-in defaults, then the config file,
// then command-line flags (applied by the caller). A missing file at the
// default location is not an error; a missing file that was named
// explicitly is.
//
// # Example
//
//	[index]
//	complement = false
//	order = "preorder"
//	max_unfold_passes = 8
//
//	[cache]
//	backend = "redis"
//	redis_url = "redis://localhost:6379/0"
//	ttl = "24h"
//
//	[server]
//	addr = ":8080"
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/nestree/pkg/errors"
)

// AppName names the config and cache directories.
const AppName = "nestree"

// Cache backends.
const (
	CacheFile  = "file"
	CacheRedis = "redis"
	CacheNone  = "none"
)

// Duration is a time.Duration that decodes from strings such as "90s".
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Config is the full configuration file.
type Config struct {
	Index  IndexConfig  `toml:"index"`
	Render RenderConfig `toml:"render"`
	Cache  CacheConfig  `toml:"cache"`
	Server ServerConfig `toml:"server"`
	Mongo  MongoConfig  `toml:"mongo"`
}

// IndexConfig holds rebuild defaults.
type IndexConfig struct {
	Complement      bool   `toml:"complement"`
	Order           string `toml:"order"`
	MaxUnfoldPasses int    `toml:"max_unfold_passes"`
	MaxNodes        int    `toml:"max_nodes"`
}

// RenderConfig holds diagram defaults.
type RenderConfig struct {
	Format    string `toml:"format"`
	Direction string `toml:"direction"`
	Labels    bool   `toml:"labels"`
	Intervals bool   `toml:"intervals"`
}

// CacheConfig selects and configures the cache backend.
type CacheConfig struct {
	Backend  string   `toml:"backend"`
	Dir      string   `toml:"dir"`
	RedisURL string   `toml:"redis_url"`
	Prefix   string   `toml:"prefix"`
	TTL      Duration `toml:"ttl"`

	// Namespace scopes cache keys so several deployments can share one
	// backend without reading each other's entries.
	Namespace string `toml:"namespace"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr            string   `toml:"addr"`
	MaxBodyBytes    int64    `toml:"max_body_bytes"`
	ReadTimeout     Duration `toml:"read_timeout"`
	WriteTimeout    Duration `toml:"write_timeout"`
	ShutdownTimeout Duration `toml:"shutdown_timeout"`
}

// MongoConfig configures the MongoDB sink.
type MongoConfig struct {
	URI        string   `toml:"uri"`
	Database   string   `toml:"database"`
	Collection string   `toml:"collection"`
	Timeout    Duration `toml:"timeout"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Index: IndexConfig{
			Order:           "emission",
			MaxUnfoldPasses: 8,
			MaxNodes:        1_000_000,
		},
		Render: RenderConfig{
			Format:    "svg",
			Direction: "TB",
			Labels:    true,
		},
		Cache: CacheConfig{
			Backend: CacheFile,
			Prefix:  AppName + ":",
			TTL:     Duration{7 * 24 * time.Hour},
		},
		Server: ServerConfig{
			Addr:            ":8080",
			MaxBodyBytes:    32 << 20,
			ReadTimeout:     Duration{30 * time.Second},
			WriteTimeout:    Duration{60 * time.Second},
			ShutdownTimeout: Duration{10 * time.Second},
		},
		Mongo: MongoConfig{
			Database:   AppName,
			Collection: "sets",
			Timeout:    Duration{10 * time.Second},
		},
	}
}

// DefaultPath returns $XDG_CONFIG_HOME/nestree/config.toml, or the platform
// equivalent.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, AppName, "config.toml"), nil
}

// DefaultCacheDir returns $HOME/.cache/nestree.
func DefaultCacheDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", AppName), nil
}

// Load reads the config file at path over the defaults. An empty path uses
// [DefaultPath] and tolerates a missing file.
func Load(path string) (Config, error) {
	cfg := Default()
	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err != nil {
			return cfg, nil
		}
		path = p
	}

	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return Default(), nil
		}
		if os.IsNotExist(err) {
			return cfg, errors.Wrap(errors.ErrCodeFileNotFound, err, "config file %s", path)
		}
		return cfg, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return cfg, errors.New(errors.ErrCodeInvalidConfig, "unknown keys in %s: %s", path, strings.Join(keys, ", "))
	}
	if err := cfg.Validate(); err != nil {
		return cfg, errors.Wrap(errors.ErrCodeInvalidConfig, err, "%s", path)
	}
	return cfg, nil
}

// Validate checks field values.
func (c *Config) Validate() error {
	if !slices.Contains([]string{"emission", "preorder"}, c.Index.Order) {
		return fmt.Errorf("index.order: invalid value %q", c.Index.Order)
	}
	if c.Index.MaxUnfoldPasses < 1 {
		return fmt.Errorf("index.max_unfold_passes: must be at least 1")
	}
	if c.Index.MaxNodes < 1 {
		return fmt.Errorf("index.max_nodes: must be at least 1")
	}
	if !slices.Contains([]string{"TB", "LR", "BT", "RL"}, c.Render.Direction) {
		return fmt.Errorf("render.direction: invalid value %q", c.Render.Direction)
	}
	switch c.Cache.Backend {
	case CacheFile, CacheNone:
	case CacheRedis:
		if c.Cache.RedisURL == "" {
			return fmt.Errorf("cache.redis_url: required for the redis backend")
		}
	default:
		return fmt.Errorf("cache.backend: invalid value %q (must be one of: file, redis, none)", c.Cache.Backend)
	}
	if c.Server.MaxBodyBytes < 1 {
		return fmt.Errorf("server.max_body_bytes: must be positive")
	}
	return nil
}
