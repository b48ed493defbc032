package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/nestree/pkg/cache"
	"github.com/matzehuels/nestree/pkg/config"
	"github.com/matzehuels/nestree/pkg/pipeline"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = config.AppName

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// Config is loaded by the root command before any subcommand runs.
	Config config.Config

	configPath string
	verbose    bool
}

// New creates a new CLI instance with a default logger and the built-in
// configuration.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		Config: config.Default(),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner backed by the configured cache.
func (c *CLI) newRunner(ctx context.Context, noCache bool) *pipeline.Runner {
	runner := pipeline.NewRunner(c.newCache(ctx, noCache), c.newKeyer(), c.Logger)
	runner.TTL = c.Config.Cache.TTL.Duration
	return runner
}

func (c *CLI) newKeyer() cache.Keyer {
	if ns := c.Config.Cache.Namespace; ns != "" {
		return cache.NewScopedKeyer(nil, ns+":")
	}
	return cache.NewDefaultKeyer()
}

// newCache opens the configured backend. Backends that cannot be opened
// degrade to no caching with a warning.
func (c *CLI) newCache(ctx context.Context, noCache bool) cache.Cache {
	cfg := c.Config.Cache
	if noCache || cfg.Backend == config.CacheNone {
		return cache.NewNullCache()
	}

	switch cfg.Backend {
	case config.CacheRedis:
		rc, err := cache.NewRedisCache(ctx, cfg.RedisURL, cfg.Prefix)
		if err != nil {
			c.Logger.Warn("redis cache unavailable, caching disabled", "error", err)
			return cache.NewNullCache()
		}
		return rc
	default:
		dir, err := c.cacheDir()
		if err != nil {
			return cache.NewNullCache()
		}
		fc, err := cache.NewFileCache(dir)
		if err != nil {
			c.Logger.Warn("file cache unavailable, caching disabled", "dir", dir, "error", err)
			return cache.NewNullCache()
		}
		return fc
	}
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the configured cache directory or the XDG default.
func (c *CLI) cacheDir() (string, error) {
	if c.Config.Cache.Dir != "" {
		return c.Config.Cache.Dir, nil
	}
	return cacheDir()
}

// cacheDir returns the cache directory using XDG standard (~/.cache/nestree/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	return config.DefaultCacheDir()
}
