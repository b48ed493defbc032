package cli

import (
	stderrors "errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/nestree/pkg/cache"
	"github.com/matzehuels/nestree/pkg/config"
	"github.com/matzehuels/nestree/pkg/errors"
)

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage cached index and render results",
	}

	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cachePathCommand())
	cmd.AddCommand(c.cacheInfoCommand())

	return cmd
}

// cacheClearCommand creates the "cache clear" subcommand.
func (c *CLI) cacheClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove all cached results",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			backend := c.newCache(ctx, false)
			defer backend.Close()

			n, err := cache.Clear(ctx, backend)
			if err != nil {
				if stderrors.Is(err, cache.ErrUnsupported) {
					printWarning("The %s backend cannot be cleared", c.Config.Cache.Backend)
					return nil
				}
				return errors.Wrap(errors.ErrCodeStorage, err, "clear cache")
			}
			if n == 0 {
				printInfo("Cache is empty")
				return nil
			}
			printSuccess("Cleared %d cached entries", n)
			if fc, ok := backend.(*cache.FileCache); ok {
				printDetail("Directory: %s", fc.Dir())
			}
			return nil
		},
	}
}

// cachePathCommand creates the "cache path" subcommand.
func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the cache directory path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := c.cacheDir()
			if err != nil {
				return fmt.Errorf("get cache dir: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), dir)
			return nil
		},
	}
}

// cacheInfoCommand creates the "cache info" subcommand.
func (c *CLI) cacheInfoCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show the configured cache backend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := c.Config.Cache
			printKeyValue("backend", cfg.Backend)
			switch cfg.Backend {
			case config.CacheRedis:
				printKeyValue("url", cfg.RedisURL)
				printKeyValue("prefix", cfg.Prefix)
			case config.CacheFile:
				dir, err := c.cacheDir()
				if err != nil {
					return fmt.Errorf("get cache dir: %w", err)
				}
				printKeyValue("directory", dir)
			}
			if cfg.Namespace != "" {
				printKeyValue("namespace", cfg.Namespace)
			}
			printKeyValue("ttl", cfg.TTL.String())
			return nil
		},
	}
}
