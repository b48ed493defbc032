package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/nestree/pkg/buildinfo"
	"github.com/matzehuels/nestree/pkg/config"
)

// RootCommand creates the root cobra command with all subcommands registered.
//
// Before any subcommand runs, the root loads the config file (--config, or
// $XDG_CONFIG_HOME/nestree/config.toml when present), applies --verbose and
// attaches the logger to the command context.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "nestree",
		Short: "Nestree indexes hierarchies as nested sets",
		Long: `Nestree turns flat parent/child records into a nested-set index.

Shared branches (a node listed under several parents) are unfolded into a
tree first, so every node gets a single parent and contiguous lft/rgt bounds.`,
		Version:       buildinfo.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if c.verbose {
				c.SetLogLevel(LogDebug)
			}
			cfg, err := config.Load(c.configPath)
			if err != nil {
				return err
			}
			c.Config = cfg
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "enable verbose logging")
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/nestree/config.toml)")

	root.AddCommand(c.indexCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.browseCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}
