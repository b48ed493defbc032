package cli

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/matzehuels/nestree/pkg/errors"
	"github.com/matzehuels/nestree/pkg/nestedset"
	"github.com/matzehuels/nestree/pkg/pipeline"
	"github.com/matzehuels/nestree/pkg/store"
)

type browseOpts struct {
	from       string
	complement bool
	noCache    bool
	mongoURI   string
	set        string
}

// browseCommand creates the interactive browser.
func (c *CLI) browseCommand() *cobra.Command {
	var opts browseOpts

	cmd := &cobra.Command{
		Use:   "browse [file]",
		Short: "Browse an indexed hierarchy in the terminal",
		Long: `Browse indexes the input records and opens an interactive tree view
showing each node's position and nested-set bounds.

With --set, the most recently saved collection of that set is loaded from
MongoDB instead.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("mongo-uri") {
				opts.mongoURI = c.Config.Mongo.URI
			}
			if !cmd.Flags().Changed("complement") {
				opts.complement = c.Config.Index.Complement
			}
			input := ""
			if len(args) == 1 {
				input = args[0]
			}
			nodes, err := c.browseNodes(cmd.Context(), cmd, input, &opts)
			if err != nil {
				return err
			}
			if len(nodes) == 0 {
				printInfo("Nothing to browse")
				return nil
			}
			_, err = tea.NewProgram(NewTreeModel(nodes), tea.WithAltScreen(), tea.WithContext(cmd.Context())).Run()
			return err
		},
	}

	cmd.Flags().StringVarP(&opts.from, "from", "f", "", "input format (default: from file extension)")
	cmd.Flags().BoolVar(&opts.complement, "complement", false, "give every node a leaf copy of itself")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching")
	cmd.Flags().StringVar(&opts.mongoURI, "mongo-uri", "", "MongoDB connection string")
	cmd.Flags().StringVar(&opts.set, "set", "", "load this saved set from MongoDB")

	return cmd
}

func (c *CLI) browseNodes(ctx context.Context, cmd *cobra.Command, input string, opts *browseOpts) ([]nestedset.Node, error) {
	if opts.set != "" {
		if opts.mongoURI == "" {
			return nil, errors.New(errors.ErrCodeInvalidConfig, "missing option --mongo-uri: required with --set")
		}
		cfg := c.Config.Mongo
		st, err := store.Open(ctx, store.Options{
			URI:        opts.mongoURI,
			Database:   cfg.Database,
			Collection: cfg.Collection,
			Timeout:    cfg.Timeout.Duration,
		})
		if err != nil {
			return nil, err
		}
		defer func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = st.Close(closeCtx)
		}()
		return st.Load(ctx, opts.set)
	}

	nodes, _, err := readInput(cmd.InOrStdin(), input, opts.from)
	if err != nil {
		return nil, err
	}
	runner := c.newRunner(ctx, opts.noCache)
	defer runner.Close()

	res, err := runner.Rebuild(ctx, nodes, pipeline.Options{
		Complement:      opts.complement,
		Order:           pipeline.OrderPreorder,
		MaxUnfoldPasses: c.Config.Index.MaxUnfoldPasses,
		MaxNodes:        c.Config.Index.MaxNodes,
		Logger:          loggerFromContext(ctx),
	})
	if err != nil {
		return nil, err
	}
	return res.Nodes, nil
}
