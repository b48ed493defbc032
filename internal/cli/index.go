package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/nestree/pkg/errors"
	nsio "github.com/matzehuels/nestree/pkg/io"
	"github.com/matzehuels/nestree/pkg/nestedset"
	"github.com/matzehuels/nestree/pkg/pipeline"
	"github.com/matzehuels/nestree/pkg/store"
)

// indexOpts holds the command-line flags for the index command.
type indexOpts struct {
	from, to        string
	output          string
	complement      bool
	order           string
	maxUnfoldPasses int
	maxNodes        int
	refresh         bool
	noCache         bool
	mongoURI        string
	set             string
}

// indexCommand creates the index command.
func (c *CLI) indexCommand() *cobra.Command {
	var opts indexOpts

	cmd := &cobra.Command{
		Use:   "index [file]",
		Short: "Rebuild flat records into an indexed nested set",
		Long: `Index reads hierarchy records (id, label, parent, leaf), unfolds shared
branches into a tree and writes every node with its position, parent position
and nested-set bounds (lft, rgt) plus its direct child count.

Reads stdin when no file is given (or the file is "-"); --from is then
required. Writes stdout unless --output is set.`,
		Example: `  nestree index products.csv
  nestree index products.csv --to json -o products.json
  cat products.tsv | nestree index --from tsv --to table
  nestree index products.yaml --complement --order preorder`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c.applyIndexDefaults(cmd, &opts)
			input := ""
			if len(args) == 1 {
				input = args[0]
			}
			return c.runIndex(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), input, &opts)
		},
	}

	formats := strings.Join(nsio.Names(nsio.InputFormats), ", ")
	cmd.Flags().StringVarP(&opts.from, "from", "f", "", "input format: "+formats+" (default: from file extension)")
	cmd.Flags().StringVarP(&opts.to, "to", "t", "", "output format: "+formats+", table (default: input format)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default: stdout)")
	cmd.Flags().BoolVar(&opts.complement, "complement", false, "give every node a leaf copy of itself")
	cmd.Flags().StringVar(&opts.order, "order", pipeline.OrderEmission, "row order: emission, preorder")
	cmd.Flags().IntVar(&opts.maxUnfoldPasses, "max-passes", pipeline.DefaultMaxUnfoldPasses, "maximum unfold passes")
	cmd.Flags().IntVar(&opts.maxNodes, "max-nodes", pipeline.DefaultMaxNodes, "maximum nodes after unfolding")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "ignore cached results")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching")
	cmd.Flags().StringVar(&opts.mongoURI, "mongo-uri", "", "also save the result to MongoDB")
	cmd.Flags().StringVar(&opts.set, "set", "", "set name for --mongo-uri (default: input file name)")

	return cmd
}

// applyIndexDefaults fills flags the user did not set from the config file.
func (c *CLI) applyIndexDefaults(cmd *cobra.Command, opts *indexOpts) {
	cfg := c.Config.Index
	flags := cmd.Flags()
	if !flags.Changed("complement") {
		opts.complement = cfg.Complement
	}
	if !flags.Changed("order") && cfg.Order != "" {
		opts.order = cfg.Order
	}
	if !flags.Changed("max-passes") && cfg.MaxUnfoldPasses > 0 {
		opts.maxUnfoldPasses = cfg.MaxUnfoldPasses
	}
	if !flags.Changed("max-nodes") && cfg.MaxNodes > 0 {
		opts.maxNodes = cfg.MaxNodes
	}
	if !flags.Changed("mongo-uri") {
		opts.mongoURI = c.Config.Mongo.URI
	}
}

func (c *CLI) runIndex(ctx context.Context, stdin io.Reader, stdout io.Writer, input string, opts *indexOpts) error {
	logger := loggerFromContext(ctx)
	prog := newProgress(logger)

	nodes, inFormat, err := readInput(stdin, input, opts.from)
	if err != nil {
		return err
	}
	logger.Debug("read records", "count", len(nodes), "format", inFormat)

	outFormat, err := outputFormat(opts.to, opts.output, inFormat)
	if err != nil {
		return err
	}

	runner := c.newRunner(ctx, opts.noCache)
	defer runner.Close()

	res, err := runner.Rebuild(ctx, nodes, pipeline.Options{
		Complement:      opts.complement,
		Order:           opts.order,
		MaxUnfoldPasses: opts.maxUnfoldPasses,
		MaxNodes:        opts.maxNodes,
		Refresh:         opts.refresh,
		Logger:          logger,
	})
	if err != nil {
		return err
	}

	if err := writeOutput(stdout, opts.output, outFormat, res.Nodes); err != nil {
		return err
	}
	prog.done("Indexed hierarchy", "nodes", len(res.Nodes))

	if opts.output != "" {
		printSuccess("Indexed %d records", res.Stats.InputNodes)
		printFile(opts.output)
		printStats(indexStats{
			input:  res.Stats.InputNodes,
			output: res.Stats.OutputNodes,
			passes: res.Stats.UnfoldPasses,
			wasDAG: res.Stats.WasDAG,
			cached: res.CacheHit,
		})
	}

	if opts.mongoURI != "" {
		return c.saveToMongo(ctx, opts, input, res.Nodes)
	}
	return nil
}

// saveToMongo persists an indexed collection under the chosen set name.
func (c *CLI) saveToMongo(ctx context.Context, opts *indexOpts, input string, nodes []nestedset.Node) error {
	set := opts.set
	if set == "" {
		set = setNameFromPath(input)
	}
	if set == "" {
		return errors.New(errors.ErrCodeInvalidInput, "missing option --set: cannot derive a set name from stdin")
	}

	cfg := c.Config.Mongo
	spin := newSpinnerWithContext(ctx, fmt.Sprintf("Saving set %s to MongoDB...", set))
	spin.Start()

	st, err := store.Open(ctx, store.Options{
		URI:        opts.mongoURI,
		Database:   cfg.Database,
		Collection: cfg.Collection,
		Timeout:    cfg.Timeout.Duration,
	})
	if err != nil {
		spin.StopWithError("MongoDB unavailable")
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = st.Close(closeCtx)
	}()

	runID, err := st.Save(ctx, set, nodes)
	if err != nil {
		spin.StopWithError("Save failed")
		return err
	}
	spin.StopWithSuccess(fmt.Sprintf("Saved %d nodes to set %s", len(nodes), set))
	printDetail("Run: %s", runID)
	return nil
}

// =============================================================================
// Input / Output Helpers
// =============================================================================

// readInput reads records from path, or from stdin when path is empty or "-".
// It returns the format that was used.
func readInput(stdin io.Reader, path, from string) ([]nestedset.Node, nsio.Format, error) {
	var f nsio.Format
	if from != "" {
		var err error
		if f, err = nsio.ParseFormat(from); err != nil {
			return nil, "", err
		}
		if !f.CanRead() {
			return nil, "", errors.New(errors.ErrCodeInvalidFormat, "format %q is output only", f)
		}
	}

	if path == "" || path == "-" {
		if f == "" {
			return nil, "", errors.New(errors.ErrCodeInvalidFormat, "missing option --from: reading stdin")
		}
		nodes, err := nsio.Read(stdin, f)
		return nodes, f, err
	}

	if f == "" {
		var ok bool
		if f, ok = nsio.FormatFromPath(path); !ok {
			return nil, "", errors.New(errors.ErrCodeInvalidFormat, "missing option --from: cannot infer format of %s", path)
		}
	}
	nodes, err := nsio.ImportFile(path, f)
	return nodes, f, err
}

// outputFormat resolves --to: explicit value, else the output file
// extension, else the input format.
func outputFormat(to, output string, in nsio.Format) (nsio.Format, error) {
	if to != "" {
		f, err := nsio.ParseFormat(to)
		if err != nil {
			return "", err
		}
		return f, nil
	}
	if output != "" {
		if f, ok := nsio.FormatFromPath(output); ok {
			return f, nil
		}
	}
	if in == "" {
		return "", errors.New(errors.ErrCodeInvalidFormat, "missing option --to")
	}
	return in, nil
}

// writeOutput writes nodes to path, or to stdout when path is empty or "-".
func writeOutput(stdout io.Writer, path string, f nsio.Format, nodes []nestedset.Node) error {
	if path == "" || path == "-" {
		return nsio.Write(stdout, f, nodes)
	}
	return nsio.ExportFile(path, f, nodes)
}

// setNameFromPath derives a set name from an input file name.
func setNameFromPath(path string) string {
	if path == "" || path == "-" {
		return ""
	}
	base := path
	if i := strings.LastIndexAny(base, `/\`); i >= 0 {
		base = base[i+1:]
	}
	if i := strings.Index(base, "."); i > 0 {
		base = base[:i]
	}
	return base
}
