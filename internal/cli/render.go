package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/nestree/pkg/errors"
	"github.com/matzehuels/nestree/pkg/nestedset"
	"github.com/matzehuels/nestree/pkg/pipeline"
	"github.com/matzehuels/nestree/pkg/render/nodelink"
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	from       string
	output     string   // output file (single format) or base path (multiple)
	formats    []string // svg, png, dot
	direction  string   // Graphviz rankdir
	labels     bool     // draw labels instead of identities
	intervals  bool     // draw lft/rgt and child count
	complement bool
	noCache    bool
}

// renderCommand creates the render command.
func (c *CLI) renderCommand() *cobra.Command {
	var formatsStr string
	opts := renderOpts{direction: "TB", labels: true}

	cmd := &cobra.Command{
		Use:   "render <file>",
		Short: "Draw an indexed hierarchy as a node-link diagram",
		Long: `Render indexes the input records and draws the resulting tree with
Graphviz. Copies created by unfolding shared branches are drawn dashed.`,
		Example: `  nestree render products.csv
  nestree render products.csv -F svg,png -o diagrams/products
  nestree render products.csv --intervals --direction LR`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c.applyRenderDefaults(cmd, &opts)
			if cmd.Flags().Changed("format") || opts.formats == nil {
				opts.formats = parseFormats(formatsStr)
			}
			if err := validateFormats(opts.formats); err != nil {
				return err
			}
			return c.runRender(cmd.Context(), cmd.InOrStdin(), args[0], &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.from, "from", "f", "", "input format (default: from file extension)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&formatsStr, "format", "F", "", "output format(s): svg (default), png, dot (comma-separated)")
	cmd.Flags().StringVar(&opts.direction, "direction", opts.direction, "layout direction: TB, LR, BT, RL")
	cmd.Flags().BoolVar(&opts.labels, "labels", opts.labels, "draw labels instead of ids")
	cmd.Flags().BoolVar(&opts.intervals, "intervals", false, "draw lft/rgt bounds and child counts")
	cmd.Flags().BoolVar(&opts.complement, "complement", false, "give every node a leaf copy of itself")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching")

	return cmd
}

// applyRenderDefaults fills flags the user did not set from the config file.
func (c *CLI) applyRenderDefaults(cmd *cobra.Command, opts *renderOpts) {
	cfg := c.Config.Render
	flags := cmd.Flags()
	if !flags.Changed("format") && cfg.Format != "" {
		opts.formats = parseFormats(cfg.Format)
	}
	if !flags.Changed("direction") && cfg.Direction != "" {
		opts.direction = cfg.Direction
	}
	if !flags.Changed("labels") {
		opts.labels = cfg.Labels
	}
	if !flags.Changed("intervals") {
		opts.intervals = cfg.Intervals
	}
	if !flags.Changed("complement") {
		opts.complement = c.Config.Index.Complement
	}
}

// parseFormats parses a comma-separated --format value. Empty means svg.
func parseFormats(s string) []string {
	if s == "" {
		return []string{nodelink.FormatSVG}
	}
	parts := strings.Split(s, ",")
	for i := range parts {
		parts[i] = strings.ToLower(strings.TrimSpace(parts[i]))
	}
	return parts
}

func validateFormats(formats []string) error {
	for _, f := range formats {
		if !slices.Contains(nodelink.Formats, f) {
			return errors.New(errors.ErrCodeInvalidFormat, "invalid format: %s (must be one of: %s)", f, strings.Join(nodelink.Formats, ", "))
		}
	}
	return nil
}

// basePath derives the base output path. Without an output it strips the
// extension from input; a known format extension on output is stripped too.
func basePath(output, input string) string {
	if output == "" {
		return strings.TrimSuffix(input, filepath.Ext(input))
	}
	ext := filepath.Ext(output)
	if slices.Contains(nodelink.Formats, strings.TrimPrefix(ext, ".")) {
		return strings.TrimSuffix(output, ext)
	}
	return output
}

func (c *CLI) runRender(ctx context.Context, stdin io.Reader, input string, opts *renderOpts) error {
	logger := loggerFromContext(ctx)
	prog := newProgress(logger)

	if input == "-" && opts.output == "" {
		return errors.New(errors.ErrCodeInvalidInput, "missing option --output: reading stdin")
	}
	records, _, err := readInput(stdin, input, opts.from)
	if err != nil {
		return err
	}

	runner := c.newRunner(ctx, opts.noCache)
	defer runner.Close()

	res, err := runner.Rebuild(ctx, records, pipeline.Options{
		Complement:      opts.complement,
		Order:           pipeline.OrderPreorder,
		MaxUnfoldPasses: c.Config.Index.MaxUnfoldPasses,
		MaxNodes:        c.Config.Index.MaxNodes,
		Logger:          logger,
	})
	if err != nil {
		return err
	}

	base := basePath(opts.output, input)
	var written []string
	for _, format := range opts.formats {
		path := base + "." + format
		if len(opts.formats) == 1 && opts.output != "" {
			path = opts.output
		}
		if err := renderToFile(ctx, runner, res.Nodes, format, path, opts); err != nil {
			return fmt.Errorf("%s: %w", format, err)
		}
		written = append(written, path)
	}
	prog.done("Rendered diagram", "formats", strings.Join(opts.formats, ","))

	printSuccess("Rendered %d nodes", len(res.Nodes))
	for _, p := range written {
		printFile(p)
	}
	return nil
}

func renderToFile(ctx context.Context, runner *pipeline.Runner, nodes []nestedset.Node, format, path string, opts *renderOpts) error {
	logger := loggerFromContext(ctx)
	data, cached, err := runner.Render(ctx, nodes, pipeline.RenderOptions{
		Format: format,
		Options: nodelink.Options{
			Direction: opts.direction,
			Labels:    opts.labels,
			Intervals: opts.intervals,
		},
	})
	if err != nil {
		return err
	}
	logger.Debug("generated", "format", format, "bytes", len(data), "cached", cached)

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	return os.WriteFile(path, data, 0o644)
}
