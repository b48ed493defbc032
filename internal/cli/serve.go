package cli

import (
	"context"
	stderrors "errors"
	"net"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/matzehuels/nestree/internal/server"
	"github.com/matzehuels/nestree/pkg/observability"
	"github.com/matzehuels/nestree/pkg/pipeline"
)

type serveOpts struct {
	addr    string
	noCache bool
}

// serveCommand creates the HTTP server command.
func (c *CLI) serveCommand() *cobra.Command {
	var opts serveOpts

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the indexer over HTTP",
		Long: `Serve exposes indexing as an HTTP API:

  POST /v1/index?from=csv&to=json&complement=true&order=preorder
  POST /v1/render?from=csv&format=svg
  GET  /healthz
  GET  /metrics

The request body holds the input records.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("addr") {
				opts.addr = c.Config.Server.Addr
			}
			return c.runServe(cmd.Context(), &opts)
		},
	}

	cmd.Flags().StringVar(&opts.addr, "addr", ":8080", "listen address")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, opts *serveOpts) error {
	logger := loggerFromContext(ctx)
	cfg := c.Config.Server

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := observability.NewMetrics(reg)
	observability.SetPipelineHooks(metrics)
	observability.SetCacheHooks(metrics)
	observability.SetHTTPHooks(metrics)
	defer observability.Reset()

	runner := c.newRunner(ctx, opts.noCache)
	defer runner.Close()

	handler := server.New(runner,
		server.WithLogger(logger),
		server.WithMetrics(reg),
		server.WithMaxBodyBytes(cfg.MaxBodyBytes),
		server.WithDefaults(pipeline.Options{
			Complement:      c.Config.Index.Complement,
			Order:           c.Config.Index.Order,
			MaxUnfoldPasses: c.Config.Index.MaxUnfoldPasses,
			MaxNodes:        c.Config.Index.MaxNodes,
		}),
	)

	srv := &http.Server{
		Addr:         opts.addr,
		Handler:      handler,
		ReadTimeout:  cfg.ReadTimeout.Duration,
		WriteTimeout: cfg.WriteTimeout.Duration,
		BaseContext:  func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		printInfo("Listening on %s", StyleHighlight.Render(opts.addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !stderrors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down", "timeout", cfg.ShutdownTimeout.Duration)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout.Duration)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	printSuccess("Server stopped")
	return nil
}
