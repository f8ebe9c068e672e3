package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/graphscope/pkg/observability"
	"github.com/matzehuels/graphscope/pkg/observability/prom"
	"github.com/matzehuels/graphscope/pkg/server"
	"github.com/matzehuels/graphscope/pkg/session"
)

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr      string
		input     string
		noMetrics bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve sessions and visualizations over HTTP",
		Long: `Serve the HTTP API: sessions that hold an expansion state, rendered
payloads for them, neighbourhood lookups, a health check and Prometheus
metrics.`,
		Example: `  graphscope serve --graph graph.json
  graphscope serve --addr :9090 --config prod.toml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("addr") {
				addr = c.Config.Server.Addr
			}
			ctx := withLogger(cmd.Context(), c.Logger)
			return c.runServe(ctx, addr, input, !noMetrics)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, :8080)")
	cmd.Flags().StringVarP(&input, "graph", "g", "", "graph file (default: configured store)")
	cmd.Flags().BoolVar(&noMetrics, "no-metrics", false, "disable /metrics and request instrumentation")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, addr, input string, metrics bool) error {
	logger := loggerFromContext(ctx)

	s, err := c.openStore(ctx, input, false)
	if err != nil {
		return err
	}
	defer s.Close()

	sessions, err := c.openSessions(ctx)
	if err != nil {
		return err
	}
	defer sessions.Close()

	runner, err := c.newRunner(ctx, false)
	if err != nil {
		return err
	}
	defer runner.Close()

	cfg := server.Config{
		Store:      s,
		Sessions:   sessions,
		Runner:     runner,
		Logger:     logger,
		Defaults:   c.renderDefaults(),
		SessionTTL: c.Config.Session.TTL.Duration,
	}
	if metrics {
		m := prom.New()
		observability.SetPipelineHooks(m)
		observability.SetCacheHooks(m)
		observability.SetStoreHooks(m)
		observability.SetHTTPHooks(m)
		defer observability.Reset()
		cfg.Metrics = m
	}

	go sweepSessions(ctx, sessions, c.Config.Session.TTL.Duration)

	printInfo("Listening on %s (store: %s, sessions: %s)", addr, c.Config.Store.Backend, c.Config.Session.Backend)
	return server.New(cfg).ListenAndServe(ctx, addr, c.Config.Server.ShutdownTimeout.Duration)
}

// sweepSessions removes expired sessions periodically until ctx is done.
func sweepSessions(ctx context.Context, sessions session.Store, ttl time.Duration) {
	interval := min(max(ttl/4, time.Minute), time.Hour)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	logger := loggerFromContext(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := sessions.Cleanup(ctx); err != nil {
				logger.Warn("session cleanup failed", "err", err)
			}
		}
	}
}
