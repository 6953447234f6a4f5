package cli

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/matzehuels/annograph/pkg/config"
	"github.com/matzehuels/annograph/pkg/observability"
	"github.com/matzehuels/annograph/pkg/observability/prom"
	"github.com/matzehuels/annograph/pkg/server"
)

// shutdownTimeout bounds how long in-flight requests may take after an
// interrupt.
const shutdownTimeout = 10 * time.Second

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr     string
		fixtures string
		sinks    []string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the traversal HTTP API",
		Long: `Start an HTTP server that runs traversals on request and answers
queries about them. Prometheus metrics are exposed on /metrics.

With --fixtures, the files of a local directory are served under
/static/test/ so they can be traversed without another web server.`,
		Example: `  annograph serve --addr :8080 --fixtures ./testdata
  curl -X POST 'localhost:8080/api/traversals?uri=http://localhost:8080/static/test/anno.jsonld'`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}
			if fixtures != "" {
				cfg.Server.FixturesDir = fixtures
			}

			runner, err := c.newRunner(cmd, cfg, sinks)
			if err != nil {
				return err
			}
			defer runner.Close()

			metrics := prom.New(prometheus.DefaultRegisterer)
			observability.SetTraversalHooks(metrics)
			observability.SetHTTPHooks(metrics)
			defer observability.Reset()

			srv := &http.Server{
				Addr: cfg.Server.Addr,
				Handler: server.New(server.Options{
					Runner:      runner,
					FixturesDir: cfg.Server.FixturesDir,
					Logger:      c.Logger,
					MaxRuns:     cfg.Server.MaxRuns,
					RunTTL:      cfg.Server.RunTTL.Std(),
				}),
				ReadHeaderTimeout: 10 * time.Second,
			}
			return c.listen(cmd.Context(), srv)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, "+config.DefaultServerAddr+")")
	cmd.Flags().StringVar(&fixtures, "fixtures", "", "directory served under /static/test/")
	cmd.Flags().StringArrayVar(&sinks, "sink", nil, "publish completed runs to this URL; repeatable")

	return cmd
}

// listen serves until ctx is cancelled, then shuts down gracefully.
func (c *CLI) listen(ctx context.Context, srv *http.Server) error {
	errc := make(chan error, 1)
	go func() {
		c.Logger.Info("listening", "addr", srv.Addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	c.Logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return ctx.Err()
}
