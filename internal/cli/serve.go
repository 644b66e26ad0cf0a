package cli

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/roach88/teamdir/internal/metrics"
	"github.com/roach88/teamdir/internal/roster"
	"github.com/roach88/teamdir/internal/server"
	"github.com/roach88/teamdir/internal/store"
)

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	Addr     string
	Database string
	Seed     int

	// OnListen is called with the bound address once the listener is open
	// (for testing).
	OnListen func(net.Addr)
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	return newServeCommand(&ServeOptions{RootOptions: rootOpts})
}

func newServeCommand(opts *ServeOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the paged team-members API",
		Long: `Serve GET /api/team-members from a SQLite database.

The database is created if it does not exist. An empty members table is
seeded with the deterministic demo dataset unless --seed is 0. The server
also exposes /healthz and Prometheus metrics on /metrics, and shuts down
gracefully on SIGINT or SIGTERM.

Flags override the server section of the configuration file.

Example:
  teamdir serve --addr 127.0.0.1:8080 --db ./teamdir.db
  teamdir serve --seed 0 --verbose`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("addr") {
				opts.Addr = opts.Config.Server.Addr
			}
			if !cmd.Flags().Changed("db") {
				opts.Database = opts.Config.Server.Database
			}
			if !cmd.Flags().Changed("seed") {
				opts.Seed = opts.Config.Server.Seed
			}
			return runServe(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Addr, "addr", "", "listen address (default from config)")
	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (default from config)")
	cmd.Flags().IntVar(&opts.Seed, "seed", 0, "members to seed into an empty database (default from config)")

	return cmd
}

func runServe(opts *ServeOptions, cmd *cobra.Command) error {
	logger := opts.Logger(cmd.ErrOrStderr())
	if opts.Seed < 0 {
		return NewExitError(ExitCommandError, "--seed must not be negative")
	}

	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, stop := signal.NotifyContext(parentCtx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("opening database", "path", opts.Database)
	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			logger.Error("error closing database", "error", closeErr)
		}
	}()

	if err := seedIfEmpty(ctx, st, opts.Seed, logger); err != nil {
		return WrapExitError(ExitCommandError, "failed to seed database", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	srv := server.New(st,
		server.WithLogger(logger),
		server.WithMetrics(metrics.New(reg), reg),
	)

	ln, err := net.Listen("tcp", opts.Addr)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to listen", err)
	}
	if opts.OnListen != nil {
		opts.OnListen(ln.Addr())
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Serving team members on http://%s%s\n", ln.Addr(), server.MembersRoute)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.Serve(gctx, ln) })
	g.Go(func() error {
		<-gctx.Done()
		if ctx.Err() != nil {
			logger.Info("shutting down", "cause", context.Cause(ctx))
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return WrapExitError(ExitFailure, "server error", err)
	}

	logger.Info("server stopped gracefully")
	return nil
}

// seedIfEmpty inserts n generated members when the members table is empty.
func seedIfEmpty(ctx context.Context, st *store.Store, n int, logger *slog.Logger) error {
	if n == 0 {
		return nil
	}
	count, err := st.CountMembers(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		logger.Debug("database already seeded", "members", count)
		return nil
	}
	if err := st.SeedMembers(ctx, roster.Generate(n)); err != nil {
		return err
	}
	logger.Info("seeded database", "members", n)
	return nil
}
