package cmd

import (
	"context"
	"errors"
	"log/slog"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/mklauzo/pdf-search/internal/app"
	"github.com/mklauzo/pdf-search/internal/async"
	"github.com/mklauzo/pdf-search/internal/config"
	"github.com/mklauzo/pdf-search/internal/logging"
	"github.com/mklauzo/pdf-search/internal/mcp"
	"github.com/mklauzo/pdf-search/internal/watcher"
)

type serveOptions struct {
	transport string
	addr      string
	watch     bool
	noIndex   bool
	logFile   string
}

func newServeCmd(root *rootOptions) *cobra.Command {
	var opts serveOptions

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server",
		Long: `Start the MCP server over stdio (for MCP clients that spawn the process)
or streamable HTTP.

An incremental index run starts in the background unless --no-index is set
or server.index_on_start is false. With --watch, new, changed and removed
PDFs trigger further incremental runs.

Logs go to ~/.pdfsearch/logs/server.log; stdout belongs to the protocol.`,
		Example: `  # Serve the current directory over stdio
  pdfsearch serve

  # Serve a document archive over HTTP and follow changes
  pdfsearch serve --dir /srv/archive --transport http --addr :8765 --watch`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, root, opts)
		},
	}

	cmd.Flags().StringVar(&opts.transport, "transport", "", "Transport: stdio or http (default from config)")
	cmd.Flags().StringVar(&opts.addr, "addr", "", "Listen address for the http transport (default from config)")
	cmd.Flags().BoolVar(&opts.watch, "watch", false, "Reindex when PDFs change")
	cmd.Flags().BoolVar(&opts.noIndex, "no-index", false, "Skip the initial index run")
	cmd.Flags().StringVar(&opts.logFile, "log-file", "", "Log file path (default ~/.pdfsearch/logs/server.log)")

	return cmd
}

// applyFlags overrides configuration with flags the user set explicitly.
func (o serveOptions) applyFlags(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("transport") {
		cfg.Server.Transport = o.transport
	}
	if cmd.Flags().Changed("addr") {
		cfg.Server.Addr = o.addr
	}
	if cmd.Flags().Changed("watch") {
		cfg.Watch.Enabled = o.watch
	}
	if o.noIndex {
		cfg.Server.IndexOnStart = false
	}
}

func runServe(cmd *cobra.Command, root *rootOptions, opts serveOptions) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	opts.applyFlags(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	level := cfg.Server.LogLevel
	if root.debug {
		level = "debug"
	}
	cleanup, err := logging.SetupServeMode(level, opts.logFile)
	if err != nil {
		return err
	}
	defer cleanup()

	if err := preflightOnce(cmd, cfg); err != nil {
		return err
	}
	return root.withServiceFor(cmd, cfg, serve)
}

// serve runs the MCP server and, when enabled, the watcher until the server
// stops or ctx is cancelled.
func serve(ctx context.Context, svc *app.Service, cfg *config.Config) error {
	if cfg.Server.IndexOnStart {
		res := svc.TriggerIndexing(ctx, false)
		slog.Info("serve_initial_index",
			slog.Bool("started", res.Started),
			slog.String("task_id", res.TaskID))
	}

	srv, err := mcp.NewServer(svc)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := srv.Serve(gctx, cfg.Server.Transport, cfg.Server.Addr)
		if err == nil {
			// The client went away; stop the watcher too.
			cancel()
		}
		return err
	})

	if cfg.Watch.Enabled {
		w := watcher.NewHybridWatcher(watcher.Options{
			DebounceWindow: cfg.WatchDebounce(),
			Exclude:        cfg.Paths.Exclude,
		})
		g.Go(func() error {
			// The watcher covers the whole base so scope changes need no restart.
			return w.Start(gctx, cfg.Paths.BaseDir)
		})
		g.Go(func() error {
			watcher.OnBatch(gctx, w.Batches(), func(ctx context.Context, events []watcher.FileEvent) {
				reindexOnChange(ctx, svc, events)
			})
			return nil
		})
	}

	slog.Info("serve_started",
		slog.String("transport", cfg.Server.Transport),
		slog.String("base_dir", cfg.Paths.BaseDir),
		slog.Bool("watch", cfg.Watch.Enabled))

	err = g.Wait()
	if errors.Is(err, context.Canceled) {
		err = nil
	}
	slog.Info("serve_stopped")
	return err
}

// indexTrigger is the part of the service the watcher drives.
type indexTrigger interface {
	TriggerIndexing(ctx context.Context, full bool) app.TriggerResult
	WaitForIndexing(ctx context.Context) (async.RunSnapshot, error)
}

// reindexOnChange starts an incremental run for a batch of changes. A run
// already in progress may have listed the tree before the changes, so after
// it finishes one more run is requested.
func reindexOnChange(ctx context.Context, t indexTrigger, events []watcher.FileEvent) {
	slog.Info("watch_changes_detected",
		slog.Int("events", len(events)),
		slog.String("first_path", events[0].Path),
		slog.String("first_op", events[0].Operation.String()))

	if res := t.TriggerIndexing(ctx, false); res.Started {
		return
	}
	if _, err := t.WaitForIndexing(ctx); err != nil && ctx.Err() != nil {
		return
	}
	res := t.TriggerIndexing(ctx, false)
	slog.Debug("watch_reindex_requested", slog.Bool("started", res.Started))
}
