// Package cmd provides the CLI commands for pdfsearch.
package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mklauzo/pdf-search/internal/app"
	"github.com/mklauzo/pdf-search/internal/config"
	amerrors "github.com/mklauzo/pdf-search/internal/errors"
	"github.com/mklauzo/pdf-search/internal/logging"
	"github.com/mklauzo/pdf-search/pkg/version"
)

// closeTimeout bounds how long a command waits for an active run to stop.
const closeTimeout = 10 * time.Second

// openFunc builds the service for a loaded configuration.
type openFunc func(cfg *config.Config) (*app.Service, error)

// rootOptions holds the persistent flags and per-invocation state.
type rootOptions struct {
	dir   string
	debug bool
	open  openFunc

	loggingCleanup func()
}

// NewRootCmd creates the root command for the pdfsearch CLI.
func NewRootCmd() *cobra.Command {
	return newRootCmd(app.Open)
}

func newRootCmd(open openFunc) *cobra.Command {
	opts := &rootOptions{open: open}

	cmd := &cobra.Command{
		Use:   "pdfsearch",
		Short: "Full-text search over a directory of PDFs",
		Long: `pdfsearch indexes the text of every PDF under a directory, using OCR for
scanned pages, and answers ranked full-text queries with snippets.

It runs as an MCP server for AI assistants (pdfsearch serve) or from the
command line. The index lives in .pdfsearch/ inside the base directory.`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.SetVersionTemplate("pdfsearch version {{.Version}}\n")

	cmd.PersistentFlags().StringVarP(&opts.dir, "dir", "d", ".", "Base directory containing the PDFs")
	cmd.PersistentFlags().BoolVar(&opts.debug, "debug", false, "Enable debug logging to stderr and ~/.pdfsearch/logs/")

	cmd.PersistentPreRunE = opts.startLogging
	cmd.PersistentPostRunE = opts.stopLogging

	cmd.AddCommand(newServeCmd(opts))
	cmd.AddCommand(newIndexCmd(opts))
	cmd.AddCommand(newSearchCmd(opts))
	cmd.AddCommand(newStatusCmd(opts))
	cmd.AddCommand(newStatsCmd(opts))
	cmd.AddCommand(newScopeCmd(opts))
	cmd.AddCommand(newDirsCmd(opts))
	cmd.AddCommand(newFilesCmd(opts))
	cmd.AddCommand(newPagesCmd(opts))
	cmd.AddCommand(newRenderCmd(opts))
	cmd.AddCommand(newChangesCmd(opts))
	cmd.AddCommand(newConfigCmd(opts))
	cmd.AddCommand(newDoctorCmd(opts))
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// Execute runs the root command, cancelling on SIGINT or SIGTERM.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := NewRootCmd().ExecuteContext(ctx)
	if err != nil {
		fmt.Fprint(os.Stderr, amerrors.FormatForCLI(err))
	}
	return err
}

// startLogging sends logs to the rotating log file. serve sets up its own
// logging once its configuration is loaded.
func (o *rootOptions) startLogging(cmd *cobra.Command, _ []string) error {
	if cmd.Name() == "serve" {
		return nil
	}

	cfg := logging.DefaultConfig()
	if o.debug {
		cfg = logging.DebugConfig()
	}
	logger, cleanup, err := logging.Setup(cfg)
	if err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}
	o.loggingCleanup = cleanup
	slog.SetDefault(logger)
	return nil
}

func (o *rootOptions) stopLogging(_ *cobra.Command, _ []string) error {
	if o.loggingCleanup != nil {
		o.loggingCleanup()
		o.loggingCleanup = nil
	}
	return nil
}

func (o *rootOptions) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(o.dir)
	if err != nil {
		return nil, amerrors.ConfigError("cannot load configuration", err)
	}
	return cfg, nil
}

// serviceFunc is the body of a command that needs the service.
type serviceFunc func(ctx context.Context, svc *app.Service, cfg *config.Config) error

// withService loads the configuration for the base directory and runs fn
// with a service opened from it.
func (o *rootOptions) withService(cmd *cobra.Command, fn serviceFunc) error {
	cfg, err := o.loadConfig()
	if err != nil {
		return err
	}
	return o.withServiceFor(cmd, cfg, fn)
}

// withServiceFor opens the service for cfg, runs fn and closes the service,
// stopping any run fn left active.
func (o *rootOptions) withServiceFor(cmd *cobra.Command, cfg *config.Config, fn serviceFunc) (err error) {
	svc, err := o.open(cfg)
	if err != nil {
		return err
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
		defer cancel()
		if closeErr := svc.Close(ctx); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	return fn(commandContext(cmd), svc, cfg)
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// writeJSON prints v as indented JSON.
func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
