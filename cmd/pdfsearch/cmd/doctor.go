package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/mklauzo/pdf-search/internal/config"
	amerrors "github.com/mklauzo/pdf-search/internal/errors"
	"github.com/mklauzo/pdf-search/internal/extract"
	"github.com/mklauzo/pdf-search/internal/preflight"
)

func newDoctorCmd(root *rootOptions) *cobra.Command {
	var verbose bool
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check system requirements and diagnose issues",
		Long: `Check that pdfsearch can index the base directory:

  - the base directory is readable
  - the data directory (.pdfsearch/) is writable
  - at least 100 MB of disk space is free
  - the open file limit suits watch mode (1024 minimum)
  - tesseract loads the configured OCR language (when OCR is enabled)

A missing OCR language is reported as a warning: text PDFs still index.`,
		Example: `  pdfsearch doctor
  pdfsearch doctor --verbose --dir /srv/archive`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := root.loadConfig()
			if err != nil {
				return err
			}
			return runDoctor(cmd, cfg, verbose, jsonOutput)
		},
	}

	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Show detailed diagnostic info")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}

// doctorReport is the JSON form of a doctor run.
type doctorReport struct {
	Status string                  `json:"status"`
	Checks []preflight.CheckResult `json:"checks"`
}

func runDoctor(cmd *cobra.Command, cfg *config.Config, verbose, jsonOutput bool) error {
	ctx := commandContext(cmd)
	checker := newChecker(cfg, cmd.OutOrStdout(), preflight.WithVerbose(verbose))
	results := checker.RunAll(ctx, cfg.Paths.BaseDir, cfg.DataDirPath())

	if jsonOutput {
		if err := writeJSON(cmd, doctorReport{Status: checker.SummaryStatus(results), Checks: results}); err != nil {
			return err
		}
	} else {
		checker.PrintResults(results)
		if age := preflight.MarkerAge(cfg.DataDirPath()); age > 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "\nLast successful check: %s ago\n", age.Round(time.Second))
		}
	}

	if checker.HasCriticalFailures(results) {
		_ = preflight.ClearMarker(cfg.DataDirPath())
		return amerrors.New(amerrors.ErrCodeInternal, "system check failed", nil).
			WithSuggestion("Fix the failed checks above and run 'pdfsearch doctor' again")
	}
	return nil
}

// newChecker builds a checker for cfg, probing tesseract only when OCR is on.
func newChecker(cfg *config.Config, w io.Writer, opts ...preflight.Option) *preflight.Checker {
	opts = append(opts, preflight.WithOutput(w), preflight.WithWatch(cfg.Watch.Enabled))
	if cfg.Index.OCREnabled {
		opts = append(opts, preflight.WithOCR(extract.NewTesseractOCR(), cfg.Index.OCRLanguage))
	}
	return preflight.New(opts...)
}

// preflightOnce runs the checks silently the first time a data directory is
// served, and records success so later starts skip them.
func preflightOnce(cmd *cobra.Command, cfg *config.Config) error {
	dataDir := cfg.DataDirPath()
	if !preflight.NeedsCheck(dataDir) {
		return nil
	}

	checker := newChecker(cfg, io.Discard)
	results := checker.RunAll(commandContext(cmd), cfg.Paths.BaseDir, dataDir)
	for _, r := range results {
		if r.Status != preflight.StatusPass {
			slog.Warn("preflight_check_failed",
				slog.String("check", r.Name),
				slog.String("message", r.Message),
				slog.Bool("required", r.Required))
		}
	}
	if checker.HasCriticalFailures(results) {
		return amerrors.New(amerrors.ErrCodeInternal, "system check failed", nil).
			WithSuggestion("Run 'pdfsearch doctor' for details")
	}

	if err := preflight.MarkPassed(dataDir); err != nil {
		slog.Debug("preflight_marker_failed", slog.String("error", err.Error()))
	}
	return nil
}
