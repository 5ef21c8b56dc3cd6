package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/mklauzo/pdf-search/internal/app"
	"github.com/mklauzo/pdf-search/internal/async"
	"github.com/mklauzo/pdf-search/internal/config"
	amerrors "github.com/mklauzo/pdf-search/internal/errors"
	"github.com/mklauzo/pdf-search/internal/output"
	"github.com/mklauzo/pdf-search/internal/profiling"
)

// progressInterval is how often the progress bar is refreshed.
const progressInterval = 250 * time.Millisecond

func newIndexCmd(root *rootOptions) *cobra.Command {
	var full bool
	var jsonOutput bool
	var prof profiling.Options

	cmd := &cobra.Command{
		Use:   "index",
		Short: "Index the PDFs under the active scope",
		Long: `Index every PDF under the active scope and wait for the run to finish.

Unchanged files are skipped, changed files are reindexed, and files that
disappeared are removed from the index. Pages with too little native text are
OCRed. --full clears the index first.`,
		Example: `  pdfsearch index
  pdfsearch index --full --dir /srv/archive`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return root.withService(cmd, func(ctx context.Context, svc *app.Service, _ *config.Config) (err error) {
				if prof.Enabled() {
					p, err := profiling.Start(prof)
					if err != nil {
						return err
					}
					defer func() {
						if stopErr := p.Stop(); stopErr != nil && err == nil {
							err = stopErr
						}
					}()
				}
				return runIndex(ctx, cmd, svc, full, jsonOutput)
			})
		},
	}

	cmd.Flags().BoolVar(&full, "full", false, "Clear the index and reindex everything")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output the run summary as JSON")
	cmd.Flags().StringVar(&prof.CPU, "cpu-profile", "", "Write a CPU profile of the run to this file")
	cmd.Flags().StringVar(&prof.Heap, "mem-profile", "", "Write a heap profile after the run to this file")
	cmd.Flags().StringVar(&prof.Trace, "trace", "", "Write an execution trace of the run to this file")

	return cmd
}

func runIndex(ctx context.Context, cmd *cobra.Command, svc *app.Service, full, jsonOutput bool) error {
	out := output.New(cmd.OutOrStdout())

	res := svc.TriggerIndexing(ctx, full)
	if !res.Started {
		return amerrors.New(amerrors.ErrCodeIndexingLocked, res.Message, nil).
			WithSuggestion("Wait for the running indexer to finish, then retry")
	}
	if !jsonOutput {
		out.Statusf("📂", "%s: %s", res.Message, svc.GetScope().FullPath)
	}

	snap, err := waitWithProgress(ctx, out, svc, !jsonOutput)
	if err != nil {
		return err
	}

	if jsonOutput {
		return writeJSON(cmd, snap)
	}
	printRunSummary(out, snap)
	if snap.RunError != "" {
		return amerrors.New(amerrors.ErrCodeIndexFailed, snap.RunError, nil)
	}
	return nil
}

// waitWithProgress waits for the active run, drawing a progress bar on
// terminals.
func waitWithProgress(ctx context.Context, out *output.Writer, svc *app.Service, show bool) (async.RunSnapshot, error) {
	if !show || !out.Interactive() {
		return svc.WaitForIndexing(ctx)
	}

	done := make(chan struct{})
	var snap async.RunSnapshot
	var err error
	go func() {
		defer close(done)
		snap, err = svc.WaitForIndexing(ctx)
	}()

	ticker := time.NewTicker(progressInterval)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			if snap.TotalFiles > 0 {
				out.Progress(snap.TotalFiles, snap.TotalFiles, "")
			}
			return snap, err
		case <-ticker.C:
			s := svc.IndexingStatus()
			out.Progress(s.ProcessedFiles, s.TotalFiles, s.CurrentFile)
		}
	}
}

func printRunSummary(out *output.Writer, snap async.RunSnapshot) {
	elapsed := snap.FinishedAt.Sub(snap.StartedAt).Round(time.Millisecond)
	out.Successf("Indexed %d, skipped %d, removed %d, failed %d (%d files in %s)",
		snap.Indexed, snap.Skipped, snap.Removed, snap.Failed, snap.TotalFiles, elapsed)
	if len(snap.Errors) > 0 {
		out.Warningf("%d files could not be indexed:", len(snap.Errors))
		for _, e := range snap.Errors {
			out.Status("", e)
		}
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format(time.DateTime)
}

func formatProgress(snap async.RunSnapshot) string {
	return fmt.Sprintf("%d/%d files (%.0f%%)", snap.ProcessedFiles, snap.TotalFiles, snap.ProgressPct)
}
