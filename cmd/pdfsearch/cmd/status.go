package cmd

import (
	"context"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/mklauzo/pdf-search/internal/app"
	"github.com/mklauzo/pdf-search/internal/config"
	"github.com/mklauzo/pdf-search/internal/output"
)

func newStatusCmd(root *rootOptions) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show indexing status",
		Long: `Show whether an indexing run is active in any process for this base
directory. A run started by this command's own process shows its progress.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return root.withService(cmd, func(_ context.Context, svc *app.Service, _ *config.Config) error {
				snap := svc.IndexingStatus()
				if jsonOutput {
					return writeJSON(cmd, snap)
				}

				out := output.New(cmd.OutOrStdout())
				if snap.Running {
					out.Status("⏳", "Indexing in progress")
				} else {
					out.Status("💤", "Idle")
				}
				if snap.TaskID != "" {
					out.KeyValue("Task", snap.TaskID)
					out.KeyValue("Progress", formatProgress(snap))
					out.KeyValue("Current file", snap.CurrentFile)
					out.KeyValue("Started", formatTime(snap.StartedAt))
					out.KeyValue("Finished", formatTime(snap.FinishedAt))
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}

func newStatsCmd(root *rootOptions) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show index statistics",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return root.withService(cmd, func(ctx context.Context, svc *app.Service, _ *config.Config) error {
				stats, err := svc.Stats(ctx)
				if err != nil {
					return err
				}
				if jsonOutput {
					return writeJSON(cmd, stats)
				}

				out := output.New(cmd.OutOrStdout())
				out.Header("Index statistics")
				out.KeyValue("Files", stats.Files)
				out.KeyValue("Pages", stats.Pages)
				out.KeyValue("Characters", stats.TotalChars)
				out.KeyValue("Pages per file", fmt.Sprintf("%.1f", stats.AvgPagesPerFile))

				if len(stats.FilesByDirectory) > 0 {
					out.Newline()
					out.Header("Files by directory")
					dirs := make([]string, 0, len(stats.FilesByDirectory))
					for d := range stats.FilesByDirectory {
						dirs = append(dirs, d)
					}
					sort.Strings(dirs)
					for _, d := range dirs {
						out.KeyValue(d, stats.FilesByDirectory[d])
					}
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}

func pluralize(n int, one, many string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, one)
	}
	return fmt.Sprintf("%d %s", n, many)
}
