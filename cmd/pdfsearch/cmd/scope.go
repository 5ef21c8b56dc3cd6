package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mklauzo/pdf-search/internal/app"
	"github.com/mklauzo/pdf-search/internal/config"
	"github.com/mklauzo/pdf-search/internal/output"
)

func newScopeCmd(root *rootOptions) *cobra.Command {
	var jsonOutput bool
	var noWait bool

	cmd := &cobra.Command{
		Use:   "scope [directory]",
		Short: "Show or change the active scope",
		Long: `Without an argument, show the directory that indexing and file lookups
are limited to. With one, change it to a directory inside the base directory
and reindex everything under it. The scope is remembered in .pdfsearch/.

Use an empty string to go back to the base directory.`,
		Example: `  pdfsearch scope
  pdfsearch scope reports/2024
  pdfsearch scope ""`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return root.withService(cmd, func(ctx context.Context, svc *app.Service, _ *config.Config) error {
				out := output.New(cmd.OutOrStdout())
				if len(args) == 0 {
					info := svc.GetScope()
					if jsonOutput {
						return writeJSON(cmd, info)
					}
					printScope(out, info)
					return nil
				}

				res, err := svc.SetScope(ctx, args[0])
				if err != nil {
					return err
				}
				if jsonOutput {
					return writeJSON(cmd, res)
				}
				out.Success(res.Message)
				printScope(out, svc.GetScope())
				if noWait || !res.Started {
					return nil
				}
				snap, err := waitWithProgress(ctx, out, svc, true)
				if err != nil {
					return err
				}
				printRunSummary(out, snap)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	cmd.Flags().BoolVar(&noWait, "no-wait", false, "Do not wait for the reindex to finish")

	return cmd
}

func printScope(out *output.Writer, info app.ScopeInfo) {
	path := info.Path
	if path == "" {
		path = "(base directory)"
	}
	out.KeyValue("Scope", path)
	out.KeyValue("Full path", info.FullPath)
}

func newDirsCmd(root *rootOptions) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "dirs",
		Short: "List directories usable as a scope",
		Long:  `List directories under the base directory, two levels deep.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return root.withService(cmd, func(_ context.Context, svc *app.Service, _ *config.Config) error {
				dirs, err := svc.ListDirectories()
				if err != nil {
					return err
				}
				return printList(cmd, "directories", dirs, jsonOutput)
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}

func newFilesCmd(root *rootOptions) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "files",
		Short: "List PDFs under the active scope",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return root.withService(cmd, func(ctx context.Context, svc *app.Service, _ *config.Config) error {
				files, err := svc.ListFiles(ctx)
				if err != nil {
					return err
				}
				return printList(cmd, "PDF files", files, jsonOutput)
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}

func newPagesCmd(root *rootOptions) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "pages <file>",
		Short: "Print the page count of a PDF",
		Long:  `Print the page count of a PDF, given relative to the active scope.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return root.withService(cmd, func(_ context.Context, svc *app.Service, _ *config.Config) error {
				pc, err := svc.FilePageCount(args[0])
				if err != nil {
					return err
				}
				if jsonOutput {
					return writeJSON(cmd, pc)
				}
				output.New(cmd.OutOrStdout()).KeyValue(pc.File, pluralize(pc.PageCount, "page", "pages"))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}

// printList prints items under a heading with their count, or as a JSON array.
func printList(cmd *cobra.Command, noun string, items []string, jsonOutput bool) error {
	if items == nil {
		items = []string{}
	}
	if jsonOutput {
		return writeJSON(cmd, items)
	}

	out := output.New(cmd.OutOrStdout())
	if len(items) == 0 {
		out.Statusf("📭", "No %s found", noun)
		return nil
	}
	out.Header(fmt.Sprintf("%s (%d)", noun, len(items)))
	for _, item := range items {
		out.Item(item)
	}
	return nil
}
