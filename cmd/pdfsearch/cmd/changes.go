package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/mklauzo/pdf-search/internal/app"
	"github.com/mklauzo/pdf-search/internal/config"
	"github.com/mklauzo/pdf-search/internal/output"
)

func newChangesCmd(root *rootOptions) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "changes",
		Short: "Compare the PDFs on disk with the index",
		Long: `List PDFs under the active scope that are not indexed yet and indexed
PDFs that no longer exist. Nothing is reported while indexing is running.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return root.withService(cmd, func(ctx context.Context, svc *app.Service, _ *config.Config) error {
				cs, err := svc.DetectChanges(ctx)
				if err != nil {
					return err
				}
				if jsonOutput {
					return writeJSON(cmd, cs)
				}

				out := output.New(cmd.OutOrStdout())
				if !cs.HasChanges {
					out.Success("Index is up to date")
					return nil
				}
				out.Warningf("%d new, %d deleted", cs.NewCount, cs.DeletedCount)
				for _, p := range cs.New {
					out.Item("+ " + p)
				}
				for _, p := range cs.Deleted {
					out.Item("- " + p)
				}
				out.Status("💡", "Run 'pdfsearch index' to update")
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}
