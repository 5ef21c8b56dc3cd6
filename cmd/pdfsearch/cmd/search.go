package cmd

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mklauzo/pdf-search/internal/app"
	"github.com/mklauzo/pdf-search/internal/config"
	"github.com/mklauzo/pdf-search/internal/output"
)

func newSearchCmd(root *rootOptions) *cobra.Command {
	var limit int
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search the indexed PDFs",
		Long: `Run a ranked full-text query over the indexed pages.

The query uses SQLite FTS5 syntax: words are ANDed, "quoted phrases" match
exactly, OR and NOT combine terms, and a trailing * matches a prefix.
Diacritics are ignored.`,
		Example: `  pdfsearch search umowa najmu
  pdfsearch search '"annual report" OR budget' --limit 5
  pdfsearch search invoic* --json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			return root.withService(cmd, func(ctx context.Context, svc *app.Service, _ *config.Config) error {
				return runSearch(ctx, cmd, svc, query, limit, jsonOutput)
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Maximum number of results (default from config)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output results as JSON")

	return cmd
}

func runSearch(ctx context.Context, cmd *cobra.Command, svc *app.Service, query string, limit int, jsonOutput bool) error {
	resp, err := svc.Search(ctx, query, limit)
	if err != nil {
		return err
	}
	if jsonOutput {
		return writeJSON(cmd, resp)
	}

	out := output.New(cmd.OutOrStdout())
	if resp.Error != "" {
		out.Warningf("%s: %s", resp.Error, query)
		return nil
	}
	if len(resp.Results) == 0 {
		out.Statusf("🔍", "No results for %q", query)
		return nil
	}

	out.Header(pluralize(len(resp.Results), "result", "results") + " for \"" + query + "\"")
	for i, hit := range resp.Results {
		out.Hit(i+1, hit.Path, hit.Page, hit.Snippet)
	}
	return nil
}
