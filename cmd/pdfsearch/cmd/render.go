package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mklauzo/pdf-search/internal/app"
	"github.com/mklauzo/pdf-search/internal/config"
	amerrors "github.com/mklauzo/pdf-search/internal/errors"
	"github.com/mklauzo/pdf-search/internal/output"
)

func newRenderCmd(root *rootOptions) *cobra.Command {
	var query string
	var outPath string

	cmd := &cobra.Command{
		Use:   "render <file> <page>",
		Short: "Render a page to PNG, outlining matched words",
		Long: `Render one page of a PDF in the active scope to a PNG image. With --query,
words containing any query term are outlined in red.`,
		Example: `  pdfsearch render contracts/lease.pdf 3 --query "rent deposit"
  pdfsearch render report.pdf 1 -o cover.png`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			page, err := strconv.Atoi(args[1])
			if err != nil {
				return amerrors.ValidationError(fmt.Sprintf("page must be a number, got %q", args[1]), err)
			}
			return root.withService(cmd, func(ctx context.Context, svc *app.Service, _ *config.Config) error {
				return runRender(ctx, cmd, svc, args[0], page, query, outPath)
			})
		},
	}

	cmd.Flags().StringVarP(&query, "query", "q", "", "Outline words matching these terms")
	cmd.Flags().StringVarP(&outPath, "output", "o", "", "Output file (default <name>-p<page>.png)")

	return cmd
}

func runRender(ctx context.Context, cmd *cobra.Command, svc *app.Service, file string, page int, query, outPath string) error {
	img, err := svc.PageImage(ctx, file, page, query)
	if err != nil {
		return err
	}

	if outPath == "" {
		outPath = defaultRenderPath(file, page)
	}
	if err := os.WriteFile(outPath, img.Data, 0o644); err != nil {
		return amerrors.New(amerrors.ErrCodeFilePermission, "cannot write image", err)
	}

	out := output.New(cmd.OutOrStdout())
	out.Successf("Wrote %s", outPath)
	if query != "" {
		out.KeyValue("Highlighted words", img.Matches)
	}
	if img.Warning != "" {
		out.Warning(img.Warning)
	}
	return nil
}

func defaultRenderPath(file string, page int) string {
	name := strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))
	return fmt.Sprintf("%s-p%d.png", name, page)
}
