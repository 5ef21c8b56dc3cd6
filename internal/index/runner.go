// Package index keeps the full-text index in step with the PDFs under the
// active scope.
package index

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/mklauzo/pdf-search/internal/async"
	amerrors "github.com/mklauzo/pdf-search/internal/errors"
	"github.com/mklauzo/pdf-search/internal/extract"
	"github.com/mklauzo/pdf-search/internal/scanner"
	"github.com/mklauzo/pdf-search/internal/store"
)

// Lister lists PDFs under a root, sorted by relative path.
type Lister interface {
	List(ctx context.Context, opts *scanner.ScanOptions) ([]scanner.FileInfo, error)
}

// RootProvider supplies the active scope root.
type RootProvider interface {
	Root() string
}

// RunOptions configures one indexing run.
type RunOptions struct {
	// FullReindex clears the store before indexing.
	FullReindex bool
}

// FileResult is the outcome for one file.
type FileResult struct {
	Path     string
	Status   async.Outcome
	Pages    int
	OCRPages int
	Err      error
}

// RunResult summarizes an indexing run.
type RunResult struct {
	Files    []FileResult
	Indexed  int
	Skipped  int
	Failed   int
	Removed  int
	Duration time.Duration
}

// RunnerDependencies contains the injected dependencies for Runner.
type RunnerDependencies struct {
	Store     store.IndexStore
	Extractor extract.TextExtractor
	Pipeline  *extract.Pipeline
	Scanner   Lister
	Scope     RootProvider

	// Exclude are doublestar globs of PDFs to skip.
	Exclude []string
}

// Runner executes indexing runs.
type Runner struct {
	store     store.IndexStore
	extractor extract.TextExtractor
	pipeline  *extract.Pipeline
	scanner   Lister
	scope     RootProvider
	exclude   []string
}

// NewRunner creates a Runner with injected dependencies.
func NewRunner(deps RunnerDependencies) (*Runner, error) {
	if deps.Store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if deps.Extractor == nil {
		return nil, fmt.Errorf("text extractor is required")
	}
	if deps.Pipeline == nil {
		return nil, fmt.Errorf("extraction pipeline is required")
	}
	if deps.Scanner == nil {
		return nil, fmt.Errorf("scanner is required")
	}
	if deps.Scope == nil {
		return nil, fmt.Errorf("scope is required")
	}

	return &Runner{
		store:     deps.Store,
		extractor: deps.Extractor,
		pipeline:  deps.Pipeline,
		scanner:   deps.Scanner,
		scope:     deps.Scope,
		exclude:   deps.Exclude,
	}, nil
}

// RunFunc adapts the runner to the async guard.
func (r *Runner) RunFunc() async.RunFunc {
	return func(ctx context.Context, full bool, state *async.RunState) error {
		_, err := r.Run(ctx, RunOptions{FullReindex: full}, state)
		return err
	}
}

// Run indexes every PDF under the scope root. Per-file failures are recorded
// in state and in the result; only problems that prevent the run as a whole
// are returned as an error.
func (r *Runner) Run(ctx context.Context, opts RunOptions, state *async.RunState) (*RunResult, error) {
	start := time.Now()
	if state == nil {
		state = async.NewRunState()
	}
	defer state.SetCurrent("")

	state.ResetErrors()

	// The root is fixed for the whole run even if the scope changes meanwhile.
	root := r.scope.Root()
	if info, err := os.Stat(root); err != nil || !info.IsDir() {
		return nil, amerrors.ScopeError(fmt.Sprintf("scope root is not a directory: %s", root), err)
	}

	if opts.FullReindex {
		if err := r.store.Clear(ctx); err != nil {
			return nil, fmt.Errorf("failed to clear index: %w", err)
		}
		slog.Info("index_cleared", slog.String("root", root))
	}

	files, err := r.scanner.List(ctx, &scanner.ScanOptions{RootDir: root, ExcludePatterns: r.exclude})
	if err != nil {
		return nil, fmt.Errorf("failed to list PDFs: %w", err)
	}
	state.SetTotal(len(files))

	slog.Info("index_scan_completed",
		slog.String("root", root),
		slog.Int("files", len(files)),
		slog.Bool("full_reindex", opts.FullReindex))

	result := &RunResult{Files: make([]FileResult, 0, len(files))}
	disk := make(map[string]struct{}, len(files))

	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		disk[f.Path] = struct{}{}

		state.SetCurrent(f.Path)
		fr := r.indexFile(ctx, f)
		result.add(fr)

		if fr.Status == async.OutcomeFailed {
			state.AddError(f.Path, errorMessage(fr.Err))
			slog.Warn("index_file_failed",
				slog.String("path", f.Path),
				slog.String("error", fr.Err.Error()))
		}
		state.FileProcessed(fr.Status)
	}

	if err := r.prune(ctx, disk, state, result); err != nil {
		slog.Warn("index_prune_failed", slog.String("error", err.Error()))
	}

	result.Duration = time.Since(start)
	return result, nil
}

// indexFile brings one file's records up to date. A file whose exact
// (path, fingerprint) is stored is skipped. Otherwise older versions are
// superseded and the file is extracted again. On failure nothing of the file
// remains in the store.
func (r *Runner) indexFile(ctx context.Context, f scanner.FileInfo) FileResult {
	fr := FileResult{Path: f.Path}

	fp, err := Fingerprint(f.AbsPath)
	if err != nil {
		fr.Status = async.OutcomeFailed
		fr.Err = amerrors.ExtractionError("cannot read file", err)
		return fr
	}

	exists, err := r.store.RecordExists(ctx, f.Path, fp)
	if err != nil {
		fr.Status = async.OutcomeFailed
		fr.Err = err
		return fr
	}
	if exists {
		fr.Status = async.OutcomeSkipped
		slog.Debug("index_file_skipped", slog.String("path", f.Path))
		return fr
	}

	if err := r.store.DeleteFile(ctx, f.Path); err != nil {
		fr.Status = async.OutcomeFailed
		fr.Err = err
		return fr
	}

	pages, ocrPages, err := r.storeFile(ctx, f, fp)
	if err != nil {
		if delErr := r.store.DeleteFile(context.WithoutCancel(ctx), f.Path); delErr != nil {
			slog.Error("index_rollback_failed",
				slog.String("path", f.Path),
				slog.String("error", delErr.Error()))
		}
		fr.Status = async.OutcomeFailed
		fr.Err = err
		return fr
	}

	fr.Status = async.OutcomeIndexed
	fr.Pages = pages
	fr.OCRPages = ocrPages
	slog.Debug("index_file_indexed",
		slog.String("path", f.Path),
		slog.Int("pages", pages),
		slog.Int("ocr_pages", ocrPages))
	return fr
}

// storeFile creates the file record and stores each page's non-empty text
// in ascending page order.
func (r *Runner) storeFile(ctx context.Context, f scanner.FileInfo, fp string) (int, int, error) {
	doc, err := r.extractor.Open(f.AbsPath)
	if err != nil {
		var ae *amerrors.AppError
		if !errors.As(err, &ae) {
			err = amerrors.CorruptFileError("cannot open PDF", err)
		}
		return 0, 0, err
	}
	defer doc.Close()

	fileID, err := r.store.InsertFile(ctx, f.Path, fp)
	if err != nil {
		return 0, 0, err
	}

	var stored, ocr int
	for page := 1; page <= doc.NumPages(); page++ {
		if err := ctx.Err(); err != nil {
			return 0, 0, err
		}

		pt, err := r.pipeline.PageText(ctx, doc, f.AbsPath, page)
		if err != nil {
			return 0, 0, err
		}
		if pt.Text == "" {
			continue
		}

		if err := r.store.InsertPage(ctx, fileID, page, pt.Text); err != nil {
			return 0, 0, err
		}
		stored++
		if pt.Source == extract.SourceOCR {
			ocr++
		}
	}
	return stored, ocr, nil
}

// prune deletes records of indexed paths no longer on disk.
func (r *Runner) prune(ctx context.Context, disk map[string]struct{}, state *async.RunState, result *RunResult) error {
	indexed, err := r.store.IndexedPaths(ctx)
	if err != nil {
		return err
	}

	for _, path := range DetectChanges(disk, indexed).Deleted {
		if err := r.store.DeleteFile(ctx, path); err != nil {
			return fmt.Errorf("failed to prune %s: %w", path, err)
		}
		state.FileRemoved()
		result.add(FileResult{Path: path, Status: async.OutcomeRemoved})
		slog.Info("index_file_removed", slog.String("path", path))
	}
	return nil
}

func (res *RunResult) add(fr FileResult) {
	res.Files = append(res.Files, fr)
	switch fr.Status {
	case async.OutcomeIndexed:
		res.Indexed++
	case async.OutcomeSkipped:
		res.Skipped++
	case async.OutcomeFailed:
		res.Failed++
	case async.OutcomeRemoved:
		res.Removed++
	}
}

// errorMessage prefers the AppError message without its code prefix, with
// the cause appended.
func errorMessage(err error) string {
	var ae *amerrors.AppError
	if errors.As(err, &ae) {
		if ae.Cause != nil {
			return ae.Message + ": " + ae.Cause.Error()
		}
		return ae.Message
	}
	return err.Error()
}
