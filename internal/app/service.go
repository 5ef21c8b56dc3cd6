// Package app implements the control operations shared by the MCP server and
// the CLI: indexing, status, search, scope, listings and page rendering.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/mklauzo/pdf-search/internal/async"
	amerrors "github.com/mklauzo/pdf-search/internal/errors"
	"github.com/mklauzo/pdf-search/internal/extract"
	"github.com/mklauzo/pdf-search/internal/index"
	"github.com/mklauzo/pdf-search/internal/render"
	"github.com/mklauzo/pdf-search/internal/scanner"
	"github.com/mklauzo/pdf-search/internal/scope"
	"github.com/mklauzo/pdf-search/internal/search"
	"github.com/mklauzo/pdf-search/internal/store"
)

// Dependencies are the components a Service drives.
type Dependencies struct {
	Store     store.IndexStore
	Scope     *scope.Manager
	Guard     *async.Guard
	Search    *search.Service
	Render    *render.Service
	Extractor extract.TextExtractor
	Lister    index.Lister

	// Exclude are doublestar globs of PDFs to skip when listing.
	Exclude []string
	// DataDir holds the cross-process indexing lock.
	DataDir string
}

// Service is the control surface. It is safe for concurrent use.
type Service struct {
	store     store.IndexStore
	scope     *scope.Manager
	guard     *async.Guard
	search    *search.Service
	render    *render.Service
	extractor extract.TextExtractor
	lister    index.Lister
	exclude   []string
	dataDir   string
}

// NewService creates a Service from its dependencies.
func NewService(deps Dependencies) (*Service, error) {
	switch {
	case deps.Store == nil:
		return nil, fmt.Errorf("store is required")
	case deps.Scope == nil:
		return nil, fmt.Errorf("scope is required")
	case deps.Guard == nil:
		return nil, fmt.Errorf("guard is required")
	case deps.Search == nil:
		return nil, fmt.Errorf("search service is required")
	case deps.Render == nil:
		return nil, fmt.Errorf("render service is required")
	case deps.Extractor == nil:
		return nil, fmt.Errorf("text extractor is required")
	case deps.Lister == nil:
		return nil, fmt.Errorf("lister is required")
	}
	return &Service{
		store:     deps.Store,
		scope:     deps.Scope,
		guard:     deps.Guard,
		search:    deps.Search,
		render:    deps.Render,
		extractor: deps.Extractor,
		lister:    deps.Lister,
		exclude:   deps.Exclude,
		dataDir:   deps.DataDir,
	}, nil
}

// TriggerIndexing starts a background run unless one is already active.
func (s *Service) TriggerIndexing(ctx context.Context, full bool) TriggerResult {
	task, started := s.guard.StartRun(ctx, full)
	if !started {
		res := TriggerResult{Message: MsgAlreadyRunning}
		if task != nil {
			res.TaskID = task.ID()
		}
		return res
	}

	msg := MsgIndexingStarted
	if full {
		msg = MsgReindexingStarted
	}
	return TriggerResult{Started: true, TaskID: task.ID(), Message: msg}
}

// WaitForIndexing blocks until the active run, if any, finishes.
func (s *Service) WaitForIndexing(ctx context.Context) (async.RunSnapshot, error) {
	return s.guard.Wait(ctx)
}

// IndexingStatus returns the progress of the current or last run.
func (s *Service) IndexingStatus() async.RunSnapshot {
	snap := s.guard.State().Snapshot()
	if !snap.Running && async.HeldElsewhere(s.dataDir) {
		snap.Running = true
	}
	return snap
}

// Search runs a full-text query. Invalid query syntax is reported in the
// response rather than as an error.
func (s *Service) Search(ctx context.Context, query string, limit int) (*SearchResponse, error) {
	hits, err := s.search.Search(ctx, query, limit)
	if err != nil {
		if errors.Is(err, store.ErrInvalidQuery) {
			slog.Debug("search_invalid_query", slog.String("query", query))
			return &SearchResponse{Results: []store.SearchHit{}, Error: MsgInvalidSearchQuery}, nil
		}
		return nil, err
	}
	return &SearchResponse{Results: hits}, nil
}

// Stats summarizes the index.
func (s *Service) Stats(ctx context.Context) (*store.Stats, error) {
	return s.store.Statistics(ctx)
}

// GetScope returns the active scope.
func (s *Service) GetScope() ScopeInfo {
	return ScopeInfo{Path: s.scope.Get(), FullPath: s.scope.Root()}
}

// SetScope changes the active scope and starts a full reindex under it. If a
// run is already active the scope still changes and the message says so.
func (s *Service) SetScope(ctx context.Context, path string) (TriggerResult, error) {
	if err := s.scope.Set(path); err != nil {
		return TriggerResult{}, err
	}
	slog.Info("scope_changed",
		slog.String("scope", s.scope.Get()),
		slog.String("root", s.scope.Root()))
	if s.dataDir != "" {
		if err := s.scope.Save(filepath.Join(s.dataDir, ScopeFileName)); err != nil {
			slog.Warn("scope_save_failed", slog.String("error", err.Error()))
		}
	}

	task, started := s.guard.StartRun(ctx, true)
	if !started {
		res := TriggerResult{Message: MsgScopeChangedBusy}
		if task != nil {
			res.TaskID = task.ID()
		}
		return res, nil
	}
	return TriggerResult{Started: true, TaskID: task.ID(), Message: MsgScopeChanged}, nil
}

// ListDirectories lists directories under the base, up to two levels deep.
func (s *Service) ListDirectories() ([]string, error) {
	return s.scope.Directories(DirectoryMaxDepth)
}

// ListFiles lists the PDFs under the active scope, sorted.
func (s *Service) ListFiles(ctx context.Context) ([]string, error) {
	files, err := s.listDisk(ctx)
	if err != nil {
		return nil, err
	}
	paths := make([]string, len(files))
	for i, f := range files {
		paths[i] = f.Path
	}
	return paths, nil
}

// FilePageCount returns the number of pages of a file in the active scope.
func (s *Service) FilePageCount(file string) (*PageCount, error) {
	abs, err := s.scope.Resolve(file)
	if err != nil {
		return nil, err
	}
	doc, err := s.extractor.Open(abs)
	if err != nil {
		return nil, amerrors.CorruptFileError("cannot read PDF", err)
	}
	defer doc.Close()
	return &PageCount{File: file, PageCount: doc.NumPages()}, nil
}

// PageImage renders a page of a file in the active scope, outlining words
// that match query.
func (s *Service) PageImage(ctx context.Context, file string, page int, query string) (*PageImage, error) {
	if page < 1 {
		return nil, amerrors.ValidationError(fmt.Sprintf("page must be at least 1, got %d", page), nil)
	}
	abs, err := s.scope.Resolve(file)
	if err != nil {
		return nil, err
	}
	res, err := s.render.RenderPage(ctx, abs, page, query)
	if err != nil {
		return nil, err
	}
	return &PageImage{
		File:    file,
		Page:    page,
		Data:    res.Data,
		Matches: res.Matches,
		Warning: res.Warning,
	}, nil
}

// DetectChanges compares the PDFs on disk with the index. While a run is
// active it reports no changes.
func (s *Service) DetectChanges(ctx context.Context) (index.ChangeSet, error) {
	if s.IndexingStatus().Running {
		return index.ChangeSet{}, nil
	}

	files, err := s.listDisk(ctx)
	if err != nil {
		return index.ChangeSet{}, err
	}
	disk := make(map[string]struct{}, len(files))
	for _, f := range files {
		disk[f.Path] = struct{}{}
	}

	indexed, err := s.store.IndexedPaths(ctx)
	if err != nil {
		return index.ChangeSet{}, err
	}
	return index.DetectChanges(disk, indexed), nil
}

// Close stops any active run and releases resources.
func (s *Service) Close(ctx context.Context) error {
	var errs []error
	if err := s.guard.Close(ctx); err != nil {
		errs = append(errs, fmt.Errorf("failed to stop indexing: %w", err))
	}
	if err := s.store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close store: %w", err))
	}
	return errors.Join(errs...)
}

func (s *Service) listDisk(ctx context.Context) ([]scanner.FileInfo, error) {
	return s.lister.List(ctx, &scanner.ScanOptions{RootDir: s.scope.Root(), ExcludePatterns: s.exclude})
}
