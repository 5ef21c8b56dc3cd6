package watcher

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/mklauzo/pdf-search/internal/scanner"
)

const (
	modeFsnotify = "fsnotify"
	modePolling  = "polling"
)

// HybridWatcher watches a directory tree for PDF changes using fsnotify,
// falling back to polling when fsnotify cannot be set up.
type HybridWatcher struct {
	opts      Options
	debouncer *Debouncer
	lister    *scanner.Scanner
	root      string

	mu      sync.Mutex
	dirs    map[string]struct{}
	mode    string
	stopCh  chan struct{}
	stopped bool

	ready     chan struct{}
	readyOnce sync.Once
}

// NewHybridWatcher creates a watcher. Call Start to begin watching.
func NewHybridWatcher(opts Options) *HybridWatcher {
	opts = opts.WithDefaults()
	return &HybridWatcher{
		opts:      opts,
		debouncer: NewDebouncer(opts.DebounceWindow, opts.BatchBufferSize),
		lister:    scanner.New(),
		dirs:      make(map[string]struct{}),
		stopCh:    make(chan struct{}),
		ready:     make(chan struct{}),
	}
}

// Start watches path until ctx is cancelled or Stop is called. It blocks, so
// callers run it in its own goroutine.
func (h *HybridWatcher) Start(ctx context.Context, path string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve watch root: %w", err)
	}
	info, err := os.Stat(absPath)
	if err != nil {
		return fmt.Errorf("failed to stat watch root: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("watch root is not a directory: %s", absPath)
	}
	h.root = absPath

	if !h.opts.ForcePolling {
		fsw, err := fsnotify.NewWatcher()
		if err == nil {
			if err = h.addRecursive(fsw, absPath, false); err == nil {
				return h.runFsnotify(ctx, fsw)
			}
			_ = fsw.Close()
		}
		slog.Warn("watch_fallback_polling",
			slog.String("root", absPath),
			slog.String("error", err.Error()))
	}
	return h.runPolling(ctx)
}

// Ready is closed once the watcher has established its baseline.
func (h *HybridWatcher) Ready() <-chan struct{} {
	return h.ready
}

// Mode reports "fsnotify" or "polling", or "" before Start.
func (h *HybridWatcher) Mode() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.mode
}

// Batches returns the channel of debounced event batches. It is closed by Stop.
func (h *HybridWatcher) Batches() <-chan []FileEvent {
	return h.debouncer.Output()
}

// Stop stops watching. Safe to call multiple times.
func (h *HybridWatcher) Stop() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.stopped {
		return nil
	}
	h.stopped = true
	close(h.stopCh)
	h.debouncer.Stop()
	return nil
}

func (h *HybridWatcher) markReady(mode string) {
	h.mu.Lock()
	h.mode = mode
	h.mu.Unlock()
	h.readyOnce.Do(func() { close(h.ready) })

	slog.Info("watch_started",
		slog.String("root", h.root),
		slog.String("mode", mode))
}

func (h *HybridWatcher) runFsnotify(ctx context.Context, fsw *fsnotify.Watcher) error {
	defer func() { _ = fsw.Close() }()
	h.markReady(modeFsnotify)

	for {
		select {
		case <-ctx.Done():
			_ = h.Stop()
			return ctx.Err()
		case <-h.stopCh:
			return nil
		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			h.handleEvent(fsw, event)
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			slog.Warn("watch_error", slog.String("error", err.Error()))
		}
	}
}

// handleEvent turns one fsnotify event into zero or more file events.
func (h *HybridWatcher) handleEvent(fsw *fsnotify.Watcher, event fsnotify.Event) {
	rel, ok := h.relative(event.Name)
	if !ok {
		return
	}

	switch {
	case event.Has(fsnotify.Create):
		info, err := os.Lstat(event.Name)
		if err != nil {
			return
		}
		if info.IsDir() {
			if scanner.SkipDir(info.Name()) {
				return
			}
			// A directory moved in may already hold PDFs.
			if err := h.addRecursive(fsw, event.Name, true); err != nil {
				slog.Warn("watch_add_failed",
					slog.String("path", rel),
					slog.String("error", err.Error()))
			}
			return
		}
		if info.Mode().IsRegular() {
			h.emitFile(rel, OpCreate)
		}

	case event.Has(fsnotify.Write):
		h.emitFile(rel, OpModify)

	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		if h.forgetDir(fsw, rel) {
			h.debouncer.Add(FileEvent{Path: rel, Operation: OpDelete, IsDir: true, Timestamp: time.Now()})
			return
		}
		h.emitFile(rel, OpDelete)
	}
}

func (h *HybridWatcher) emitFile(rel string, op Operation) {
	if !scanner.IsPDF(rel) || scanner.Excluded(rel, h.opts.Exclude) {
		return
	}
	h.debouncer.Add(FileEvent{Path: rel, Operation: op, Timestamp: time.Now()})
}

// addRecursive watches dir and every directory below it. With emit set,
// PDFs found along the way are reported as created.
func (h *HybridWatcher) addRecursive(fsw *fsnotify.Watcher, dir string, emit bool) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return err
			}
			return nil
		}

		rel, _ := h.relative(path)
		if !d.IsDir() {
			if emit && d.Type().IsRegular() {
				h.emitFile(rel, OpCreate)
			}
			return nil
		}
		if path != h.root && scanner.SkipDir(d.Name()) {
			return filepath.SkipDir
		}

		if err := fsw.Add(path); err != nil {
			if path == dir {
				return fmt.Errorf("failed to watch %s: %w", path, err)
			}
			slog.Warn("watch_add_failed",
				slog.String("path", rel),
				slog.String("error", err.Error()))
			return nil
		}
		h.mu.Lock()
		h.dirs[rel] = struct{}{}
		h.mu.Unlock()
		return nil
	})
}

// forgetDir drops rel and its subdirectories from the watch set. It reports
// whether rel was a watched directory.
func (h *HybridWatcher) forgetDir(fsw *fsnotify.Watcher, rel string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.dirs[rel]; !ok {
		return false
	}
	prefix := rel + "/"
	for d := range h.dirs {
		if d == rel || strings.HasPrefix(d, prefix) {
			delete(h.dirs, d)
			// Renamed directories keep their inotify watch.
			_ = fsw.Remove(filepath.Join(h.root, filepath.FromSlash(d)))
		}
	}
	return true
}

// relative converts an absolute path to a slash-separated path under the
// root. The root itself and paths outside it are rejected.
func (h *HybridWatcher) relative(path string) (string, bool) {
	rel, err := filepath.Rel(h.root, path)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return filepath.ToSlash(rel), true
}
