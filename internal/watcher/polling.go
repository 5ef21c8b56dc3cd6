package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/mklauzo/pdf-search/internal/scanner"
)

type fileState struct {
	size    int64
	modTime time.Time
}

// snapshot maps relative PDF paths to their observed state.
type snapshot map[string]fileState

func (h *HybridWatcher) runPolling(ctx context.Context) error {
	prev, err := h.takeSnapshot(ctx)
	if err != nil {
		return fmt.Errorf("failed to take initial snapshot: %w", err)
	}
	h.markReady(modePolling)

	ticker := time.NewTicker(h.opts.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			_ = h.Stop()
			return ctx.Err()
		case <-h.stopCh:
			return nil
		case <-ticker.C:
			cur, err := h.takeSnapshot(ctx)
			if err != nil {
				slog.Warn("watch_poll_failed", slog.String("error", err.Error()))
				continue
			}
			for _, ev := range diffSnapshots(prev, cur, time.Now()) {
				h.debouncer.Add(ev)
			}
			prev = cur
		}
	}
}

// takeSnapshot lists PDFs with the same rules the indexer uses.
func (h *HybridWatcher) takeSnapshot(ctx context.Context) (snapshot, error) {
	files, err := h.lister.List(ctx, &scanner.ScanOptions{
		RootDir:         h.root,
		ExcludePatterns: h.opts.Exclude,
	})
	if err != nil {
		return nil, err
	}

	snap := make(snapshot, len(files))
	for _, f := range files {
		snap[f.Path] = fileState{size: f.Size, modTime: f.ModTime}
	}
	return snap, nil
}

// diffSnapshots returns the changes from prev to cur, sorted by path.
func diffSnapshots(prev, cur snapshot, now time.Time) []FileEvent {
	var events []FileEvent
	for path, st := range cur {
		old, ok := prev[path]
		switch {
		case !ok:
			events = append(events, FileEvent{Path: path, Operation: OpCreate, Timestamp: now})
		case old.size != st.size || !old.modTime.Equal(st.modTime):
			events = append(events, FileEvent{Path: path, Operation: OpModify, Timestamp: now})
		}
	}
	for path := range prev {
		if _, ok := cur[path]; !ok {
			events = append(events, FileEvent{Path: path, Operation: OpDelete, Timestamp: now})
		}
	}
	sort.Slice(events, func(i, j int) bool { return events[i].Path < events[j].Path })
	return events
}
