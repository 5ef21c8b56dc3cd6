package integration

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mklauzo/pdf-search/internal/watcher"
)

// startWatchMode runs a watcher over the base that reindexes on every
// batch, the way serve --watch does.
func startWatchMode(t *testing.T, e *env) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	w := watcher.NewHybridWatcher(watcher.Options{
		DebounceWindow: e.cfg.WatchDebounce(),
		Exclude:        e.cfg.Paths.Exclude,
	}.WithDefaults())
	t.Cleanup(func() { _ = w.Stop() })

	go func() { _ = w.Start(ctx, e.base) }()
	go watcher.OnBatch(ctx, w.Batches(), func(ctx context.Context, _ []watcher.FileEvent) {
		if res := e.svc.TriggerIndexing(ctx, false); !res.Started {
			_, _ = e.svc.WaitForIndexing(ctx)
			e.svc.TriggerIndexing(ctx, false)
		}
	})

	select {
	case <-w.Ready():
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not start")
	}
}

func TestIntegration_WatchModeIndexesNewAndRemovedFiles(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	// Given: an indexed base under watch
	e := newEnv(t)
	e.write(t, "old.pdf", "archived correspondence")
	e.index(t, false)
	startWatchMode(t, e)

	// When: a PDF is added
	e.write(t, "inbox/new.pdf", "freshly scanned correspondence")

	// Then: it becomes searchable without a manual run
	require.Eventually(t, func() bool {
		return len(e.files(t, "freshly")) == 1
	}, 10*time.Second, 50*time.Millisecond)

	// When: the old PDF is removed
	require.NoError(t, os.Remove(filepath.Join(e.base, "old.pdf")))

	// Then: it drops out of the index
	require.Eventually(t, func() bool {
		return len(e.files(t, "archived")) == 0
	}, 10*time.Second, 50*time.Millisecond)
	assert.Equal(t, []string{"inbox/new.pdf"}, e.files(t, "correspondence"))
}

func TestIntegration_WatchModeIgnoresOtherFiles(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	e := newEnv(t)
	e.index(t, false)
	startWatchMode(t, e)
	before := e.svc.IndexingStatus().FinishedAt

	require.NoError(t, os.WriteFile(filepath.Join(e.base, "notes.txt"), []byte("not a pdf"), 0o644))
	time.Sleep(300 * time.Millisecond)

	assert.Equal(t, before, e.svc.IndexingStatus().FinishedAt, "no run for non-PDF changes")
}
