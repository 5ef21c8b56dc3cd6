package watcher

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, root, rel string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4"), 0o644))
}

// startWatcher runs w until the test ends and waits for its baseline.
func startWatcher(t *testing.T, w *HybridWatcher, root string) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Start(ctx, root) }()
	t.Cleanup(func() {
		cancel()
		err := <-done
		if err != nil && !errors.Is(err, context.Canceled) {
			t.Errorf("watcher stopped with error: %v", err)
		}
	})

	select {
	case <-w.Ready():
	case err := <-done:
		t.Fatalf("watcher exited early: %v", err)
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for watcher")
	}
}

// collectUntil reads batches until every wanted path has been seen and
// returns the last operation seen per path.
func collectUntil(t *testing.T, w *HybridWatcher, want ...string) map[string]Operation {
	t.Helper()
	seen := make(map[string]Operation)
	deadline := time.After(3 * time.Second)
	for {
		missing := false
		for _, p := range want {
			if _, ok := seen[p]; !ok {
				missing = true
			}
		}
		if !missing {
			return seen
		}

		select {
		case batch, ok := <-w.Batches():
			require.True(t, ok, "batch channel closed")
			for _, e := range batch {
				seen[e.Path] = e.Operation
			}
		case <-deadline:
			t.Fatalf("timeout: saw %v, want %v", seen, want)
		}
	}
}

func newFastWatcher(exclude ...string) *HybridWatcher {
	return NewHybridWatcher(Options{
		DebounceWindow: 30 * time.Millisecond,
		Exclude:        exclude,
	})
}

func TestHybridWatcher_ReportsNewPDF(t *testing.T) {
	// Given: a running watcher over an empty directory
	root := t.TempDir()
	w := newFastWatcher()
	startWatcher(t, w, root)
	require.Equal(t, modeFsnotify, w.Mode())

	// When: a PDF and a text file are written
	writeFile(t, root, "notes.txt")
	writeFile(t, root, "report.pdf")

	// Then: only the PDF is reported, as a single create
	seen := collectUntil(t, w, "report.pdf")
	assert.Equal(t, OpCreate, seen["report.pdf"])
	assert.NotContains(t, seen, "notes.txt")
}

func TestHybridWatcher_ExcludedPathsAreIgnored(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "archive"), 0o755))
	w := newFastWatcher("archive/**")
	startWatcher(t, w, root)

	writeFile(t, root, "archive/old.pdf")
	writeFile(t, root, "keep.pdf")

	seen := collectUntil(t, w, "keep.pdf")
	assert.NotContains(t, seen, "archive/old.pdf")
}

func TestHybridWatcher_NewDirectoryIsWatched(t *testing.T) {
	// Given: a running watcher
	root := t.TempDir()
	w := newFastWatcher()
	startWatcher(t, w, root)

	// When: a directory is created, then a PDF inside it
	require.NoError(t, os.MkdirAll(filepath.Join(root, "2024"), 0o755))
	collectOrIdle(w)
	writeFile(t, root, "2024/q1.pdf")

	// Then: the nested PDF is reported
	seen := collectUntil(t, w, "2024/q1.pdf")
	assert.Equal(t, OpCreate, seen["2024/q1.pdf"])
}

func TestHybridWatcher_DirectoryMovedInReportsItsPDFs(t *testing.T) {
	// Given: a directory with a PDF outside the watched root
	root := t.TempDir()
	outside := t.TempDir()
	writeFile(t, outside, "batch/a.pdf")
	w := newFastWatcher()
	startWatcher(t, w, root)

	// When: it is moved in
	require.NoError(t, os.Rename(filepath.Join(outside, "batch"), filepath.Join(root, "batch")))

	// Then: its PDF is reported as created
	seen := collectUntil(t, w, "batch/a.pdf")
	assert.Equal(t, OpCreate, seen["batch/a.pdf"])
}

func TestHybridWatcher_RemovedPDFAndDirectory(t *testing.T) {
	// Given: an existing PDF and a directory of PDFs
	root := t.TempDir()
	writeFile(t, root, "a.pdf")
	writeFile(t, root, "sub/b.pdf")
	w := newFastWatcher()
	startWatcher(t, w, root)

	// When: both are removed
	require.NoError(t, os.Remove(filepath.Join(root, "a.pdf")))
	require.NoError(t, os.RemoveAll(filepath.Join(root, "sub")))

	// Then: the file and the directory are reported deleted
	seen := collectUntil(t, w, "a.pdf", "sub")
	assert.Equal(t, OpDelete, seen["a.pdf"])
	assert.Equal(t, OpDelete, seen["sub"])
}

func TestHybridWatcher_DataDirIsNotWatched(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, ".pdfsearch/cache.pdf")
	w := newFastWatcher()
	startWatcher(t, w, root)

	writeFile(t, root, ".pdfsearch/other.pdf")
	writeFile(t, root, "visible.pdf")

	seen := collectUntil(t, w, "visible.pdf")
	assert.NotContains(t, seen, ".pdfsearch/other.pdf")
}

func TestHybridWatcher_StopClosesBatches(t *testing.T) {
	w := newFastWatcher()
	startWatcher(t, w, t.TempDir())

	require.NoError(t, w.Stop())
	require.NoError(t, w.Stop())

	_, ok := <-w.Batches()
	assert.False(t, ok)
}

// collectOrIdle drains batches until the watcher has been quiet briefly.
func collectOrIdle(w *HybridWatcher) {
	for {
		select {
		case _, ok := <-w.Batches():
			if !ok {
				return
			}
		case <-time.After(100 * time.Millisecond):
			return
		}
	}
}
