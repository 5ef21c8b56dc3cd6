// Package watcher reports changes to PDF files under a directory tree.
//
// fsnotify is the primary source of events. When it cannot be initialized
// (inotify limits, some network mounts) the watcher falls back to polling
// the tree with the scanner. Either way, events are filtered to .pdf files
// outside excluded paths and debounced into batches.
//
// Usage:
//
//	w := watcher.New(watcher.DefaultOptions())
//	go func() { _ = w.Start(ctx, root) }()
//
//	watcher.OnBatch(ctx, w.Batches(), func(ctx context.Context, events []watcher.FileEvent) {
//	    // start an incremental index run
//	})
package watcher
