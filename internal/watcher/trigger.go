package watcher

import "context"

// OnBatch calls fn for each non-empty batch until ctx is done or batches is
// closed.
func OnBatch(ctx context.Context, batches <-chan []FileEvent, fn func(context.Context, []FileEvent)) {
	for {
		select {
		case <-ctx.Done():
			return
		case batch, ok := <-batches:
			if !ok {
				return
			}
			if len(batch) == 0 {
				continue
			}
			fn(ctx, batch)
		}
	}
}
