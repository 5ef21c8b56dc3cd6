package async

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"
)

// LockFileName is the cross-process indexing lock inside the data directory.
const LockFileName = "indexing.lock"

const (
	// acquireWait bounds how long StartRun waits out a momentary holder,
	// such as a status check from another process.
	acquireWait  = 250 * time.Millisecond
	acquireRetry = 10 * time.Millisecond
)

// statusMu serializes in-process status checks with the guard's own acquire.
var statusMu sync.Mutex

// RunLock is an advisory file lock that keeps two processes sharing one
// index (a CLI `index` and a running `serve`) from indexing at once.
type RunLock struct {
	path   string
	flock  *flock.Flock
	locked bool
}

// NewRunLock creates a lock at <dataDir>/indexing.lock. An empty dataDir
// gives a lock that always succeeds.
func NewRunLock(dataDir string) *RunLock {
	if dataDir == "" {
		return &RunLock{}
	}
	path := filepath.Join(dataDir, LockFileName)
	return &RunLock{path: path, flock: flock.New(path)}
}

// Path returns the lock file path.
func (l *RunLock) Path() string {
	return l.path
}

// TryLock attempts to acquire the lock without blocking.
// Returns false if another process holds it.
func (l *RunLock) TryLock() (bool, error) {
	if l.flock == nil {
		l.locked = true
		return true, nil
	}

	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return false, fmt.Errorf("failed to create lock directory: %w", err)
	}

	acquired, err := l.flock.TryLock()
	if err != nil {
		return false, fmt.Errorf("failed to acquire lock: %w", err)
	}
	l.locked = acquired
	return acquired, nil
}

// TryLockContext retries TryLock every retry until it succeeds or ctx is
// done. A done ctx is reported as not acquired, not as an error.
func (l *RunLock) TryLockContext(ctx context.Context, retry time.Duration) (bool, error) {
	if l.flock == nil {
		l.locked = true
		return true, nil
	}

	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return false, fmt.Errorf("failed to create lock directory: %w", err)
	}

	acquired, err := l.flock.TryLockContext(ctx, retry)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return false, nil
		}
		return false, fmt.Errorf("failed to acquire lock: %w", err)
	}
	l.locked = acquired
	return acquired, nil
}

// Unlock releases the lock. It is safe to call on an unlocked RunLock.
func (l *RunLock) Unlock() error {
	if !l.locked {
		return nil
	}
	l.locked = false
	if l.flock == nil {
		return nil
	}
	if err := l.flock.Unlock(); err != nil {
		return fmt.Errorf("failed to release lock: %w", err)
	}
	return nil
}

// HeldElsewhere reports whether the lock at <dataDir>/indexing.lock is
// currently held by another lock handle. Checks never overlap an acquire by
// a Guard in this process.
func HeldElsewhere(dataDir string) bool {
	l := NewRunLock(dataDir)
	if l.flock == nil {
		return false
	}
	statusMu.Lock()
	defer statusMu.Unlock()
	ok, err := l.TryLock()
	if err != nil {
		return false
	}
	if ok {
		_ = l.Unlock()
	}
	return !ok
}

// acquire takes the lock for a run. It excludes in-process status checks and waits
// briefly for checks from other processes to let go.
func (l *RunLock) acquire() (bool, error) {
	statusMu.Lock()
	defer statusMu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), acquireWait)
	defer cancel()
	return l.TryLockContext(ctx, acquireRetry)
}
