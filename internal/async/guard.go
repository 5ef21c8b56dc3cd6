package async

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// RunFunc performs one indexing run, reporting progress into state.
type RunFunc func(ctx context.Context, full bool, state *RunState) error

// GuardConfig configures the Guard.
type GuardConfig struct {
	// DataDir holds the cross-process lock file. Empty disables it.
	DataDir string
}

// TaskStatus is the lifecycle state of a Task.
type TaskStatus string

const (
	TaskRunning   TaskStatus = "running"
	TaskCompleted TaskStatus = "completed"
	TaskFailed    TaskStatus = "failed"
)

// Task is a handle on one background run.
type Task struct {
	id          string
	fullReindex bool
	startedAt   time.Time
	done        chan struct{}

	mu      sync.Mutex
	status  TaskStatus
	summary RunSnapshot
	err     error
}

func newTask(full bool) *Task {
	return &Task{
		id:          uuid.NewString(),
		fullReindex: full,
		startedAt:   time.Now(),
		done:        make(chan struct{}),
		status:      TaskRunning,
	}
}

// ID returns the task identifier.
func (t *Task) ID() string { return t.id }

// FullReindex reports whether the run clears the index first.
func (t *Task) FullReindex() bool { return t.fullReindex }

// Done is closed when the run has finished.
func (t *Task) Done() <-chan struct{} { return t.done }

// Status returns the task's lifecycle state.
func (t *Task) Status() TaskStatus {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status
}

// Wait blocks until the run finishes or ctx is done and returns the final
// run state.
func (t *Task) Wait(ctx context.Context) (RunSnapshot, error) {
	select {
	case <-t.done:
	case <-ctx.Done():
		return RunSnapshot{}, ctx.Err()
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.summary, t.err
}

func (t *Task) complete(summary RunSnapshot, err error) {
	t.mu.Lock()
	t.summary = summary
	t.err = err
	t.status = TaskCompleted
	if err != nil {
		t.status = TaskFailed
	}
	t.mu.Unlock()
	close(t.done)
}

func (t *Task) finished() bool {
	select {
	case <-t.done:
		return true
	default:
		return false
	}
}

// Guard runs RunFunc in the background, never more than once at a time.
type Guard struct {
	cfg   GuardConfig
	run   RunFunc
	state *RunState

	// ctx outlives request contexts; Close cancels it.
	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	current *Task
}

// NewGuard creates a Guard around run.
func NewGuard(cfg GuardConfig, run RunFunc) *Guard {
	ctx, cancel := context.WithCancel(context.Background())
	return &Guard{
		cfg:    cfg,
		run:    run,
		state:  NewRunState(),
		ctx:    ctx,
		cancel: cancel,
	}
}

// State returns the run state.
func (g *Guard) State() *RunState {
	return g.state
}

// IsRunning reports whether a run is active in this process.
func (g *Guard) IsRunning() bool {
	return g.state.IsRunning()
}

// Current returns the most recent task, or nil if none was started.
func (g *Guard) Current() *Task {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.current
}

// StartRun starts a background run. If a run is already active here or in
// another process, the request is dropped and StartRun returns the current
// task (possibly nil) and false; the active run is not affected. A lock
// held only briefly elsewhere, such as by a status check, is waited out.
// The run does not stop when ctx is cancelled; only Close stops it.
func (g *Guard) StartRun(ctx context.Context, full bool) (*Task, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.current != nil && !g.current.finished() {
		slog.Info("indexing_already_running",
			slog.String("task_id", g.current.id),
			slog.Bool("requested_full", full))
		return g.current, false
	}
	if g.ctx.Err() != nil {
		slog.Info("indexing_guard_closed", slog.Bool("requested_full", full))
		return nil, false
	}

	lock := NewRunLock(g.cfg.DataDir)
	acquired, err := lock.acquire()
	if err != nil {
		slog.Warn("indexing_lock_failed", slog.String("error", err.Error()))
		return nil, false
	}
	if !acquired {
		slog.Info("indexing_already_running",
			slog.String("holder", "other_process"),
			slog.String("lock", lock.Path()),
			slog.Bool("requested_full", full))
		return nil, false
	}

	task := newTask(full)
	g.current = task
	g.state.begin(task.id, full)

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	stop := context.AfterFunc(g.ctx, cancel)

	go func() {
		defer cancel()
		defer stop()
		g.execute(runCtx, task, lock)
	}()

	return task, true
}

func (g *Guard) execute(ctx context.Context, task *Task, lock *RunLock) {
	var err error

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("indexing panicked: %v", r)
			slog.Error("index_run_panic",
				slog.String("task_id", task.id),
				slog.Any("panic", r))
		}
		if unlockErr := lock.Unlock(); unlockErr != nil {
			slog.Warn("indexing_unlock_failed", slog.String("error", unlockErr.Error()))
		}
		// StartRun holds g.mu while it checks the task, so it never sees the
		// state idle with the task still open.
		g.mu.Lock()
		g.state.finish(err)
		task.complete(g.state.Snapshot(), err)
		g.mu.Unlock()
	}()

	slog.Info("index_run_started",
		slog.String("task_id", task.id),
		slog.Bool("full_reindex", task.fullReindex))

	err = g.run(ctx, task.fullReindex, g.state)

	snap := g.state.Snapshot()
	if err != nil {
		slog.Error("index_run_failed",
			slog.String("task_id", task.id),
			slog.String("error", err.Error()))
		return
	}
	slog.Info("index_run_completed",
		slog.String("task_id", task.id),
		slog.Int("files", snap.TotalFiles),
		slog.Int("indexed", snap.Indexed),
		slog.Int("skipped", snap.Skipped),
		slog.Int("failed", snap.Failed),
		slog.Int("removed", snap.Removed),
		slog.Duration("duration", time.Since(task.startedAt)))
}

// Wait blocks until the current run, if any, finishes.
func (g *Guard) Wait(ctx context.Context) (RunSnapshot, error) {
	task := g.Current()
	if task == nil {
		return g.state.Snapshot(), nil
	}
	return task.Wait(ctx)
}

// Close cancels the active run and waits for it to stop.
func (g *Guard) Close(ctx context.Context) error {
	g.cancel()
	task := g.Current()
	if task == nil {
		return nil
	}
	select {
	case <-task.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
