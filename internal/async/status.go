// Package async runs indexing in the background and guarantees that at most
// one run is active at a time.
package async

import (
	"sync"
	"time"
)

// Outcome is the result of processing one file in a run.
type Outcome string

const (
	OutcomeIndexed Outcome = "indexed"
	OutcomeSkipped Outcome = "skipped"
	OutcomeFailed  Outcome = "failed"
	OutcomeRemoved Outcome = "removed"
)

// RunSnapshot is an immutable copy of the run state.
type RunSnapshot struct {
	Running        bool      `json:"is_running"`
	TaskID         string    `json:"task_id,omitempty"`
	FullReindex    bool      `json:"full_reindex"`
	TotalFiles     int       `json:"total_files"`
	ProcessedFiles int       `json:"processed_files"`
	CurrentFile    string    `json:"current_file"`
	Errors         []string  `json:"errors"`
	Indexed        int       `json:"indexed"`
	Skipped        int       `json:"skipped"`
	Failed         int       `json:"failed"`
	Removed        int       `json:"removed"`
	ProgressPct    float64   `json:"progress_pct"`
	StartedAt      time.Time `json:"started_at,omitempty"`
	FinishedAt     time.Time `json:"finished_at,omitempty"`
	ElapsedSeconds int       `json:"elapsed_seconds"`
	RunError       string    `json:"run_error,omitempty"`
}

// RunState is the single, process-wide indexing run state.
// The guard opens and closes runs; the runner reports progress.
type RunState struct {
	mu sync.RWMutex

	running        bool
	taskID         string
	fullReindex    bool
	totalFiles     int
	processedFiles int
	currentFile    string
	errors         []string
	counts         map[Outcome]int
	startedAt      time.Time
	finishedAt     time.Time
	runError       string
}

// NewRunState creates an idle run state.
func NewRunState() *RunState {
	return &RunState{
		errors: []string{},
		counts: make(map[Outcome]int),
	}
}

// begin marks a new run as active and resets the progress counters.
func (s *RunState) begin(taskID string, full bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.running = true
	s.taskID = taskID
	s.fullReindex = full
	s.totalFiles = 0
	s.processedFiles = 0
	s.currentFile = ""
	s.errors = []string{}
	s.counts = make(map[Outcome]int)
	s.startedAt = time.Now()
	s.finishedAt = time.Time{}
	s.runError = ""
}

// finish marks the run as complete.
func (s *RunState) finish(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.running = false
	s.currentFile = ""
	s.finishedAt = time.Now()
	if err != nil {
		s.runError = err.Error()
	}
}

// ResetErrors clears the error list.
func (s *RunState) ResetErrors() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.errors = []string{}
}

// SetTotal sets the number of files in the run.
func (s *RunState) SetTotal(total int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.totalFiles = total
}

// SetCurrent sets the file being processed. "" clears it.
func (s *RunState) SetCurrent(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.currentFile = path
}

// AddError appends a "<path>: <message>" entry.
func (s *RunState) AddError(path, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.errors = append(s.errors, path+": "+message)
}

// FileProcessed counts one file of the listing as done.
func (s *RunState) FileProcessed(outcome Outcome) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.processedFiles++
	s.counts[outcome]++
}

// FileRemoved counts a pruned record. Pruned files are not part of the
// listing, so the processed count is unchanged.
func (s *RunState) FileRemoved() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.counts[OutcomeRemoved]++
}

// IsRunning reports whether a run is active.
func (s *RunState) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.running
}

// Snapshot returns a copy of the current state.
func (s *RunState) Snapshot() RunSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var pct float64
	if s.totalFiles > 0 {
		pct = float64(s.processedFiles) / float64(s.totalFiles) * 100.0
	}

	var elapsed time.Duration
	switch {
	case s.startedAt.IsZero():
	case s.running:
		elapsed = time.Since(s.startedAt)
	default:
		elapsed = s.finishedAt.Sub(s.startedAt)
	}

	errs := make([]string, len(s.errors))
	copy(errs, s.errors)

	return RunSnapshot{
		Running:        s.running,
		TaskID:         s.taskID,
		FullReindex:    s.fullReindex,
		TotalFiles:     s.totalFiles,
		ProcessedFiles: s.processedFiles,
		CurrentFile:    s.currentFile,
		Errors:         errs,
		Indexed:        s.counts[OutcomeIndexed],
		Skipped:        s.counts[OutcomeSkipped],
		Failed:         s.counts[OutcomeFailed],
		Removed:        s.counts[OutcomeRemoved],
		ProgressPct:    pct,
		StartedAt:      s.startedAt,
		FinishedAt:     s.finishedAt,
		ElapsedSeconds: int(elapsed.Seconds()),
		RunError:       s.runError,
	}
}
