package async

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewRunState_Idle(t *testing.T) {
	s := NewRunState()

	snap := s.Snapshot()
	assert.False(t, snap.Running)
	assert.NotNil(t, snap.Errors)
	assert.Empty(t, snap.Errors)
	assert.Equal(t, 0.0, snap.ProgressPct)
}

func TestRunState_ProgressAndCounts(t *testing.T) {
	// Given: a started run over four files
	s := NewRunState()
	s.begin("task-1", false)
	s.SetTotal(4)

	// When: reporting outcomes
	s.SetCurrent("a.pdf")
	s.FileProcessed(OutcomeIndexed)
	s.FileProcessed(OutcomeSkipped)
	s.AddError("c.pdf", "cannot parse PDF")
	s.FileProcessed(OutcomeFailed)
	s.FileRemoved()

	// Then: the snapshot reflects them
	snap := s.Snapshot()
	assert.True(t, snap.Running)
	assert.Equal(t, "task-1", snap.TaskID)
	assert.Equal(t, 4, snap.TotalFiles)
	assert.Equal(t, 3, snap.ProcessedFiles)
	assert.Equal(t, "a.pdf", snap.CurrentFile)
	assert.Equal(t, []string{"c.pdf: cannot parse PDF"}, snap.Errors)
	assert.Equal(t, 1, snap.Indexed)
	assert.Equal(t, 1, snap.Skipped)
	assert.Equal(t, 1, snap.Failed)
	assert.Equal(t, 1, snap.Removed)
	assert.InDelta(t, 75.0, snap.ProgressPct, 0.001)
}

func TestRunState_FinishClearsRunningAndCurrent(t *testing.T) {
	s := NewRunState()
	s.begin("task-1", true)
	s.SetCurrent("a.pdf")

	s.finish(errors.New("scope vanished"))

	snap := s.Snapshot()
	assert.False(t, snap.Running)
	assert.Empty(t, snap.CurrentFile)
	assert.True(t, snap.FullReindex)
	assert.Equal(t, "scope vanished", snap.RunError)
	assert.False(t, snap.FinishedAt.IsZero())
}

func TestRunState_BeginResetsPreviousRun(t *testing.T) {
	s := NewRunState()
	s.begin("first", false)
	s.SetTotal(2)
	s.AddError("a.pdf", "boom")
	s.FileProcessed(OutcomeFailed)
	s.finish(nil)

	s.begin("second", false)

	snap := s.Snapshot()
	assert.Equal(t, "second", snap.TaskID)
	assert.Equal(t, 0, snap.TotalFiles)
	assert.Equal(t, 0, snap.ProcessedFiles)
	assert.Empty(t, snap.Errors)
	assert.Equal(t, 0, snap.Failed)
}

func TestRunState_SnapshotIsACopy(t *testing.T) {
	s := NewRunState()
	s.AddError("a.pdf", "first")

	snap := s.Snapshot()
	s.AddError("b.pdf", "second")

	assert.Len(t, snap.Errors, 1)
}
