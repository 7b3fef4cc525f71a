package executor

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func newIdleExecutor() *ChatRunExecutor {
	return &ChatRunExecutor{
		maxWorkers:  1,
		workQueue:   make(chan RunJob, 2),
		running:     make(map[uint]bool),
		cancels:     make(map[uint]context.CancelFunc),
		completions: make(map[uint]chan bool),
	}
}

func TestRunStateTracking(t *testing.T) {
	e := newIdleExecutor()

	assert.False(t, e.IsRunning(1))
	assert.Equal(t, 0, e.GetRunningCount())
	assert.Equal(t, "completed", e.GetRunStatus(1))

	e.mutex.Lock()
	e.running[1] = true
	e.mutex.Unlock()

	assert.True(t, e.IsRunning(1))
	assert.Equal(t, 1, e.GetRunningCount())
	assert.Equal(t, "running", e.GetRunStatus(1))
}

func TestCancelExecutionUnknownRun(t *testing.T) {
	e := newIdleExecutor()

	assert.False(t, e.CancelExecution(99))
}

func TestCancelExecutionCancelsContext(t *testing.T) {
	e := newIdleExecutor()

	ctx, cancel := context.WithCancel(context.Background())
	e.mutex.Lock()
	e.running[7] = true
	e.cancels[7] = cancel
	e.mutex.Unlock()

	assert.True(t, e.CancelExecution(7))
	assert.Error(t, ctx.Err())
	assert.False(t, e.IsRunning(7))
}

func TestNotifyRunCompleteSignalsWaiter(t *testing.T) {
	e := newIdleExecutor()

	completeChan := make(chan bool, 1)
	e.mutex.Lock()
	e.completions[3] = completeChan
	e.mutex.Unlock()

	e.NotifyRunComplete(3)

	select {
	case <-completeChan:
	default:
		t.Fatal("expected completion signal")
	}

	// Repeated notify must not block once the buffer is full.
	e.NotifyRunComplete(3)
	e.NotifyRunComplete(3)
}

func TestNotifyRunCompleteUnknownRun(t *testing.T) {
	e := newIdleExecutor()
	e.NotifyRunComplete(42)
}
