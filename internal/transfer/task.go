// Package transfer provides the task queue that runs file and archive
// operations in the background. The queue owns execution: callers enqueue a
// task function and the queue runs it on a bounded worker pool, tracking
// state and publishing events for whatever front end is listening.
package transfer

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// TaskKind names the operation a task performs.
type TaskKind string

const (
	TaskCopy    TaskKind = "copy"
	TaskMove    TaskKind = "move"
	TaskDelete  TaskKind = "delete"
	TaskExtract TaskKind = "extract"
	TaskCreate  TaskKind = "create"
)

// TaskState represents the current state of a queue task.
type TaskState string

const (
	TaskQueued    TaskState = "queued"    // Waiting for a worker slot
	TaskRunning   TaskState = "running"   // Executing on a worker
	TaskCompleted TaskState = "completed" // Finished successfully
	TaskFailed    TaskState = "failed"    // Finished with an error
	TaskCancelled TaskState = "cancelled" // Stopped at a cancellation checkpoint
)

// TaskFunc is the work a task performs. It must honor ctx and report
// progress through the callback the way the engines do.
type TaskFunc func(ctx context.Context, progress func(percent int, currentItem string)) error

// Task is a single queued operation. Use the accessor methods; fields are
// protected by the internal mutex while the task is live.
type Task struct {
	ID    string
	Kind  TaskKind
	Label string // display label, usually the source basename

	Source string
	Dest   string

	// TotalBytes, when known, lets the queue derive a byte rate from
	// percent updates. Zero disables speed calculation.
	TotalBytes int64

	State       TaskState
	Percent     int
	CurrentItem string
	Speed       float64 // bytes/sec, EMA smoothed
	Err         error

	CreatedAt   time.Time
	StartedAt   time.Time
	CompletedAt time.Time

	// Speed calculation internals.
	lastUpdateTime time.Time

	mu     sync.RWMutex
	ctx    context.Context
	cancel context.CancelFunc
	fn     TaskFunc
}

func newTask(kind TaskKind, label, source, dest string, totalBytes int64, fn TaskFunc) *Task {
	ctx, cancel := context.WithCancel(context.Background())
	return &Task{
		ID:         uuid.NewString(),
		Kind:       kind,
		Label:      label,
		Source:     source,
		Dest:       dest,
		TotalBytes: totalBytes,
		State:      TaskQueued,
		CreatedAt:  time.Now(),
		ctx:        ctx,
		cancel:     cancel,
		fn:         fn,
	}
}

// GetState returns the current state (thread-safe).
func (t *Task) GetState() TaskState {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.State
}

// GetError returns the error if any (thread-safe).
func (t *Task) GetError() error {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.Err
}

// GetPercent returns current progress (thread-safe).
func (t *Task) GetPercent() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.Percent
}

// GetSpeed returns the smoothed rate in bytes/sec (thread-safe).
func (t *Task) GetSpeed() float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.Speed
}

// Context returns the task's context for cancellation checking.
func (t *Task) Context() context.Context {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.ctx
}

// IsTerminal reports whether the task has finished one way or another.
func (t *Task) IsTerminal() bool {
	state := t.GetState()
	return state == TaskCompleted || state == TaskFailed || state == TaskCancelled
}

// CanRetry reports whether Retry may re-queue this task.
func (t *Task) CanRetry() bool {
	state := t.GetState()
	return state == TaskFailed || state == TaskCancelled
}

// Clone returns a snapshot copy of the task for safe external use.
func (t *Task) Clone() Task {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return Task{
		ID:          t.ID,
		Kind:        t.Kind,
		Label:       t.Label,
		Source:      t.Source,
		Dest:        t.Dest,
		TotalBytes:  t.TotalBytes,
		State:       t.State,
		Percent:     t.Percent,
		CurrentItem: t.CurrentItem,
		Speed:       t.Speed,
		Err:         t.Err,
		CreatedAt:   t.CreatedAt,
		StartedAt:   t.StartedAt,
		CompletedAt: t.CompletedAt,
	}
}
