package transfer

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/twinpane/twinpane/internal/events"
	"github.com/twinpane/twinpane/internal/fserr"
)

// QueueStats holds per-state task counts.
type QueueStats struct {
	Queued    int
	Running   int
	Completed int
	Failed    int
	Cancelled int
}

// Total returns the total number of tasks in the queue.
func (s QueueStats) Total() int {
	return s.Queued + s.Running + s.Completed + s.Failed + s.Cancelled
}

// Queue runs tasks on a bounded worker pool and publishes lifecycle events.
// Enqueue never blocks: a task waits in TaskQueued until a worker slot is
// free. Cancelling a queued task releases it without running.
type Queue struct {
	tasks     []*Task
	tasksByID map[string]*Task
	mu        sync.RWMutex

	sem     *semaphore.Weighted
	wg      sync.WaitGroup
	closed  bool
	workers int

	eventBus *events.EventBus
}

// NewQueue creates a queue with the given worker pool width. A width below
// one is raised to one. The event bus may be nil.
func NewQueue(workers int, eventBus *events.EventBus) *Queue {
	if workers < 1 {
		workers = 1
	}
	return &Queue{
		tasksByID: make(map[string]*Task),
		sem:       semaphore.NewWeighted(int64(workers)),
		workers:   workers,
		eventBus:  eventBus,
	}
}

// Workers returns the pool width.
func (q *Queue) Workers() int { return q.workers }

// Enqueue adds a task to the queue and starts it as soon as a worker slot
// frees up. totalBytes may be zero when the size is unknown.
func (q *Queue) Enqueue(kind TaskKind, label, source, dest string, totalBytes int64, fn TaskFunc) (*Task, error) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil, errors.New("queue is shut down")
	}
	task := newTask(kind, label, source, dest, totalBytes, fn)
	q.tasks = append(q.tasks, task)
	q.tasksByID[task.ID] = task
	q.wg.Add(1)
	q.mu.Unlock()

	q.publish(events.EventTaskQueued, task)
	go q.run(task)
	return task, nil
}

// run executes one task: acquire a pool slot, invoke the task function,
// record the outcome. Runs on its own goroutine.
func (q *Queue) run(task *Task) {
	defer q.wg.Done()

	if err := q.sem.Acquire(task.Context(), 1); err != nil {
		// Cancelled while still queued.
		q.finish(task, TaskCancelled, fserr.Classify(err))
		return
	}
	defer q.sem.Release(1)

	task.mu.Lock()
	if task.State != TaskQueued {
		// Cancelled between acquire and start.
		task.mu.Unlock()
		return
	}
	task.State = TaskRunning
	task.StartedAt = time.Now()
	task.mu.Unlock()
	q.publish(events.EventTaskStarted, task)

	err := task.fn(task.Context(), func(percent int, item string) {
		q.updateProgress(task, percent, item)
	})

	switch {
	case err == nil:
		task.mu.Lock()
		task.Percent = 100
		task.mu.Unlock()
		q.finish(task, TaskCompleted, nil)
	case fserr.IsCancelled(err):
		q.finish(task, TaskCancelled, err)
	default:
		q.finish(task, TaskFailed, err)
	}
}

// updateProgress records a percent update and derives a byte rate from the
// percent delta when the task size is known. Rates are EMA smoothed and
// clamped to a sane range.
func (q *Queue) updateProgress(task *Task, percent int, item string) {
	task.mu.Lock()
	now := time.Now()
	elapsed := now.Sub(task.lastUpdateTime).Seconds()
	delta := percent - task.Percent

	if task.TotalBytes > 0 && elapsed >= 0.3 && delta > 0 {
		bytesMoved := float64(delta) / 100 * float64(task.TotalBytes)
		instant := bytesMoved / elapsed

		// Ignore noise below 1 KB/s; keep the previous value for absurd
		// spikes above 1 GB/s.
		if instant < 1024 {
			instant = 0
		} else if instant > 1<<30 {
			instant = task.Speed
		}
		if instant > 0 {
			if task.Speed == 0 {
				task.Speed = instant
			} else {
				task.Speed = 0.1*instant + 0.9*task.Speed
			}
		}
		task.lastUpdateTime = now
	} else if task.lastUpdateTime.IsZero() {
		task.lastUpdateTime = now
	}

	if percent > task.Percent {
		task.Percent = percent
	}
	task.CurrentItem = item
	task.mu.Unlock()

	q.publish(events.EventTaskProgress, task)
}

func (q *Queue) finish(task *Task, state TaskState, err error) {
	task.mu.Lock()
	if task.State == TaskCompleted || task.State == TaskFailed || task.State == TaskCancelled {
		task.mu.Unlock()
		return
	}
	task.State = state
	task.Err = err
	task.CompletedAt = time.Now()
	task.mu.Unlock()

	switch state {
	case TaskCompleted:
		q.publish(events.EventTaskCompleted, task)
	case TaskCancelled:
		q.publish(events.EventTaskCancelled, task)
	default:
		q.publish(events.EventTaskFailed, task)
	}
}

// Cancel stops a queued or running task. The task's context is cancelled;
// a running task stops at its next cancellation checkpoint.
func (q *Queue) Cancel(taskID string) error {
	q.mu.RLock()
	task, exists := q.tasksByID[taskID]
	q.mu.RUnlock()
	if !exists {
		return errors.New("task not found")
	}
	if task.IsTerminal() {
		return errors.New("task already finished")
	}
	task.mu.RLock()
	cancel := task.cancel
	task.mu.RUnlock()
	cancel()
	return nil
}

// CancelAll cancels every queued and running task.
func (q *Queue) CancelAll() {
	q.mu.RLock()
	live := make([]*Task, 0, len(q.tasks))
	for _, task := range q.tasks {
		if !task.IsTerminal() {
			live = append(live, task)
		}
	}
	q.mu.RUnlock()
	for _, task := range live {
		task.mu.RLock()
		cancel := task.cancel
		task.mu.RUnlock()
		cancel()
	}
}

// Retry re-queues a failed or cancelled task under the same ID, resetting
// its progress and giving it a fresh context.
func (q *Queue) Retry(taskID string) error {
	q.mu.Lock()
	task, exists := q.tasksByID[taskID]
	if !exists {
		q.mu.Unlock()
		return errors.New("task not found")
	}
	if !task.CanRetry() {
		q.mu.Unlock()
		return errors.New("task cannot be retried")
	}
	if q.closed {
		q.mu.Unlock()
		return errors.New("queue is shut down")
	}

	task.mu.Lock()
	ctx, cancel := context.WithCancel(context.Background())
	task.ctx = ctx
	task.cancel = cancel
	task.State = TaskQueued
	task.Percent = 0
	task.Speed = 0
	task.CurrentItem = ""
	task.Err = nil
	task.StartedAt = time.Time{}
	task.CompletedAt = time.Time{}
	task.lastUpdateTime = time.Time{}
	task.mu.Unlock()

	q.wg.Add(1)
	q.mu.Unlock()

	q.publish(events.EventTaskQueued, task)
	go q.run(task)
	return nil
}

// ClearCompleted drops all terminal tasks from the queue.
func (q *Queue) ClearCompleted() {
	q.mu.Lock()
	defer q.mu.Unlock()

	kept := make([]*Task, 0, len(q.tasks))
	for _, task := range q.tasks {
		if task.IsTerminal() {
			delete(q.tasksByID, task.ID)
			continue
		}
		kept = append(kept, task)
	}
	q.tasks = kept
}

// Wait blocks until every enqueued task has reached a terminal state.
func (q *Queue) Wait() {
	q.wg.Wait()
}

// Shutdown cancels everything still live, waits for workers to drain, and
// rejects further Enqueue calls.
func (q *Queue) Shutdown() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	q.CancelAll()
	q.wg.Wait()
}

// GetStats returns current per-state counts.
func (q *Queue) GetStats() QueueStats {
	q.mu.RLock()
	defer q.mu.RUnlock()

	stats := QueueStats{}
	for _, task := range q.tasks {
		switch task.GetState() {
		case TaskQueued:
			stats.Queued++
		case TaskRunning:
			stats.Running++
		case TaskCompleted:
			stats.Completed++
		case TaskFailed:
			stats.Failed++
		case TaskCancelled:
			stats.Cancelled++
		}
	}
	return stats
}

// GetTasks returns snapshot copies of all tasks in creation order.
func (q *Queue) GetTasks() []Task {
	q.mu.RLock()
	defer q.mu.RUnlock()

	result := make([]Task, len(q.tasks))
	for i, task := range q.tasks {
		result[i] = task.Clone()
	}
	return result
}

// GetTask returns a snapshot copy of one task by ID.
func (q *Queue) GetTask(taskID string) (Task, bool) {
	q.mu.RLock()
	defer q.mu.RUnlock()

	task, exists := q.tasksByID[taskID]
	if !exists {
		return Task{}, false
	}
	return task.Clone(), true
}

func (q *Queue) publish(eventType events.EventType, task *Task) {
	if q.eventBus == nil {
		return
	}
	task.mu.RLock()
	event := &events.TaskEvent{
		BaseEvent:   events.BaseEvent{EventType: eventType, Time: time.Now()},
		TaskID:      task.ID,
		Kind:        string(task.Kind),
		Label:       task.Label,
		CurrentItem: task.CurrentItem,
		Percent:     task.Percent,
		Speed:       task.Speed,
		Err:         task.Err,
	}
	task.mu.RUnlock()
	q.eventBus.Publish(event)
}
