// Package events provides the pub/sub bus that carries task lifecycle and
// progress notifications from the transfer queue to whatever front end is
// listening (CLI progress bars, a future pane UI, tests).
package events

import (
	"sync"
	"sync/atomic"
	"time"
)

// Buffer bounds for subscriber channels.
const (
	defaultBuffer = 1000
	maxBuffer     = 10000
)

// EventType defines the types of events that can be emitted.
type EventType string

const (
	EventLog EventType = "log"

	// Task lifecycle events published by the transfer queue.
	EventTaskQueued    EventType = "task_queued"    // Task added to queue
	EventTaskStarted   EventType = "task_started"   // Worker picked the task up
	EventTaskProgress  EventType = "task_progress"  // Progress update
	EventTaskCompleted EventType = "task_completed" // Finished successfully
	EventTaskFailed    EventType = "task_failed"    // Finished with error
	EventTaskCancelled EventType = "task_cancelled" // Cancelled by caller
)

// Event is the base interface for all events.
type Event interface {
	Type() EventType
	Timestamp() time.Time
}

// BaseEvent provides common event fields.
type BaseEvent struct {
	EventType EventType
	Time      time.Time
}

func (e BaseEvent) Type() EventType      { return e.EventType }
func (e BaseEvent) Timestamp() time.Time { return e.Time }

// TaskEvent carries the state of one queue task.
type TaskEvent struct {
	BaseEvent
	TaskID      string  // Unique task ID
	Kind        string  // Operation kind ("copy", "move", ...)
	Label       string  // Display label (usually the source basename)
	CurrentItem string  // Item the engine is working on right now
	Percent     int     // 0-100
	Speed       float64 // bytes/sec, EMA smoothed
	Err         error   // Set on task_failed
}

// LogEvent carries a log line for front ends that render engine output.
type LogEvent struct {
	BaseEvent
	Level   string
	Message string
	Err     error
}

// EventBus manages event subscriptions and publishing. Publishing never
// blocks: events to a full subscriber buffer are dropped and counted.
type EventBus struct {
	subscribers map[EventType][]chan Event
	all         []chan Event
	mu          sync.RWMutex
	bufferSize  int
	closed      bool
	dropped     atomic.Int64
}

// NewEventBus creates a new event bus with the specified buffer size per
// subscriber channel. Sizes outside [1, maxBuffer] are clamped.
func NewEventBus(bufferSize int) *EventBus {
	if bufferSize <= 0 {
		bufferSize = defaultBuffer
	}
	if bufferSize > maxBuffer {
		bufferSize = maxBuffer
	}
	return &EventBus{
		subscribers: make(map[EventType][]chan Event),
		bufferSize:  bufferSize,
	}
}

// Subscribe creates a subscription to a specific event type.
func (eb *EventBus) Subscribe(eventType EventType) <-chan Event {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	if eb.closed {
		ch := make(chan Event)
		close(ch)
		return ch
	}

	ch := make(chan Event, eb.bufferSize)
	eb.subscribers[eventType] = append(eb.subscribers[eventType], ch)
	return ch
}

// SubscribeAll creates a subscription to all events.
func (eb *EventBus) SubscribeAll() <-chan Event {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	if eb.closed {
		ch := make(chan Event)
		close(ch)
		return ch
	}

	ch := make(chan Event, eb.bufferSize)
	eb.all = append(eb.all, ch)
	return ch
}

// Unsubscribe removes a subscription channel from a specific event type.
func (eb *EventBus) Unsubscribe(eventType EventType, ch <-chan Event) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	if eb.closed {
		return
	}

	subs := eb.subscribers[eventType]
	for i, sub := range subs {
		if sub == ch {
			eb.subscribers[eventType] = append(subs[:i], subs[i+1:]...)
			close(sub)
			return
		}
	}
}

// Publish sends an event to all matching subscribers without blocking.
func (eb *EventBus) Publish(event Event) {
	eb.mu.RLock()
	defer eb.mu.RUnlock()

	if eb.closed {
		return
	}

	for _, ch := range eb.subscribers[event.Type()] {
		select {
		case ch <- event:
		default:
			eb.dropped.Add(1)
		}
	}

	for _, ch := range eb.all {
		select {
		case ch <- event:
		default:
			eb.dropped.Add(1)
		}
	}
}

// Dropped returns the number of events discarded because a subscriber's
// buffer was full.
func (eb *EventBus) Dropped() int64 {
	return eb.dropped.Load()
}

// Close shuts down the event bus and closes all subscriber channels.
func (eb *EventBus) Close() {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	if eb.closed {
		return
	}
	eb.closed = true

	for _, channels := range eb.subscribers {
		for _, ch := range channels {
			close(ch)
		}
	}
	for _, ch := range eb.all {
		close(ch)
	}
}

// PublishLog is a convenience method for publishing log events.
func (eb *EventBus) PublishLog(level, message string, err error) {
	eb.Publish(&LogEvent{
		BaseEvent: BaseEvent{EventType: EventLog, Time: time.Now()},
		Level:     level,
		Message:   message,
		Err:       err,
	})
}
