// Package task wraps long-running operations as cancellable units of work
// with non-blocking progress publishing.
package task

import (
	"context"
	"sync"
)

// Status is a snapshot of a running operation.
type Status struct {
	Message       string
	Current       int
	Total         int
	Indeterminate bool // waiting on network I/O, no meaningful fraction
	Cancelled     bool
	Done          bool
}

// Fraction returns progress in [0.0, 1.0], or 0 when unknown.
func (s Status) Fraction() float64 {
	if s.Indeterminate || s.Total <= 0 {
		return 0
	}
	return float64(s.Current) / float64(s.Total)
}

// Sink receives progress updates from a running operation.
// Implementations must not block the worker.
type Sink interface {
	Message(msg string)
	Progress(current, total int)
	Indeterminate()
}

// NopSink discards all updates.
type NopSink struct{}

func (NopSink) Message(string)    {}
func (NopSink) Progress(int, int) {}
func (NopSink) Indeterminate()    {}

// Task is one cancellable operation. Updates are published through a
// single-slot latest-value channel: publishing never blocks the worker,
// stale snapshots are dropped, and an observer always eventually sees
// the final value.
type Task struct {
	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	status  Status
	updates chan Status
}

// New creates a task scoped to the given parent context.
func New(parent context.Context) *Task {
	ctx, cancel := context.WithCancel(parent)
	return &Task{
		ctx:     ctx,
		cancel:  cancel,
		updates: make(chan Status, 1),
	}
}

// Context returns the context the operation must observe.
// Cancellation is cooperative: it is polled at path boundaries and
// around provider calls, not preemptively.
func (t *Task) Context() context.Context {
	return t.ctx
}

// Cancel requests cooperative cancellation.
func (t *Task) Cancel() {
	t.cancel()
}

// Updates returns the latest-value channel of status snapshots.
func (t *Task) Updates() <-chan Status {
	return t.updates
}

// Status returns the most recently published snapshot.
func (t *Task) Status() Status {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status
}

// Message publishes a human-readable status message.
func (t *Task) Message(msg string) {
	t.mu.Lock()
	t.status.Message = msg
	s := t.status
	t.mu.Unlock()
	t.publish(s)
}

// Progress publishes a (current, total) progress update.
func (t *Task) Progress(current, total int) {
	t.mu.Lock()
	t.status.Current = current
	t.status.Total = total
	t.status.Indeterminate = false
	s := t.status
	t.mu.Unlock()
	t.publish(s)
}

// Indeterminate marks progress as unknown while waiting on network I/O.
func (t *Task) Indeterminate() {
	t.mu.Lock()
	t.status.Indeterminate = true
	s := t.status
	t.mu.Unlock()
	t.publish(s)
}

// Finish publishes the terminal message for a completed operation.
func (t *Task) Finish(msg string) {
	t.mu.Lock()
	t.status.Message = msg
	t.status.Done = true
	t.status.Indeterminate = false
	s := t.status
	t.mu.Unlock()
	t.publish(s)
}

// MarkCancelled publishes the terminal cancelled state: progress resets
// to 0 and the message reports cancellation, distinct from failure.
func (t *Task) MarkCancelled() {
	t.mu.Lock()
	t.status.Message = "cancelled"
	t.status.Current = 0
	t.status.Indeterminate = false
	t.status.Cancelled = true
	t.status.Done = true
	s := t.status
	t.mu.Unlock()
	t.publish(s)
}

// publish delivers a snapshot without blocking: if the slot is full the
// stale value is replaced by the new one.
func (t *Task) publish(s Status) {
	for {
		select {
		case t.updates <- s:
			return
		default:
		}
		select {
		case <-t.updates:
		default:
		}
	}
}
