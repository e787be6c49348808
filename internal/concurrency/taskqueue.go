// File: internal/concurrency/taskqueue.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// TaskQueue is the shared FIFO between submitters and stream workers:
// many producers, one consumer per worker, guarded by a mutex and a
// condition variable. Stop discards whatever is still queued.

package concurrency

import (
	"sync"

	"github.com/eapache/queue"
)

// TaskFunc is a unit of work to execute.
type TaskFunc func()

// TaskQueue is a blocking multi-producer multi-consumer FIFO.
type TaskQueue struct {
	mu      sync.Mutex
	cond    *sync.Cond
	tasks   *queue.Queue
	stopped bool
}

// NewTaskQueue returns an empty queue.
func NewTaskQueue() *TaskQueue {
	tq := &TaskQueue{tasks: queue.New()}
	tq.cond = sync.NewCond(&tq.mu)
	return tq
}

// Push appends task and wakes one waiting consumer. It returns
// ErrQueueStopped once Stop has been called.
func (tq *TaskQueue) Push(task TaskFunc) error {
	if task == nil {
		return ErrNilTask
	}
	tq.mu.Lock()
	if tq.stopped {
		tq.mu.Unlock()
		return ErrQueueStopped
	}
	tq.tasks.Add(task)
	tq.mu.Unlock()
	tq.cond.Signal()
	return nil
}

// Pop blocks until a task is available or the queue is stopped. It returns
// false only when stopped.
func (tq *TaskQueue) Pop() (TaskFunc, bool) {
	tq.mu.Lock()
	defer tq.mu.Unlock()
	for tq.tasks.Length() == 0 && !tq.stopped {
		tq.cond.Wait()
	}
	if tq.stopped {
		return nil, false
	}
	return tq.tasks.Remove().(TaskFunc), true
}

// Len returns the number of queued tasks.
func (tq *TaskQueue) Len() int {
	tq.mu.Lock()
	defer tq.mu.Unlock()
	return tq.tasks.Length()
}

// Stop sets the stop flag, drops every queued task and wakes all consumers.
// It returns the number of dropped tasks; later calls return 0.
func (tq *TaskQueue) Stop() int {
	tq.mu.Lock()
	if tq.stopped {
		tq.mu.Unlock()
		return 0
	}
	tq.stopped = true
	dropped := tq.tasks.Length()
	tq.tasks = queue.New()
	tq.mu.Unlock()
	tq.cond.Broadcast()
	return dropped
}

// Stopped reports whether Stop has been called.
func (tq *TaskQueue) Stopped() bool {
	tq.mu.Lock()
	defer tq.mu.Unlock()
	return tq.stopped
}

// LocalQueue is an unsynchronised FIFO owned by a single goroutine.
type LocalQueue struct {
	tasks *queue.Queue
}

// NewLocalQueue returns an empty LocalQueue.
func NewLocalQueue() *LocalQueue {
	return &LocalQueue{tasks: queue.New()}
}

// Push appends task.
func (lq *LocalQueue) Push(task TaskFunc) {
	lq.tasks.Add(task)
}

// Pop removes the oldest task.
func (lq *LocalQueue) Pop() (TaskFunc, bool) {
	if lq.tasks.Length() == 0 {
		return nil, false
	}
	return lq.tasks.Remove().(TaskFunc), true
}

// Len returns the number of queued tasks.
func (lq *LocalQueue) Len() int {
	return lq.tasks.Length()
}
