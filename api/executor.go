// Package api
// Author: momentics
//
// Executor contracts consumed by inference graph runners and other task producers.

package api

// Task is an opaque unit of work. It receives nothing and returns nothing;
// the executor runs it at most once and never reports completion.
type Task func()

// TaskExecutor is the minimal submission contract.
type TaskExecutor interface {
	// Run schedules task for execution. It never blocks beyond lock acquisition.
	Run(task Task)
	// Execute runs task on the calling goroutine, after any backlog the caller
	// already has queued on the same executor.
	Execute(task Task)
}

// StreamsExecutor is a TaskExecutor whose workers are grouped into streams.
type StreamsExecutor interface {
	TaskExecutor

	// CurrentStreamID returns the caller's stream id, 0 if it has none.
	CurrentStreamID() int
	// CurrentNUMANodeID returns the caller's stream NUMA node, 0 if it has none.
	CurrentNUMANodeID() int
	// Close stops the workers and drops queued tasks.
	Close()
}

// Executor abstracts task submission with explicit failure reporting.
type Executor interface {
	// Submit schedules task for execution.
	Submit(task func()) error

	// NumWorkers returns current number of worker threads.
	NumWorkers() int

	// Close stops accepting tasks.
	Close()
}
