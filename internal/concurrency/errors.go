// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Error definitions for concurrency module.

package concurrency

import "errors"

var (
	// ErrQueueStopped indicates the task queue no longer accepts or yields tasks
	ErrQueueStopped = errors.New("task queue is stopped")

	// ErrNilTask indicates a nil task was submitted
	ErrNilTask = errors.New("nil task")
)
