// File: adapters/executor_adapter.go
// Package adapters provides glue between streams executors and the api contracts.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// ExecutorAdapter implements api.Executor over a streams.Executor for callers
// that want submission errors instead of silent drops.

package adapters

import (
	"github.com/momentics/cpustreams/api"
	"github.com/momentics/cpustreams/streams"
)

// ExecutorAdapter wraps a streams.Executor to satisfy the api.Executor contract.
type ExecutorAdapter struct {
	exec *streams.Executor
}

var _ api.Executor = (*ExecutorAdapter)(nil)

// NewExecutorAdapter starts a streams executor for cfg.
func NewExecutorAdapter(cfg streams.Config, opts ...streams.Option) (*ExecutorAdapter, error) {
	e, err := streams.NewExecutor(cfg, opts...)
	if err != nil {
		return nil, err
	}
	return &ExecutorAdapter{exec: e}, nil
}

// WrapExecutor adapts an existing executor.
func WrapExecutor(e *streams.Executor) *ExecutorAdapter {
	return &ExecutorAdapter{exec: e}
}

// Submit queues task on the executor.
// Returns api.ErrExecutorClosed once the executor has been closed.
func (ea *ExecutorAdapter) Submit(task func()) error {
	if task == nil {
		return api.NewError(api.ErrCodeInvalidArgument, "nil task")
	}
	if ea.exec.Closed() {
		return api.ErrExecutorClosed
	}
	ea.exec.Run(task)
	return nil
}

// NumWorkers returns the number of worker streams.
func (ea *ExecutorAdapter) NumWorkers() int {
	return ea.exec.Config().Streams
}

// Executor returns the wrapped executor.
func (ea *ExecutorAdapter) Executor() *streams.Executor {
	return ea.exec
}

// Close shuts the executor down; queued tasks are dropped.
func (ea *ExecutorAdapter) Close() {
	ea.exec.Close()
}
