// File: streams/doc.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Package streams runs opaque tasks on a fixed pool of worker threads grouped
// into streams. Each stream owns a bounded-concurrency arena whose threads are
// pinned to cores, a NUMA node or a core type according to the executor's
// Config.
//
// Tasks reach a stream two ways. Run hands the task to the shared FIFO, where
// the next idle worker picks it up. Execute runs it on the calling goroutine
// through that goroutine's own stream; tasks submitted recursively from inside
// are queued and drained by the outer call instead of nesting.
//
//	exec, err := streams.NewExecutor(streams.Config{Name: "infer", Streams: 4, ThreadsPerStream: 2,
//	    ThreadBindingType: streams.BindCores, ThreadBindingStep: 1})
//	if err != nil {
//	    return err
//	}
//	defer exec.Close()
//	exec.Run(func() { model.Infer(req) })
//
// Work is fire-and-forget: tasks report nothing back, a panicking task is
// recovered and logged, and tasks still queued at Close are dropped.
package streams
