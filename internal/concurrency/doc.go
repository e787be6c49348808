// File: internal/concurrency/doc.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Concurrency primitives for the streams executor: a bounded-concurrency
// Arena with entry/exit observer hooks, the shared FIFO TaskQueue, the
// reusable IDPool, goroutine identity and OS thread naming.
package concurrency
