// Package api
// Author: momentics@gmail.com
//
// Thread pinning contract for callers that bind their own threads.

package api

// Affinity pins the calling goroutine's OS thread to a CPU or NUMA node.
type Affinity interface {
	// Pin locks the goroutine to its thread and restricts the thread to cpuID,
	// or to the CPUs of numaID when cpuID is -1.
	Pin(cpuID int, numaID int) error
	// Unpin restores the process mask and unlocks the thread.
	Unpin() error
	// Get returns the current binding, -1 for unset fields.
	Get() (cpuID int, numaID int, err error)
}
