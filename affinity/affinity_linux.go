//go:build linux
// +build linux

// File: affinity/affinity_linux.go
// Author: momentics <momentics@gmail.com>
//
// Linux-specific implementation for setting thread CPU affinity.
// sched_setaffinity with pid 0 acts on the calling thread only.

package affinity

import (
	"fmt"

	"golang.org/x/sys/unix"
)

const supported = true

// maxCPUs is the capacity of unix.CPUSet (CPU_SETSIZE).
const maxCPUs = 1024

// setAffinityPlatform sets the calling thread's affinity to set.
func setAffinityPlatform(set CPUSet) error {
	var native unix.CPUSet
	native.Zero()
	for _, c := range set.CPUs() {
		native.Set(c)
	}
	if native.Count() == 0 {
		return fmt.Errorf("affinity: empty mask for %q", set.String())
	}
	if err := unix.SchedSetaffinity(0, &native); err != nil {
		return fmt.Errorf("affinity: sched_setaffinity(%s): %w", set.String(), err)
	}
	return nil
}

// getAffinityPlatform reads the affinity of thread tid; 0 is the calling
// thread and the process id selects the main thread.
func getAffinityPlatform(tid int) (CPUSet, error) {
	var native unix.CPUSet
	if err := unix.SchedGetaffinity(tid, &native); err != nil {
		return CPUSet{}, fmt.Errorf("affinity: sched_getaffinity: %w", err)
	}
	var out CPUSet
	for c, want := 0, native.Count(); c < maxCPUs && want > 0; c++ {
		if native.IsSet(c) {
			out.Set(c)
			want--
		}
	}
	return out, nil
}
