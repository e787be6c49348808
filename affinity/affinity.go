// File: affinity/affinity.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Platform-neutral API for CPU affinity. Platform-specific implementations are located
// in separate files (affinity_linux.go, affinity_stub.go) guarded by build tags.
//
// Every function here acts on the calling OS thread. Callers must hold
// runtime.LockOSThread for the binding to stay with their goroutine.
// Pinning is best-effort: a failed or unsupported pin is reported, never fatal.

package affinity

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
)

// ErrNotSupported is returned on platforms without thread affinity support.
var ErrNotSupported = errors.New("affinity: not supported on this platform")

// nodeSysfsRoot is the sysfs directory listing NUMA nodes.
var nodeSysfsRoot = "/sys/devices/system/node"

// Supported reports whether thread pinning is available on this platform.
func Supported() bool {
	return supported
}

// SetAffinity pins current OS thread to a given logical CPU/core on supported platforms.
// On unsupported platforms returns an error.
func SetAffinity(cpuID int) error {
	return setAffinityPlatform(NewCPUSet(cpuID))
}

// ProcessMask returns the process affinity mask, as held by the main thread,
// and the number of CPU ids it spans (highest id + 1).
func ProcessMask() (CPUSet, int, error) {
	mask, err := getAffinityPlatform(os.Getpid())
	if err != nil {
		return CPUSet{}, 0, err
	}
	return withSpan(mask)
}

// ThreadMask returns the calling thread's current affinity mask.
func ThreadMask() (CPUSet, int, error) {
	mask, err := getAffinityPlatform(0)
	if err != nil {
		return CPUSet{}, 0, err
	}
	return withSpan(mask)
}

func withSpan(mask CPUSet) (CPUSet, int, error) {
	cpus := mask.CPUs()
	if len(cpus) == 0 {
		return CPUSet{}, 0, nil
	}
	return mask, cpus[len(cpus)-1] + 1, nil
}

// VacantCPU maps a logical thread index to a CPU id of mask.
//
// With explicit cpuIDs the index selects from that list directly, shifted by
// cpuIdxOffset. Otherwise the index is walked across the mask's CPUs with the
// given step, starting at ordinal cpuIdxOffset and wrapping to the next unused
// start column once the end of the mask is reached. The result is the CPU at
// that ordinal among the set bits of mask, so CPUs outside the mask are skipped.
func VacantCPU(logicalIndex, step int, mask CPUSet, cpuIDs []int, cpuIdxOffset int) (int, bool) {
	if logicalIndex < 0 {
		logicalIndex = 0
	}
	if len(cpuIDs) > 0 {
		idx := (logicalIndex + cpuIdxOffset) % len(cpuIDs)
		if idx < 0 {
			idx += len(cpuIDs)
		}
		return cpuIDs[idx], true
	}
	n := mask.Count()
	if n == 0 {
		return 0, false
	}
	if step <= 0 {
		step = 1
	}
	if cpuIdxOffset < 0 {
		cpuIdxOffset = 0
	}
	thr := logicalIndex % n
	ordinal, column := cpuIdxOffset, cpuIdxOffset
	for i := 0; i < thr; i++ {
		ordinal += step
		if ordinal >= n {
			column++
			ordinal = column
		}
	}
	return mask.Nth(ordinal % n)
}

// PinThreadToVacantCore pins the calling thread to the CPU chosen by VacantCPU.
// It returns false when nothing was pinned.
func PinThreadToVacantCore(logicalIndex, step, ncpus int, mask CPUSet, cpuIDs []int, cpuIdxOffset int) bool {
	if ncpus <= 0 || mask.Empty() {
		return false
	}
	cpu, ok := VacantCPU(logicalIndex, step, mask, cpuIDs, cpuIdxOffset)
	if !ok || cpu >= ncpus {
		return false
	}
	return setAffinityPlatform(NewCPUSet(cpu)) == nil
}

// PinCurrentThreadByMask restores the calling thread to mask.
func PinCurrentThreadByMask(ncpus int, mask CPUSet) bool {
	if ncpus <= 0 || mask.Empty() {
		return false
	}
	return setAffinityPlatform(mask) == nil
}

// NodeCPUs returns the CPUs of a NUMA node as listed by sysfs.
func NodeCPUs(node int) (CPUSet, error) {
	b, err := os.ReadFile(filepath.Join(nodeSysfsRoot, "node"+strconv.Itoa(node), "cpulist"))
	if err != nil {
		return CPUSet{}, err
	}
	return ParseCPUList(string(b))
}

// PinThreadToSocket pins the calling thread to the CPUs of a NUMA node,
// restricted to the process mask when one is known.
func PinThreadToSocket(node int) bool {
	cpus, err := NodeCPUs(node)
	if err != nil || cpus.Empty() {
		return false
	}
	if mask, _, err := ProcessMask(); err == nil && !mask.Empty() {
		if in := cpus.Intersect(mask); !in.Empty() {
			cpus = in
		}
	}
	return setAffinityPlatform(cpus) == nil
}
