// File: streams/observer.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package streams

import (
	"github.com/momentics/cpustreams/affinity"
)

// pinObserver pins each arena slot to its own CPU and restores the process
// mask when the thread leaves.
type pinObserver struct {
	mask         affinity.CPUSet
	ncpus        int
	offset       int
	step         int
	cpuIdxOffset int
	cpuIDs       []int
	onFail       func()
}

func (o *pinObserver) OnEnter(slot int) {
	if !affinity.PinThreadToVacantCore(o.offset+slot, o.step, o.ncpus, o.mask, o.cpuIDs, o.cpuIdxOffset) {
		o.onFail()
	}
}

func (o *pinObserver) OnExit() {
	affinity.PinCurrentThreadByMask(o.ncpus, o.mask)
}

// maskObserver confines arena threads to a CPU subset: one NUMA node or one
// core type.
type maskObserver struct {
	cpus    affinity.CPUSet
	restore affinity.CPUSet
	ncpus   int
	// node, when >= 0 and cpus is empty, falls back to the node's sysfs cpulist.
	node   int
	onFail func()
}

func (o *maskObserver) OnEnter(int) {
	var ok bool
	if o.cpus.Empty() && o.node >= 0 {
		ok = affinity.PinThreadToSocket(o.node)
	} else {
		ok = affinity.PinCurrentThreadByMask(o.ncpus, o.cpus)
	}
	if !ok {
		o.onFail()
	}
}

func (o *maskObserver) OnExit() {
	affinity.PinCurrentThreadByMask(o.ncpus, o.restore)
}
