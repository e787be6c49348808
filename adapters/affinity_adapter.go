// File: adapters/affinity_adapter.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
// Description:
//   Adapter implementing the api.Affinity interface on top of the affinity
//   package.

package adapters

import (
	"runtime"

	"github.com/momentics/cpustreams/affinity"
	"github.com/momentics/cpustreams/api"
)

// AffinityAdapter implements api.Affinity for the calling goroutine.
// It is not safe for use from several goroutines.
type AffinityAdapter struct {
	currentCPU  int
	currentNUMA int
	pinned      bool
}

var _ api.Affinity = (*AffinityAdapter)(nil)

// NewAffinityAdapter returns an unpinned adapter.
func NewAffinityAdapter() *AffinityAdapter {
	return &AffinityAdapter{currentCPU: -1, currentNUMA: -1}
}

// Pin binds the calling thread. cpuID wins over numaID; -1 leaves a field unset.
func (a *AffinityAdapter) Pin(cpuID int, numaID int) error {
	if !affinity.Supported() {
		return api.ErrNotSupported
	}
	if cpuID < 0 && numaID < 0 {
		return api.NewError(api.ErrCodeInvalidArgument, "no cpu or numa node given")
	}
	runtime.LockOSThread()
	switch {
	case cpuID >= 0:
		if err := affinity.SetAffinity(cpuID); err != nil {
			runtime.UnlockOSThread()
			return api.NewError(api.ErrCodeInvalidArgument, err.Error()).WithContext("cpu", cpuID)
		}
	default:
		if !affinity.PinThreadToSocket(numaID) {
			runtime.UnlockOSThread()
			return api.NewError(api.ErrCodeNotFound, "numa node has no usable cpus").WithContext("node", numaID)
		}
	}
	if a.pinned {
		// Pin was already holding one lock on the thread.
		runtime.UnlockOSThread()
	}
	a.currentCPU, a.currentNUMA, a.pinned = cpuID, numaID, true
	return nil
}

// Unpin restores the process mask and releases the thread.
func (a *AffinityAdapter) Unpin() error {
	if !a.pinned {
		return nil
	}
	mask, ncpus, err := affinity.ProcessMask()
	if err != nil {
		return err
	}
	affinity.PinCurrentThreadByMask(ncpus, mask)
	runtime.UnlockOSThread()
	a.currentCPU, a.currentNUMA, a.pinned = -1, -1, false
	return nil
}

// Get returns the binding set by the last Pin.
func (a *AffinityAdapter) Get() (cpuID int, numaID int, err error) {
	return a.currentCPU, a.currentNUMA, nil
}
