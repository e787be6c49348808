//go:build !linux
// +build !linux

// File: affinity/affinity_stub.go
// Author: momentics <momentics@gmail.com>
//
// Stub implementation for unsupported platforms.
// Returns error to indicate unavailability; an empty process mask disables pinning upstream.

package affinity

const supported = false

// setAffinityPlatform is a stub for platforms where CPU affinity is not supported.
func setAffinityPlatform(set CPUSet) error {
	return ErrNotSupported
}

// getAffinityPlatform reports an empty mask.
func getAffinityPlatform(tid int) (CPUSet, error) {
	return CPUSet{}, nil
}
