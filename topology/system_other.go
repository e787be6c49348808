//go:build !linux
// +build !linux

// File: topology/system_other.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package topology

// probeSystem reports a single node built from gopsutil core counts. The mask
// stays empty, so streams run unpinned.
func probeSystem() *Static {
	return countsOnly()
}
