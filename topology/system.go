// File: topology/system.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package topology

import (
	"runtime"
	"sync"

	"github.com/momentics/cpustreams/affinity"
	"github.com/shirou/gopsutil/v4/cpu"
)

var (
	systemOnce sync.Once
	system     *Static
)

// System returns the prober for the running host. The host is read once and
// cached for the life of the process.
func System() Prober {
	systemOnce.Do(func() {
		system = probeSystem()
	})
	return system
}

// coreCounts returns the logical and physical core counts reported by
// gopsutil, falling back to runtime.NumCPU.
func coreCounts() (logical, physical int) {
	logical, err := cpu.Counts(true)
	if err != nil || logical <= 0 {
		logical = runtime.NumCPU()
	}
	physical, err = cpu.Counts(false)
	if err != nil || physical <= 0 || physical > logical {
		physical = logical
	}
	return logical, physical
}

// markSiblingsByCount treats the upper logical CPUs of big as hyper-threading
// siblings so that PhysicalCores matches the physical count.
func markSiblingsByCount(s *Static, physical int) {
	big := s.Big.CPUs()
	for i := physical; i < len(big); i++ {
		s.Siblings.Set(big[i])
	}
}

// countsOnly builds a single-node, non-hybrid host from core counts.
func countsOnly() *Static {
	logical, physical := coreCounts()
	s := &Static{Nodes: make(map[int]affinity.CPUSet)}
	for c := 0; c < logical; c++ {
		s.Big.Set(c)
	}
	markSiblingsByCount(s, physical)
	s.Nodes[0] = s.Big.Clone()
	return s
}
