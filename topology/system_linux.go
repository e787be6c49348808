//go:build linux
// +build linux

// File: topology/system_linux.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Linux prober reading sysfs. Every file is optional; a missing file narrows
// what is known instead of failing the probe.

package topology

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/momentics/cpustreams/affinity"
)

var (
	cpuSysfsRoot  = "/sys/devices/system/cpu"
	nodeSysfsRoot = "/sys/devices/system/node"
	// hybrid Intel parts expose little cores as the cpu_atom PMU
	atomCPUsPath = "/sys/devices/cpu_atom/cpus"
)

func readCPUList(path string) (affinity.CPUSet, bool) {
	b, err := os.ReadFile(path)
	if err != nil {
		return affinity.CPUSet{}, false
	}
	set, err := affinity.ParseCPUList(string(b))
	if err != nil {
		return affinity.CPUSet{}, false
	}
	return set, true
}

func probeSystem() *Static {
	online, ok := readCPUList(filepath.Join(cpuSysfsRoot, "online"))
	if !ok || online.Empty() {
		s := countsOnly()
		s.Mask, _, _ = affinity.ProcessMask()
		return s
	}

	s := &Static{Nodes: make(map[int]affinity.CPUSet)}
	if entries, err := os.ReadDir(nodeSysfsRoot); err == nil {
		for _, e := range entries {
			if !e.IsDir() || !strings.HasPrefix(e.Name(), "node") {
				continue
			}
			id, err := strconv.Atoi(strings.TrimPrefix(e.Name(), "node"))
			if err != nil {
				continue
			}
			cpus, ok := readCPUList(filepath.Join(nodeSysfsRoot, e.Name(), "cpulist"))
			if !ok {
				continue
			}
			s.Nodes[id] = cpus.Intersect(online)
		}
	}
	if len(s.Nodes) == 0 {
		s.Nodes[0] = online.Clone()
	}

	little, _ := readCPUList(atomCPUsPath)
	for _, c := range online.CPUs() {
		if little.IsSet(c) {
			s.Little.Set(c)
		} else {
			s.Big.Set(c)
		}
	}

	siblingsKnown := true
	for _, c := range s.Big.CPUs() {
		list, ok := readCPUList(filepath.Join(cpuSysfsRoot, "cpu"+strconv.Itoa(c), "topology", "thread_siblings_list"))
		if !ok {
			siblingsKnown = false
			break
		}
		if first, ok := list.Nth(0); ok && first != c {
			s.Siblings.Set(c)
		}
	}
	if !siblingsKnown {
		s.Siblings = affinity.CPUSet{}
		_, physical := coreCounts()
		markSiblingsByCount(s, physical-s.Little.Count())
	}

	s.Mask, _, _ = affinity.ProcessMask()
	return s
}
