package streams

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/momentics/cpustreams/topology"
)

func hybridSnapshot() *topology.Snapshot {
	return topology.Probe(topology.NewStatic(topology.Layout{
		BigCores: 8, LittleCores: 8, HyperThreading: true, Pinnable: true,
	}))
}

func TestStreamsOnCoreTypes(t *testing.T) {
	cfg := Config{BigCoreStreams: 4, SmallCoreStreams: 2, ThreadsPerStreamBig: 2, ThreadsPerStreamSmall: 4}
	table := streamsOnCoreTypes(cfg, hybridSnapshot())
	assert.Equal(t, []coreTypeStreams{
		{coreType: topology.CoreBig, total: 4},
		{coreType: topology.CoreLittle, total: 6},
	}, table)

	// Requests beyond what fits are capped; zero requests still get one stream.
	cfg = Config{BigCoreStreams: 100, ThreadsPerStreamBig: 2, ThreadsPerStreamSmall: 4}
	table = streamsOnCoreTypes(cfg, hybridSnapshot())
	assert.Equal(t, 8, table[0].total)
	assert.Equal(t, 9, table[1].total)
}

func TestRoundRobinPlacement_BigFirstThenLittle(t *testing.T) {
	snap := hybridSnapshot()
	cfg := Config{
		BigCoreStreams: 4, SmallCoreStreams: 2,
		ThreadsPerStreamBig: 2, ThreadsPerStreamSmall: 4,
		ThreadBindingStep: 1, SmallCoreOffset: 16,
	}
	table := streamsOnCoreTypes(cfg, snap)

	want := []placement{
		{CoreType: topology.CoreBig, LocalID: 0, Concurrency: 2, Step: 2, CPUIdxOffset: 1},
		{CoreType: topology.CoreBig, LocalID: 1, Concurrency: 2, Step: 2, CPUIdxOffset: 1},
		{CoreType: topology.CoreBig, LocalID: 2, Concurrency: 2, Step: 2, CPUIdxOffset: 1},
		{CoreType: topology.CoreBig, LocalID: 3, Concurrency: 2, Step: 2, CPUIdxOffset: 1},
		{CoreType: topology.CoreLittle, LocalID: 0, Concurrency: 4, Step: 1, CPUIdxOffset: 16},
		{CoreType: topology.CoreLittle, LocalID: 1, Concurrency: 4, Step: 1, CPUIdxOffset: 16},
	}
	for id, w := range want {
		assert.Equal(t, w, roundRobinPlacement(id, cfg, table, snap.BigPhysicalCores), "stream %d", id)
	}
	// Ids past the table wrap, and repeated calls agree.
	for id := range want {
		assert.Equal(t, want[id], roundRobinPlacement(id+len(want), cfg, table, snap.BigPhysicalCores))
		assert.Equal(t, want[id], roundRobinPlacement(id, cfg, table, snap.BigPhysicalCores))
	}
}

func TestRoundRobinPlacement_SiblingStreams(t *testing.T) {
	snap := hybridSnapshot()
	cfg := Config{
		BigCoreStreams: 8, SmallCoreStreams: 1,
		ThreadsPerStreamBig: 2, ThreadsPerStreamSmall: 4, ThreadBindingStep: 1,
	}
	table := streamsOnCoreTypes(cfg, snap)
	require.Equal(t, 8, table[0].total)

	// Four streams fill the physical cores; the next four use the siblings.
	p := roundRobinPlacement(3, cfg, table, snap.BigPhysicalCores)
	assert.Equal(t, 1, p.CPUIdxOffset)
	for id := 4; id < 8; id++ {
		p = roundRobinPlacement(id, cfg, table, snap.BigPhysicalCores)
		assert.Equal(t, topology.CoreBig, p.CoreType)
		assert.Equal(t, id-4, p.LocalID)
		assert.Equal(t, 0, p.CPUIdxOffset)
		assert.Equal(t, 2, p.Step)
	}
}

func TestRoundRobinPlacement_ThreeThreadLittleStreams(t *testing.T) {
	snap := hybridSnapshot()
	cfg := Config{
		BigCoreStreams: 4, SmallCoreStreams: 2,
		ThreadsPerStreamBig: 2, ThreadsPerStreamSmall: 3,
		ThreadBindingStep: 1, SmallCoreOffset: 16,
	}
	table := streamsOnCoreTypes(cfg, snap)

	p4 := roundRobinPlacement(4, cfg, table, snap.BigPhysicalCores)
	p5 := roundRobinPlacement(5, cfg, table, snap.BigPhysicalCores)
	assert.Equal(t, placement{CoreType: topology.CoreLittle, Concurrency: 3, Step: 1, CPUIdxOffset: 16}, p4)
	assert.Equal(t, placement{CoreType: topology.CoreLittle, Concurrency: 3, Step: 1, CPUIdxOffset: 20}, p5)
}

func TestRoundRobinPlacement_NotHybrid(t *testing.T) {
	snap := topology.Probe(topology.NewStatic(topology.Layout{BigCores: 4, Pinnable: true}))
	cfg := Config{BigCoreStreams: 2, ThreadsPerStreamBig: 2, ThreadBindingStep: 1}
	table := streamsOnCoreTypes(cfg, snap)
	require.Len(t, table, 1)

	p := roundRobinPlacement(3, cfg, table, snap.BigPhysicalCores)
	assert.Equal(t, placement{CoreType: topology.CoreBig, LocalID: 1, Concurrency: 2, Step: 1}, p)
}

func TestNUMANodeAssignment(t *testing.T) {
	nodes := []int{0, 1}

	assert.Equal(t, []int{0}, usedNUMANodes(1, nodes))
	assert.Equal(t, []int{0, 1}, usedNUMANodes(0, nodes))
	assert.Equal(t, []int{0}, usedNUMANodes(3, nil))

	used := usedNUMANodes(4, nodes)
	got := make([]int, 6)
	for id := range got {
		got[id] = numaNodeFor(id, 4, used)
	}
	assert.Equal(t, []int{0, 0, 1, 1, 0, 0}, got)

	used = usedNUMANodes(3, nodes)
	assert.Equal(t, []int{0, 0, 1}, []int{numaNodeFor(0, 3, used), numaNodeFor(1, 3, used), numaNodeFor(2, 3, used)})

	used = usedNUMANodes(0, nodes)
	assert.Equal(t, []int{0, 1, 0}, []int{numaNodeFor(0, 0, used), numaNodeFor(1, 0, used), numaNodeFor(2, 0, used)})
}
