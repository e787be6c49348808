package topology

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStatic_HybridTable(t *testing.T) {
	s := NewStatic(Layout{BigCores: 6, LittleCores: 8, HyperThreading: true, Pinnable: true})

	table := s.ProcTypeTable()
	require.Len(t, table, 1)
	assert.Equal(t, []int{20, 6, 8, 6, 0}, table[0])

	assert.Equal(t, 6, s.PhysicalCores(true))
	assert.Equal(t, 14, s.PhysicalCores(false))

	mask, ncpus := s.ProcessMask()
	assert.Equal(t, 20, mask.Count())
	assert.Equal(t, 20, ncpus)
}

func TestNewStatic_MultiNode(t *testing.T) {
	s := NewStatic(Layout{BigCores: 8, Nodes: 2})

	assert.Equal(t, []int{0, 1}, s.NUMANodes())
	table := s.ProcTypeTable()
	require.Len(t, table, 3)
	assert.Equal(t, []int{8, 8, 0, 0, -1}, table[0])
	assert.Equal(t, []int{4, 4, 0, 0, 0}, table[1])
	assert.Equal(t, []int{4, 4, 0, 0, 1}, table[2])
	assert.Equal(t, []int{4, 5, 6, 7}, s.NodeCPUs(1).CPUs())

	mask, ncpus := s.ProcessMask()
	assert.True(t, mask.Empty())
	assert.Zero(t, ncpus)
}

func TestProbe_Snapshot(t *testing.T) {
	s := NewStatic(Layout{BigCores: 4, LittleCores: 4, HyperThreading: true, Pinnable: true})
	snap := Probe(s)

	assert.True(t, snap.Hybrid())
	assert.Equal(t, []CoreType{CoreLittle, CoreBig}, snap.CoreTypes)
	assert.Equal(t, 4, snap.BigPhysicalCores)
	assert.Equal(t, 8, snap.PhysicalCores)
	assert.Equal(t, []int{8, 9, 10, 11}, snap.CoreTypeCPUs(CoreLittle).CPUs())

	// the snapshot is detached from its source
	s.Little.Clear(8)
	assert.True(t, snap.CoreTypeCPUs(CoreLittle).IsSet(8))
}

func TestProbe_NonHybrid(t *testing.T) {
	snap := Probe(NewStatic(Layout{BigCores: 4}))
	assert.False(t, snap.Hybrid())
	assert.Equal(t, []CoreType{CoreBig}, snap.CoreTypes)
	// no mask: node CPUs are not restricted
	assert.Equal(t, 4, snap.NodeCPUs(0).Count())
}

func TestProbe_EmptyHost(t *testing.T) {
	snap := Probe(&Static{})
	assert.Empty(t, snap.NUMANodes)
	assert.Equal(t, []CoreType{CoreBig}, snap.CoreTypes)
	assert.Len(t, snap.ProcTypeTable.Total(), procTableColumns)
}

func TestSystem_Degrades(t *testing.T) {
	p := System()
	require.NotNil(t, p)
	assert.NotEmpty(t, p.NUMANodes())
	assert.Positive(t, p.PhysicalCores(false))
	assert.Same(t, p, System())
}
