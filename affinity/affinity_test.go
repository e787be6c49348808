package affinity

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func maskOf(n int) CPUSet {
	var s CPUSet
	for i := 0; i < n; i++ {
		s.Set(i)
	}
	return s
}

func TestVacantCPU_Stride(t *testing.T) {
	mask := maskOf(8)
	var got []int
	for i := 0; i < 8; i++ {
		cpu, ok := VacantCPU(i, 2, mask, nil, 0)
		require.True(t, ok)
		got = append(got, cpu)
	}
	assert.Equal(t, []int{0, 2, 4, 6, 1, 3, 5, 7}, got)
}

func TestVacantCPU_OffsetAvoidsCoreZero(t *testing.T) {
	mask := maskOf(8)
	for i := 0; i < 4; i++ {
		cpu, ok := VacantCPU(i, 2, mask, nil, 1)
		require.True(t, ok)
		assert.NotZero(t, cpu)
		assert.Equal(t, 1+2*i, cpu)
	}
}

func TestVacantCPU_SkipsCPUsOutsideMask(t *testing.T) {
	mask := NewCPUSet(1, 3, 5, 7)
	var got []int
	for i := 0; i < 4; i++ {
		cpu, ok := VacantCPU(i, 1, mask, nil, 0)
		require.True(t, ok)
		got = append(got, cpu)
	}
	assert.Equal(t, []int{1, 3, 5, 7}, got)

	// indices wrap modulo the mask size
	cpu, _ := VacantCPU(4, 1, mask, nil, 0)
	assert.Equal(t, 1, cpu)
}

func TestVacantCPU_ExplicitIDs(t *testing.T) {
	ids := []int{12, 14, 16}
	cpu, ok := VacantCPU(1, 2, CPUSet{}, ids, 0)
	require.True(t, ok)
	assert.Equal(t, 14, cpu)

	cpu, _ = VacantCPU(2, 2, CPUSet{}, ids, 2)
	assert.Equal(t, 14, cpu)
}

func TestVacantCPU_EmptyMask(t *testing.T) {
	_, ok := VacantCPU(0, 1, CPUSet{}, nil, 0)
	assert.False(t, ok)
	assert.False(t, PinThreadToVacantCore(0, 1, 0, CPUSet{}, nil, 0))
	assert.False(t, PinCurrentThreadByMask(0, CPUSet{}))
}

func TestPinAndRestore(t *testing.T) {
	mask, ncpus, err := ProcessMask()
	require.NoError(t, err)
	if !Supported() || mask.Empty() {
		t.Skip("thread affinity not available")
	}

	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer PinCurrentThreadByMask(ncpus, mask)

	first, _ := mask.Nth(0)
	require.True(t, PinThreadToVacantCore(0, 1, ncpus, mask, nil, 0))
	cur, _, err := ThreadMask()
	require.NoError(t, err)
	assert.Equal(t, []int{first}, cur.CPUs())

	require.True(t, PinCurrentThreadByMask(ncpus, mask))
	cur, _, err = ThreadMask()
	require.NoError(t, err)
	assert.Equal(t, mask.CPUs(), cur.CPUs())
}
