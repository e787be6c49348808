package affinity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCPUList(t *testing.T) {
	s, err := ParseCPUList("0-3,8,10-11\n")
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2, 3, 8, 10, 11}, s.CPUs())
	assert.Equal(t, 7, s.Count())
	assert.Equal(t, "0-3,8,10-11", s.String())

	empty, err := ParseCPUList("")
	require.NoError(t, err)
	assert.True(t, empty.Empty())

	_, err = ParseCPUList("3-1")
	assert.Error(t, err)
	_, err = ParseCPUList("a-b")
	assert.Error(t, err)
}

func TestCPUSet_LargeIDs(t *testing.T) {
	s := NewCPUSet(1, 64, 130)
	assert.True(t, s.IsSet(64))
	assert.True(t, s.IsSet(130))
	assert.False(t, s.IsSet(65))
	assert.False(t, s.IsSet(-1))

	s.Clear(64)
	assert.Equal(t, []int{1, 130}, s.CPUs())
}

func TestCPUSet_Nth(t *testing.T) {
	s := NewCPUSet(2, 5, 70, 71)
	for i, want := range []int{2, 5, 70, 71} {
		got, ok := s.Nth(i)
		require.True(t, ok)
		assert.Equal(t, want, got)
	}
	_, ok := s.Nth(4)
	assert.False(t, ok)
	_, ok = s.Nth(-1)
	assert.False(t, ok)
}

func TestCPUSet_CloneIntersect(t *testing.T) {
	a := NewCPUSet(0, 1, 2, 3)
	b := a.Clone()
	b.Clear(0)
	assert.True(t, a.IsSet(0), "clone must not alias")

	in := a.Intersect(NewCPUSet(2, 3, 4))
	assert.Equal(t, []int{2, 3}, in.CPUs())
}
