package sparse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_SetGetRoundTrip(t *testing.T) {
	s := New[string](16)

	require.NoError(t, s.Set(3, "three"))
	require.NoError(t, s.Set(7, "seven"))

	v, ok := s.Get(3)
	require.True(t, ok)
	assert.Equal(t, "three", v)

	_, ok = s.Get(4)
	assert.False(t, ok, "never-set index should be absent")
	assert.Equal(t, 2, s.Len())
}

func TestStore_OverwriteDoesNotGrowCount(t *testing.T) {
	s := New[int](8)
	require.NoError(t, s.Set(1, 10))
	require.NoError(t, s.Set(1, 20))

	assert.Equal(t, 1, s.Len())
	v, _ := s.Get(1)
	assert.Equal(t, 20, v)
}

func TestStore_OutOfRangeFails(t *testing.T) {
	s := New[int](4)

	err := s.Set(4, 1)
	require.Error(t, err)
	var oor *ErrOutOfRange
	require.ErrorAs(t, err, &oor)
	assert.Equal(t, uint16(4), oor.Index)
	assert.Equal(t, 4, oor.Capacity)

	_, ok := s.Get(100)
	assert.False(t, ok)
	assert.False(t, s.Contains(100))
	assert.False(t, s.Remove(100))
}

func TestStore_RemoveReportsAbsence(t *testing.T) {
	s := New[int](8)
	require.NoError(t, s.Set(2, 5))

	assert.True(t, s.Remove(2))
	assert.False(t, s.Contains(2))
	_, ok := s.Get(2)
	assert.False(t, ok)

	assert.False(t, s.Remove(2), "removing an absent entry is a no-op")
	assert.Equal(t, 0, s.Len())
}

func TestStore_EachAscendingSkipsAbsent(t *testing.T) {
	s := New[int](32)
	for _, i := range []uint16{9, 1, 30, 4} {
		require.NoError(t, s.Set(i, int(i)*10))
	}
	require.True(t, s.Remove(4))

	var indices []uint16
	s.Each(func(i uint16, v int) bool {
		indices = append(indices, i)
		assert.Equal(t, int(i)*10, v)
		return true
	})

	assert.Equal(t, []uint16{1, 9, 30}, indices)
}

func TestStore_EachEarlyStop(t *testing.T) {
	s := New[int](8)
	for i := uint16(0); i < 8; i++ {
		require.NoError(t, s.Set(i, int(i)))
	}

	var visited int
	s.Each(func(i uint16, v int) bool {
		visited++
		return visited < 3
	})
	assert.Equal(t, 3, visited)
}

func TestStore_Clear(t *testing.T) {
	s := New[int](8)
	require.NoError(t, s.Set(0, 1))
	require.NoError(t, s.Set(5, 2))

	s.Clear()

	assert.Equal(t, 0, s.Len())
	assert.False(t, s.Contains(0))
	assert.False(t, s.Contains(5))
}

func BenchmarkStore_Each(b *testing.B) {
	s := New[int](4096)
	for i := uint16(0); i < 4096; i += 4 {
		_ = s.Set(i, int(i))
	}
	b.ReportAllocs()
	b.ResetTimer()
	for b.Loop() {
		sum := 0
		s.Each(func(_ uint16, v int) bool {
			sum += v
			return true
		})
	}
}
