package elasticlist

import (
	"testing"

	"github.com/sextantlabs/sextant/testing/assert"
	"github.com/sextantlabs/sextant/testing/require"
)

func TestList_GrowsOnAccess(t *testing.T) {
	l := New[uint64]()
	assert.Equal(t, 0, l.Len())

	// Reading far beyond the end materializes zero values.
	assert.Equal(t, uint64(0), l.Get(4))
	assert.Equal(t, 5, l.Len())
	for _, v := range l.Slice() {
		assert.Equal(t, uint64(0), v)
	}
}

func TestList_AtReturnsAddressableElement(t *testing.T) {
	type vote struct {
		root  [32]byte
		epoch uint64
	}
	l := New[vote]()
	v := l.At(2)
	v.epoch = 7
	v.root = [32]byte{'a'}

	got := l.Get(2)
	assert.Equal(t, uint64(7), got.epoch)
	assert.Equal(t, [32]byte{'a'}, got.root)

	// Untouched neighbors stay zero.
	assert.Equal(t, vote{}, l.Get(0))
	assert.Equal(t, vote{}, l.Get(1))
}

func TestList_SetGrowsAndStores(t *testing.T) {
	l := New[string]()
	l.Set(3, "d")
	require.Equal(t, 4, l.Len())
	assert.Equal(t, "", l.Get(0))
	assert.Equal(t, "d", l.Get(3))

	l.Set(0, "a")
	assert.Equal(t, "a", l.Get(0))
	assert.Equal(t, 4, l.Len())
}

func TestList_FromSliceRetainsBacking(t *testing.T) {
	backing := []int{1, 2, 3}
	l := FromSlice(backing)
	require.Equal(t, 3, l.Len())

	l.At(1)
	backing[1] = 9
	assert.Equal(t, 9, l.Get(1))
}

func TestList_CopyDetaches(t *testing.T) {
	l := FromSlice([]int{1, 2, 3})
	c := l.Copy()
	require.Equal(t, l.Len(), c.Len())

	*l.At(0) = 100
	assert.Equal(t, 1, c.Get(0))
	assert.Equal(t, 100, l.Get(0))
}
