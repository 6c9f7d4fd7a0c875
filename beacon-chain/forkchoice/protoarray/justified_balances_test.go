package protoarray

import (
	"math"
	"testing"

	"github.com/sextantlabs/sextant/testing/assert"
	"github.com/sextantlabs/sextant/testing/require"
)

func TestNewJustifiedBalances(t *testing.T) {
	jb, err := NewJustifiedBalances([]uint64{10, 0, 20, 0, 30})
	require.NoError(t, err)
	assert.Equal(t, uint64(60), jb.TotalEffectiveBalance())
	assert.Equal(t, uint64(3), jb.NumActiveValidators())
	assert.DeepEqual(t, []uint64{10, 0, 20, 0, 30}, jb.Balances())
}

func TestNewJustifiedBalances_Empty(t *testing.T) {
	jb, err := NewJustifiedBalances(nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), jb.TotalEffectiveBalance())
	assert.Equal(t, uint64(0), jb.NumActiveValidators())
}

func TestNewJustifiedBalances_Overflow(t *testing.T) {
	_, err := NewJustifiedBalances([]uint64{math.MaxUint64, 1})
	require.ErrorContains(t, "could not sum effective balances", err)
}
