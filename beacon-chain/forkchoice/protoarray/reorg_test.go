package protoarray

import (
	"context"
	"testing"

	"github.com/sextantlabs/sextant/config/params"
	types "github.com/sextantlabs/sextant/consensus-types/primitives"
	"github.com/sextantlabs/sextant/testing/assert"
	"github.com/sextantlabs/sextant/testing/require"
)

// reorgSetup builds anchor <- 1 <- 2 with a head query at slot 2 so the
// justified balances are populated. 64 validators of balance 10 put the
// 20% re-org threshold at 4.
func reorgSetup(t *testing.T) *ForkChoice {
	f := setup(1, 1)
	ctx := context.Background()
	zeroHash := params.BeaconConfig().ZeroHash

	require.NoError(t, f.ProcessBlock(ctx, tstBlock(1, indexToHash(1), zeroHash, [32]byte{}, 1, 1)))
	require.NoError(t, f.ProcessBlock(ctx, tstBlock(2, indexToHash(2), indexToHash(1), [32]byte{}, 1, 1)))

	balances := make([]uint64, 64)
	for i := range balances {
		balances[i] = 10
	}
	r, err := f.Head(ctx, 2, zeroCheckpoint(1), zeroCheckpoint(1), balances, zeroHash)
	require.NoError(t, err)
	require.Equal(t, indexToHash(2), r)
	return f
}

func TestGetProposerHead_ReorgsWeakHead(t *testing.T) {
	f := reorgSetup(t)

	r, err := f.GetProposerHead(context.Background(), 3, indexToHash(2), 20, []types.Slot{0}, 2, false)
	require.NoError(t, err)
	assert.Equal(t, indexToHash(1), r)
}

func TestGetProposerHead_Disabled(t *testing.T) {
	f := reorgSetup(t)

	r, err := f.GetProposerHead(context.Background(), 3, indexToHash(2), 20, []types.Slot{0}, 2, true)
	require.ErrorIs(t, err, ErrDoNotReorg)
	assert.Equal(t, indexToHash(2), r)
}

func TestGetProposerHead_UnknownHead(t *testing.T) {
	f := reorgSetup(t)

	r, err := f.GetProposerHead(context.Background(), 3, [32]byte{'z'}, 20, []types.Slot{0}, 2, false)
	require.ErrorIs(t, err, ErrMissingHeadOrParentNode)
	assert.Equal(t, [32]byte{'z'}, r)
}

func TestGetProposerHead_HeadDistance(t *testing.T) {
	f := reorgSetup(t)

	// The head is two slots old, a re-org would discard more than one block.
	r, err := f.GetProposerHead(context.Background(), 4, indexToHash(2), 20, []types.Slot{0}, 2, false)
	require.ErrorIs(t, err, ErrHeadDistance)
	assert.Equal(t, indexToHash(2), r)
}

func TestGetProposerHead_DisallowedOffset(t *testing.T) {
	f := reorgSetup(t)

	r, err := f.GetProposerHead(context.Background(), 3, indexToHash(2), 20, []types.Slot{3}, 2, false)
	require.ErrorIs(t, err, ErrDisallowedOffset)
	assert.Equal(t, indexToHash(2), r)
}

func TestGetProposerHead_ParentDistance(t *testing.T) {
	f := reorgSetup(t)
	ctx := context.Background()

	// Block 3 skipped a slot above its parent 1.
	require.NoError(t, f.ProcessBlock(ctx, tstBlock(3, indexToHash(3), indexToHash(1), [32]byte{}, 1, 1)))

	r, err := f.GetProposerHead(ctx, 4, indexToHash(3), 20, []types.Slot{0}, 2, false)
	require.ErrorIs(t, err, ErrParentDistance)
	assert.Equal(t, indexToHash(3), r)
}

func TestGetProposerHead_JustificationNotCompetitive(t *testing.T) {
	f := reorgSetup(t)
	ctx := context.Background()

	// Block 4 carries a newer justified checkpoint than its parent, a re-org
	// would throw that justification away.
	require.NoError(t, f.ProcessBlock(ctx, tstBlock(3, indexToHash(4), indexToHash(2), [32]byte{}, 2, 1)))

	r, err := f.GetProposerHead(ctx, 4, indexToHash(4), 20, []types.Slot{0}, 2, false)
	require.ErrorIs(t, err, ErrJustificationNotCompetitive)
	assert.Equal(t, indexToHash(4), r)
}

func TestGetProposerHead_ChainNotFinalizing(t *testing.T) {
	f := setup(1, 1)
	ctx := context.Background()
	zeroHash := params.BeaconConfig().ZeroHash

	require.NoError(t, f.ProcessBlock(ctx, tstBlock(96, indexToHash(1), zeroHash, [32]byte{}, 1, 1)))
	require.NoError(t, f.ProcessBlock(ctx, tstBlock(97, indexToHash(2), indexToHash(1), [32]byte{}, 1, 1)))

	balances := make([]uint64, 64)
	for i := range balances {
		balances[i] = 10
	}
	_, err := f.Head(ctx, 97, zeroCheckpoint(1), zeroCheckpoint(1), balances, zeroHash)
	require.NoError(t, err)

	// Epoch 3, finalized epoch 1, only one epoch of slack allowed.
	r, err := f.GetProposerHead(ctx, 98, indexToHash(2), 20, []types.Slot{0}, 1, false)
	require.ErrorIs(t, err, ErrChainNotFinalizing)
	assert.Equal(t, indexToHash(2), r)

	// With more slack the same head re-orgs fine.
	r, err = f.GetProposerHead(ctx, 98, indexToHash(2), 20, []types.Slot{0}, 10, false)
	require.NoError(t, err)
	assert.Equal(t, indexToHash(1), r)
}

func TestGetProposerHead_HeadNotWeak(t *testing.T) {
	f := reorgSetup(t)
	ctx := context.Background()
	zeroHash := params.BeaconConfig().ZeroHash

	// One vote of weight 10 lands on the head, well over the threshold of 4.
	f.ProcessAttestation(ctx, []uint64{0}, indexToHash(2), 2)
	balances := make([]uint64, 64)
	for i := range balances {
		balances[i] = 10
	}
	_, err := f.Head(ctx, 2, zeroCheckpoint(1), zeroCheckpoint(1), balances, zeroHash)
	require.NoError(t, err)

	r, err := f.GetProposerHead(ctx, 3, indexToHash(2), 20, []types.Slot{0}, 2, false)
	require.ErrorContains(t, "is not weak", err)
	assert.Equal(t, indexToHash(2), r)

	notWeak, ok := err.(*HeadNotWeakError)
	require.Equal(t, true, ok)
	assert.Equal(t, uint64(10), notWeak.HeadWeight)
	assert.Equal(t, uint64(4), notWeak.ReorgThreshold)
}
