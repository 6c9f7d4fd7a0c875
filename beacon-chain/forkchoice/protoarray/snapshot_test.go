package protoarray

import (
	"context"
	"encoding/binary"
	"testing"

	fssz "github.com/ferranbt/fastssz"
	forkchoicetypes "github.com/sextantlabs/sextant/beacon-chain/forkchoice/types"
	"github.com/sextantlabs/sextant/config/params"
	"github.com/sextantlabs/sextant/testing/assert"
	"github.com/sextantlabs/sextant/testing/require"
)

// snapshotSetup builds a three node tree with live votes, balances and an
// applied head query so every snapshot section carries data.
func snapshotSetup(t *testing.T) *ForkChoice {
	f := setup(1, 1)
	ctx := context.Background()
	zeroHash := params.BeaconConfig().ZeroHash

	require.NoError(t, f.ProcessBlock(ctx, tstBlock(1, indexToHash(1), zeroHash, [32]byte{}, 1, 1)))
	require.NoError(t, f.ProcessBlock(ctx, tstBlock(1, indexToHash(2), zeroHash, [32]byte{}, 1, 1)))
	f.ProcessAttestation(ctx, []uint64{0}, indexToHash(1), 2)
	f.ProcessAttestation(ctx, []uint64{1}, indexToHash(2), 2)

	r, err := f.Head(ctx, 1, zeroCheckpoint(1), zeroCheckpoint(1), []uint64{2, 1}, zeroHash)
	require.NoError(t, err)
	require.Equal(t, indexToHash(1), r)
	return f
}

func TestSnapshot_MarshalRoundTrip(t *testing.T) {
	f := snapshotSetup(t)
	snap := f.ToSnapshot()
	require.Equal(t, 2, len(snap.Votes))
	require.Equal(t, 3, len(snap.Nodes))
	require.Equal(t, 3, len(snap.Indices))

	// One node carries an unrealized checkpoint so the optional encoding is
	// exercised on both branches.
	snap.Nodes[1].UnrealizedJustifiedCheckpoint = &forkchoicetypes.Checkpoint{Epoch: 2, Root: indexToHash(9)}

	buf, err := snap.MarshalSSZ()
	require.NoError(t, err)
	require.Equal(t, snap.SizeSSZ(), len(buf))

	decoded := new(Snapshot)
	require.NoError(t, decoded.UnmarshalSSZ(buf))
	require.DeepEqual(t, snap, decoded)
}

func TestSnapshot_RebuildsEquivalentForkChoice(t *testing.T) {
	f := snapshotSetup(t)
	ctx := context.Background()
	zeroHash := params.BeaconConfig().ZeroHash

	snap := f.ToSnapshot()
	f2, err := FromSnapshot(snap)
	require.NoError(t, err)
	require.Equal(t, 3, f2.NodeCount())

	// The rebuilt instance snapshots back to the exact same wire form.
	require.DeepEqual(t, snap, f2.ToSnapshot())

	// And agrees on the head.
	r, err := f2.Head(ctx, 1, zeroCheckpoint(1), zeroCheckpoint(1), []uint64{2, 1}, zeroHash)
	require.NoError(t, err)
	assert.Equal(t, indexToHash(1), r)

	w, err := f2.Weight(indexToHash(1))
	require.NoError(t, err)
	assert.Equal(t, uint64(2), w)
}

func TestSnapshot_MarshalRequiresCheckpoints(t *testing.T) {
	f := snapshotSetup(t)

	snap := f.ToSnapshot()
	snap.JustifiedCheckpoint = nil
	_, err := snap.MarshalSSZ()
	require.ErrorIs(t, err, ErrMissingJustifiedCheckpoint)

	snap = f.ToSnapshot()
	snap.Nodes[0].FinalizedCheckpoint = nil
	_, err = snap.MarshalSSZ()
	require.ErrorIs(t, err, ErrMissingFinalizedCheckpoint)
}

func TestSnapshot_UnmarshalMalformed(t *testing.T) {
	f := snapshotSetup(t)
	snap := f.ToSnapshot()
	valid, err := snap.MarshalSSZ()
	require.NoError(t, err)

	// Too short for the fixed part.
	require.ErrorIs(t, new(Snapshot).UnmarshalSSZ(valid[:100]), fssz.ErrSize)

	// A corrupt votes offset.
	corrupt := make([]byte, len(valid))
	copy(corrupt, valid)
	corrupt[0] = 0
	corrupt[1] = 0
	corrupt[2] = 0
	corrupt[3] = 0
	require.ErrorIs(t, new(Snapshot).UnmarshalSSZ(corrupt), fssz.ErrOffset)

	// A truncated tail leaves a ragged index list.
	require.ErrorIs(t, new(Snapshot).UnmarshalSSZ(valid[:len(valid)-1]), fssz.ErrIncorrectListSize)
}

func TestSnapshot_UnmarshalZeroNodeOffset(t *testing.T) {
	cp := &forkchoicetypes.Checkpoint{Epoch: 1, Root: indexToHash(1)}
	snap := &Snapshot{JustifiedCheckpoint: cp, FinalizedCheckpoint: cp}
	enc, err := snap.MarshalSSZ()
	require.NoError(t, err)
	require.Equal(t, int(snapshotContainerFixed), len(enc))

	// Stretch the node region to four zero bytes: a non-empty node list
	// whose first offset is zero.
	bad := append(append(make([]byte, 0, len(enc)+4), enc...), 0, 0, 0, 0)
	binary.LittleEndian.PutUint32(bad[100:104], uint32(len(bad)))

	require.ErrorIs(t, new(Snapshot).UnmarshalSSZ(bad), fssz.ErrOffset)
}

func TestFromSnapshot_Validation(t *testing.T) {
	f := snapshotSetup(t)

	snap := f.ToSnapshot()
	snap.JustifiedCheckpoint = nil
	_, err := FromSnapshot(snap)
	require.ErrorIs(t, err, ErrMissingJustifiedCheckpoint)

	snap = f.ToSnapshot()
	snap.Indices = snap.Indices[:2]
	_, err = FromSnapshot(snap)
	require.ErrorIs(t, err, ErrInvalidNodeIndex)

	snap = f.ToSnapshot()
	snap.Indices[2].Index = 42
	_, err = FromSnapshot(snap)
	require.ErrorIs(t, err, ErrInvalidNodeIndex)

	snap = f.ToSnapshot()
	snap.Indices[2].Root = snap.Indices[0].Root
	_, err = FromSnapshot(snap)
	require.ErrorIs(t, err, ErrInvalidNodeIndex)

	snap = f.ToSnapshot()
	snap.Nodes[1].JustifiedCheckpoint = nil
	_, err = FromSnapshot(snap)
	require.ErrorIs(t, err, ErrMissingJustifiedCheckpoint)
}

func legacyTestSnapshot() *LegacySnapshot {
	return &LegacySnapshot{
		Votes: []*SnapshotVote{
			{CurrentRoot: indexToHash(1), NextRoot: indexToHash(2), NextEpoch: 3},
		},
		Balances:            []uint64{5, 7},
		PruneThreshold:      256,
		JustifiedCheckpoint: zeroCheckpoint(1),
		FinalizedCheckpoint: zeroCheckpoint(1),
		Nodes: []*LegacySnapshotNode{
			{
				Slot:                0,
				Root:                indexToHash(0),
				Parent:              NonExistentNode,
				JustifiedCheckpoint: zeroCheckpoint(1),
				FinalizedCheckpoint: zeroCheckpoint(1),
				BestChild:           1,
				BestDescendant:      1,
				Status:              ExecutionIrrelevant,
			},
			{
				Slot:                1,
				Root:                indexToHash(1),
				Parent:              0,
				JustifiedCheckpoint: zeroCheckpoint(1),
				FinalizedCheckpoint: zeroCheckpoint(1),
				Weight:              5,
				BestChild:           NonExistentNode,
				BestDescendant:      NonExistentNode,
				Status:              ExecutionOptimistic,
				PayloadHash:         [32]byte{'A'},
			},
		},
		Indices: []*SnapshotIndex{
			{Root: indexToHash(0), Index: 0},
			{Root: indexToHash(1), Index: 1},
		},
	}
}

func TestLegacySnapshot_MarshalRoundTrip(t *testing.T) {
	ls := legacyTestSnapshot()

	buf, err := ls.MarshalSSZ()
	require.NoError(t, err)
	require.Equal(t, ls.SizeSSZ(), len(buf))

	decoded := new(LegacySnapshot)
	require.NoError(t, decoded.UnmarshalSSZ(buf))
	require.DeepEqual(t, ls, decoded)
}

func TestLegacySnapshot_Upgrade(t *testing.T) {
	ls := legacyTestSnapshot()

	snap, err := ls.Upgrade()
	require.NoError(t, err)
	require.Equal(t, 2, len(snap.Nodes))
	assert.DeepEqual(t, ls.Votes, snap.Votes)
	assert.DeepEqual(t, ls.Indices, snap.Indices)
	assert.Equal(t, uint64(256), snap.PruneThreshold)

	for i, n := range snap.Nodes {
		assert.Equal(t, ls.Nodes[i].Root, n.Root)
		assert.Equal(t, ls.Nodes[i].Status, n.Status)
		assert.DeepEqual(t, ls.Nodes[i].JustifiedCheckpoint, n.JustifiedCheckpoint)
		assert.Equal(t, (*forkchoicetypes.Checkpoint)(nil), n.UnrealizedJustifiedCheckpoint)
		assert.Equal(t, (*forkchoicetypes.Checkpoint)(nil), n.UnrealizedFinalizedCheckpoint)
	}

	// The upgraded snapshot boots a live instance.
	f, err := FromSnapshot(snap)
	require.NoError(t, err)
	assert.Equal(t, 2, f.NodeCount())
}

func TestLegacySnapshot_UpgradeMissingCheckpoints(t *testing.T) {
	ls := legacyTestSnapshot()
	ls.Nodes[1].JustifiedCheckpoint = nil
	_, err := ls.Upgrade()
	require.ErrorIs(t, err, ErrMissingJustifiedCheckpoint)

	ls = legacyTestSnapshot()
	ls.Nodes[1].FinalizedCheckpoint = nil
	_, err = ls.Upgrade()
	require.ErrorIs(t, err, ErrMissingFinalizedCheckpoint)
}
