package kv

import (
	"context"
	"testing"

	"github.com/sextantlabs/sextant/beacon-chain/forkchoice/protoarray"
	"github.com/sextantlabs/sextant/testing/assert"
	"github.com/sextantlabs/sextant/testing/require"
	bolt "go.etcd.io/bbolt"
)

func legacySnapshot() *protoarray.LegacySnapshot {
	cp := checkpoint(1, blockRoot(0))
	return &protoarray.LegacySnapshot{
		Votes: []*protoarray.SnapshotVote{
			{CurrentRoot: blockRoot(0), NextRoot: blockRoot(1), NextEpoch: 2},
		},
		Balances:            []uint64{5, 7},
		PruneThreshold:      256,
		JustifiedCheckpoint: cp,
		FinalizedCheckpoint: cp,
		Nodes: []*protoarray.LegacySnapshotNode{
			{
				Slot:                0,
				Root:                blockRoot(0),
				Parent:              protoarray.NonExistentNode,
				JustifiedCheckpoint: cp,
				FinalizedCheckpoint: cp,
				BestChild:           1,
				BestDescendant:      1,
				Status:              protoarray.ExecutionIrrelevant,
			},
			{
				Slot:                1,
				Root:                blockRoot(1),
				Parent:              0,
				JustifiedCheckpoint: cp,
				FinalizedCheckpoint: cp,
				Weight:              5,
				BestChild:           protoarray.NonExistentNode,
				BestDescendant:      protoarray.NonExistentNode,
				Status:              protoarray.ExecutionOptimistic,
			},
		},
		Indices: []*protoarray.SnapshotIndex{
			{Root: blockRoot(0), Index: 0},
			{Root: blockRoot(1), Index: 1},
		},
	}
}

// seedLegacy writes legacy snapshot bytes the way pre-upgrade releases did.
func seedLegacy(t *testing.T, s *Store, legacy *protoarray.LegacySnapshot) {
	enc, err := encode(legacy)
	require.NoError(t, err)
	require.NoError(t, s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(forkchoiceBucket).Put(forkchoiceLegacySnapshotKey, enc)
	}))
}

func TestMigrateLegacySnapshot_UpgradesInPlace(t *testing.T) {
	s := setupDB(t)
	ctx := context.Background()

	legacy := legacySnapshot()
	seedLegacy(t, s, legacy)
	require.NoError(t, s.RunMigrations(ctx))

	got, err := s.ForkChoiceSnapshot(ctx)
	require.NoError(t, err)
	upgraded, err := legacy.Upgrade()
	require.NoError(t, err)
	require.DeepEqual(t, upgraded, got)

	// The legacy key is gone and the migration is marked done.
	require.NoError(t, s.db.View(func(tx *bolt.Tx) error {
		assert.Equal(t, 0, len(tx.Bucket(forkchoiceBucket).Get(forkchoiceLegacySnapshotKey)))
		assert.Equal(t, "done", string(tx.Bucket(migrationsBucket).Get(migrationLegacySnapshot0Key)))
		return nil
	}))

	// The upgraded snapshot rebuilds a working engine.
	f, err := protoarray.FromSnapshot(got)
	require.NoError(t, err)
	assert.Equal(t, 2, f.NodeCount())
}

func TestMigrateLegacySnapshot_CurrentSnapshotWins(t *testing.T) {
	s := setupDB(t)
	ctx := context.Background()

	current := testSnapshot(t)
	require.NoError(t, s.SaveForkChoiceSnapshot(ctx, current))
	seedLegacy(t, s, legacySnapshot())
	require.NoError(t, s.RunMigrations(ctx))

	got, err := s.ForkChoiceSnapshot(ctx)
	require.NoError(t, err)
	require.DeepEqual(t, current, got)
}

func TestMigrateLegacySnapshot_SecondRunIsNoop(t *testing.T) {
	s := setupDB(t)
	ctx := context.Background()

	seedLegacy(t, s, legacySnapshot())
	require.NoError(t, s.RunMigrations(ctx))
	before, err := s.ForkChoiceSnapshot(ctx)
	require.NoError(t, err)

	require.NoError(t, s.RunMigrations(ctx))
	after, err := s.ForkChoiceSnapshot(ctx)
	require.NoError(t, err)
	require.DeepEqual(t, before, after)
}

func TestMigrateLegacySnapshot_CanceledContext(t *testing.T) {
	s := setupDB(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorContains(t, "context canceled", s.RunMigrations(ctx))
}
