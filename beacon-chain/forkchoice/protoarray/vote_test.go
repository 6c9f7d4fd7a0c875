package protoarray

import (
	"context"
	"testing"

	forkchoicetypes "github.com/sextantlabs/sextant/beacon-chain/forkchoice/types"
	"github.com/sextantlabs/sextant/config/params"
	"github.com/sextantlabs/sextant/testing/assert"
	"github.com/sextantlabs/sextant/testing/require"
)

func TestVotes_CanFindHead(t *testing.T) {
	balances := []uint64{1, 1}
	f := setup(1, 1)
	ctx := context.Background()
	zeroHash := params.BeaconConfig().ZeroHash

	// The head should always start at the finalized block.
	r, err := f.Head(ctx, 0, zeroCheckpoint(1), zeroCheckpoint(1), balances, zeroHash)
	require.NoError(t, err)
	assert.Equal(t, zeroHash, r, "Incorrect head with genesis")

	// Insert block 2 into the tree and verify head is at 2:
	//         0
	//        /
	//       2 <- head
	require.NoError(t, f.ProcessBlock(ctx, tstBlock(0, indexToHash(2), zeroHash, [32]byte{}, 1, 1)))

	r, err = f.Head(ctx, 0, zeroCheckpoint(1), zeroCheckpoint(1), balances, zeroHash)
	require.NoError(t, err)
	assert.Equal(t, indexToHash(2), r, "Incorrect head for with justified epoch at 1")

	// Insert block 1 into the tree and verify head is still at 2:
	//            0
	//           / \
	//  head -> 2  1
	require.NoError(t, f.ProcessBlock(ctx, tstBlock(0, indexToHash(1), zeroHash, [32]byte{}, 1, 1)))

	r, err = f.Head(ctx, 0, zeroCheckpoint(1), zeroCheckpoint(1), balances, zeroHash)
	require.NoError(t, err)
	assert.Equal(t, indexToHash(2), r, "Incorrect head for with justified epoch at 1")

	// Add a vote to block 1 of the tree and verify head is switched to 1:
	//            0
	//           / \
	//          2  1 <- +vote, new head
	f.ProcessAttestation(ctx, []uint64{0}, indexToHash(1), 2)
	r, err = f.Head(ctx, 0, zeroCheckpoint(1), zeroCheckpoint(1), balances, zeroHash)
	require.NoError(t, err)
	assert.Equal(t, indexToHash(1), r, "Incorrect head for with justified epoch at 1")

	// Add a vote to block 2 of the tree and verify head is switched to 2:
	//                     0
	//                    / \
	// vote, new head -> 2  1
	f.ProcessAttestation(ctx, []uint64{1}, indexToHash(2), 2)
	r, err = f.Head(ctx, 0, zeroCheckpoint(1), zeroCheckpoint(1), balances, zeroHash)
	require.NoError(t, err)
	assert.Equal(t, indexToHash(2), r, "Incorrect head for with justified epoch at 1")

	// Insert block 3 into the tree and verify head is still at 2:
	//            0
	//           / \
	//  head -> 2  1
	//             |
	//             3
	require.NoError(t, f.ProcessBlock(ctx, tstBlock(0, indexToHash(3), indexToHash(1), [32]byte{}, 1, 1)))

	r, err = f.Head(ctx, 0, zeroCheckpoint(1), zeroCheckpoint(1), balances, zeroHash)
	require.NoError(t, err)
	assert.Equal(t, indexToHash(2), r, "Incorrect head for with justified epoch at 1")

	// Move validator 0's vote from 1 to 3 and verify head is still at 2:
	//            0
	//           / \
	//  head -> 2  1 <- old vote
	//             |
	//             3 <- new vote
	f.ProcessAttestation(ctx, []uint64{0}, indexToHash(3), 3)
	r, err = f.Head(ctx, 0, zeroCheckpoint(1), zeroCheckpoint(1), balances, zeroHash)
	require.NoError(t, err)
	assert.Equal(t, indexToHash(2), r, "Incorrect head for with justified epoch at 1")

	// Move validator 1's vote from 2 to 1 and verify head is switched to 3:
	//               0
	//              / \
	// old vote -> 2  1 <- new vote
	//                |
	//                3 <- head
	f.ProcessAttestation(ctx, []uint64{1}, indexToHash(1), 3)
	r, err = f.Head(ctx, 0, zeroCheckpoint(1), zeroCheckpoint(1), balances, zeroHash)
	require.NoError(t, err)
	assert.Equal(t, indexToHash(3), r, "Incorrect head for with justified epoch at 1")

	// Insert block 4 into the tree and verify head is at 4:
	//            0
	//           / \
	//          2  1
	//             |
	//             3
	//             |
	//             4 <- head
	require.NoError(t, f.ProcessBlock(ctx, tstBlock(0, indexToHash(4), indexToHash(3), [32]byte{}, 1, 1)))

	r, err = f.Head(ctx, 0, zeroCheckpoint(1), zeroCheckpoint(1), balances, zeroHash)
	require.NoError(t, err)
	assert.Equal(t, indexToHash(4), r, "Incorrect head for with justified epoch at 1")

	// Insert block 5 with justified epoch 2, it does not descend from the
	// finalized checkpoint the store sees, so it should be filtered out:
	//            0
	//           / \
	//          2  1
	//             |
	//             3
	//             |
	//             4 <- head
	//            /
	//           5 <- justified epoch = 2
	require.NoError(t, f.ProcessBlock(ctx, tstBlock(0, indexToHash(5), indexToHash(4), [32]byte{}, 2, 2)))

	r, err = f.Head(ctx, 0, zeroCheckpoint(1), zeroCheckpoint(1), balances, zeroHash)
	require.NoError(t, err)
	assert.Equal(t, indexToHash(4), r, "Incorrect head for with justified epoch at 1")

	// Insert block 6 with justified epoch 1:
	//            0
	//           / \
	//          2  1
	//             |
	//             3
	//             |
	//             4 <- head
	//            / \
	//           5  6 <- justified epoch = 1
	require.NoError(t, f.ProcessBlock(ctx, tstBlock(0, indexToHash(6), indexToHash(4), [32]byte{}, 1, 1)))

	// Moved 2 votes to block 5:
	//            0
	//           / \
	//          2  1
	//             |
	//             3
	//             |
	//             4
	//            / \
	// 2 votes-> 5  6
	f.ProcessAttestation(ctx, []uint64{0, 1}, indexToHash(5), 4)

	// Insert blocks 7, 8 and 9:
	// 6 should still be the head, even though 5 has all the votes.
	//            0
	//           / \
	//          2  1
	//             |
	//             3
	//             |
	//             4
	//            / \
	//           5  6 <- head
	//           |
	//           7
	//           |
	//           8
	//           |
	//           9
	require.NoError(t, f.ProcessBlock(ctx, tstBlock(0, indexToHash(7), indexToHash(5), [32]byte{}, 2, 2)))
	require.NoError(t, f.ProcessBlock(ctx, tstBlock(0, indexToHash(8), indexToHash(7), [32]byte{}, 2, 2)))
	require.NoError(t, f.ProcessBlock(ctx, tstBlock(0, indexToHash(9), indexToHash(8), [32]byte{}, 2, 2)))

	r, err = f.Head(ctx, 0, zeroCheckpoint(1), zeroCheckpoint(1), balances, zeroHash)
	require.NoError(t, err)
	assert.Equal(t, indexToHash(6), r, "Incorrect head for with justified epoch at 1")

	// Update fork choice justified epoch to 2 and start block to 5.
	// Verify 9 is the head:
	//            0
	//           / \
	//          2  1
	//             |
	//             3
	//             |
	//             4
	//            / \
	//           5  6
	//           |
	//           7
	//           |
	//           8
	//           |
	//           9 <- head
	justified := &forkchoicetypes.Checkpoint{Epoch: 2, Root: indexToHash(5)}
	r, err = f.Head(ctx, 0, justified, zeroCheckpoint(2), balances, zeroHash)
	require.NoError(t, err)
	assert.Equal(t, indexToHash(9), r, "Incorrect head for with justified epoch at 2")

	// Insert block 10 and 2 validators updated their vote to 9.
	// Verify 9 is the head:
	//             0
	//            / \
	//           2  1
	//              |
	//              3
	//              |
	//              4
	//             / \
	//            5  6
	//            |
	//            7
	//            |
	//            8
	//           / \
	// 2 votes->9  10
	f.ProcessAttestation(ctx, []uint64{0, 1}, indexToHash(9), 5)
	require.NoError(t, f.ProcessBlock(ctx, tstBlock(0, indexToHash(10), indexToHash(8), [32]byte{}, 2, 2)))

	r, err = f.Head(ctx, 0, justified, zeroCheckpoint(2), balances, zeroHash)
	require.NoError(t, err)
	assert.Equal(t, indexToHash(9), r, "Incorrect head for with justified epoch at 2")

	// Add 3 more validators to the system.
	balances = []uint64{1, 1, 1, 1, 1}
	// The new validators voted for 10.
	f.ProcessAttestation(ctx, []uint64{2, 3, 4}, indexToHash(10), 5)
	// The new head should be 10.
	r, err = f.Head(ctx, 0, justified, zeroCheckpoint(2), balances, zeroHash)
	require.NoError(t, err)
	assert.Equal(t, indexToHash(10), r, "Incorrect head for with justified epoch at 2")

	// Set the balances of the last 2 validators to 0.
	balances = []uint64{1, 1, 1, 0, 0}
	// The head should be back to 9.
	r, err = f.Head(ctx, 0, justified, zeroCheckpoint(2), balances, zeroHash)
	require.NoError(t, err)
	assert.Equal(t, indexToHash(9), r, "Incorrect head after removing weight")

	// Set the balances back to normal.
	balances = []uint64{1, 1, 1, 1, 1}
	// The head should be back to 10.
	r, err = f.Head(ctx, 0, justified, zeroCheckpoint(2), balances, zeroHash)
	require.NoError(t, err)
	assert.Equal(t, indexToHash(10), r, "Incorrect head after restoring weight")

	// Remove the last 2 validators.
	balances = []uint64{1, 1, 1}
	// The head should be back to 9.
	r, err = f.Head(ctx, 0, justified, zeroCheckpoint(2), balances, zeroHash)
	require.NoError(t, err)
	assert.Equal(t, indexToHash(9), r, "Incorrect head after removing validators")

	// Verify pruning below the prune threshold does not affect head.
	f.SetPruneThreshold(1000)
	require.NoError(t, f.Prune(ctx, indexToHash(5)))
	assert.Equal(t, 11, f.NodeCount(), "Incorrect nodes length after prune")

	r, err = f.Head(ctx, 0, justified, zeroCheckpoint(2), balances, zeroHash)
	require.NoError(t, err)
	assert.Equal(t, indexToHash(9), r, "Incorrect head for with justified epoch at 2")

	// Verify pruning above the prune threshold does prune:
	//          0
	//         / \
	//        2   1
	//            |
	//            3
	//            |
	//            4
	// -------pruned here ------
	//          5   6
	//          |
	//          7
	//          |
	//          8
	//         / \
	//        9  10
	f.SetPruneThreshold(1)
	require.NoError(t, f.Prune(ctx, indexToHash(5)))
	assert.Equal(t, 6, f.NodeCount(), "Incorrect nodes length after prune")

	r, err = f.Head(ctx, 0, justified, zeroCheckpoint(2), balances, zeroHash)
	require.NoError(t, err)
	assert.Equal(t, indexToHash(9), r, "Incorrect head for with justified epoch at 2")

	// Insert new block 11 and verify head is at 11.
	//          5   6
	//          |
	//          7
	//          |
	//          8
	//         / \
	//        9  10
	//        |
	// head-> 11
	require.NoError(t, f.ProcessBlock(ctx, tstBlock(0, indexToHash(11), indexToHash(9), [32]byte{}, 2, 2)))

	r, err = f.Head(ctx, 0, justified, zeroCheckpoint(2), balances, zeroHash)
	require.NoError(t, err)
	assert.Equal(t, indexToHash(11), r, "Incorrect head for with justified epoch at 2")
}

func TestVotes_EquivocatingValidatorLosesWeight(t *testing.T) {
	balances := []uint64{2, 1}
	f := setup(1, 1)
	ctx := context.Background()
	zeroHash := params.BeaconConfig().ZeroHash

	// Two competing children of the anchor, the heavier validator 0 backs
	// block 1, validator 1 backs block 2.
	require.NoError(t, f.ProcessBlock(ctx, tstBlock(0, indexToHash(1), zeroHash, [32]byte{}, 1, 1)))
	require.NoError(t, f.ProcessBlock(ctx, tstBlock(0, indexToHash(2), zeroHash, [32]byte{}, 1, 1)))
	f.ProcessAttestation(ctx, []uint64{0}, indexToHash(1), 2)
	f.ProcessAttestation(ctx, []uint64{1}, indexToHash(2), 2)

	r, err := f.Head(ctx, 0, zeroCheckpoint(1), zeroCheckpoint(1), balances, zeroHash)
	require.NoError(t, err)
	assert.Equal(t, indexToHash(1), r, "Head should follow the heavier vote")

	// Validator 0 equivocates, its weight comes off block 1 and the head
	// flips to block 2.
	f.InsertSlashedIndex(ctx, 0)
	r, err = f.Head(ctx, 0, zeroCheckpoint(1), zeroCheckpoint(1), balances, zeroHash)
	require.NoError(t, err)
	assert.Equal(t, indexToHash(2), r, "Head should ignore the equivocating validator")

	w, err := f.Weight(indexToHash(1))
	require.NoError(t, err)
	assert.Equal(t, uint64(0), w, "Equivocating weight should be removed")

	// Later attestations by the slashed validator no longer move the head.
	f.ProcessAttestation(ctx, []uint64{0}, indexToHash(1), 3)
	r, err = f.Head(ctx, 0, zeroCheckpoint(1), zeroCheckpoint(1), balances, zeroHash)
	require.NoError(t, err)
	assert.Equal(t, indexToHash(2), r, "Head should stay ignoring the equivocating validator")
}
