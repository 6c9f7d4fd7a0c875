package protoarray

import (
	"context"

	"github.com/sextantlabs/sextant/config/params"
	types "github.com/sextantlabs/sextant/consensus-types/primitives"
	elasticlist "github.com/sextantlabs/sextant/container/elastic-list"
	mathutil "github.com/sextantlabs/sextant/math"
	"go.opencensus.io/trace"
)

// computeDeltas returns the changes in validator balances and votes as one
// signed delta per node index. It pairs the old and the new balance snapshot
// with each validator's double buffered vote: the weight behind the previous
// vote target is subtracted, the weight behind the new target is added, and
// the vote rotates so a redelivered attestation contributes exactly once.
// Vote targets that do not resolve to a tracked node are skipped, they may
// reference pruned or not yet seen blocks. An equivocating validator has its
// standing weight removed and both vote roots zeroed so it never counts
// again.
//
// When no vote target moved, the deltas sum to the difference of the two
// balance totals.
func computeDeltas(
	ctx context.Context,
	blockIndices map[[32]byte]uint64,
	votes *elasticlist.List[Vote],
	oldBalances, newBalances []uint64,
	equivocatingIndices map[types.ValidatorIndex]bool,
) ([]int, error) {
	_, span := trace.StartSpan(ctx, "protoArrayForkChoice.computeDeltas")
	defer span.End()

	deltas := make([]int, len(blockIndices))
	zeroHash := params.BeaconConfig().ZeroHash

	voteSlice := votes.Slice()
	for validatorIndex := range voteSlice {
		vote := &voteSlice[validatorIndex]

		// There is no need to worry about the validator if it has never voted.
		if vote.currentRoot == zeroHash && vote.nextRoot == zeroHash {
			continue
		}

		oldBalance := uint64(0)
		// Boundary checks the validator index, a validator may be absent from
		// an older balance snapshot.
		if validatorIndex < len(oldBalances) {
			oldBalance = oldBalances[validatorIndex]
		}
		newBalance := uint64(0)
		if validatorIndex < len(newBalances) {
			newBalance = newBalances[validatorIndex]
		}

		if equivocatingIndices[types.ValidatorIndex(validatorIndex)] {
			// A proven equivocation takes the validator's standing weight off
			// its current target once, then mutes the tracker for good.
			if vote.currentRoot != zeroHash {
				if index, ok := blockIndices[vote.currentRoot]; ok {
					if index >= uint64(len(deltas)) {
						return nil, ErrInvalidNodeDelta
					}
					balance, err := mathutil.Int(oldBalance)
					if err != nil {
						return nil, ErrDeltaOverflow
					}
					deltas[index] -= balance
				}
			}
			vote.currentRoot = zeroHash
			vote.nextRoot = zeroHash
			continue
		}

		// Perform delta only if the validator's balance or vote changed.
		if vote.currentRoot != vote.nextRoot || oldBalance != newBalance {
			// Ignore the vote if the root is not in the fork choice store,
			// that means we have not seen the block before.
			nextDeltaIndex, ok := blockIndices[vote.nextRoot]
			if ok {
				// Protection against out of bound, the `nextDeltaIndex` which
				// is the block location in the node list is not allowed to
				// exceed the total node count.
				if nextDeltaIndex >= uint64(len(deltas)) {
					return nil, ErrInvalidNodeDelta
				}
				balance, err := mathutil.Int(newBalance)
				if err != nil {
					return nil, ErrDeltaOverflow
				}
				deltas[nextDeltaIndex] += balance
			}

			currentDeltaIndex, ok := blockIndices[vote.currentRoot]
			if ok {
				// Protection against out of bound (same as above).
				if currentDeltaIndex >= uint64(len(deltas)) {
					return nil, ErrInvalidNodeDelta
				}
				balance, err := mathutil.Int(oldBalance)
				if err != nil {
					return nil, ErrDeltaOverflow
				}
				deltas[currentDeltaIndex] -= balance
			}
		}

		// Rotate the vote, the attestation has been accounted for.
		vote.currentRoot = vote.nextRoot
	}

	return deltas, nil
}
