package protoarray

import (
	"context"

	forkchoicetypes "github.com/sextantlabs/sextant/beacon-chain/forkchoice/types"
	fieldparams "github.com/sextantlabs/sextant/config/fieldparams"
	types "github.com/sextantlabs/sextant/consensus-types/primitives"
	"github.com/sextantlabs/sextant/time/slots"
	"go.opencensus.io/trace"
)

// GetProposerHead decides whether the proposer of the current slot should
// discard a single late head block and build on the head's parent instead.
// Every condition has to hold, the first unmet one is returned as a typed
// error naming the rejection reason so callers can log and meter skipped
// re-orgs. The returned root is the one to build on: the head's parent on
// success, the head itself alongside the rejection otherwise.
func (f *ForkChoice) GetProposerHead(
	ctx context.Context,
	currentSlot types.Slot,
	headRoot [fieldparams.RootLength]byte,
	reorgThreshold uint64,
	disallowedOffsets []types.Slot,
	maxEpochsSinceFinalization types.Epoch,
	doNotReorg bool,
) ([32]byte, error) {
	_, span := trace.StartSpan(ctx, "protoArrayForkChoice.GetProposerHead")
	defer span.End()

	if doNotReorg {
		return headRoot, ErrDoNotReorg
	}

	f.votesLock.RLock()
	defer f.votesLock.RUnlock()
	s := f.store
	s.nodesLock.RLock()
	defer s.nodesLock.RUnlock()

	if s.finalizedCheckpoint == nil {
		return headRoot, ErrMissingFinalizedCheckpoint
	}

	headIndex, ok := s.nodesIndices[headRoot]
	if !ok {
		return headRoot, ErrMissingHeadOrParentNode
	}
	head := s.nodes[headIndex]
	if head.parent == NonExistentNode || head.parent >= uint64(len(s.nodes)) {
		return headRoot, ErrMissingHeadOrParentNode
	}
	parent := s.nodes[head.parent]

	// Only a head from the immediately preceding slot is ever re-orged,
	// anything older would discard more than one block.
	if head.slot.Add(1) != currentSlot {
		return headRoot, ErrHeadDistance
	}

	// Certain in-epoch offsets are never re-org targets, re-orging across
	// them would interfere with finality timing.
	offset := slots.SinceEpochStarts(currentSlot)
	for _, disallowed := range disallowedOffsets {
		if offset == disallowed {
			return headRoot, ErrDisallowedOffset
		}
	}

	// The parent has to sit directly below the head, a longer gap means the
	// chain already skipped slots here.
	if parent.slot.Add(1) != head.slot {
		return headRoot, ErrParentDistance
	}

	if !s.viableForHead(parent, currentSlot) {
		return headRoot, ErrParentNotViable
	}

	// The head may not carry better justification than its parent, otherwise
	// discarding it would throw that progress away.
	if pickCheckpointEpoch(head.unrealizedJustifiedCheckpoint, head.justifiedCheckpoint) != pickCheckpointEpoch(parent.unrealizedJustifiedCheckpoint, parent.justifiedCheckpoint) ||
		pickCheckpointEpoch(head.unrealizedFinalizedCheckpoint, head.finalizedCheckpoint) != pickCheckpointEpoch(parent.unrealizedFinalizedCheckpoint, parent.finalizedCheckpoint) {
		return headRoot, ErrJustificationNotCompetitive
	}

	// Do not re-org on a chain that is struggling to finalize.
	currentEpoch := slots.ToEpoch(currentSlot)
	if currentEpoch > s.finalizedCheckpoint.Epoch.AddEpoch(maxEpochsSinceFinalization) {
		return headRoot, ErrChainNotFinalizing
	}

	threshold, err := calculateCommitteeFraction(f.balances, reorgThreshold)
	if err != nil {
		return headRoot, ErrReorgThresholdOverflow
	}
	if head.weight >= threshold {
		return headRoot, &HeadNotWeakError{HeadWeight: head.weight, ReorgThreshold: threshold}
	}

	log.WithField("headRoot", headRoot).WithField("parentRoot", parent.root).
		WithField("headWeight", head.weight).WithField("threshold", threshold).
		Debug("Proposing atop the head's parent, head block is late and weak")
	return parent.root, nil
}

// pickCheckpointEpoch prefers the unrealized checkpoint's epoch and falls
// back to the realized one.
func pickCheckpointEpoch(unrealized, realized *forkchoicetypes.Checkpoint) types.Epoch {
	if unrealized != nil {
		return unrealized.Epoch
	}
	if realized != nil {
		return realized.Epoch
	}
	return 0
}
