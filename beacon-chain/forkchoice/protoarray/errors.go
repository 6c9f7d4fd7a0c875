package protoarray

import (
	"errors"
	"fmt"

	forkchoicetypes "github.com/sextantlabs/sextant/beacon-chain/forkchoice/types"
	types "github.com/sextantlabs/sextant/consensus-types/primitives"
)

var ErrNilNode = errors.New("invalid nil or unknown node")
var ErrNilBlock = errors.New("invalid nil block")
var ErrNilCheckpoint = errors.New("invalid nil checkpoint")
var ErrUnknownParent = errors.New("unknown parent root")
var ErrUnknownFinalizedRoot = errors.New("unknown finalized root")
var ErrUnknownJustifiedRoot = errors.New("unknown justified root")
var ErrInvalidNodeIndex = errors.New("node index is invalid")
var ErrInvalidParentIndex = errors.New("parent index is invalid")
var ErrInvalidBestChildIndex = errors.New("best child index is invalid")
var ErrInvalidJustifiedIndex = errors.New("justified index is invalid")
var ErrInvalidBestDescendantIndex = errors.New("best descendant index is invalid")
var ErrInvalidNodeDelta = errors.New("node delta is invalid")
var ErrInvalidParentDelta = errors.New("parent delta is invalid")
var ErrInvalidDeltaLength = errors.New("invalid length of delta")
var ErrDeltaOverflow = errors.New("delta overflows")
var ErrNodeDeltaUnderflow = errors.New("node delta underflows its weight")
var ErrProposerBoostOverflow = errors.New("proposer boost overflows")
var ErrReorgThresholdOverflow = errors.New("re-org threshold overflows")
var ErrIndexOverflow = errors.New("node index overflows")
var ErrRevertedFinalizedEpoch = errors.New("cannot revert finalized epoch")
var ErrInvalidFinalizedRootChange = errors.New("cannot change finalized root at the same epoch")
var ErrMissingJustifiedCheckpoint = errors.New("missing justified checkpoint")
var ErrMissingFinalizedCheckpoint = errors.New("missing finalized checkpoint")
var ErrInvalidOptimisticStatus = errors.New("cannot validate an invalid payload")
var ErrInvalidAncestorOfValidPayload = errors.New("invalid ancestor of valid payload")
var ErrValidToInvalid = errors.New("valid payload cannot become invalid")
var ErrUnknownLatestValidAncestor = errors.New("unknown latest valid ancestor hash")
var ErrIrrelevantDescendant = errors.New("node without execution payload descends from an execution block")
var ErrInvalidParentPayloadStatus = errors.New("parent payload is invalid")
var ErrInvalidJustifiedPayloadStatus = errors.New("justified checkpoint payload is invalid")

// Proposer re-org rejections. GetProposerHead returns exactly one of these (or
// a HeadNotWeakError) so callers can log why a re-org was skipped.
var ErrDoNotReorg = errors.New("re-orgs are disabled")
var ErrMissingHeadOrParentNode = errors.New("missing head or parent node")
var ErrHeadDistance = errors.New("head is not from the previous slot")
var ErrDisallowedOffset = errors.New("re-org slot offset is disallowed")
var ErrParentDistance = errors.New("parent is not one slot before head")
var ErrJustificationNotCompetitive = errors.New("head justification is not competitive")
var ErrParentNotViable = errors.New("head's parent is not viable for head")
var ErrChainNotFinalizing = errors.New("chain is not finalizing")

// InvalidBestNodeError is returned when the node reached through the memoized
// best-descendant pointers fails the viability filter. It bundles the store
// view and the rejected head so the inconsistency can be debugged post mortem.
type InvalidBestNodeError struct {
	CurrentSlot             types.Slot
	StartRoot               [32]byte
	JustifiedCheckpoint     *forkchoicetypes.Checkpoint
	FinalizedCheckpoint     *forkchoicetypes.Checkpoint
	HeadRoot                [32]byte
	HeadSlot                types.Slot
	HeadWeight              uint64
	HeadJustifiedCheckpoint *forkchoicetypes.Checkpoint
	HeadFinalizedCheckpoint *forkchoicetypes.Checkpoint
}

func (e *InvalidBestNodeError) Error() string {
	return fmt.Sprintf("head at slot %d with weight %d is not eligible, finalizedEpoch %d != %d, justifiedEpoch %d != %d",
		e.HeadSlot, e.HeadWeight,
		e.HeadFinalizedCheckpoint.Epoch, e.FinalizedCheckpoint.Epoch,
		e.HeadJustifiedCheckpoint.Epoch, e.JustifiedCheckpoint.Epoch)
}

// HeadNotWeakError rejects a proposer re-org because the head gathered enough
// attestation weight to defend its place.
type HeadNotWeakError struct {
	HeadWeight     uint64
	ReorgThreshold uint64
}

func (e *HeadNotWeakError) Error() string {
	return fmt.Sprintf("head weight %d is not weak, re-org threshold is %d", e.HeadWeight, e.ReorgThreshold)
}
