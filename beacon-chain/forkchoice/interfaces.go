// Package forkchoice defines the interfaces the fork-choice engine exposes to
// the rest of the beacon node and the store interface it consumes from it.
package forkchoice

import (
	"context"

	forkchoicetypes "github.com/sextantlabs/sextant/beacon-chain/forkchoice/types"
	fieldparams "github.com/sextantlabs/sextant/config/fieldparams"
	types "github.com/sextantlabs/sextant/consensus-types/primitives"
)

// ForkChoicer represents the full fork choice interface composed of all the sub-interfaces.
type ForkChoicer interface {
	HeadRetriever        // to compute head.
	BlockProcessor       // to track new block for fork choice.
	AttestationProcessor // to track new attestation for fork choice.
	Getter               // to retrieve fork choice information.
	Setter               // to set fork choice information.
}

// HeadRetriever retrieves the head root of the current chain and the proposer
// re-org decision for the current slot.
type HeadRetriever interface {
	Head(ctx context.Context, currentSlot types.Slot, justifiedCheckpoint, finalizedCheckpoint *forkchoicetypes.Checkpoint, justifiedStateBalances []uint64, proposerBoostRoot [fieldparams.RootLength]byte) ([32]byte, error)
	HeadFromStore(ctx context.Context, st Storer) ([32]byte, error)
	GetProposerHead(ctx context.Context, currentSlot types.Slot, headRoot [fieldparams.RootLength]byte, reorgThreshold uint64, disallowedOffsets []types.Slot, maxEpochsSinceFinalization types.Epoch, doNotReorg bool) ([32]byte, error)
}

// BlockProcessor processes the block that's used for accounting fork choice.
type BlockProcessor interface {
	ProcessBlock(ctx context.Context, blk *forkchoicetypes.Block) error
}

// AttestationProcessor processes the attestation that's used for accounting fork choice.
type AttestationProcessor interface {
	ProcessAttestation(ctx context.Context, validatorIndices []uint64, blockRoot [fieldparams.RootLength]byte, targetEpoch types.Epoch)
	InsertSlashedIndex(ctx context.Context, index types.ValidatorIndex)
}

// Getter returns fork choice related information.
type Getter interface {
	HasNode(root [fieldparams.RootLength]byte) bool
	HasParent(root [fieldparams.RootLength]byte) bool
	NodeCount() int
	Weight(root [fieldparams.RootLength]byte) (uint64, error)
	IsOptimistic(root [fieldparams.RootLength]byte) (bool, error)
	IsCanonical(root [fieldparams.RootLength]byte) bool
	IsDescendant(ancestorRoot, descendantRoot [fieldparams.RootLength]byte) bool
	AncestorRoot(ctx context.Context, root [fieldparams.RootLength]byte, slot types.Slot) ([32]byte, error)
	LatestMessage(index types.ValidatorIndex) ([32]byte, types.Epoch, bool)
	JustifiedCheckpoint() *forkchoicetypes.Checkpoint
	FinalizedCheckpoint() *forkchoicetypes.Checkpoint
	ProposerBoost() [fieldparams.RootLength]byte
}

// Setter allows to set fork choice information.
type Setter interface {
	SetOptimisticToValid(ctx context.Context, root [fieldparams.RootLength]byte) error
	SetOptimisticToInvalid(ctx context.Context, root, parentRoot, payloadHash [fieldparams.RootLength]byte) ([][32]byte, error)
	SetPruneThreshold(t uint64)
	Prune(ctx context.Context, finalizedRoot [fieldparams.RootLength]byte) error
}

// Storer is the interface fork choice consumes from the blockchain package's
// store. Fork choice only reads from it; checkpoint advancement and
// equivocation bookkeeping stay with the store's owner. The engine trusts the
// store to keep checkpoints monotonic and does not re-validate them.
type Storer interface {
	CurrentSlot() types.Slot
	JustifiedCheckpoint() *forkchoicetypes.Checkpoint
	FinalizedCheckpoint() *forkchoicetypes.Checkpoint
	UnrealizedJustifiedCheckpoint() *forkchoicetypes.Checkpoint
	UnrealizedFinalizedCheckpoint() *forkchoicetypes.Checkpoint
	JustifiedBalances() []uint64
	ProposerBoostRoot() [fieldparams.RootLength]byte
	EquivocatingIndices() []types.ValidatorIndex
}
