package protoarray

import (
	"context"

	"github.com/sextantlabs/sextant/beacon-chain/forkchoice"
	forkchoicetypes "github.com/sextantlabs/sextant/beacon-chain/forkchoice/types"
	fieldparams "github.com/sextantlabs/sextant/config/fieldparams"
	"github.com/sextantlabs/sextant/config/params"
	types "github.com/sextantlabs/sextant/consensus-types/primitives"
	elasticlist "github.com/sextantlabs/sextant/container/elastic-list"
	"go.opencensus.io/trace"
)

var _ forkchoice.ForkChoicer = (*ForkChoice)(nil)

// New initializes a fork choice store with the given justified and finalized
// checkpoints. The graph starts empty, the caller inserts the anchor block
// through ProcessBlock before the first head query.
func New(justifiedCheckpoint, finalizedCheckpoint *forkchoicetypes.Checkpoint) *ForkChoice {
	s := &Store{
		justifiedCheckpoint: copyCheckpoint(justifiedCheckpoint),
		finalizedCheckpoint: copyCheckpoint(finalizedCheckpoint),
		pruneThreshold:      defaultPruneThreshold,
		nodes:               make([]*Node, 0),
		nodesIndices:        make(map[[fieldparams.RootLength]byte]uint64),
		canonicalNodes:      make(map[[fieldparams.RootLength]byte]bool),
	}

	return &ForkChoice{
		store:               s,
		votes:               elasticlist.New[Vote](),
		balances:            &JustifiedBalances{effectiveBalances: []uint64{}},
		equivocatingIndices: make(map[types.ValidatorIndex]bool),
	}
}

// ProcessBlock registers a verified block with fork choice. The caller has
// already validated signatures and executed the state transition, fork choice
// only checks the parent linkage before inserting the node.
func (f *ForkChoice) ProcessBlock(ctx context.Context, blk *forkchoicetypes.Block) error {
	ctx, span := trace.StartSpan(ctx, "protoArrayForkChoice.ProcessBlock")
	defer span.End()

	if blk == nil {
		return ErrNilBlock
	}
	if blk.JustifiedCheckpoint == nil {
		return ErrMissingJustifiedCheckpoint
	}
	if blk.FinalizedCheckpoint == nil {
		return ErrMissingFinalizedCheckpoint
	}
	return f.store.insert(ctx, blk)
}

// ProcessAttestation records the block root voted for by the given validator
// indices at the given target epoch. A vote only ever moves forward in epoch,
// stale and duplicate attestations are accepted and ignored. The weight of
// the vote lands on the next head query.
func (f *ForkChoice) ProcessAttestation(ctx context.Context, validatorIndices []uint64, blockRoot [fieldparams.RootLength]byte, targetEpoch types.Epoch) {
	_, span := trace.StartSpan(ctx, "protoArrayForkChoice.ProcessAttestation")
	defer span.End()

	f.votesLock.Lock()
	defer f.votesLock.Unlock()

	for _, index := range validatorIndices {
		vote := f.votes.At(index)
		// A validator that has never voted has a zero vote tracker, its first
		// attestation is accepted whatever the target epoch.
		newVote := vote.nextEpoch == 0 && vote.nextRoot == params.BeaconConfig().ZeroHash
		if newVote || targetEpoch > vote.nextEpoch {
			vote.nextRoot = blockRoot
			vote.nextEpoch = targetEpoch
		}
	}

	processedAttestationCount.Inc()
}

// InsertSlashedIndex marks a validator as having equivocated. Its standing
// vote weight is removed on the next head query and its future attestations
// no longer count.
func (f *ForkChoice) InsertSlashedIndex(_ context.Context, index types.ValidatorIndex) {
	f.votesLock.Lock()
	defer f.votesLock.Unlock()
	f.equivocatingIndices[index] = true
}

// Head computes the fork choice head: it folds the vote and balance movement
// since the last call into per node weight deltas, reverses the previously
// applied proposer boost, applies the new boost when the boost root's block
// belongs to the ongoing slot, propagates the deltas through the graph and
// walks the best descendant pointers from the justified root.
func (f *ForkChoice) Head(
	ctx context.Context,
	currentSlot types.Slot,
	justifiedCheckpoint, finalizedCheckpoint *forkchoicetypes.Checkpoint,
	justifiedStateBalances []uint64,
	proposerBoostRoot [fieldparams.RootLength]byte,
) ([32]byte, error) {
	ctx, span := trace.StartSpan(ctx, "protoArrayForkChoice.Head")
	defer span.End()
	calledHeadCount.Inc()

	f.votesLock.Lock()
	defer f.votesLock.Unlock()

	if justifiedCheckpoint == nil {
		return [32]byte{}, ErrMissingJustifiedCheckpoint
	}
	if finalizedCheckpoint == nil {
		return [32]byte{}, ErrMissingFinalizedCheckpoint
	}

	newBalances, err := NewJustifiedBalances(justifiedStateBalances)
	if err != nil {
		return [32]byte{}, err
	}

	s := f.store
	s.nodesLock.Lock()
	defer s.nodesLock.Unlock()

	deltas, err := computeDeltas(ctx, s.nodesIndices, f.votes, f.balances.effectiveBalances, newBalances.effectiveBalances, f.equivocatingIndices)
	if err != nil {
		return [32]byte{}, err
	}

	// Only a block proposed in the ongoing slot may carry the proposer boost,
	// and only until the next head query.
	s.proposerBoostLock.Lock()
	s.proposerBoostRoot = [32]byte{}
	if proposerBoostRoot != params.BeaconConfig().ZeroHash {
		if index, ok := s.nodesIndices[proposerBoostRoot]; ok && s.nodes[index].slot == currentSlot {
			s.proposerBoostRoot = proposerBoostRoot
		}
	}
	s.proposerBoostLock.Unlock()

	if err := s.applyWeightChanges(ctx, justifiedCheckpoint, finalizedCheckpoint, newBalances, deltas, currentSlot); err != nil {
		return [32]byte{}, err
	}
	f.balances = newBalances

	return s.head(ctx, justifiedCheckpoint.Root, currentSlot)
}

// HeadFromStore pulls the current slot, checkpoints, balances, proposer boost
// root and equivocating set from the given store and runs a head query on
// them. Checkpoint monotonicity is the store's responsibility and is not
// re-validated here.
func (f *ForkChoice) HeadFromStore(ctx context.Context, st forkchoice.Storer) ([32]byte, error) {
	ctx, span := trace.StartSpan(ctx, "protoArrayForkChoice.HeadFromStore")
	defer span.End()

	for _, index := range st.EquivocatingIndices() {
		f.InsertSlashedIndex(ctx, index)
	}
	return f.Head(
		ctx,
		st.CurrentSlot(),
		st.JustifiedCheckpoint(),
		st.FinalizedCheckpoint(),
		st.JustifiedBalances(),
		st.ProposerBoostRoot(),
	)
}
