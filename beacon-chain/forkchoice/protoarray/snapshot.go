package protoarray

import (
	"sort"

	forkchoicetypes "github.com/sextantlabs/sextant/beacon-chain/forkchoice/types"
	fieldparams "github.com/sextantlabs/sextant/config/fieldparams"
	types "github.com/sextantlabs/sextant/consensus-types/primitives"
	elasticlist "github.com/sextantlabs/sextant/container/elastic-list"
)

// Snapshot is the versioned wire form of the whole fork choice state, used
// for checkpoint sync and restart. Encoding and decoding round-trip exactly:
// decoding an encoded snapshot yields an equal snapshot.
type Snapshot struct {
	Votes                      []*SnapshotVote
	Balances                   []uint64
	PruneThreshold             uint64
	JustifiedCheckpoint        *forkchoicetypes.Checkpoint
	FinalizedCheckpoint        *forkchoicetypes.Checkpoint
	Nodes                      []*SnapshotNode
	Indices                    []*SnapshotIndex
	PreviousProposerBoostRoot  [fieldparams.RootLength]byte
	PreviousProposerBoostScore uint64
}

// SnapshotVote is one validator's double buffered vote in wire form.
type SnapshotVote struct {
	CurrentRoot [fieldparams.RootLength]byte
	NextRoot    [fieldparams.RootLength]byte
	NextEpoch   types.Epoch
}

// SnapshotNode is one DAG node in the current wire schema. The justified and
// finalized checkpoints are required, the unrealized ones are optional.
type SnapshotNode struct {
	Slot                          types.Slot
	Root                          [fieldparams.RootLength]byte
	StateRoot                     [fieldparams.RootLength]byte
	Parent                        uint64
	JustifiedCheckpoint           *forkchoicetypes.Checkpoint
	FinalizedCheckpoint           *forkchoicetypes.Checkpoint
	UnrealizedJustifiedCheckpoint *forkchoicetypes.Checkpoint
	UnrealizedFinalizedCheckpoint *forkchoicetypes.Checkpoint
	Weight                        uint64
	BestChild                     uint64
	BestDescendant                uint64
	Status                        ExecutionStatus
	PayloadHash                   [fieldparams.PayloadHashLength]byte
}

// SnapshotIndex is one entry of the root to node index mapping.
type SnapshotIndex struct {
	Root  [fieldparams.RootLength]byte
	Index uint64
}

// LegacySnapshot is the older wire schema. Its node encodes the justified and
// finalized checkpoints as optionals and has no unrealized checkpoint fields.
// It survives only to be upgraded, new snapshots are never written in this
// schema.
type LegacySnapshot struct {
	Votes                      []*SnapshotVote
	Balances                   []uint64
	PruneThreshold             uint64
	JustifiedCheckpoint        *forkchoicetypes.Checkpoint
	FinalizedCheckpoint        *forkchoicetypes.Checkpoint
	Nodes                      []*LegacySnapshotNode
	Indices                    []*SnapshotIndex
	PreviousProposerBoostRoot  [fieldparams.RootLength]byte
	PreviousProposerBoostScore uint64
}

// LegacySnapshotNode is one DAG node in the legacy wire schema.
type LegacySnapshotNode struct {
	Slot                types.Slot
	Root                [fieldparams.RootLength]byte
	StateRoot           [fieldparams.RootLength]byte
	Parent              uint64
	JustifiedCheckpoint *forkchoicetypes.Checkpoint
	FinalizedCheckpoint *forkchoicetypes.Checkpoint
	Weight              uint64
	BestChild           uint64
	BestDescendant      uint64
	Status              ExecutionStatus
	PayloadHash         [fieldparams.PayloadHashLength]byte
}

// Upgrade converts a legacy snapshot into the current schema, one node at a
// time. A legacy node without a justified or finalized checkpoint cannot be
// represented in the current schema and fails the whole conversion.
func (ls *LegacySnapshot) Upgrade() (*Snapshot, error) {
	nodes := make([]*SnapshotNode, 0, len(ls.Nodes))
	for _, n := range ls.Nodes {
		if n.JustifiedCheckpoint == nil {
			return nil, ErrMissingJustifiedCheckpoint
		}
		if n.FinalizedCheckpoint == nil {
			return nil, ErrMissingFinalizedCheckpoint
		}
		nodes = append(nodes, &SnapshotNode{
			Slot:                n.Slot,
			Root:                n.Root,
			StateRoot:           n.StateRoot,
			Parent:              n.Parent,
			JustifiedCheckpoint: copyCheckpoint(n.JustifiedCheckpoint),
			FinalizedCheckpoint: copyCheckpoint(n.FinalizedCheckpoint),
			Weight:              n.Weight,
			BestChild:           n.BestChild,
			BestDescendant:      n.BestDescendant,
			Status:              n.Status,
			PayloadHash:         n.PayloadHash,
		})
	}
	return &Snapshot{
		Votes:                      ls.Votes,
		Balances:                   ls.Balances,
		PruneThreshold:             ls.PruneThreshold,
		JustifiedCheckpoint:        copyCheckpoint(ls.JustifiedCheckpoint),
		FinalizedCheckpoint:        copyCheckpoint(ls.FinalizedCheckpoint),
		Nodes:                      nodes,
		Indices:                    ls.Indices,
		PreviousProposerBoostRoot:  ls.PreviousProposerBoostRoot,
		PreviousProposerBoostScore: ls.PreviousProposerBoostScore,
	}, nil
}

// ToSnapshot captures the whole fork choice state in wire form.
func (f *ForkChoice) ToSnapshot() *Snapshot {
	f.votesLock.RLock()
	defer f.votesLock.RUnlock()
	s := f.store
	s.nodesLock.RLock()
	defer s.nodesLock.RUnlock()
	s.proposerBoostLock.RLock()
	defer s.proposerBoostLock.RUnlock()

	votes := make([]*SnapshotVote, 0, f.votes.Len())
	for _, v := range f.votes.Slice() {
		votes = append(votes, &SnapshotVote{
			CurrentRoot: v.currentRoot,
			NextRoot:    v.nextRoot,
			NextEpoch:   v.nextEpoch,
		})
	}

	nodes := make([]*SnapshotNode, 0, len(s.nodes))
	for _, n := range s.nodes {
		nodes = append(nodes, &SnapshotNode{
			Slot:                          n.slot,
			Root:                          n.root,
			StateRoot:                     n.stateRoot,
			Parent:                        n.parent,
			JustifiedCheckpoint:           copyCheckpoint(n.justifiedCheckpoint),
			FinalizedCheckpoint:           copyCheckpoint(n.finalizedCheckpoint),
			UnrealizedJustifiedCheckpoint: copyCheckpoint(n.unrealizedJustifiedCheckpoint),
			UnrealizedFinalizedCheckpoint: copyCheckpoint(n.unrealizedFinalizedCheckpoint),
			Weight:                        n.weight,
			BestChild:                     n.bestChild,
			BestDescendant:                n.bestDescendant,
			Status:                        n.status,
			PayloadHash:                   n.payloadHash,
		})
	}

	indices := make([]*SnapshotIndex, 0, len(s.nodesIndices))
	for root, index := range s.nodesIndices {
		indices = append(indices, &SnapshotIndex{Root: root, Index: index})
	}
	sort.Slice(indices, func(i, j int) bool { return indices[i].Index < indices[j].Index })

	balances := make([]uint64, len(f.balances.effectiveBalances))
	copy(balances, f.balances.effectiveBalances)

	return &Snapshot{
		Votes:                      votes,
		Balances:                   balances,
		PruneThreshold:             s.pruneThreshold,
		JustifiedCheckpoint:        copyCheckpoint(s.justifiedCheckpoint),
		FinalizedCheckpoint:        copyCheckpoint(s.finalizedCheckpoint),
		Nodes:                      nodes,
		Indices:                    indices,
		PreviousProposerBoostRoot:  s.previousProposerBoostRoot,
		PreviousProposerBoostScore: s.previousProposerBoostScore,
	}
}

// FromSnapshot rebuilds a live fork choice instance from wire form. The index
// mapping is validated against the node list: every index has to resolve and
// no root may appear twice.
func FromSnapshot(snap *Snapshot) (*ForkChoice, error) {
	if snap.JustifiedCheckpoint == nil {
		return nil, ErrMissingJustifiedCheckpoint
	}
	if snap.FinalizedCheckpoint == nil {
		return nil, ErrMissingFinalizedCheckpoint
	}
	if len(snap.Indices) != len(snap.Nodes) {
		return nil, ErrInvalidNodeIndex
	}

	nodes := make([]*Node, 0, len(snap.Nodes))
	for _, n := range snap.Nodes {
		if n.JustifiedCheckpoint == nil {
			return nil, ErrMissingJustifiedCheckpoint
		}
		if n.FinalizedCheckpoint == nil {
			return nil, ErrMissingFinalizedCheckpoint
		}
		nodes = append(nodes, &Node{
			slot:                          n.Slot,
			root:                          n.Root,
			stateRoot:                     n.StateRoot,
			parent:                        n.Parent,
			justifiedCheckpoint:           copyCheckpoint(n.JustifiedCheckpoint),
			finalizedCheckpoint:           copyCheckpoint(n.FinalizedCheckpoint),
			unrealizedJustifiedCheckpoint: copyCheckpoint(n.UnrealizedJustifiedCheckpoint),
			unrealizedFinalizedCheckpoint: copyCheckpoint(n.UnrealizedFinalizedCheckpoint),
			weight:                        n.Weight,
			bestChild:                     n.BestChild,
			bestDescendant:                n.BestDescendant,
			status:                        n.Status,
			payloadHash:                   n.PayloadHash,
		})
	}

	nodesIndices := make(map[[fieldparams.RootLength]byte]uint64, len(snap.Indices))
	for _, entry := range snap.Indices {
		if entry.Index >= uint64(len(nodes)) {
			return nil, ErrInvalidNodeIndex
		}
		if _, ok := nodesIndices[entry.Root]; ok {
			return nil, ErrInvalidNodeIndex
		}
		nodesIndices[entry.Root] = entry.Index
	}

	balances, err := NewJustifiedBalances(snap.Balances)
	if err != nil {
		return nil, err
	}

	votes := make([]Vote, 0, len(snap.Votes))
	for _, v := range snap.Votes {
		votes = append(votes, Vote{
			currentRoot: v.CurrentRoot,
			nextRoot:    v.NextRoot,
			nextEpoch:   v.NextEpoch,
		})
	}

	s := &Store{
		justifiedCheckpoint:        copyCheckpoint(snap.JustifiedCheckpoint),
		finalizedCheckpoint:        copyCheckpoint(snap.FinalizedCheckpoint),
		pruneThreshold:             snap.PruneThreshold,
		previousProposerBoostRoot:  snap.PreviousProposerBoostRoot,
		previousProposerBoostScore: snap.PreviousProposerBoostScore,
		nodes:                      nodes,
		nodesIndices:               nodesIndices,
		canonicalNodes:             make(map[[fieldparams.RootLength]byte]bool),
	}
	return &ForkChoice{
		store:               s,
		votes:               elasticlist.FromSlice(votes),
		balances:            balances,
		equivocatingIndices: make(map[types.ValidatorIndex]bool),
	}, nil
}
