package protoarray

import (
	"context"

	forkchoicetypes "github.com/sextantlabs/sextant/beacon-chain/forkchoice/types"
	fieldparams "github.com/sextantlabs/sextant/config/fieldparams"
	types "github.com/sextantlabs/sextant/consensus-types/primitives"
	"go.opencensus.io/trace"
)

// HasNode returns true if the node with the given root exists in the store.
func (f *ForkChoice) HasNode(root [fieldparams.RootLength]byte) bool {
	f.store.nodesLock.RLock()
	defer f.store.nodesLock.RUnlock()

	_, ok := f.store.nodesIndices[root]
	return ok
}

// HasParent returns true if the node with the given root has a tracked parent.
func (f *ForkChoice) HasParent(root [fieldparams.RootLength]byte) bool {
	f.store.nodesLock.RLock()
	defer f.store.nodesLock.RUnlock()

	index, ok := f.store.nodesIndices[root]
	if !ok || index >= uint64(len(f.store.nodes)) {
		return false
	}
	return f.store.nodes[index].parent != NonExistentNode
}

// NodeCount returns the current number of nodes in the store.
func (f *ForkChoice) NodeCount() int {
	f.store.nodesLock.RLock()
	defer f.store.nodesLock.RUnlock()
	return len(f.store.nodes)
}

// Weight returns the accumulated attestation weight of the node with the
// given root.
func (f *ForkChoice) Weight(root [fieldparams.RootLength]byte) (uint64, error) {
	f.store.nodesLock.RLock()
	defer f.store.nodesLock.RUnlock()

	index, ok := f.store.nodesIndices[root]
	if !ok || index >= uint64(len(f.store.nodes)) {
		return 0, ErrNilNode
	}
	return f.store.nodes[index].weight, nil
}

// IsOptimistic returns true if the node with the given root has not yet had
// its execution payload fully validated.
func (f *ForkChoice) IsOptimistic(root [fieldparams.RootLength]byte) (bool, error) {
	f.store.nodesLock.RLock()
	defer f.store.nodesLock.RUnlock()

	index, ok := f.store.nodesIndices[root]
	if !ok || index >= uint64(len(f.store.nodes)) {
		return false, ErrNilNode
	}
	return f.store.nodes[index].status == ExecutionOptimistic, nil
}

// IsCanonical returns true if the given root is part of the canonical chain
// computed by the last head query.
func (f *ForkChoice) IsCanonical(root [fieldparams.RootLength]byte) bool {
	f.store.nodesLock.RLock()
	defer f.store.nodesLock.RUnlock()
	return f.store.canonicalNodes[root]
}

// IsDescendant returns true if the descendant root is on the chain that runs
// through the ancestor root. A root equals itself for this purpose.
func (f *ForkChoice) IsDescendant(ancestorRoot, descendantRoot [fieldparams.RootLength]byte) bool {
	f.store.nodesLock.RLock()
	defer f.store.nodesLock.RUnlock()

	index, ok := f.store.nodesIndices[descendantRoot]
	if !ok {
		return false
	}
	for index != NonExistentNode {
		if index >= uint64(len(f.store.nodes)) {
			return false
		}
		node := f.store.nodes[index]
		if node.root == ancestorRoot {
			return true
		}
		index = node.parent
	}
	return false
}

// AncestorRoot returns the root of the ancestor of the given block at the
// given slot, walking the parent pointers.
func (f *ForkChoice) AncestorRoot(ctx context.Context, root [fieldparams.RootLength]byte, slot types.Slot) ([32]byte, error) {
	_, span := trace.StartSpan(ctx, "protoArrayForkChoice.AncestorRoot")
	defer span.End()

	f.store.nodesLock.RLock()
	defer f.store.nodesLock.RUnlock()

	index, ok := f.store.nodesIndices[root]
	if !ok {
		return [32]byte{}, ErrNilNode
	}
	node := f.store.nodes[index]
	for node.slot > slot {
		if ctx.Err() != nil {
			return [32]byte{}, ctx.Err()
		}
		if node.parent == NonExistentNode {
			return [32]byte{}, ErrInvalidParentIndex
		}
		if node.parent >= uint64(len(f.store.nodes)) {
			return [32]byte{}, ErrInvalidParentIndex
		}
		node = f.store.nodes[node.parent]
	}
	return node.root, nil
}

// LatestMessage returns the latest vote target and epoch recorded for the
// given validator. The third return is false if the validator never voted.
func (f *ForkChoice) LatestMessage(index types.ValidatorIndex) ([32]byte, types.Epoch, bool) {
	f.votesLock.RLock()
	defer f.votesLock.RUnlock()

	if int(index) >= f.votes.Len() {
		return [32]byte{}, 0, false
	}
	vote := f.votes.Get(uint64(index))
	return vote.nextRoot, vote.nextEpoch, true
}

// JustifiedCheckpoint returns the store's current justified checkpoint.
func (f *ForkChoice) JustifiedCheckpoint() *forkchoicetypes.Checkpoint {
	f.store.nodesLock.RLock()
	defer f.store.nodesLock.RUnlock()
	return copyCheckpoint(f.store.justifiedCheckpoint)
}

// FinalizedCheckpoint returns the store's current finalized checkpoint.
func (f *ForkChoice) FinalizedCheckpoint() *forkchoicetypes.Checkpoint {
	f.store.nodesLock.RLock()
	defer f.store.nodesLock.RUnlock()
	return copyCheckpoint(f.store.finalizedCheckpoint)
}

// SetPruneThreshold sets the minimum finalized backlog before a prune call
// compacts the store.
func (f *ForkChoice) SetPruneThreshold(t uint64) {
	f.store.nodesLock.Lock()
	defer f.store.nodesLock.Unlock()
	f.store.pruneThreshold = t
}

// Prune drops every node below the finalized root once the backlog exceeds
// the prune threshold. A subsequent head query returns the same root it would
// have before the prune.
func (f *ForkChoice) Prune(ctx context.Context, finalizedRoot [fieldparams.RootLength]byte) error {
	return f.store.prune(ctx, finalizedRoot)
}
