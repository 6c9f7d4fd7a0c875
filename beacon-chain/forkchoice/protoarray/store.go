package protoarray

import (
	"bytes"
	"context"

	forkchoicetypes "github.com/sextantlabs/sextant/beacon-chain/forkchoice/types"
	"github.com/sextantlabs/sextant/config/params"
	types "github.com/sextantlabs/sextant/consensus-types/primitives"
	mathutil "github.com/sextantlabs/sextant/math"
	"go.opencensus.io/trace"
)

// lastHeadRoot is the most recent head root reported by head, used to observe
// when the canonical head changes between calls.
var lastHeadRoot [32]byte

// PruneThreshold of fork choice store.
func (s *Store) PruneThreshold() uint64 {
	return s.pruneThreshold
}

// head starts from justified root and then follows the best descendant links
// to find the best block for head. The caller must hold the nodes lock.
func (s *Store) head(ctx context.Context, justifiedRoot [32]byte, currentSlot types.Slot) ([32]byte, error) {
	ctx, span := trace.StartSpan(ctx, "protoArrayForkChoice.head")
	defer span.End()

	// Justified root has to be known.
	justifiedIndex, ok := s.nodesIndices[justifiedRoot]
	if !ok {
		return [32]byte{}, ErrUnknownJustifiedRoot
	}

	// If the justified index is larger than the length of the node list, return an error.
	if justifiedIndex >= uint64(len(s.nodes)) {
		return [32]byte{}, ErrInvalidJustifiedIndex
	}

	justifiedNode := s.nodes[justifiedIndex]
	if justifiedNode.status == ExecutionInvalid {
		return [32]byte{}, ErrInvalidJustifiedPayloadStatus
	}

	bestDescendantIndex := justifiedNode.bestDescendant
	// If the justified node doesn't have a best descendant,
	// the best node is itself.
	if bestDescendantIndex == NonExistentNode {
		bestDescendantIndex = justifiedIndex
	}
	if bestDescendantIndex >= uint64(len(s.nodes)) {
		return [32]byte{}, ErrInvalidBestDescendantIndex
	}
	bestNode := s.nodes[bestDescendantIndex]

	if !s.viableForHead(bestNode, currentSlot) {
		return [32]byte{}, &InvalidBestNodeError{
			CurrentSlot:             currentSlot,
			StartRoot:               justifiedRoot,
			JustifiedCheckpoint:     copyCheckpoint(s.justifiedCheckpoint),
			FinalizedCheckpoint:     copyCheckpoint(s.finalizedCheckpoint),
			HeadRoot:                bestNode.root,
			HeadSlot:                bestNode.slot,
			HeadWeight:              bestNode.weight,
			HeadJustifiedCheckpoint: copyCheckpoint(bestNode.justifiedCheckpoint),
			HeadFinalizedCheckpoint: copyCheckpoint(bestNode.finalizedCheckpoint),
		}
	}

	// Update metrics.
	if bestNode.root != lastHeadRoot {
		headChangesCount.Inc()
		headSlotNumber.Set(float64(bestNode.slot))
		lastHeadRoot = bestNode.root
	}

	// Update canonical mapping given the head root.
	if err := s.updateCanonicalNodes(ctx, bestNode.root); err != nil {
		return [32]byte{}, err
	}

	return bestNode.root, nil
}

// updateCanonicalNodes updates the canonical nodes mapping given the input head root. The stale
// canonical chain past the common ancestor of the old and the new head is unmarked.
func (s *Store) updateCanonicalNodes(ctx context.Context, root [32]byte) error {
	ctx, span := trace.StartSpan(ctx, "protoArrayForkChoice.updateCanonicalNodes")
	defer span.End()

	i := s.nodesIndices[root]
	var newCanonicalRoots [][32]byte
	var n *Node
	for i != NonExistentNode {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		n = s.nodes[i]
		// If the node is already in the canonical mapping then the rest of its
		// ancestors are canonical as well. Exit early.
		if s.canonicalNodes[n.root] {
			break
		}

		// Set the node to canonical. Repeat until the parent index is undefined.
		newCanonicalRoots = append(newCanonicalRoots, n.root)
		i = n.parent
	}

	// i holds the index of the fork node between the old and the new canonical
	// chain. Everything marked canonical past it belongs to the old chain.
	if i != NonExistentNode {
		lastCanonicalSlot := s.nodes[i].slot
		for r := range s.canonicalNodes {
			idx, ok := s.nodesIndices[r]
			if !ok {
				delete(s.canonicalNodes, r)
				continue
			}
			if s.nodes[idx].slot > lastCanonicalSlot {
				delete(s.canonicalNodes, r)
			}
		}
	}

	for _, r := range newCanonicalRoots {
		s.canonicalNodes[r] = true
	}
	return nil
}

// insert registers a new block node to the fork choice store's node list.
// It then updates the new node's parent with the best child and descendant node.
func (s *Store) insert(ctx context.Context, blk *forkchoicetypes.Block) error {
	ctx, span := trace.StartSpan(ctx, "protoArrayForkChoice.insert")
	defer span.End()

	s.nodesLock.Lock()
	defer s.nodesLock.Unlock()

	// Return if the block has been inserted into Store before.
	if _, ok := s.nodesIndices[blk.Root]; ok {
		return nil
	}

	index := uint64(len(s.nodes))
	parentIndex, ok := s.nodesIndices[blk.ParentRoot]
	if !ok {
		// Only the origin node may come without a known parent.
		if len(s.nodes) > 0 {
			return ErrUnknownParent
		}
		parentIndex = NonExistentNode
	}
	if parentIndex != NonExistentNode && s.nodes[parentIndex].status == ExecutionInvalid {
		return ErrInvalidParentPayloadStatus
	}

	// A block from before the execution upgrade has no payload to verify.
	status := ExecutionOptimistic
	if blk.PayloadHash == params.BeaconConfig().ZeroHash {
		status = ExecutionIrrelevant
	}

	n := &Node{
		slot:                          blk.Slot,
		root:                          blk.Root,
		stateRoot:                     blk.StateRoot,
		parent:                        parentIndex,
		justifiedCheckpoint:           copyCheckpoint(blk.JustifiedCheckpoint),
		finalizedCheckpoint:           copyCheckpoint(blk.FinalizedCheckpoint),
		unrealizedJustifiedCheckpoint: copyCheckpoint(blk.UnrealizedJustifiedCheckpoint),
		unrealizedFinalizedCheckpoint: copyCheckpoint(blk.UnrealizedFinalizedCheckpoint),
		bestChild:                     NonExistentNode,
		bestDescendant:                NonExistentNode,
		weight:                        0,
		status:                        status,
		payloadHash:                   blk.PayloadHash,
	}

	s.nodesIndices[blk.Root] = index
	s.nodes = append(s.nodes, n)

	// Update the parent's best child and descendant if the parent is known.
	// The block's own slot stands in for the wall clock, a block can not be
	// processed from the future.
	if n.parent != NonExistentNode {
		if err := s.updateBestChildAndDescendant(parentIndex, index, blk.Slot); err != nil {
			return err
		}
	}

	// Update metrics.
	processedBlockCount.Inc()
	nodeCount.Set(float64(len(s.nodes)))

	return nil
}

// applyWeightChanges iterates backwards through the nodes in store,
// applying the delta of each node to its weight and propagating the same delta to its parent.
// The proposer boost recorded by the previous call is reversed and the current
// one folded in before any weight lands. The input checkpoints are adopted as
// the store's new view, recomputing the best child and descendant of each node.
func (s *Store) applyWeightChanges(
	ctx context.Context,
	justifiedCheckpoint, finalizedCheckpoint *forkchoicetypes.Checkpoint,
	newBalances *JustifiedBalances,
	delta []int,
	currentSlot types.Slot,
) error {
	_, span := trace.StartSpan(ctx, "protoArrayForkChoice.applyWeightChanges")
	defer span.End()

	// The length of the nodes can not be different than length of the delta.
	if len(s.nodes) != len(delta) {
		return ErrInvalidDeltaLength
	}
	if justifiedCheckpoint == nil || finalizedCheckpoint == nil {
		return ErrNilCheckpoint
	}

	// A finalized epoch can never regress and the finalized root can not move
	// within the same epoch.
	if s.finalizedCheckpoint != nil {
		if finalizedCheckpoint.Epoch < s.finalizedCheckpoint.Epoch {
			return ErrRevertedFinalizedEpoch
		}
		if finalizedCheckpoint.Epoch == s.finalizedCheckpoint.Epoch && finalizedCheckpoint.Root != s.finalizedCheckpoint.Root {
			return ErrInvalidFinalizedRootChange
		}
	}
	s.justifiedCheckpoint = copyCheckpoint(justifiedCheckpoint)
	s.finalizedCheckpoint = copyCheckpoint(finalizedCheckpoint)

	// Proposer score defaults to 0.
	proposerScore := uint64(0)

	s.proposerBoostLock.Lock()
	// Iterate backwards through all index to node in store.
	for i := len(s.nodes) - 1; i >= 0; i-- {
		n := s.nodes[i]

		// There is no need to adjust the balances or manage parent of the zero hash, it
		// is an alias to the genesis block.
		if n.root == params.BeaconConfig().ZeroHash {
			continue
		}

		nodeDelta := delta[i]

		if n.status == ExecutionInvalid {
			// An invalidated payload sheds its entire weight so the negative
			// delta reaches every ancestor that counted it.
			w, err := mathutil.Int(n.weight)
			if err != nil {
				s.proposerBoostLock.Unlock()
				return ErrDeltaOverflow
			}
			nodeDelta = -w
		} else {
			// If the proposer boost was previously applied to this node, remove
			// that boost from the delta before the new weights land.
			if s.previousProposerBoostRoot != params.BeaconConfig().ZeroHash && s.previousProposerBoostRoot == n.root {
				previousScore, err := mathutil.Int(s.previousProposerBoostScore)
				if err != nil {
					s.proposerBoostLock.Unlock()
					return ErrProposerBoostOverflow
				}
				nodeDelta -= previousScore
			}

			// If the node is the current proposer boost root, apply the boost
			// to its delta value.
			if s.proposerBoostRoot != params.BeaconConfig().ZeroHash && s.proposerBoostRoot == n.root {
				score, err := computeProposerBoostScore(newBalances)
				if err != nil {
					s.proposerBoostLock.Unlock()
					return err
				}
				proposerScore = score
				iScore, err := mathutil.Int(score)
				if err != nil {
					s.proposerBoostLock.Unlock()
					return ErrProposerBoostOverflow
				}
				nodeDelta += iScore
			}
		}

		if n.status == ExecutionInvalid {
			n.weight = 0
		} else if nodeDelta < 0 {
			// A node's weight can not be negative but the delta can be negative.
			if int(n.weight)+nodeDelta < 0 {
				s.proposerBoostLock.Unlock()
				return ErrNodeDeltaUnderflow
			}
			n.weight -= uint64(-nodeDelta)
		} else {
			weight, err := mathutil.Add64(n.weight, uint64(nodeDelta))
			if err != nil {
				s.proposerBoostLock.Unlock()
				return ErrDeltaOverflow
			}
			n.weight = weight
		}

		// Back-propagate the delta to the parent so it is accounted for when
		// the parent's own index is reached.
		if n.parent != NonExistentNode {
			// Protection against node parent index out of bound. This should not happen.
			if int(n.parent) >= len(delta) {
				s.proposerBoostLock.Unlock()
				return ErrInvalidParentDelta
			}
			delta[n.parent] += nodeDelta
		}
	}

	// Set the previous boosted root and score for the next reversal.
	s.previousProposerBoostRoot = s.proposerBoostRoot
	s.previousProposerBoostScore = proposerScore
	s.proposerBoostLock.Unlock()

	// Back to front, update the nodes with the new weights regarding the best child and descendant.
	for i := len(s.nodes) - 1; i >= 0; i-- {
		n := s.nodes[i]
		if n.parent != NonExistentNode {
			if err := s.updateBestChildAndDescendant(n.parent, uint64(i), currentSlot); err != nil {
				return err
			}
		}
	}

	return nil
}

// prune prunes the store with the new finalized root. The tree is only
// pruned if the input finalized root is deep enough in the store to be
// worth the cost of re-basing every index.
func (s *Store) prune(ctx context.Context, finalizedRoot [32]byte) error {
	ctx, span := trace.StartSpan(ctx, "protoArrayForkChoice.prune")
	defer span.End()

	s.nodesLock.Lock()
	defer s.nodesLock.Unlock()

	// The node would have seen finalized root or else it
	// wouldn't be able to prune it.
	finalizedIndex, ok := s.nodesIndices[finalizedRoot]
	if !ok {
		return ErrUnknownFinalizedRoot
	}

	// The number of the nodes has not met the prune threshold.
	// Pruning at small numbers incurs more cost than benefit.
	if finalizedIndex < s.pruneThreshold {
		return nil
	}

	// Remove the key/values from indices mapping on to be pruned nodes.
	// These nodes are before the finalized index.
	for i := uint64(0); i < finalizedIndex; i++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if i >= uint64(len(s.nodes)) {
			return ErrInvalidNodeIndex
		}
		delete(s.nodesIndices, s.nodes[i].root)
		delete(s.canonicalNodes, s.nodes[i].root)
	}

	// Discard all the nodes before the finalized index.
	s.nodes = s.nodes[finalizedIndex:]

	// Re-base the root to index mapping onto the pruned layout.
	for k, v := range s.nodesIndices {
		index, err := mathutil.Sub64(v, finalizedIndex)
		if err != nil {
			return ErrIndexOverflow
		}
		s.nodesIndices[k] = index
	}

	// Re-base parent, best child and best descendant indices. A parent from
	// the pruned prefix no longer exists.
	for i, node := range s.nodes {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if node.parent != NonExistentNode {
			if node.parent < finalizedIndex {
				node.parent = NonExistentNode
			} else {
				node.parent -= finalizedIndex
			}
		}
		if node.bestChild != NonExistentNode {
			bestChild, err := mathutil.Sub64(node.bestChild, finalizedIndex)
			if err != nil {
				return ErrIndexOverflow
			}
			node.bestChild = bestChild
		}
		if node.bestDescendant != NonExistentNode {
			bestDescendant, err := mathutil.Sub64(node.bestDescendant, finalizedIndex)
			if err != nil {
				return ErrIndexOverflow
			}
			node.bestDescendant = bestDescendant
		}
		s.nodes[i] = node
	}

	prunedCount.Inc()
	nodeCount.Set(float64(len(s.nodes)))

	log.WithField("finalizedRoot", finalizedRoot).WithField("count", finalizedIndex).Debug("Pruned nodes below the finalized root")
	return nil
}

// updateBestChildAndDescendant updates parent node's best child and descendant.
// It looks at the input parent node and input child node and potentially modifies parent's best
// child and best descendant indices.
// There are four outcomes:
// - The child is already the best child, but it's now invalid due to a FFG change and should be removed.
// - The child is already the best child and the parent is updated with the new best descendant.
// - The child is not the best child but becomes the best child.
// - The child is not the best child and does not become the best child.
func (s *Store) updateBestChildAndDescendant(parentIndex, childIndex uint64, currentSlot types.Slot) error {
	// Protection against parent index out of bound, this should not happen.
	if parentIndex >= uint64(len(s.nodes)) {
		return ErrInvalidNodeIndex
	}
	parent := s.nodes[parentIndex]

	// Protection against child index out of bound, again this should not happen.
	if childIndex >= uint64(len(s.nodes)) {
		return ErrInvalidNodeIndex
	}
	child := s.nodes[childIndex]

	// Is the child viable to become head? Based on justification and finalization rules.
	childLeadsToViableHead, err := s.leadsToViableHead(child, currentSlot)
	if err != nil {
		return err
	}

	// Define 3 variables for the 3 outcomes mentioned above. This is to
	// set `parent.bestChild` and `parent.bestDescendant` to. These
	// aliases are to assist readability.
	changeToNone := []uint64{NonExistentNode, NonExistentNode}
	bestDescendant := child.bestDescendant
	if bestDescendant == NonExistentNode {
		bestDescendant = childIndex
	}
	changeToChild := []uint64{childIndex, bestDescendant}
	noChange := []uint64{parent.bestChild, parent.bestDescendant}
	var newParentChild []uint64

	if parent.bestChild != NonExistentNode {
		if parent.bestChild == childIndex && !childLeadsToViableHead {
			// If the child is already the best child of the parent, but it's not viable for head,
			// we should remove it. (Outcome 1)
			newParentChild = changeToNone
		} else if parent.bestChild == childIndex {
			// If the child is already the best child of the parent, set it again to ensure the best
			// descendant of the parent is updated. (Outcome 2)
			newParentChild = changeToChild
		} else {
			// Protection against parent's best child going out of bound.
			if parent.bestChild >= uint64(len(s.nodes)) {
				return ErrInvalidBestDescendantIndex
			}
			bestChild := s.nodes[parent.bestChild]
			// Is the current parent's best child viable to be head? Based on justification and finalization rules.
			bestChildLeadsToViableHead, err := s.leadsToViableHead(bestChild, currentSlot)
			if err != nil {
				return err
			}

			if childLeadsToViableHead && !bestChildLeadsToViableHead {
				// The child leads to a viable head, but the current parent's best child doesn't.
				newParentChild = changeToChild
			} else if !childLeadsToViableHead && bestChildLeadsToViableHead {
				// The child doesn't lead to a viable head, the current parent's best child does.
				newParentChild = noChange
			} else if child.weight == bestChild.weight {
				// Tie-breaker of equal weights by root.
				if bytes.Compare(child.root[:], bestChild.root[:]) > 0 {
					newParentChild = changeToChild
				} else {
					newParentChild = noChange
				}
			} else {
				// Choose the winner by weight.
				if child.weight > bestChild.weight {
					newParentChild = changeToChild
				} else {
					newParentChild = noChange
				}
			}
		}
	} else {
		if childLeadsToViableHead {
			// If the parent doesn't have a best child and the child is viable.
			newParentChild = changeToChild
		} else {
			// If the parent doesn't have a best child and the child is not viable.
			newParentChild = noChange
		}
	}

	// Update parent with the outcome.
	parent.bestChild = newParentChild[0]
	parent.bestDescendant = newParentChild[1]
	s.nodes[parentIndex] = parent

	return nil
}
